package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"cautiva/api"
	"cautiva/config"
	_ "cautiva/docs"
	"cautiva/ledger"
	"cautiva/middleware"
	"cautiva/models"
	"cautiva/repository"
	"cautiva/service"
)

// Deps 路由依赖
type Deps struct {
	Config       *config.Config
	DB           *gorm.DB
	Logger       *logrus.Logger
	Transactions *repository.TransactionRepository
	Audits       *repository.AuditRepository
	Ledger       *service.LedgerService
	Book         *ledger.Book
	Advisor      api.Suggester
}

// SetupRouter 设置路由
func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	gin.SetMode(cfg.Server.Mode)

	log := d.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"subscribers": d.Transactions.Subscribers(),
			"book_at":     d.Book.UpdatedAt(),
		})
	})

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	loc := cfg.Ledger.Location
	authHandler := api.NewAuthHandler(cfg, d.DB)
	categoryHandler := api.NewCategoryHandler()
	transactionHandler := api.NewTransactionHandler(d.Transactions, d.Ledger)
	dashboardHandler := api.NewDashboardHandler(d.Book, d.Transactions, loc)
	advisorHandler := api.NewAdvisorHandler(d.Advisor, d.Book, d.Transactions)
	auditHandler := api.NewAuditHandler(d.Audits)
	exportHandler := api.NewExportHandler(d.Transactions, d.Audits, loc)

	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.LoginRateLimit(10, time.Minute), authHandler.Login)
		}

		// 需要认证的接口
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth())
		{
			authorized.GET("/auth/profile", authHandler.Profile)
			authorized.GET("/categories", categoryHandler.List)
			authorized.GET("/transactions", transactionHandler.List)
			authorized.GET("/transactions/stream", transactionHandler.Stream)
			authorized.GET("/dashboard", dashboardHandler.Get)
			authorized.POST("/advisor/suggest", advisorHandler.Suggest)

			// 仅管理员
			admin := authorized.Group("")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.POST("/transactions", transactionHandler.Create)
				admin.PUT("/transactions/:id", transactionHandler.Update)
				admin.DELETE("/transactions/:id", transactionHandler.Delete)
				admin.GET("/audit", auditHandler.List)
				admin.DELETE("/audit/:id", auditHandler.Delete)
				admin.GET("/export/excel", exportHandler.ExportExcel)
			}
		}
	}

	return r
}

// CORSMiddleware CORS 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
