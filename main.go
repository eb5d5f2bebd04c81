package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"cautiva/advisor"
	"cautiva/audit"
	"cautiva/changefeed"
	"cautiva/config"
	"cautiva/database"
	"cautiva/ledger"
	"cautiva/logging"
	"cautiva/middleware"
	"cautiva/repository"
	"cautiva/router"
	"cautiva/service"
)

// @title La Cautiva 账本 API
// @version 1.0
// @description 退休中心收支账本：余额、月度汇总、管理员记账与审计
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const version = "1.0.0"

var (
	configFile  string
	port        string
	showVersion bool
)

func init() {
	flag.StringVar(&configFile, "config", "", "外部配置文件路径（可选）")
	flag.StringVar(&configFile, "c", "", "外部配置文件路径（简写）")
	flag.StringVar(&port, "port", "", "监听端口，如: 8080 或 :8080")
	flag.StringVar(&port, "p", "", "监听端口（简写）")
	flag.BoolVar(&showVersion, "version", false, "显示版本信息")
	flag.BoolVar(&showVersion, "v", false, "显示版本信息（简写）")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println("cautiva v" + version)
		return
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logrus.WithError(err).Fatal("main.LoadConfig failed")
	}

	log := logging.SetupLogging(cfg.Log)

	// 命令行参数覆盖端口配置
	if port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		cfg.Server.Port = port
		log.WithField("port", port).Info("main.flag port override")
	}

	config.PrintConfig(cfg)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("main.run failed")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	middleware.InitJWT(cfg)

	txRepo := repository.NewTransactionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	recorder := audit.NewRecorder(auditRepo, service.NewEmailService(&cfg.Email), audit.DefaultTimeout)
	defer recorder.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var feed *changefeed.AMQPFeed
	if cfg.ChangeFeed.AMQP.Enabled {
		feed, err = changefeed.NewAMQPFeed(cfg.ChangeFeed.AMQP, txRepo)
		if err != nil {
			return fmt.Errorf("amqp feed: %w", err)
		}
		defer feed.Close()
		txRepo.OnChange(feed.Listener())
		log.WithField("instance", feed.Instance()).Info("main.amqp feed connected")
	}

	book := ledger.NewBook()
	sub, err := txRepo.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe transactions: %w", err)
	}
	defer sub.Close()

	r := router.SetupRouter(router.Deps{
		Config:       cfg,
		DB:           db,
		Logger:       log,
		Transactions: txRepo,
		Audits:       auditRepo,
		Ledger:       service.NewLedgerService(txRepo, recorder),
		Book:         book,
		Advisor:      advisor.NewClient(cfg.Advisor),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return book.Run(gctx, sub)
	})

	if feed != nil {
		g.Go(nonFatal(gctx, log, "amqp feed", feed.Run))
	}

	if cfg.ChangeFeed.Binlog.Enabled {
		watcher := changefeed.NewBinlogWatcher(cfg.ChangeFeed.Binlog, db, txRepo)
		g.Go(nonFatal(gctx, log, "binlog watcher", watcher.Run))
	}

	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":    cfg.Server.Port,
			"swagger": cfg.Server.BaseURL + "/swagger/index.html",
		}).Info("main.server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("main.server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// nonFatal 变更源只负责触发刷新，异常结束时记录日志，不影响 HTTP 服务
func nonFatal(ctx context.Context, log *logrus.Logger, name string, run func(context.Context) error) func() error {
	return func() error {
		if err := run(ctx); err != nil {
			log.WithError(err).WithField("source", name).Error("main.changefeed stopped")
		}
		return nil
	}
}
