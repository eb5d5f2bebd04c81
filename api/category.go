package api

import (
	"github.com/gin-gonic/gin"

	"cautiva/models"
)

// CategoryHandler 交易类别
type CategoryHandler struct{}

// NewCategoryHandler 创建类别处理器
func NewCategoryHandler() *CategoryHandler {
	return &CategoryHandler{}
}

// CategoriesResponse 按类型分组的类别
type CategoriesResponse struct {
	Deposit []models.Category `json:"deposit"`
	Expense []models.Category `json:"expense"`
}

// List 类别目录
// @Summary 获取类别
// @Description 按交易类型返回固定的类别目录，可用 type 过滤
// @Tags 类别
// @Produce json
// @Security BearerAuth
// @Param type query string false "deposit | expense"
// @Success 200 {object} Response{data=CategoriesResponse}
// @Failure 400 {object} Response "类型错误"
// @Router /api/v1/categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	if t := c.Query("type"); t != "" {
		typ := models.TransactionType(t)
		if !typ.Valid() {
			BadRequest(c, "Tipo de transacción inválido")
			return
		}
		Success(c, models.GetCategories(typ))
		return
	}
	Success(c, CategoriesResponse{
		Deposit: models.GetCategories(models.TypeDeposit),
		Expense: models.GetCategories(models.TypeExpense),
	})
}
