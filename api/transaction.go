package api

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cautiva/logging"
	"cautiva/middleware"
	"cautiva/models"
	"cautiva/repository"
	"cautiva/service"
)

// TransactionHandler 交易处理器
type TransactionHandler struct {
	repo *repository.TransactionRepository
	svc  *service.LedgerService
}

// NewTransactionHandler 创建交易处理器
func NewTransactionHandler(repo *repository.TransactionRepository, svc *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{repo: repo, svc: svc}
}

// TransactionView 列表展示用，附带去掉前缀的描述与类别名称
type TransactionView struct {
	models.Transaction
	DisplayDescription string `json:"display_description"`
	CategoryLabel      string `json:"category_label"`
}

func viewOf(tx models.Transaction) TransactionView {
	return TransactionView{
		Transaction:        tx,
		DisplayDescription: tx.DisplayDescription(),
		CategoryLabel:      models.CategoryLabel(tx.Category),
	}
}

func viewsOf(txs []models.Transaction) []TransactionView {
	views := make([]TransactionView, len(txs))
	for i, tx := range txs {
		views[i] = viewOf(tx)
	}
	return views
}

// CreateTransactionRequest 新增交易请求
type CreateTransactionRequest struct {
	Type        string          `json:"type" binding:"required,oneof=deposit expense" example:"deposit"`
	Amount      decimal.Decimal `json:"amount" swaggertype:"number" example:"1000"`
	Category    string          `json:"category" example:"cuota"`
	Description string          `json:"description" example:"Cuota octubre"`
}

// UpdateTransactionRequest 部分更新请求，省略的字段不修改
type UpdateTransactionRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty" swaggertype:"number" example:"1200"`
	Category    *string          `json:"category,omitempty" example:"cuota"`
	Description *string          `json:"description,omitempty" example:"Cuota noviembre"`
}

// timeLedger 记录账本写操作耗时到请求日志
func timeLedger(c *gin.Context, id string) func() {
	logData := logging.GetLogData(c.Request.Context())
	if logData == nil {
		return func() {}
	}
	if id != "" {
		logData.AddData("transaction_id", id)
	}
	return logData.AddTiming("ledger_ms")
}

func actorOf(c *gin.Context) service.Actor {
	return service.Actor{Name: middleware.GetCurrentName(c), Role: middleware.GetCurrentRole(c)}
}

// List 交易列表
// @Summary 交易列表
// @Description 全部交易，按日期倒序
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=[]TransactionView}
// @Failure 500 {object} Response "查询失败"
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	txs, err := h.repo.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "", "Error al cargar las transacciones")
		return
	}
	Success(c, viewsOf(txs))
}

// Create 新增交易
// @Summary 新增交易
// @Description 管理员新增存款或支出，描述保存为 "类别 - 描述"，并写入审计
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTransactionRequest true "交易信息"
// @Success 201 {object} Response{data=TransactionView}
// @Failure 400 {object} Response "参数错误"
// @Failure 403 {object} Response "权限不足"
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Datos inválidos: "+err.Error())
		return
	}

	stopTimer := timeLedger(c, "")
	tx, _, err := h.svc.Create(c.Request.Context(), actorOf(c), service.CreateInput{
		Type:        models.TransactionType(req.Type),
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	})
	stopTimer()
	if err != nil {
		respondError(c, err, "", "Error al agregar la transacción")
		return
	}
	Created(c, tx.Type.Label()+" añadido", viewOf(*tx))
}

// Update 部分更新交易
// @Summary 编辑交易
// @Description 管理员修改金额、类别或描述，审计保存前后快照
// @Tags 交易
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "交易ID"
// @Param request body UpdateTransactionRequest true "修改内容"
// @Success 200 {object} Response{data=TransactionView}
// @Failure 400 {object} Response "参数错误"
// @Failure 403 {object} Response "权限不足"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Datos inválidos: "+err.Error())
		return
	}

	defer timeLedger(c, c.Param("id"))()
	tx, _, err := h.svc.Update(c.Request.Context(), actorOf(c), c.Param("id"), service.UpdateInput{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err, "Transacción no encontrada", "Error al actualizar la transacción")
		return
	}
	SuccessWithMessage(c, "Transacción actualizada", viewOf(*tx))
}

// Delete 删除交易
// @Summary 删除交易
// @Description 管理员删除交易，审计保存被删除的记录
// @Tags 交易
// @Produce json
// @Security BearerAuth
// @Param id path string true "交易ID"
// @Success 200 {object} Response
// @Failure 403 {object} Response "权限不足"
// @Failure 404 {object} Response "交易不存在"
// @Router /api/v1/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	defer timeLedger(c, c.Param("id"))()
	if _, err := h.svc.Delete(c.Request.Context(), actorOf(c), c.Param("id")); err != nil {
		respondError(c, err, "Transacción no encontrada", "Error al eliminar la transacción")
		return
	}
	SuccessWithMessage(c, "Transacción eliminada", nil)
}
