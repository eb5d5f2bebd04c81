package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"cautiva/advisor"
	"cautiva/ledger"
)

// Suggester 支出建议
type Suggester interface {
	Suggest(ctx context.Context, in advisor.Input) advisor.Result
}

// AdvisorHandler 支出上限建议
type AdvisorHandler struct {
	client Suggester
	source snapshotSource
}

// NewAdvisorHandler 创建建议处理器
func NewAdvisorHandler(client Suggester, book *ledger.Book, repo TransactionLister) *AdvisorHandler {
	return &AdvisorHandler{client: client, source: snapshotSource{book: book, repo: repo}}
}

// SuggestRequest 省略时使用当前余额与全部支出
type SuggestRequest struct {
	Balance         *decimal.Decimal        `json:"balance,omitempty" swaggertype:"number"`
	SpendingHistory []advisor.SpendingPoint `json:"spendingHistory,omitempty"`
}

// Suggest 生成支出上限建议
// @Summary 支出上限建议
// @Description 调用生成式后端，结果为 {success, data} 或 {success:false, error}
// @Tags 建议
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SuggestRequest false "可选输入"
// @Success 200 {object} Response{data=advisor.Result}
// @Router /api/v1/advisor/suggest [post]
func (h *AdvisorHandler) Suggest(c *gin.Context) {
	var req SuggestRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "Datos inválidos: "+err.Error())
			return
		}
	}

	in := advisor.Input{SpendingHistory: req.SpendingHistory}
	if req.Balance == nil || req.SpendingHistory == nil {
		txs, err := h.source.transactions(c.Request.Context())
		if err != nil {
			respondError(c, err, "", "Error al cargar las transacciones")
			return
		}
		if req.Balance == nil {
			in.Balance = ledger.Balance(txs)
		}
		if req.SpendingHistory == nil {
			in.SpendingHistory = advisor.HistoryFrom(txs)
		}
	}
	if req.Balance != nil {
		in.Balance = *req.Balance
	}

	Success(c, h.client.Suggest(c.Request.Context(), in))
}
