package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"cautiva/ledger"
)

// DashboardHandler 余额与月度汇总
type DashboardHandler struct {
	source snapshotSource
	loc    *time.Location
	clock  func() time.Time
}

// NewDashboardHandler 创建仪表盘处理器，book 可为 nil
func NewDashboardHandler(book *ledger.Book, repo TransactionLister, loc *time.Location) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	return &DashboardHandler{source: snapshotSource{book: book, repo: repo}, loc: loc, clock: time.Now}
}

// Get 仪表盘数据
// @Summary 仪表盘
// @Description 余额、月份选项、所选月份的收入/支出/结余与饼图数据
// @Tags 仪表盘
// @Produce json
// @Security BearerAuth
// @Param month query string false "YYYY-MM，默认最新月份"
// @Success 200 {object} Response{data=ledger.Dashboard}
// @Failure 400 {object} Response "月份格式错误"
// @Router /api/v1/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	txs, err := h.source.transactions(c.Request.Context())
	if err != nil {
		respondError(c, err, "", "Error al cargar las transacciones")
		return
	}

	d, err := ledger.Summarize(txs, c.Query("month"), h.clock(), h.loc)
	if err != nil {
		BadRequest(c, "Mes inválido, formato esperado: YYYY-MM")
		return
	}
	if h.source.book != nil && h.source.book.Err() != nil {
		d.SyncError = "Las transacciones dejaron de actualizarse"
	}
	Success(c, d)
}
