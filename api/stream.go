package api

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// streamHeartbeat SSE 保活间隔
var streamHeartbeat = 25 * time.Second

type sseSnapshotFrame struct {
	Type         string            `json:"type"`
	Transactions []TransactionView `json:"transactions"`
}

type sseErrorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func writeSSE(c *gin.Context, event string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := c.Writer.WriteString("event: " + event + "\ndata: " + string(b) + "\n\n"); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// Stream 实时推送完整交易列表
// @Summary 交易实时流
// @Description SSE：连接后立即推送一次完整列表，之后每次变更推送最新完整列表
// @Tags 交易
// @Produce text/event-stream
// @Security BearerAuth
// @Param token query string false "EventSource 无法设置请求头时使用"
// @Success 200 {string} string "event: snapshot"
// @Router /api/v1/transactions/stream [get]
func (h *TransactionHandler) Stream(c *gin.Context) {
	ctx := c.Request.Context()
	sub, err := h.repo.Subscribe(ctx)
	if err != nil {
		respondError(c, err, "", "Error al cargar las transacciones")
		return
	}
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(200)
	c.Writer.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := c.Writer.WriteString(": ping\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case txs, ok := <-sub.C():
			if !ok {
				if err := sub.Err(); err != nil {
					logrus.WithError(err).Warn("api.TransactionHandler.Stream subscription ended")
					_ = writeSSE(c, "error", sseErrorFrame{Type: "error", Error: "Error al cargar las transacciones"})
				}
				return
			}
			if err := writeSSE(c, "snapshot", sseSnapshotFrame{Type: "snapshot", Transactions: viewsOf(txs)}); err != nil {
				return
			}
		}
	}
}
