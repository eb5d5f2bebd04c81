// Package advisor 支出上限建议，调用兼容 OpenAI 的 chat/completions 接口
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cautiva/config"
	"cautiva/models"
)

// GenericError 对外统一的失败提示
const GenericError = "Ocurrió un error inesperado al generar la sugerencia."

// ErrDisabled 未启用
var ErrDisabled = errors.New("advisor disabled")

// SpendingPoint 历史支出
type SpendingPoint struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

// Input 建议输入
type Input struct {
	Balance         decimal.Decimal `json:"balance"`
	SpendingHistory []SpendingPoint `json:"spendingHistory"`
}

// Suggestion 建议内容
type Suggestion struct {
	SuggestedSpendingLimit decimal.Decimal `json:"suggestedSpendingLimit"`
	Reasoning              string          `json:"reasoning"`
}

// Result 成功时带 Data，失败时带 Error
type Result struct {
	Success bool        `json:"success"`
	Data    *Suggestion `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func failure() Result {
	return Result{Success: false, Error: GenericError}
}

// HistoryFrom 从交易中取出支出历史
func HistoryFrom(txs []models.Transaction) []SpendingPoint {
	points := []SpendingPoint{}
	for _, tx := range txs {
		if tx.Type != models.TypeExpense {
			continue
		}
		points = append(points, SpendingPoint{Amount: tx.Amount, Date: tx.Date.UTC().Format(time.RFC3339)})
	}
	return points
}

var promptTemplate = template.Must(template.New("prompt").Parse(`Eres un asesor financiero que ayuda a un jubilado a administrar sus finanzas.

Basándote en el saldo actual y el historial de gastos, sugiere un límite de gasto razonable.

Saldo Actual: {{.Balance}}
Historial de Gastos:
{{range .SpendingHistory}}- Fecha: {{.Date}}, Cantidad: {{.Amount}}
{{end}}
Proporciona un límite de gasto y la justificación correspondiente. Considera la estabilidad financiera a largo plazo.
`))

const systemPrompt = `Responde únicamente con un objeto JSON con las claves "suggestedSpendingLimit" (número) y "reasoning" (texto).`

// Prompt 渲染用户提示词
func Prompt(in Input) (string, error) {
	var b strings.Builder
	if err := promptTemplate.Execute(&b, in); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Client 建议客户端
type Client struct {
	cfg  config.AdvisorConfig
	http *http.Client
}

// NewClient 创建客户端
func NewClient(cfg config.AdvisorConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{Timeout: timeout}}
}

// Enabled 是否已配置
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.BaseURL != ""
}

// Suggest 单次请求，失败不重试
func (c *Client) Suggest(ctx context.Context, in Input) Result {
	s, err := c.suggest(ctx, in)
	if err != nil {
		logrus.WithError(err).Error("advisor.Client.Suggest failed")
		return failure()
	}
	return Result{Success: true, Data: s}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) suggest(ctx context.Context, in Input) (*Suggestion, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}

	prompt, err := Prompt(in)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.3,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call backend: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, errors.New("empty choices")
	}

	var s Suggestion
	content := stripFence(chat.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &s); err != nil {
		return nil, fmt.Errorf("decode suggestion: %w", err)
	}
	if s.Reasoning == "" {
		return nil, errors.New("suggestion without reasoning")
	}
	return &s, nil
}

// stripFence 去掉模型偶尔包裹的 ```json 代码块
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
