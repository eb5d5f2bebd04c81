package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cautiva/config"
	"cautiva/models"
)

func newBackend(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		if assert.Len(t, req.Messages, 2) {
			assert.Contains(t, req.Messages[1].Content, "Saldo Actual: 700")
		}

		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(url string) config.AdvisorConfig {
	return config.AdvisorConfig{
		Enabled: true,
		BaseURL: url,
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 2 * time.Second,
	}
}

func sampleInput() Input {
	return Input{
		Balance: decimal.NewFromInt(700),
		SpendingHistory: []SpendingPoint{
			{Amount: decimal.NewFromInt(300), Date: "2026-10-01T00:00:00Z"},
		},
	}
}

func TestSuggest_Success(t *testing.T) {
	srv := newBackend(t, http.StatusOK, `{"suggestedSpendingLimit": 250.5, "reasoning": "Mantener una reserva."}`)

	res := NewClient(testConfig(srv.URL)).Suggest(context.Background(), sampleInput())
	require.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.True(t, res.Data.SuggestedSpendingLimit.Equal(decimal.RequireFromString("250.5")))
	assert.Equal(t, "Mantener una reserva.", res.Data.Reasoning)
	assert.Empty(t, res.Error)
}

func TestSuggest_FencedContent(t *testing.T) {
	srv := newBackend(t, http.StatusOK, "```json\n{\"suggestedSpendingLimit\": 100, \"reasoning\": \"ok\"}\n```")

	res := NewClient(testConfig(srv.URL)).Suggest(context.Background(), sampleInput())
	assert.True(t, res.Success)
}

func TestSuggest_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		content string
	}{
		{"backend error", http.StatusInternalServerError, "{}"},
		{"not json", http.StatusOK, "no puedo ayudar"},
		{"missing reasoning", http.StatusOK, `{"suggestedSpendingLimit": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t, tt.status, tt.content)
			res := NewClient(testConfig(srv.URL)).Suggest(context.Background(), sampleInput())
			assert.False(t, res.Success)
			assert.Nil(t, res.Data)
			assert.Equal(t, GenericError, res.Error)
		})
	}
}

func TestSuggest_Disabled(t *testing.T) {
	res := NewClient(config.AdvisorConfig{}).Suggest(context.Background(), sampleInput())
	assert.False(t, res.Success)
	assert.Equal(t, GenericError, res.Error)
}

func TestSuggest_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	res := NewClient(cfg).Suggest(context.Background(), sampleInput())
	assert.False(t, res.Success)
}

func TestPrompt(t *testing.T) {
	p, err := Prompt(sampleInput())
	require.NoError(t, err)
	assert.Contains(t, p, "jubilado")
	assert.Contains(t, p, "Saldo Actual: 700")
	assert.Contains(t, p, "- Fecha: 2026-10-01T00:00:00Z, Cantidad: 300")
}

func TestHistoryFrom(t *testing.T) {
	date := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	txs := []models.Transaction{
		{Type: models.TypeDeposit, Amount: decimal.NewFromInt(1000), Date: date},
		{Type: models.TypeExpense, Amount: decimal.NewFromInt(300), Date: date},
	}

	points := HistoryFrom(txs)
	require.Len(t, points, 1)
	assert.True(t, points[0].Amount.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, "2026-10-01T12:00:00Z", points[0].Date)
}
