package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"cautiva/audit"
	"cautiva/config"
	"cautiva/database"
	"cautiva/middleware"
	"cautiva/models"
	"cautiva/repository"
	"cautiva/service"
)

var testCfg = &config.Config{
	Server: config.ServerConfig{Mode: "test"},
	JWT:    config.JWTConfig{Secret: "test-secret", ExpireHours: 1, ExpireTime: time.Hour},
}

func init() {
	gin.SetMode(gin.TestMode)
	middleware.InitJWT(testCfg)
}

type testEnv struct {
	db     *gorm.DB
	txs    *repository.TransactionRepository
	audits *repository.AuditRepository
	svc    *service.LedgerService
	rec    *audit.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:     db,
		txs:    repository.NewTransactionRepository(db),
		audits: repository.NewAuditRepository(db),
	}
	env.rec = audit.NewRecorder(env.audits, nil, time.Second)
	env.svc = service.NewLedgerService(env.txs, env.rec)
	return env
}

func (e *testEnv) seed(t *testing.T, typ models.TransactionType, amount, category string, date time.Time) string {
	t.Helper()
	id, err := e.txs.Add(context.Background(), models.Transaction{
		Type:        typ,
		Amount:      decimal.RequireFromString(amount),
		Category:    category,
		Description: models.ComposeDescription(category, "prueba"),
		Date:        date.UTC(),
	})
	require.NoError(t, err)
	return id
}

// tokenFor 签发测试 token
func tokenFor(t *testing.T, role models.Role) string {
	t.Helper()
	token, err := middleware.GenerateToken(models.User{
		ID:    1,
		Email: string(role) + "@lacautiva.com",
		Name:  role.Label(),
		Role:  role,
	}, time.Hour)
	require.NoError(t, err)
	return token
}

// authed 带 JWTAuth 的测试路由
func authed() *gin.Engine {
	r := gin.New()
	r.Use(middleware.JWTAuth())
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
