package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cautiva/advisor"
	"cautiva/audit"
	"cautiva/config"
	"cautiva/database"
	"cautiva/ledger"
	"cautiva/middleware"
	"cautiva/models"
	"cautiva/repository"
	"cautiva/service"
)

type testApp struct {
	handler http.Handler
	txs     *repository.TransactionRepository
	audits  *repository.AuditRepository
	rec     *audit.Recorder
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "test"},
		JWT:    config.JWTConfig{Secret: "router-secret", ExpireTime: time.Hour},
		Ledger: config.LedgerConfig{Location: time.UTC},
	}
	middleware.InitJWT(cfg)

	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	app := &testApp{
		txs:    repository.NewTransactionRepository(db),
		audits: repository.NewAuditRepository(db),
	}
	app.rec = audit.NewRecorder(app.audits, nil, time.Second)
	app.handler = SetupRouter(Deps{
		Config:       cfg,
		DB:           db,
		Transactions: app.txs,
		Audits:       app.audits,
		Ledger:       service.NewLedgerService(app.txs, app.rec),
		Book:         ledger.NewBook(),
		Advisor:      advisor.NewClient(config.AdvisorConfig{}),
	})
	return app
}

func (a *testApp) do(t *testing.T, method, path string, role models.Role, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, err := middleware.GenerateToken(models.User{ID: 1, Email: string(role) + "@lacautiva.com", Role: role}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	app := setupApp(t)
	w := app.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCORSPreflight(t *testing.T) {
	app := setupApp(t)
	w := app.do(t, http.MethodOptions, "/api/v1/transactions", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutesRequireAuth(t *testing.T) {
	app := setupApp(t)
	for _, path := range []string{
		"/api/v1/auth/profile",
		"/api/v1/transactions",
		"/api/v1/dashboard",
		"/api/v1/categories",
		"/api/v1/audit",
	} {
		w := app.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestViewerIsReadOnly(t *testing.T) {
	app := setupApp(t)
	body := map[string]any{"type": "deposit", "amount": 100, "category": "cuota", "description": "Cuota"}

	tests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodPost, "/api/v1/transactions", body},
		{http.MethodPut, "/api/v1/transactions/x", map[string]any{"amount": 1}},
		{http.MethodDelete, "/api/v1/transactions/x", nil},
		{http.MethodGet, "/api/v1/audit", nil},
		{http.MethodDelete, "/api/v1/audit/1", nil},
		{http.MethodGet, "/api/v1/export/excel", nil},
	}
	for _, tt := range tests {
		w := app.do(t, tt.method, tt.path, models.RoleViewer, tt.body)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s", tt.method, tt.path)
	}

	txs, err := app.txs.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txs)

	w := app.do(t, http.MethodGet, "/api/v1/transactions", models.RoleViewer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, http.MethodGet, "/api/v1/dashboard", models.RoleViewer, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminFlow(t *testing.T) {
	app := setupApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/transactions", models.RoleAdmin, map[string]any{
		"type": "expense", "amount": 300, "category": "limpieza", "description": "Escobas",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	app.rec.Flush()
	w = app.do(t, http.MethodGet, "/api/v1/audit", models.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Agregó gasto")

	w = app.do(t, http.MethodGet, "/api/v1/export/excel", models.RoleAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdvisorDisabledReturnsGenericError(t *testing.T) {
	app := setupApp(t)
	w := app.do(t, http.MethodPost, "/api/v1/advisor/suggest", models.RoleViewer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), advisor.GenericError)
}
