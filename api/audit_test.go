package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cautiva/models"
)

func seedAudits(t *testing.T, env *testEnv, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, env.audits.Append(context.Background(), &models.AuditRecord{
			Usuario: "Administrador",
			Accion:  fmt.Sprintf("Agregó depósito %d", i),
		}))
	}
}

func TestAuditHandler_ListPaginates(t *testing.T) {
	env := newTestEnv(t)
	seedAudits(t, env, 5)

	r := authed()
	r.GET("/audit", NewAuditHandler(env.audits).List)

	w := doJSON(t, r, http.MethodGet, "/audit?page=2&page_size=2", tokenFor(t, models.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Total    int64                `json:"total"`
			Page     int                  `json:"page"`
			PageSize int                  `json:"page_size"`
			List     []models.AuditRecord `json:"list"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.Data.Total)
	assert.Equal(t, 2, resp.Data.Page)
	assert.Len(t, resp.Data.List, 2)

	w = doJSON(t, r, http.MethodGet, "/audit?page=9", tokenFor(t, models.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Data.List)
	assert.Equal(t, 50, resp.Data.PageSize)
}

func TestAuditHandler_Delete(t *testing.T) {
	env := newTestEnv(t)
	seedAudits(t, env, 1)
	records, err := env.audits.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := authed()
	r.DELETE("/audit/:id", NewAuditHandler(env.audits).Delete)
	token := tokenFor(t, models.RoleAdmin)

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/audit/%d", records[0].ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/audit/%d", records[0].ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/audit/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
