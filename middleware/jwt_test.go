package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cautiva/config"
	"cautiva/models"
)

func initJWTTestConfig() {
	InitJWT(&config.Config{JWT: config.JWTConfig{Secret: "test-jwt-secret-key"}})
}

var testAdmin = models.User{ID: 1, Email: "admin@lacautiva.com", Name: "Administrador", Role: models.RoleAdmin}

func TestGenerateToken(t *testing.T) {
	initJWTTestConfig()

	token, err := GenerateToken(testAdmin, 24*time.Hour)
	require.NoError(t, err)
	assert.Greater(t, len(token), 20)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.Equal(t, "admin@lacautiva.com", claims.Email)
	assert.Equal(t, "Administrador", claims.Name)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestParseToken(t *testing.T) {
	initJWTTestConfig()

	_, err := ParseToken("")
	assert.Error(t, err)
	_, err = ParseToken("not.a.valid.jwt")
	assert.Error(t, err)
	_, err = ParseToken("eyJhbGciOiJmb29iIn0.xxxx.yyyy")
	assert.Error(t, err)

	// 过期
	expired, err := GenerateToken(testAdmin, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired)
	assert.Error(t, err)

	// 其他密钥签发
	InitJWT(&config.Config{JWT: config.JWTConfig{Secret: "other"}})
	foreign, err := GenerateToken(testAdmin, time.Hour)
	require.NoError(t, err)
	initJWTTestConfig()
	_, err = ParseToken(foreign)
	assert.Error(t, err)
}

func TestJWTAuth(t *testing.T) {
	initJWTTestConfig()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(JWTAuth())
	router.GET("/protected", func(c *gin.Context) {
		c.String(200, "id:%d role:%s name:%s", GetCurrentUserID(c), GetCurrentRole(c), GetCurrentName(c))
	})

	doReq := func(auth, query string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/protected"+query, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := doReq("", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"code":401`)

	assert.Equal(t, http.StatusUnauthorized, doReq("Basic xyz", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doReq("Bearer ", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doReq("Bearer garbage", "").Code)

	token, _ := GenerateToken(testAdmin, time.Hour)
	w = doReq("Bearer "+token, "")
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "id:1 role:admin name:Administrador", w.Body.String())

	// SSE 使用 query token
	w = doReq("", "?token="+token)
	assert.Equal(t, 200, w.Code)
}

func TestGetCurrentUserID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, uint(0), GetCurrentUserID(c))
	assert.Equal(t, models.Role(""), GetCurrentRole(c))

	c.Set("userID", uint(99))
	c.Set("email", "x@lacautiva.com")
	assert.Equal(t, uint(99), GetCurrentUserID(c))
	assert.Equal(t, "x@lacautiva.com", GetCurrentName(c))
}
