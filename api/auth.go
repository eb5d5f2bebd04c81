package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"cautiva/config"
	"cautiva/middleware"
	"cautiva/models"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg *config.Config
	db  *gorm.DB
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{cfg: cfg, db: db}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"admin@lacautiva.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      models.User `json:"user"`
}

// ProfileResponse 当前用户
type ProfileResponse struct {
	models.User
	RoleLabel string `json:"role_label"`
	IsAdmin   bool   `json:"is_admin"`
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱 + 密码登录，返回 JWT token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "邮箱或密码错误"
// @Failure 429 {object} Response "尝试过于频繁"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Datos inválidos: "+err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logrus.WithError(err).Error("api.AuthHandler.Login lookup failed")
		}
		Unauthorized(c, "Correo o contraseña incorrectos")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logrus.WithField("email", email).Warn("api.AuthHandler.Login wrong password")
		Unauthorized(c, "Correo o contraseña incorrectos")
		return
	}

	token, err := middleware.GenerateToken(user, h.cfg.JWT.ExpireTime)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "No se pudo iniciar sesión"))
		return
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("api.AuthHandler.Login")
	SuccessWithMessage(c, "Sesión iniciada", LoginResponse{
		Token:     token,
		ExpiresIn: int64(h.cfg.JWT.ExpireTime.Seconds()),
		User:      user,
	})
}

// Profile 当前用户信息
// @Summary 当前用户
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=ProfileResponse}
// @Failure 401 {object} Response "未授权"
// @Failure 404 {object} Response "用户不存在"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	var user models.User
	if err := h.db.WithContext(c.Request.Context()).First(&user, middleware.GetCurrentUserID(c)).Error; err != nil {
		NotFound(c, "Usuario no encontrado")
		return
	}
	Success(c, ProfileResponse{
		User:      user,
		RoleLabel: user.Role.Label(),
		IsAdmin:   user.Role == models.RoleAdmin,
	})
}
