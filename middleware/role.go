package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cautiva/models"
)

// RequireRole 角色校验，需在 JWTAuth 之后使用
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		role := GetCurrentRole(c)
		if allowed[role] {
			c.Next()
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id": GetCurrentUserID(c),
			"role":    role,
			"method":  c.Request.Method,
			"path":    c.FullPath(),
		}).Warn("middleware.RequireRole.denied")
		abortJSON(c, http.StatusForbidden, "No tienes permisos para realizar esta acción")
	}
}
