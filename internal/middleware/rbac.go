package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smpn3pacet/cbt-backend/internal/response"
	"github.com/smpn3pacet/cbt-backend/internal/service"
)

// RequireAdmin restricts a route to the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims.TokenType != service.TokenTypeAdmin {
			response.AbortFail(c, http.StatusForbidden, response.ErrAdminAccessOnly)
			return
		}
		c.Next()
	}
}

// CallerCategory returns the content category the caller is scoped to:
// the teacher's subject, or "" for admin (unrestricted).
func CallerCategory(c *gin.Context) string {
	claims := GetClaims(c)
	if claims == nil || claims.TokenType != service.TokenTypeTeacher {
		return ""
	}
	return claims.Category
}
