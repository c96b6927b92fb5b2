package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"quiz-admin-service/internal/app"
	"quiz-admin-service/internal/auth"
	"quiz-admin-service/internal/domain"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxClaims = "claims"
)

// Authenticate resolves the bearer token to a user and stores it in the context.
func Authenticate(users *app.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Message: "missing Authorization header"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{Message: "Authorization header must be Bearer <token>"})
			return
		}

		claims, err := users.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

// RequireRoles lets through only callers holding one of roles. Run it after Authenticate.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := currentRole(c)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, envelope{Message: "not authorized to access this route"})
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func currentRole(c *gin.Context) domain.Role {
	v, _ := c.Get(ctxRole)
	role, _ := v.(domain.Role)
	return role
}

func currentClaims(c *gin.Context) auth.Claims {
	v, _ := c.Get(ctxClaims)
	claims, _ := v.(auth.Claims)
	return claims
}
