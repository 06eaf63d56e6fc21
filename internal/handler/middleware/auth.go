package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"stayfinder/internal/domain/principal"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TokenValidator abstracts the JWT service so handler tests can stub it.
type TokenValidator interface {
	Validate(tokenString string) (principal.Principal, error)
}

type AuthMiddleware struct {
	tokenValidator TokenValidator
}

const (
	ctxPrincipalIDKey   = "principal_id"
	ctxPrincipalRoleKey = "principal_role"
)

func NewAuthMiddleware(tokenValidator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimSpace(authHeader[len("Bearer "):])
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			c.Abort()
			return
		}

		p, err := m.tokenValidator.Validate(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxPrincipalIDKey, p.ID)
		c.Set(ctxPrincipalRoleKey, p.Role)
		c.Set("jwt_claims", map[string]any{
			"principal_id": p.ID.String(),
			"role":         p.Role.String(),
		})
		c.Next()
	}
}

// RequireRole must be used after RequireAuth().
func (m *AuthMiddleware) RequireRole(roles ...principal.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Internal server error",
			})
			c.Abort()
			return
		}

		for _, role := range roles {
			if p.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
		})
		c.Abort()
	}
}

func GetPrincipal(c *gin.Context) (principal.Principal, bool) {
	rawID, exists := c.Get(ctxPrincipalIDKey)
	if !exists {
		return principal.Principal{}, false
	}
	id, ok := rawID.(uuid.UUID)
	if !ok {
		return principal.Principal{}, false
	}

	rawRole, exists := c.Get(ctxPrincipalRoleKey)
	if !exists {
		return principal.Principal{}, false
	}
	role, ok := rawRole.(principal.Role)
	if !ok {
		return principal.Principal{}, false
	}

	return principal.Principal{ID: id, Role: role}, true
}
