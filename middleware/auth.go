package middleware

import (
	"context"
	"net/http"
	"strings"

	"campus-canteen-api/apperr"
	"campus-canteen-api/logging"
	"campus-canteen-api/models"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Authenticator turns a bearer token into the caller's identity
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Principal, error)
}

// BearerToken extracts the token from the Authorization header
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// AuthRequired validates the token and injects the principal into context
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := BearerToken(c)
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required (Bearer <token>)"})
			c.Abort()
			return
		}
		p, err := auth.Authenticate(c.Request.Context(), tokenStr)
		if err != nil {
			status := apperr.Status(err)
			if status >= http.StatusInternalServerError {
				logging.FromContext(c.Request.Context()).Error("authenticate", "error", err)
			}
			c.JSON(status, gin.H{"error": apperr.Message(err)})
			c.Abort()
			return
		}
		c.Set(principalKey, p)
		l := logging.FromContext(c.Request.Context()).With("principal", p.ID, "role", p.Role)
		c.Request = c.Request.WithContext(logging.IntoContext(c.Request.Context(), l))
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "Role not found in context"})
			c.Abort()
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied. Required role(s): " + rolesString(roles),
		})
		c.Abort()
	}
}

func rolesString(roles []models.Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

func principal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// GetPrincipal extracts the caller from context. Only valid behind AuthRequired.
func GetPrincipal(c *gin.Context) models.Principal {
	p, _ := principal(c)
	return p
}
