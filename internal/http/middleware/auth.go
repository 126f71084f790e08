// README: JWT auth middleware; populates caller identity for handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ctxUIDKey  = "auth_uid"
	ctxRoleKey = "auth_role"
)

// Claims carries the caller identity. Subject is the user ID; Role is an
// optional hint ("driver", "courier", ...) and is informational only --
// authorization is decided against the entity's parties, not the claim.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Auth validates a bearer token signed with the shared HMAC secret. The
// token may also arrive as a ?token= query parameter, which is the only
// option for websocket clients.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims := &Claims{}
		tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !tok.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUIDKey, claims.Subject)
		c.Set(ctxRoleKey, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

// CallerUID returns the authenticated user ID, or "" outside Auth.
func CallerUID(c *gin.Context) string {
	v, _ := c.Get(ctxUIDKey)
	s, _ := v.(string)
	return s
}

// CallerRole returns the role claim, or "" when absent.
func CallerRole(c *gin.Context) string {
	v, _ := c.Get(ctxRoleKey)
	s, _ := v.(string)
	return s
}
