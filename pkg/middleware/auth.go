package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/thumbnail-service/pkg/jwt"
	"github.com/weiawesome/thumbnail-service/pkg/log"
	"github.com/weiawesome/thumbnail-service/pkg/response"
)

const (
	SubjectKey    = "subject"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware validates bearer JWTs sent by webhook callers.
type AuthMiddleware struct {
	validator TokenValidator
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(v TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: v}
}

// RequireAuth returns a Gin middleware that validates JWT tokens.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := m.validator.ValidateToken(strings.TrimPrefix(authHeader, BearerPrefix))
		if err != nil {
			l := log.Ctx(c.Request.Context())
			l.Warn().Err(err).Msg("rejected webhook token")
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(SubjectKey, claims.Subject)
		c.Next()
	}
}

// GetSubject extracts the authenticated subject from Gin context.
func GetSubject(c *gin.Context) string {
	if s, exists := c.Get(SubjectKey); exists {
		return s.(string)
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
	c.Abort()
}
