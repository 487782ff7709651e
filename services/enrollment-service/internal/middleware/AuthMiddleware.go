package middleware

import (
	"net/http"
	"strings"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/security"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

type Auth struct {
	tokens *security.TokenManager
}

func NewAuth(tm *security.TokenManager) *Auth {
	return &Auth{tokens: tm}
}

// Required пропускает только запросы с валидным access-токеном.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required", "code": "unauthorized"})
			return
		}

		token, ok := bearer(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format", "code": "unauthorized"})
			return
		}

		id, err := a.tokens.ValidateAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "code": "unauthorized"})
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

// Optional кладёт identity, если токен есть и валиден. Иначе запрос идёт анонимно.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearer(c.GetHeader("Authorization")); ok {
			if id, err := a.tokens.ValidateAccessToken(token); err == nil {
				c.Set(identityKey, id)
			}
		}
		c.Next()
	}
}

// Identity возвращает nil для анонимного запроса.
func Identity(c *gin.Context) *domain.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*domain.Identity)
	return id
}

func bearer(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
