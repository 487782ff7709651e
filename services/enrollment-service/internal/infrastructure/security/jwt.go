package security

import (
	"errors"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenManager проверяет access-токены, выпущенные auth-сервисом.
// Generate нужен для тестов и локальной отладки.
type TokenManager struct {
	accessSecret []byte
}

func NewTokenManager(accessSecret string) *TokenManager {
	return &TokenManager{accessSecret: []byte(accessSecret)}
}

func (m *TokenManager) Generate(id domain.Identity, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   id.UserID.String(),
		"email": id.Email,
		"role":  id.Role,
		"exp":   time.Now().Add(ttl).Unix(),
		"type":  "access",
	}
	if !id.PremiumUntil.IsZero() {
		claims["premium_until"] = id.PremiumUntil.Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
}

func (m *TokenManager) ValidateAccessToken(tokenStr string) (*domain.Identity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.accessSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if t, _ := claims["type"].(string); t != "access" {
		return nil, errors.New("not an access token")
	}
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("invalid subject")
	}

	id := &domain.Identity{UserID: userID}
	id.Email, _ = claims["email"].(string)
	id.Role, _ = claims["role"].(string)
	// числа в MapClaims приходят как float64
	if until, ok := claims["premium_until"].(float64); ok && until > 0 {
		id.PremiumUntil = time.Unix(int64(until), 0).UTC()
	}
	return id, nil
}
