package handlers

import (
	"errors"
	"net/http"

	"courseplatform/services/enrollment-service/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Через сколько секунд клиенту стоит повторить verify.
const paymentRetryAfter = "3"

// errorStatus переводит класс доменной ошибки в HTTP-статус и код.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrBadSignature):
		return http.StatusBadRequest, "bad_signature"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, domain.ErrAuthorization):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrPaymentPending):
		return http.StatusPaymentRequired, "payment_pending"
	case errors.Is(err, domain.ErrPaymentVerification):
		return http.StatusPaymentRequired, "payment_verification"
	case errors.Is(err, domain.ErrTransientStorage):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if errors.Is(err, domain.ErrPaymentPending) {
		c.Header("Retry-After", paymentRetryAfter)
	}
	msg := err.Error()
	if status >= 500 {
		// детали хранилища наружу не отдаём
		msg = http.StatusText(status)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "code": "validation"})
		return uuid.Nil, false
	}
	return id, true
}
