package handlers

import (
	"errors"
	"io"
	"net/http"

	"courseplatform/services/enrollment-service/internal/application/usecase"
	"courseplatform/services/enrollment-service/internal/domain"

	"github.com/gin-gonic/gin"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBody  = int64(65536)
)

type WebhookHandler struct {
	processor *usecase.WebhookProcessor
}

func NewWebhookHandler(p *usecase.WebhookProcessor) *WebhookHandler {
	return &WebhookHandler{processor: p}
}

// POST /api/v1/webhooks/payments
//
// 2xx подтверждает событие. Сбой хранилища отдаём 500, чтобы провайдер
// доставил событие повторно.
func (h *WebhookHandler) Handle(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large", "code": "validation"})
		return
	}

	res, err := h.processor.Process(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	if err != nil {
		if errors.Is(err, domain.ErrTransientStorage) {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "temporary failure, retry later", "code": "unavailable"})
			return
		}
		writeError(c, err)
		return
	}

	out := gin.H{"received": true, "event_id": res.EventID, "handled": res.Handled}
	if res.Enrollment != nil {
		out["enrollment_id"] = res.Enrollment.ID
	}
	c.JSON(http.StatusOK, out)
}
