package usecase

import (
	"context"
	"errors"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/logger"
	"courseplatform/services/enrollment-service/internal/infrastructure/payment"
	"courseplatform/services/enrollment-service/internal/infrastructure/repository"

	"github.com/google/uuid"
)

type WebhookResult struct {
	EventID    string
	Type       string
	Handled    bool
	Enrollment *domain.Enrollment
}

type WebhookProcessor struct {
	gateway    PaymentGateway
	sessions   *repository.CheckoutRepository
	reconciler *Reconciler
	log        *logger.Logger
}

func NewWebhookProcessor(gw PaymentGateway, sr *repository.CheckoutRepository, rec *Reconciler, log *logger.Logger) *WebhookProcessor {
	return &WebhookProcessor{
		gateway:    gw,
		sessions:   sr,
		reconciler: rec,
		log:        log.With("component", "WebhookProcessor"),
	}
}

// Process verifies and applies one provider event. Event ids are not
// deduplicated here: redelivery is safe because Reconcile is idempotent.
// Unknown event types are acknowledged without side effects.
func (p *WebhookProcessor) Process(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	ev, err := p.gateway.ParseWebhook(payload, signature)
	if err != nil {
		p.log.Warn("webhook rejected", "error", err)
		return nil, err
	}
	res := &WebhookResult{EventID: ev.ID, Type: ev.Type}

	switch ev.Type {
	case payment.EventCheckoutCompleted, payment.EventAsyncPaymentSucceeded:
		c, err := confirmationFrom(ev)
		if err != nil {
			return nil, err
		}
		e, err := p.reconciler.Reconcile(ctx, c)
		if errors.Is(err, domain.ErrPaymentPending) {
			// асинхронный способ оплаты: дождёмся async_payment_succeeded
			p.log.Info("checkout completed without payment yet", "event_id", ev.ID, "session_id", c.SessionID)
			return res, nil
		}
		if err != nil {
			p.log.Error("reconcile failed", "event_id", ev.ID, "session_id", c.SessionID, "error", err)
			return nil, err
		}
		res.Handled = true
		res.Enrollment = e

	case payment.EventCheckoutSessionExpired:
		if ev.Session == nil {
			return nil, domain.ErrMalformedMetadata
		}
		if err := p.sessions.MarkExpired(ctx, ev.Session.ID); err != nil {
			return nil, storageErr(err)
		}
		res.Handled = true

	default:
		p.log.Debug("ignoring event", "event_id", ev.ID, "type", ev.Type)
	}
	return res, nil
}

func confirmationFrom(ev *payment.WebhookEvent) (domain.PaymentConfirmation, error) {
	if ev.Session == nil || ev.Session.ID == "" {
		return domain.PaymentConfirmation{}, domain.ErrMalformedMetadata
	}
	userID, err := uuid.Parse(ev.Session.Metadata[payment.MetaUserID])
	if err != nil {
		return domain.PaymentConfirmation{}, domain.ErrMalformedMetadata
	}
	courseID, err := uuid.Parse(ev.Session.Metadata[payment.MetaCourseID])
	if err != nil {
		return domain.PaymentConfirmation{}, domain.ErrMalformedMetadata
	}
	return domain.PaymentConfirmation{
		UserID:    userID,
		CourseID:  courseID,
		SessionID: ev.Session.ID,
		Paid:      ev.Session.Paid,
		EventID:   ev.ID,
	}, nil
}
