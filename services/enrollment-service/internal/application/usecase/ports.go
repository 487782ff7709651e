package usecase

import (
	"context"
	"errors"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/payment"
)

// PaymentGateway is the part of the payment provider the service talks to.
// *payment.StripeGateway implements it.
type PaymentGateway interface {
	CreateSession(ctx context.Context, req payment.CheckoutRequest) (*payment.ProviderSession, error)
	GetSession(ctx context.Context, id string) (*payment.ProviderSession, error)
	ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

type EventPublisher interface {
	PublishCourseCompleted(ctx context.Context, ev domain.CourseCompleted) error
}

type EventSubscriber interface {
	SubscribeCourseCompleted(ctx context.Context, handle func(context.Context, domain.CourseCompleted)) error
}

type Mailer interface {
	SendCourseCompleted(ctx context.Context, ev domain.CourseCompleted) error
}

type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// storageErr пропускает доменные ошибки и отмену запроса как есть,
// всё остальное от хранилища считается повторяемым.
func storageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrAuthorization),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrPaymentVerification),
		errors.Is(err, domain.ErrTransientStorage),
		errors.Is(err, context.Canceled):
		return err
	default:
		return domain.Transient(err)
	}
}
