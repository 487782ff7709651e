package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Типы событий, которые нас интересуют. Всё остальное подтверждаем и игнорируем.
const (
	EventCheckoutCompleted      = string(stripe.EventTypeCheckoutSessionCompleted)
	EventAsyncPaymentSucceeded  = string(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded)
	EventCheckoutSessionExpired = string(stripe.EventTypeCheckoutSessionExpired)
)

const (
	MetaUserID   = "user_id"
	MetaCourseID = "course_id"
)

type CheckoutRequest struct {
	UserID      string
	CourseID    string
	CourseTitle string
	Email       string
	Amount      decimal.Decimal
	Currency    string
}

// ProviderSession is the provider's view of a checkout session.
type ProviderSession struct {
	ID       string
	URL      string
	Paid     bool
	Metadata map[string]string
}

// WebhookEvent is a verified provider event reduced to what reconciliation needs.
type WebhookEvent struct {
	ID      string
	Type    string
	Session *ProviderSession
}

type StripeGateway struct {
	sessions      session.Client
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeGateway(secretKey, webhookSecret, successURL, cancelURL string) *StripeGateway {
	return &StripeGateway{
		sessions:      session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		webhookSecret: webhookSecret,
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

// ToMinorUnits переводит 19.99 в 1999.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (g *StripeGateway) CreateSession(ctx context.Context, req CheckoutRequest) (*ProviderSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.CourseTitle),
					},
					UnitAmount: stripe.Int64(ToMinorUnits(req.Amount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(g.successURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(g.cancelURL + "?session_id={CHECKOUT_SESSION_ID}"),
		ClientReferenceID: stripe.String(req.UserID),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata(MetaUserID, req.UserID)
	params.AddMetadata(MetaCourseID, req.CourseID)
	params.Context = ctx

	s, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	return toProviderSession(s), nil
}

func (g *StripeGateway) GetSession(ctx context.Context, id string) (*ProviderSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get session: %w", err)
	}
	return toProviderSession(s), nil
}

// ParseWebhook проверяет подпись и разбирает событие. Ошибка подписи
// всегда ErrBadSignature, такие запросы не ретраятся.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                webhook.DefaultTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBadSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	switch out.Type {
	case EventCheckoutCompleted, EventAsyncPaymentSucceeded, EventCheckoutSessionExpired:
		var s stripe.CheckoutSession
		if event.Data == nil || json.Unmarshal(event.Data.Raw, &s) != nil {
			return nil, fmt.Errorf("%w: cannot decode checkout session", domain.ErrValidation)
		}
		out.Session = toProviderSession(&s)
	}
	return out, nil
}

func toProviderSession(s *stripe.CheckoutSession) *ProviderSession {
	return &ProviderSession{
		ID:       s.ID,
		URL:      s.URL,
		Paid:     s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		Metadata: s.Metadata,
	}
}

// SignedTestPayload подписывает тело так же, как это делает Stripe.
func SignedTestPayload(payload []byte, secret string, at time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}
