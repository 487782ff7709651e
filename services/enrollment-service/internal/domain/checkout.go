package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionCreated   SessionStatus = "created"
	SessionCompleted SessionStatus = "completed"
	SessionExpired   SessionStatus = "expired"
	SessionCancelled SessionStatus = "cancelled"
)

// CheckoutSession is a purchase intent scoped to (user, course). ID is the
// reference assigned by the payment provider.
//
// ActiveKey is "user:course" while the session is live and NULL otherwise;
// the unique index on it keeps at most one live session per pair.
type CheckoutSession struct {
	ID          string          `gorm:"primaryKey;size:255" json:"id"`
	UserID      uuid.UUID       `gorm:"type:uuid;index:idx_checkout_user_course" json:"user_id"`
	CourseID    uuid.UUID       `gorm:"type:uuid;index:idx_checkout_user_course" json:"course_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(10,2)" json:"amount"`
	Currency    string          `gorm:"size:3" json:"currency"`
	Status      SessionStatus   `gorm:"size:16;index" json:"status"`
	CheckoutURL string          `json:"checkout_url"`
	ActiveKey   *string         `gorm:"uniqueIndex;size:80" json:"-"`
	LastEventID *string         `gorm:"size:255" json:"-"`

	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `gorm:"index" json:"expires_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func ActiveKey(userID, courseID uuid.UUID) string {
	return userID.String() + ":" + courseID.String()
}

// Live: ещё можно оплатить.
func (s *CheckoutSession) Live(now time.Time) bool {
	return s.Status == SessionCreated && now.Before(s.ExpiresAt)
}

// PaymentConfirmation is a confirmed-payment signal from either the webhook
// or the synchronous verify call.
type PaymentConfirmation struct {
	UserID    uuid.UUID
	CourseID  uuid.UUID
	SessionID string
	Paid      bool
	EventID   string // пусто для verify
}
