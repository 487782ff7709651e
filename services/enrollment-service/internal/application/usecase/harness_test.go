package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/payment"
	"courseplatform/services/enrollment-service/internal/infrastructure/repository"
	"courseplatform/services/enrollment-service/internal/testutil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	webhookSecret = "whsec_test"
	checkoutTTL   = 15 * time.Minute
	expiryGrace   = time.Minute
)

// fakeGateway проверяет подписи настоящим Stripe SDK, а сессии держит в памяти.
type fakeGateway struct {
	*payment.StripeGateway

	mu      sync.Mutex
	created int
	paid    map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		StripeGateway: payment.NewStripeGateway("sk_test", webhookSecret, "https://app/success", "https://app/cancel"),
		paid:          map[string]bool{},
	}
}

func (g *fakeGateway) CreateSession(_ context.Context, req payment.CheckoutRequest) (*payment.ProviderSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created++
	id := "cs_test_" + uuid.NewString()
	return &payment.ProviderSession{
		ID:  id,
		URL: "https://checkout.example.com/" + id,
		Metadata: map[string]string{
			payment.MetaUserID:   req.UserID,
			payment.MetaCourseID: req.CourseID,
		},
	}, nil
}

func (g *fakeGateway) GetSession(_ context.Context, id string) (*payment.ProviderSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &payment.ProviderSession{ID: id, Paid: g.paid[id]}, nil
}

func (g *fakeGateway) markPaid(id string) {
	g.mu.Lock()
	g.paid[id] = true
	g.mu.Unlock()
}

func (g *fakeGateway) createdCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.created
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.CourseCompleted
}

func (p *fakePublisher) PublishCourseCompleted(_ context.Context, ev domain.CourseCompleted) error {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type env struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB

	sessions    *repository.CheckoutRepository
	enrollments *repository.EnrollmentRepository

	gw  *fakeGateway
	pub *fakePublisher

	checkout *CheckoutUseCase
	rec      *Reconciler
	webhook  *WebhookProcessor
	progress *ProgressUseCase
	access   *AccessUseCase

	mu  sync.Mutex
	now time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	e := &env{
		t:   t,
		ctx: context.Background(),
		db:  db,
		gw:  newFakeGateway(),
		pub: &fakePublisher{},
		now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	courses := repository.NewCourseRepository(db, nil)
	e.sessions = repository.NewCheckoutRepository(db)
	e.enrollments = repository.NewEnrollmentRepository(db)

	e.checkout = NewCheckoutUseCase(courses, e.sessions, e.enrollments, e.gw, checkoutTTL, "usd", log)
	e.rec = NewReconciler(courses, e.sessions, e.enrollments, e.gw, expiryGrace, log)
	e.webhook = NewWebhookProcessor(e.gw, e.sessions, e.rec, log)
	e.progress = NewProgressUseCase(courses, e.enrollments, e.pub, log)
	e.access = NewAccessUseCase(courses, e.enrollments, log)

	e.checkout.now = e.clock
	e.rec.now = e.clock
	e.progress.now = e.clock
	e.access.now = e.clock
	return e
}

func (e *env) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *env) advance(d time.Duration) {
	e.mu.Lock()
	e.now = e.now.Add(d)
	e.mu.Unlock()
}

func (e *env) course(opts testutil.CourseOpts) *domain.Course {
	return testutil.SeedCourse(e.t, e.ctx, e.db, opts)
}

func (e *env) enrollmentCount(student, course uuid.UUID) int64 {
	e.t.Helper()
	n, err := e.enrollments.Count(e.ctx, student, course)
	if err != nil {
		e.t.Fatalf("count enrollments: %v", err)
	}
	return n
}

// deliver отправляет подписанное событие checkout.session.* в процессор.
func (e *env) deliver(eventID, eventType string, s *domain.CheckoutSession, paymentStatus string) (*WebhookResult, error) {
	body := []byte(fmt.Sprintf(`{
  "id": %q,
  "object": "event",
  "type": %q,
  "data": {"object": {
    "id": %q,
    "object": "checkout.session",
    "payment_status": %q,
    "metadata": {"user_id": %q, "course_id": %q}
  }}
}`, eventID, eventType, s.ID, paymentStatus, s.UserID.String(), s.CourseID.String()))
	return e.webhook.Process(e.ctx, body, payment.SignedTestPayload(body, webhookSecret, time.Now()))
}

func identity(premiumUntil time.Time) domain.Identity {
	return domain.Identity{UserID: uuid.New(), Email: "student@example.com", Role: "user", PremiumUntil: premiumUntil}
}
