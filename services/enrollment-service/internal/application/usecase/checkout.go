package usecase

import (
	"context"
	"errors"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/logger"
	"courseplatform/services/enrollment-service/internal/infrastructure/payment"
	"courseplatform/services/enrollment-service/internal/infrastructure/repository"

	"github.com/google/uuid"
)

type CheckoutUseCase struct {
	courses     *repository.CourseRepository
	sessions    *repository.CheckoutRepository
	enrollments *repository.EnrollmentRepository
	gateway     PaymentGateway
	ttl         time.Duration
	currency    string
	now         Clock
	log         *logger.Logger
}

func NewCheckoutUseCase(
	cr *repository.CourseRepository,
	sr *repository.CheckoutRepository,
	er *repository.EnrollmentRepository,
	gw PaymentGateway,
	ttl time.Duration,
	currency string,
	log *logger.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		courses:     cr,
		sessions:    sr,
		enrollments: er,
		gateway:     gw,
		ttl:         ttl,
		currency:    currency,
		now:         systemClock,
		log:         log.With("component", "CheckoutUseCase"),
	}
}

// CreateSession returns the live session for (user, course) if there is one,
// otherwise opens a new provider session and persists it before returning.
func (uc *CheckoutUseCase) CreateSession(ctx context.Context, id domain.Identity, courseID uuid.UUID) (*domain.CheckoutSession, error) {
	course, err := uc.courses.GetWithLessons(ctx, courseID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !course.IsPublished {
		return nil, domain.ErrCourseNotFound
	}
	if !course.Purchasable() {
		return nil, domain.ErrCourseIsFree
	}

	n, err := uc.enrollments.Count(ctx, id.UserID, courseID)
	if err != nil {
		return nil, storageErr(err)
	}
	if n > 0 {
		return nil, domain.ErrAlreadyEnrolled
	}

	now := uc.now()
	live, err := uc.sessions.FindLive(ctx, id.UserID, courseID, now)
	if err == nil {
		return live, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, storageErr(err)
	}

	if err := uc.sessions.SupersedeExpired(ctx, id.UserID, courseID, now); err != nil {
		return nil, storageErr(err)
	}

	ps, err := uc.gateway.CreateSession(ctx, payment.CheckoutRequest{
		UserID:      id.UserID.String(),
		CourseID:    courseID.String(),
		CourseTitle: course.Title,
		Email:       id.Email,
		Amount:      course.Price,
		Currency:    uc.currency,
	})
	if err != nil {
		uc.log.Error("provider session create failed", "course_id", courseID, "error", err)
		return nil, domain.Transient(err)
	}

	s := &domain.CheckoutSession{
		ID:          ps.ID,
		UserID:      id.UserID,
		CourseID:    courseID,
		Amount:      course.Price,
		Currency:    uc.currency,
		Status:      domain.SessionCreated,
		CheckoutURL: ps.URL,
		CreatedAt:   now,
		ExpiresAt:   now.Add(uc.ttl),
	}
	inserted, err := uc.sessions.Insert(ctx, s)
	if err != nil {
		return nil, storageErr(err)
	}
	if !inserted {
		// Параллельный запрос успел раньше, отдаём его сессию
		uc.log.Info("live session already exists, reusing", "user_id", id.UserID, "course_id", courseID, "dropped_session", ps.ID)
		winner, err := uc.sessions.FindLive(ctx, id.UserID, courseID, now)
		if err != nil {
			return nil, storageErr(err)
		}
		return winner, nil
	}

	uc.log.Info("checkout session created", "session_id", s.ID, "user_id", id.UserID, "course_id", courseID)
	return s, nil
}

// GetSession отдаёт статус сессии владельцу. Просроченная created-сессия
// показывается как expired, в базе её переведёт Reconciler или новый checkout.
func (uc *CheckoutUseCase) GetSession(ctx context.Context, id domain.Identity, sessionID string) (*domain.CheckoutSession, error) {
	s, err := uc.ownedSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status == domain.SessionCreated && !s.Live(uc.now()) {
		s.Status = domain.SessionExpired
	}
	return s, nil
}

func (uc *CheckoutUseCase) CancelSession(ctx context.Context, id domain.Identity, sessionID string) (*domain.CheckoutSession, error) {
	s, err := uc.ownedSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status == domain.SessionCancelled {
		return s, nil
	}

	ok, err := uc.sessions.Cancel(ctx, sessionID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !ok {
		return nil, domain.ErrSessionClosed
	}
	s.Status = domain.SessionCancelled
	s.ActiveKey = nil
	uc.log.Info("checkout session cancelled", "session_id", sessionID, "user_id", id.UserID)
	return s, nil
}

func (uc *CheckoutUseCase) ownedSession(ctx context.Context, id domain.Identity, sessionID string) (*domain.CheckoutSession, error) {
	s, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, storageErr(err)
	}
	if s.UserID != id.UserID {
		return nil, domain.ErrSessionOwner
	}
	return s, nil
}
