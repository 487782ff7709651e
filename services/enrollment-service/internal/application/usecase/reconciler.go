package usecase

import (
	"context"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/logger"
	"courseplatform/services/enrollment-service/internal/infrastructure/repository"

	"github.com/google/uuid"
)

// Reconciler turns confirmed-payment signals into exactly one Enrollment per
// (student, course). The webhook and the verify endpoint both land here, in
// any order and any number of times; duplicates return the stored row.
type Reconciler struct {
	courses     *repository.CourseRepository
	sessions    *repository.CheckoutRepository
	enrollments *repository.EnrollmentRepository
	gateway     PaymentGateway
	grace       time.Duration
	now         Clock
	log         *logger.Logger
}

func NewReconciler(
	cr *repository.CourseRepository,
	sr *repository.CheckoutRepository,
	er *repository.EnrollmentRepository,
	gw PaymentGateway,
	grace time.Duration,
	log *logger.Logger,
) *Reconciler {
	return &Reconciler{
		courses:     cr,
		sessions:    sr,
		enrollments: er,
		gateway:     gw,
		grace:       grace,
		now:         systemClock,
		log:         log.With("component", "Reconciler"),
	}
}

func (r *Reconciler) Reconcile(ctx context.Context, c domain.PaymentConfirmation) (*domain.Enrollment, error) {
	s, err := r.sessions.Get(ctx, c.SessionID)
	if err != nil {
		return nil, storageErr(err)
	}
	if s.UserID != c.UserID {
		return nil, domain.ErrSessionOwner
	}
	if s.CourseID != c.CourseID {
		return nil, domain.ErrCourseMismatch
	}
	if !c.Paid {
		return nil, domain.ErrPaymentPending
	}

	now := r.now()
	// Уже завершённую сессию не проверяем на срок: повторные доставки
	// после истечения должны вернуть ту же запись
	if s.Status != domain.SessionCompleted && now.After(s.ExpiresAt.Add(r.grace)) {
		if err := r.sessions.MarkExpired(ctx, s.ID); err != nil {
			r.log.Warn("mark session expired failed", "session_id", s.ID, "error", err)
		}
		r.log.Warn("paid session arrived after expiry", "session_id", s.ID, "event_id", c.EventID, "expires_at", s.ExpiresAt)
		return nil, domain.ErrSessionExpired
	}

	sid := s.ID
	e, created, err := r.enrollments.CreateIfAbsent(ctx, domain.NewEnrollment(c.UserID, c.CourseID, &sid, now))
	if err != nil {
		return nil, storageErr(err)
	}

	if err := r.sessions.MarkCompleted(ctx, s.ID, c.EventID, now); err != nil {
		return nil, storageErr(err)
	}

	if created {
		r.log.Info("enrollment created", "enrollment_id", e.ID, "session_id", s.ID, "event_id", c.EventID)
	} else {
		r.log.Debug("enrollment already exists", "enrollment_id", e.ID, "session_id", s.ID, "event_id", c.EventID)
	}
	return e, nil
}

// VerifyAndEnroll is the synchronous path after the provider redirect: the
// course comes from the stored session, the paid flag from the provider.
func (r *Reconciler) VerifyAndEnroll(ctx context.Context, id domain.Identity, sessionID string) (*domain.Enrollment, error) {
	s, err := r.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, storageErr(err)
	}
	if s.UserID != id.UserID {
		return nil, domain.ErrSessionOwner
	}

	paid := s.Status == domain.SessionCompleted
	if !paid {
		ps, err := r.gateway.GetSession(ctx, sessionID)
		if err != nil {
			r.log.Warn("provider session lookup failed", "session_id", sessionID, "error", err)
			return nil, domain.Transient(err)
		}
		paid = ps.Paid
	}

	return r.Reconcile(ctx, domain.PaymentConfirmation{
		UserID:    id.UserID,
		CourseID:  s.CourseID,
		SessionID: sessionID,
		Paid:      paid,
	})
}

// EnrollFree записывает на бесплатный курс. Премиум-курс требует подписку.
func (r *Reconciler) EnrollFree(ctx context.Context, id domain.Identity, courseID uuid.UUID) (*domain.Enrollment, error) {
	course, err := r.courses.GetWithLessons(ctx, courseID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !course.IsPublished {
		return nil, domain.ErrCourseNotFound
	}
	now := r.now()
	if !course.IsFree() {
		return nil, domain.ErrCourseNotFree
	}
	if course.IsPremium && !id.HasPremium(now) {
		return nil, domain.ErrPremiumRequired
	}

	e, created, err := r.enrollments.CreateIfAbsent(ctx, domain.NewEnrollment(id.UserID, courseID, nil, now))
	if err != nil {
		return nil, storageErr(err)
	}
	if created {
		r.log.Info("free enrollment created", "enrollment_id", e.ID, "course_id", courseID, "premium", course.IsPremium)
	}
	return e, nil
}
