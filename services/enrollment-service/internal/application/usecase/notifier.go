package usecase

import (
	"context"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/logger"
)

// Notifier слушает CourseCompleted и шлёт письмо о сертификате.
type Notifier struct {
	subscriber EventSubscriber
	mailer     Mailer
	log        *logger.Logger
}

func NewNotifier(sub EventSubscriber, m Mailer, log *logger.Logger) *Notifier {
	return &Notifier{subscriber: sub, mailer: m, log: log.With("component", "Notifier")}
}

// Run blocks until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	n.log.Info("notifier started")
	return n.subscriber.SubscribeCourseCompleted(ctx, n.Handle)
}

func (n *Notifier) Handle(ctx context.Context, ev domain.CourseCompleted) {
	if ev.StudentEmail == "" {
		n.log.Warn("course completed without email, skipping", "enrollment_id", ev.EnrollmentID)
		return
	}
	if err := n.mailer.SendCourseCompleted(ctx, ev); err != nil {
		n.log.Error("send course completed email failed", "enrollment_id", ev.EnrollmentID, "error", err)
		return
	}
	n.log.Info("course completed email sent", "enrollment_id", ev.EnrollmentID, "course_id", ev.CourseID)
}
