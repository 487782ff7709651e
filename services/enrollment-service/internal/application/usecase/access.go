package usecase

import (
	"context"
	"errors"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/logger"
	"courseplatform/services/enrollment-service/internal/infrastructure/repository"

	"github.com/google/uuid"
)

// Decide maps (identity, course, lesson, enrollment) to an access level.
// id == nil means an anonymous caller, enrollment == nil means the caller
// holds no enrollment for the course.
func Decide(id *domain.Identity, course *domain.Course, lesson *domain.Lesson, enrollment *domain.Enrollment, now time.Time) domain.AccessDecision {
	if id == nil {
		if lesson.IsPreview {
			return domain.AccessDecision{Level: domain.AccessPreviewOnly, Reason: domain.ReasonPreview}
		}
		return domain.AccessDecision{Level: domain.AccessDenied, Reason: domain.ReasonAnonymous}
	}
	if enrollment != nil && enrollment.CourseID == course.ID {
		return domain.AccessDecision{Level: domain.AccessFull, Reason: domain.ReasonEnrolled}
	}
	if lesson.IsPreview {
		return domain.AccessDecision{Level: domain.AccessPreviewOnly, Reason: domain.ReasonPreview}
	}

	// Бесплатный премиум-курс открывается подпиской, а не оплатой
	switch {
	case course.IsPremium && !id.HasPremium(now):
		return domain.AccessDecision{Level: domain.AccessDenied, Reason: domain.ReasonSubscriptionRequired}
	case course.IsFree():
		return domain.AccessDecision{Level: domain.AccessDenied, Reason: domain.ReasonEnrollRequired}
	default:
		return domain.AccessDecision{Level: domain.AccessDenied, Reason: domain.ReasonPurchaseRequired}
	}
}

type LessonContent struct {
	CourseID  uuid.UUID             `json:"course_id"`
	LessonID  uuid.UUID             `json:"lesson_id"`
	Title     string                `json:"title"`
	Order     int                   `json:"order"`
	IsPreview bool                  `json:"is_preview"`
	FileLink  string                `json:"file_link,omitempty"`
	Access    domain.AccessDecision `json:"access"`
}

type AccessUseCase struct {
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
	now         Clock
	log         *logger.Logger
}

func NewAccessUseCase(cr *repository.CourseRepository, er *repository.EnrollmentRepository, log *logger.Logger) *AccessUseCase {
	return &AccessUseCase{
		courses:     cr,
		enrollments: er,
		now:         systemClock,
		log:         log.With("component", "AccessUseCase"),
	}
}

// LessonAccess returns the lesson with the caller's access decision. The
// file link is only filled in when the decision allows viewing.
func (uc *AccessUseCase) LessonAccess(ctx context.Context, id *domain.Identity, courseID, lessonID uuid.UUID) (*LessonContent, error) {
	course, err := uc.courses.GetWithLessons(ctx, courseID)
	if err != nil {
		return nil, storageErr(err)
	}
	if !course.IsPublished {
		return nil, domain.ErrCourseNotFound
	}
	lesson, ok := course.Lesson(lessonID)
	if !ok {
		return nil, domain.ErrLessonNotFound
	}

	var enrollment *domain.Enrollment
	if id != nil {
		e, err := uc.enrollments.Get(ctx, id.UserID, courseID)
		switch {
		case err == nil:
			enrollment = e
		case !errors.Is(err, domain.ErrNotEnrolled):
			return nil, storageErr(err)
		}
	}

	now := uc.now()
	decision := Decide(id, course, lesson, enrollment, now)
	out := &LessonContent{
		CourseID:  course.ID,
		LessonID:  lesson.ID,
		Title:     lesson.Title,
		Order:     lesson.Order,
		IsPreview: lesson.IsPreview,
		Access:    decision,
	}
	if decision.Level != domain.AccessDenied {
		out.FileLink = lesson.FileLink
	}

	if enrollment != nil {
		if err := uc.enrollments.Touch(ctx, id.UserID, courseID, now); err != nil {
			uc.log.Warn("touch enrollment failed", "enrollment_id", enrollment.ID, "error", err)
		}
	}
	return out, nil
}
