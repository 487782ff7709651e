package usecase

import (
	"context"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/infrastructure/logger"
	"courseplatform/services/enrollment-service/internal/infrastructure/repository"

	"github.com/google/uuid"
)

const publishTimeout = 3 * time.Second

type ProgressUseCase struct {
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
	publisher   EventPublisher
	now         Clock
	log         *logger.Logger
}

func NewProgressUseCase(cr *repository.CourseRepository, er *repository.EnrollmentRepository, pub EventPublisher, log *logger.Logger) *ProgressUseCase {
	return &ProgressUseCase{
		courses:     cr,
		enrollments: er,
		publisher:   pub,
		now:         systemClock,
		log:         log.With("component", "ProgressUseCase"),
	}
}

// CompleteLesson marks lessonID done for the caller. Repeating it is a
// successful no-op; only unknown lessons and missing enrollments fail.
func (uc *ProgressUseCase) CompleteLesson(ctx context.Context, id domain.Identity, courseID, lessonID uuid.UUID) (*domain.ProgressUpdate, error) {
	course, err := uc.courses.GetWithLessons(ctx, courseID)
	if err != nil {
		return nil, storageErr(err)
	}
	if _, ok := course.Lesson(lessonID); !ok {
		return nil, domain.ErrLessonNotFound
	}

	now := uc.now()
	upd, err := uc.enrollments.CompleteLesson(ctx, id.UserID, courseID, lessonID, course.LessonIDs(), now)
	if err != nil {
		return nil, storageErr(err)
	}

	if upd.JustCompletedCourse {
		uc.log.Info("course completed", "enrollment_id", upd.EnrollmentID, "course_id", courseID, "student_id", id.UserID)
		uc.announce(ctx, domain.CourseCompleted{
			EnrollmentID: upd.EnrollmentID,
			StudentID:    id.UserID,
			StudentEmail: id.Email,
			CourseID:     courseID,
			CourseTitle:  course.Title,
			CompletedAt:  now,
		})
	}
	return upd, nil
}

// announce не влияет на результат: запись уже закоммичена.
func (uc *ProgressUseCase) announce(ctx context.Context, ev domain.CourseCompleted) {
	if uc.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := uc.publisher.PublishCourseCompleted(pctx, ev); err != nil {
		uc.log.Warn("publish course completed failed", "enrollment_id", ev.EnrollmentID, "error", err)
	}
}

func (uc *ProgressUseCase) ListEnrollments(ctx context.Context, id domain.Identity) ([]domain.Enrollment, error) {
	items, err := uc.enrollments.ListByStudent(ctx, id.UserID)
	if err != nil {
		return nil, storageErr(err)
	}
	return items, nil
}

type EnrollmentView struct {
	*domain.Enrollment
	CompletedLessonIDs []uuid.UUID `json:"completed_lesson_ids"`
	TotalLessons       int         `json:"total_lessons"`
}

func (uc *ProgressUseCase) GetEnrollment(ctx context.Context, id domain.Identity, courseID uuid.UUID) (*EnrollmentView, error) {
	course, err := uc.courses.GetWithLessons(ctx, courseID)
	if err != nil {
		return nil, storageErr(err)
	}
	e, err := uc.enrollments.Get(ctx, id.UserID, courseID)
	if err != nil {
		return nil, storageErr(err)
	}
	ids, err := uc.enrollments.CompletedLessonIDs(ctx, e.ID)
	if err != nil {
		return nil, storageErr(err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return &EnrollmentView{Enrollment: e, CompletedLessonIDs: ids, TotalLessons: len(course.Lessons)}, nil
}
