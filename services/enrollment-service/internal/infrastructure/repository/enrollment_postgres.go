package repository

import (
	"context"
	"errors"
	"time"

	"courseplatform/services/enrollment-service/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// CreateIfAbsent is a single conditional insert keyed on the
// (student_id, course_id) unique index. When the pair already exists nothing
// is written and the stored row is returned with created=false.
func (r *EnrollmentRepository) CreateIfAbsent(ctx context.Context, e *domain.Enrollment) (*domain.Enrollment, bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return e, true, nil
	}

	existing, err := r.Get(ctx, e.StudentID, e.CourseID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *EnrollmentRepository) Get(ctx context.Context, studentID, courseID uuid.UUID) (*domain.Enrollment, error) {
	var e domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotEnrolled
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.Enrollment, error) {
	var items []domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("last_accessed_at desc"). // Сначала последние открытые
		Find(&items).Error
	return items, err
}

func (r *EnrollmentRepository) CompletedLessonIDs(ctx context.Context, enrollmentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&domain.CompletedLesson{}).
		Where("enrollment_id = ?", enrollmentID).
		Order("created_at asc").
		Pluck("lesson_id", &ids).Error
	return ids, err
}

func (r *EnrollmentRepository) Count(ctx context.Context, studentID, courseID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&n).Error
	return n, err
}

func (r *EnrollmentRepository) Touch(ctx context.Context, studentID, courseID uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Update("last_accessed_at", now).Error
}

// CompleteLesson adds lessonID to the completed set and recomputes progress
// against courseLessons in one transaction. The first statement writes the
// enrollment row, so concurrent completions for the same enrollment queue on
// its row lock instead of losing each other's update.
func (r *EnrollmentRepository) CompleteLesson(ctx context.Context, studentID, courseID, lessonID uuid.UUID, courseLessons []uuid.UUID, now time.Time) (*domain.ProgressUpdate, error) {
	var out domain.ProgressUpdate
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Enrollment{}).
			Where("student_id = ? AND course_id = ?", studentID, courseID).
			Update("last_accessed_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotEnrolled
		}

		var e domain.Enrollment
		if err := tx.Where("student_id = ? AND course_id = ?", studentID, courseID).First(&e).Error; err != nil {
			return err
		}

		// Повторная отметка урока ничего не меняет
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&domain.CompletedLesson{EnrollmentID: e.ID, LessonID: lessonID, CreatedAt: now}).Error; err != nil {
			return err
		}

		var done int64
		if err := tx.Model(&domain.CompletedLesson{}).
			Where("enrollment_id = ? AND lesson_id IN ?", e.ID, courseLessons).
			Count(&done).Error; err != nil {
			return err
		}

		out = domain.Advance(e.Status, e.Progress, e.CertificateEligible, domain.ComputeProgress(int(done), len(courseLessons)))
		out.EnrollmentID = e.ID

		updates := map[string]interface{}{
			"progress":             out.Progress,
			"status":               out.Status,
			"certificate_eligible": out.CertificateEligible,
		}
		if out.JustCompletedCourse {
			updates["completed_at"] = now
		}
		return tx.Model(&domain.Enrollment{}).Where("id = ?", e.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
