package domain

import (
	"time"

	"github.com/google/uuid"
)

type EnrollmentStatus string

const (
	StatusEnrolled   EnrollmentStatus = "ENROLLED"
	StatusInProgress EnrollmentStatus = "IN_PROGRESS"
	StatusCompleted  EnrollmentStatus = "COMPLETED"
)

// Enrollment is the durable record of access. Exactly one row exists per
// (student, course); the composite unique index is the idempotency key for
// every creation path.
type Enrollment struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID           uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course" json:"student_id"`
	CourseID            uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course" json:"course_id"`
	Status              EnrollmentStatus `gorm:"size:16;not null" json:"status"`
	Progress            int              `gorm:"not null" json:"progress"`
	CertificateEligible bool             `gorm:"not null" json:"certificate_eligible"`
	SourceSessionID     *string          `gorm:"size:255" json:"source_session_id,omitempty"`

	CompletedLessons []CompletedLesson `gorm:"foreignKey:EnrollmentID;constraint:OnDelete:CASCADE;" json:"-"`

	EnrolledAt     time.Time  `json:"enrolled_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// CompletedLesson: составной первичный ключ делает повторную отметку no-op.
type CompletedLesson struct {
	EnrollmentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	LessonID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt    time.Time
}

func NewEnrollment(studentID, courseID uuid.UUID, sessionID *string, now time.Time) *Enrollment {
	return &Enrollment{
		ID:              uuid.New(),
		StudentID:       studentID,
		CourseID:        courseID,
		Status:          StatusEnrolled,
		Progress:        0,
		SourceSessionID: sessionID,
		EnrolledAt:      now,
		LastAccessedAt:  now,
	}
}

// ComputeProgress returns round(100*completed/total), halves rounded up.
func ComputeProgress(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	if completed >= total {
		return 100
	}
	return (200*completed + total) / (2 * total)
}

// ProgressUpdate is the outcome of one lesson completion.
type ProgressUpdate struct {
	EnrollmentID        uuid.UUID        `json:"enrollment_id"`
	Progress            int              `json:"progress"`
	Status              EnrollmentStatus `json:"status"`
	CertificateEligible bool             `json:"certificate_eligible"`
	JustCompletedCourse bool             `json:"just_completed_course"`
}

// Advance applies a freshly computed progress value to the current state.
// Progress never decreases, COMPLETED and certificate eligibility are one-way.
func Advance(status EnrollmentStatus, progress int, certificate bool, computed int) ProgressUpdate {
	next := ProgressUpdate{Progress: progress, Status: status, CertificateEligible: certificate}
	if computed > next.Progress {
		next.Progress = computed
	}
	switch {
	case next.Progress >= 100:
		next.Progress = 100
		next.JustCompletedCourse = status != StatusCompleted
		next.Status = StatusCompleted
		next.CertificateEligible = true
	case next.Progress > 0 && status == StatusEnrolled:
		next.Status = StatusInProgress
	}
	return next
}
