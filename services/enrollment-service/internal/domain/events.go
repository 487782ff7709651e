package domain

import (
	"time"

	"github.com/google/uuid"
)

const CourseCompletedTopic = "enrollment.course_completed"

// CourseCompleted уходит в нотификации, ответа не ждём.
type CourseCompleted struct {
	EnrollmentID uuid.UUID `json:"enrollment_id"`
	StudentID    uuid.UUID `json:"student_id"`
	StudentEmail string    `json:"student_email,omitempty"`
	CourseID     uuid.UUID `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	CompletedAt  time.Time `json:"completed_at"`
}
