package handlers

import (
	"net/http"

	"courseplatform/services/enrollment-service/internal/application/usecase"
	"courseplatform/services/enrollment-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type EnrollmentHandler struct {
	progress *usecase.ProgressUseCase
}

func NewEnrollmentHandler(pu *usecase.ProgressUseCase) *EnrollmentHandler {
	return &EnrollmentHandler{progress: pu}
}

// POST /api/v1/courses/:id/lessons/:lessonId/complete
func (h *EnrollmentHandler) CompleteLesson(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lessonID, ok := uuidParam(c, "lessonId")
	if !ok {
		return
	}

	upd, err := h.progress.CompleteLesson(c.Request.Context(), *middleware.Identity(c), courseID, lessonID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, upd)
}

// GET /api/v1/enrollments
func (h *EnrollmentHandler) List(c *gin.Context) {
	items, err := h.progress.ListEnrollments(c.Request.Context(), *middleware.Identity(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": items})
}

// GET /api/v1/courses/:id/enrollment
func (h *EnrollmentHandler) Get(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	view, err := h.progress.GetEnrollment(c.Request.Context(), *middleware.Identity(c), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
