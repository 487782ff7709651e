package handlers

import (
	"net/http"

	"courseplatform/services/enrollment-service/internal/application/usecase"
	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/middleware"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	access     *usecase.AccessUseCase
	reconciler *usecase.Reconciler
}

func NewCourseHandler(au *usecase.AccessUseCase, rec *usecase.Reconciler) *CourseHandler {
	return &CourseHandler{access: au, reconciler: rec}
}

// GET /api/v1/courses/:id/lessons/:lessonId
func (h *CourseHandler) Lesson(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lessonID, ok := uuidParam(c, "lessonId")
	if !ok {
		return
	}

	id := middleware.Identity(c)
	content, err := h.access.LessonAccess(c.Request.Context(), id, courseID, lessonID)
	if err != nil {
		writeError(c, err)
		return
	}

	if content.Access.Level == domain.AccessDenied {
		status := http.StatusForbidden
		if id == nil {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": "lesson is locked", "code": content.Access.Reason, "lesson": content})
		return
	}
	c.JSON(http.StatusOK, content)
}

// POST /api/v1/courses/:id/enroll
func (h *CourseHandler) Enroll(c *gin.Context) {
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	e, err := h.reconciler.EnrollFree(c.Request.Context(), *middleware.Identity(c), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
