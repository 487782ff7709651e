package handlers

import (
	"net/http"
	"time"

	"courseplatform/services/enrollment-service/internal/application/usecase"
	"courseplatform/services/enrollment-service/internal/domain"
	"courseplatform/services/enrollment-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutHandler struct {
	checkout   *usecase.CheckoutUseCase
	reconciler *usecase.Reconciler
}

func NewCheckoutHandler(cu *usecase.CheckoutUseCase, rec *usecase.Reconciler) *CheckoutHandler {
	return &CheckoutHandler{checkout: cu, reconciler: rec}
}

type createSessionReq struct {
	CourseID string `json:"course_id" binding:"required,uuid"`
}

type sessionResp struct {
	ID          string               `json:"id"`
	CourseID    uuid.UUID            `json:"course_id"`
	Status      domain.SessionStatus `json:"status"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    string               `json:"currency"`
	CheckoutURL string               `json:"checkout_url,omitempty"`
	ExpiresAt   time.Time            `json:"expires_at"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
}

func toSessionResp(s *domain.CheckoutSession) sessionResp {
	out := sessionResp{
		ID:          s.ID,
		CourseID:    s.CourseID,
		Status:      s.Status,
		Amount:      s.Amount,
		Currency:    s.Currency,
		ExpiresAt:   s.ExpiresAt,
		CompletedAt: s.CompletedAt,
	}
	// Ссылка на оплату нужна только пока сессия открыта
	if s.Status == domain.SessionCreated {
		out.CheckoutURL = s.CheckoutURL
	}
	return out
}

// POST /api/v1/checkout/sessions
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req createSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "course_id must be a uuid", "code": "validation"})
		return
	}
	courseID := uuid.MustParse(req.CourseID)

	s, err := h.checkout.CreateSession(c.Request.Context(), *middleware.Identity(c), courseID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResp(s))
}

// GET /api/v1/checkout/sessions/:id
func (h *CheckoutHandler) Get(c *gin.Context) {
	s, err := h.checkout.GetSession(c.Request.Context(), *middleware.Identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResp(s))
}

// POST /api/v1/checkout/sessions/:id/cancel
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	s, err := h.checkout.CancelSession(c.Request.Context(), *middleware.Identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResp(s))
}

// POST /api/v1/checkout/sessions/:id/verify
func (h *CheckoutHandler) Verify(c *gin.Context) {
	e, err := h.reconciler.VerifyAndEnroll(c.Request.Context(), *middleware.Identity(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
