package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/service"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
	"github.com/seims-dev/seims-api/pkg/response"
)

// ApprovalHandler exposes the reviewer queue and decision endpoints.
type ApprovalHandler struct {
	service       *service.ApprovalService
	registrations *service.RegistrationService
	metrics       *service.MetricsService
}

// NewApprovalHandler creates a new handler.
func NewApprovalHandler(svc *service.ApprovalService, registrations *service.RegistrationService, metrics *service.MetricsService) *ApprovalHandler {
	return &ApprovalHandler{service: svc, registrations: registrations, metrics: metrics}
}

// Queue godoc
// @Summary List pending registrations
// @Description Registrations awaiting review, newest submissions first
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /approvals [get]
func (h *ApprovalHandler) Queue(c *gin.Context) {
	summaries, err := h.service.ListPending(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Open godoc
// @Summary Open a registration for review
// @Description Full registration detail for the review screen
// @Tags Approvals
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /approvals/{id} [get]
func (h *ApprovalHandler) Open(c *gin.Context) {
	detail, err := h.registrations.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Decide godoc
// @Summary Record a review decision
// @Description Approve, deny, put on hold, or save reviewer notes
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.DecideRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/{id}/decision [post]
func (h *ApprovalHandler) Decide(c *gin.Context) {
	var req dto.DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	result, err := h.service.Decide(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.CountDecision(string(req.Decision))
	}
	response.JSON(c, http.StatusOK, result, nil)
}
