package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/service"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
	"github.com/seims-dev/seims-api/pkg/response"
)

// IEPHandler exposes IEP and goal endpoints.
type IEPHandler struct {
	service *service.IEPService
}

// NewIEPHandler creates a new handler.
func NewIEPHandler(svc *service.IEPService) *IEPHandler {
	return &IEPHandler{service: svc}
}

// List godoc
// @Summary List IEPs
// @Tags IEPs
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param academic_year query string false "Filter by academic year"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /ieps [get]
func (h *IEPHandler) List(c *gin.Context) {
	filter := models.IEPFilter{
		StudentID:    c.Query("student_id"),
		AcademicYear: c.Query("academic_year"),
	}
	if status := c.Query("status"); status != "" {
		filter.Status = []models.IEPStatus{models.IEPStatus(status)}
	}
	ieps, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ieps, nil)
}

// Get godoc
// @Summary Get an IEP with its goals
// @Tags IEPs
// @Produce json
// @Param id path string true "IEP ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /ieps/{id} [get]
func (h *IEPHandler) Get(c *gin.Context) {
	iep, goals, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"iep": iep, "goals": goals}, nil)
}

// Create godoc
// @Summary Open a draft IEP
// @Tags IEPs
// @Accept json
// @Produce json
// @Param payload body dto.CreateIEPRequest true "IEP payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /ieps [post]
func (h *IEPHandler) Create(c *gin.Context) {
	var req dto.CreateIEPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid IEP payload"))
		return
	}
	iep, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, iep)
}

// Activate godoc
// @Summary Activate a draft IEP
// @Description Archives any currently active IEP for the same student
// @Tags IEPs
// @Produce json
// @Param id path string true "IEP ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ieps/{id}/activate [post]
func (h *IEPHandler) Activate(c *gin.Context) {
	iep, err := h.service.Activate(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, iep, nil)
}

// AddGoal godoc
// @Summary Attach a goal
// @Tags IEPs
// @Accept json
// @Produce json
// @Param id path string true "IEP ID"
// @Param payload body dto.CreateGoalRequest true "Goal payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ieps/{id}/goals [post]
func (h *IEPHandler) AddGoal(c *gin.Context) {
	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid goal payload"))
		return
	}
	goal, err := h.service.AddGoal(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, goal)
}

// UpdateGoalStatus godoc
// @Summary Update goal progress state
// @Tags IEPs
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param payload body dto.UpdateGoalStatusRequest true "Status payload"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /goals/{id}/status [patch]
func (h *IEPHandler) UpdateGoalStatus(c *gin.Context) {
	var req dto.UpdateGoalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	if err := h.service.UpdateGoalStatus(c.Request.Context(), c.Param("id"), req, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
