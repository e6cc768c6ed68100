package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/service"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
	"github.com/seims-dev/seims-api/pkg/response"
)

// AssessmentHandler exposes quarterly assessment endpoints.
type AssessmentHandler struct {
	service *service.AssessmentService
}

// NewAssessmentHandler creates a new handler.
func NewAssessmentHandler(svc *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{service: svc}
}

// Create godoc
// @Summary Record an assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body dto.CreateAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /assessments [post]
func (h *AssessmentHandler) Create(c *gin.Context) {
	var req dto.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assessment payload"))
		return
	}
	assessment, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assessment)
}

// Get godoc
// @Summary Get one assessment
// @Tags Assessments
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) Get(c *gin.Context) {
	assessment, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessment, nil)
}

// List godoc
// @Summary List assessments
// @Tags Assessments
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param quarter query string false "Filter by quarter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /assessments [get]
func (h *AssessmentHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	filter := models.AssessmentFilter{
		StudentID: c.Query("student_id"),
		Quarter:   c.Query("quarter"),
		Limit:     limit,
		Offset:    offset,
	}
	assessments, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assessments, nil)
}

// Finalize godoc
// @Summary Finalize an assessment
// @Description Locks the assessment; finalized records cannot change
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Success 204 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assessments/{id}/finalize [post]
func (h *AssessmentHandler) Finalize(c *gin.Context) {
	var payload struct {
		ReportPath string `json:"report_path"`
	}
	_ = c.ShouldBindJSON(&payload)
	if err := h.service.Finalize(c.Request.Context(), c.Param("id"), payload.ReportPath, claimsFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
