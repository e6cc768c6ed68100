package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/service"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
	"github.com/seims-dev/seims-api/pkg/response"
)

// SessionLogHandler exposes session logging endpoints.
type SessionLogHandler struct {
	service *service.SessionLogService
}

// NewSessionLogHandler creates a new handler.
func NewSessionLogHandler(svc *service.SessionLogService) *SessionLogHandler {
	return &SessionLogHandler{service: svc}
}

// Create godoc
// @Summary Record a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionLogRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionLogHandler) Create(c *gin.Context) {
	var req dto.CreateSessionLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	log, err := h.service.Create(c.Request.Context(), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

// Get godoc
// @Summary Get one session log
// @Tags Sessions
// @Produce json
// @Param id path string true "Session log ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sessions/{id} [get]
func (h *SessionLogHandler) Get(c *gin.Context) {
	log, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, log, nil)
}

// List godoc
// @Summary List session logs
// @Tags Sessions
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param teacher_id query string false "Filter by teacher"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionLogHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	filter := models.SessionLogFilter{
		StudentID: c.Query("student_id"),
		TeacherID: c.Query("teacher_id"),
		Limit:     limit,
		Offset:    offset,
	}
	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse("2006-01-02", from); err == nil {
			filter.From = &parsed
		}
	}
	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse("2006-01-02", to); err == nil {
			filter.To = &parsed
		}
	}
	logs, err := h.service.List(c.Request.Context(), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
