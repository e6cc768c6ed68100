package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seims-dev/seims-api/internal/dto"
	"github.com/seims-dev/seims-api/internal/service"
	appErrors "github.com/seims-dev/seims-api/pkg/errors"
	"github.com/seims-dev/seims-api/pkg/response"
)

// RegistrationHandler exposes the six-step wizard over HTTP. Step 1 creates
// the record; every other step addresses an existing registration by ID.
type RegistrationHandler struct {
	service *service.RegistrationService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// List godoc
// @Summary List my registrations
// @Description List registrations created by the current user with status badges
// @Tags Registrations
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	summaries, err := h.service.ListMine(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Get godoc
// @Summary Get one registration
// @Description Load a registration with every saved step payload
// @Tags Registrations
// @Produce json
// @Param id path string true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /registrations/{id} [get]
func (h *RegistrationHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// CreateBasicInfo godoc
// @Summary Start a registration
// @Description Save step 1 for a new student; assigns the admission number
// @Tags Registrations
// @Accept json
// @Produce json
// @Param payload body dto.SaveBasicInfoRequest true "Basic info"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /registrations [post]
func (h *RegistrationHandler) CreateBasicInfo(c *gin.Context) {
	var req dto.SaveBasicInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid basic info payload"))
		return
	}
	result, err := h.service.SaveBasicInfo(c.Request.Context(), "", req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// UpdateBasicInfo godoc
// @Summary Save step 1
// @Description Update basic information on an existing registration
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.SaveBasicInfoRequest true "Basic info"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/steps/basic-info [put]
func (h *RegistrationHandler) UpdateBasicInfo(c *gin.Context) {
	var req dto.SaveBasicInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid basic info payload"))
		return
	}
	result, err := h.service.SaveBasicInfo(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SaveContactInfo godoc
// @Summary Save step 2
// @Description Save guardians, address, and emergency contacts
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.SaveContactInfoRequest true "Contact info"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/steps/contact-info [put]
func (h *RegistrationHandler) SaveContactInfo(c *gin.Context) {
	var req dto.SaveContactInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid contact info payload"))
		return
	}
	result, err := h.service.SaveContactInfo(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SaveAcademicInfo godoc
// @Summary Save step 3
// @Description Save grade placement, staff assignments, and schedule preferences
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.SaveAcademicInfoRequest true "Academic info"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/steps/academic-info [put]
func (h *RegistrationHandler) SaveAcademicInfo(c *gin.Context) {
	var req dto.SaveAcademicInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid academic info payload"))
		return
	}
	result, err := h.service.SaveAcademicInfo(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SaveMedicalInfo godoc
// @Summary Save step 4
// @Description Save medical conditions, allergies, and medications
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.SaveMedicalInfoRequest true "Medical info"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/steps/medical-info [put]
func (h *RegistrationHandler) SaveMedicalInfo(c *gin.Context) {
	var req dto.SaveMedicalInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid medical info payload"))
		return
	}
	result, err := h.service.SaveMedicalInfo(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// SaveLearningProfile godoc
// @Summary Save step 5
// @Description Save diagnosis, impact level, and supporting documents
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.SaveLearningProfileRequest true "Learning profile"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/steps/learning-profile [put]
func (h *RegistrationHandler) SaveLearningProfile(c *gin.Context) {
	var req dto.SaveLearningProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid learning profile payload"))
		return
	}
	result, err := h.service.SaveLearningProfile(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Submit godoc
// @Summary Submit for review
// @Description Submit a completed registration; resubmission clears prior review notes
// @Tags Registrations
// @Accept json
// @Produce json
// @Param id path string true "Registration ID"
// @Param payload body dto.SubmitRequest true "Confirmation flags"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /registrations/{id}/submit [post]
func (h *RegistrationHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submit payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), req, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
