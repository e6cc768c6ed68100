package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seims-dev/seims-api/internal/middleware"
	"github.com/seims-dev/seims-api/internal/models"
	"github.com/seims-dev/seims-api/internal/repository"
	"github.com/seims-dev/seims-api/internal/service"
)

type fakeRegistrationStore struct {
	regs map[string]models.Registration
}

func (f *fakeRegistrationStore) Create(ctx context.Context, reg *models.Registration) error {
	reg.ID = "reg-1"
	reg.Seq = 1
	reg.AdmissionNumber = "S-2026-0001"
	if f.regs == nil {
		f.regs = make(map[string]models.Registration)
	}
	f.regs[reg.ID] = *reg
	return nil
}

func (f *fakeRegistrationStore) GetByID(ctx context.Context, id string) (*models.Registration, error) {
	if reg, ok := f.regs[id]; ok {
		return &reg, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRegistrationStore) List(ctx context.Context, filter models.RegistrationFilter) ([]models.Registration, error) {
	var out []models.Registration
	for _, reg := range f.regs {
		out = append(out, reg)
	}
	return out, nil
}

func (f *fakeRegistrationStore) UpdateBasicInfo(ctx context.Context, reg *models.Registration) error {
	f.regs[reg.ID] = *reg
	return nil
}

func (f *fakeRegistrationStore) SaveStepPayload(ctx context.Context, params repository.UpdateStepParams) error {
	return nil
}

func (f *fakeRegistrationStore) Submit(ctx context.Context, params repository.SubmitParams) error {
	return nil
}

func newRegistrationTestContext(t *testing.T, method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, rec
}

func newRegistrationHandlerUnderTest(store *fakeRegistrationStore) *RegistrationHandler {
	svc := service.NewRegistrationService(store, nil, nil, nil)
	return NewRegistrationHandler(svc)
}

func TestRegistrationHandlerCreateBasicInfo(t *testing.T) {
	handler := newRegistrationHandlerUnderTest(&fakeRegistrationStore{})

	body := `{"first_name":"Asha","last_name":"Rao","date_of_birth":"2015-04-12","gender":"female","enrollment_date":"2026-06-01"}`
	c, rec := newRegistrationTestContext(t, http.MethodPost, "/registrations", body)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleSpecialEducator})

	handler.CreateBasicInfo(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "S-2026-0001", envelope.Data["admission_number"])
	assert.Equal(t, float64(1), envelope.Data["new_step"])
	assert.Equal(t, "draft", envelope.Data["status"])
}

func TestRegistrationHandlerCreateRejectsMalformedJSON(t *testing.T) {
	handler := newRegistrationHandlerUnderTest(&fakeRegistrationStore{})

	c, rec := newRegistrationTestContext(t, http.MethodPost, "/registrations", `{"first_name":`)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleSpecialEducator})

	handler.CreateBasicInfo(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistrationHandlerCreateWithoutClaims(t *testing.T) {
	handler := newRegistrationHandlerUnderTest(&fakeRegistrationStore{})

	body := `{"first_name":"Asha","last_name":"Rao","date_of_birth":"2015-04-12","gender":"female","enrollment_date":"2026-06-01"}`
	c, rec := newRegistrationTestContext(t, http.MethodPost, "/registrations", body)

	handler.CreateBasicInfo(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegistrationHandlerSubmitIncomplete(t *testing.T) {
	store := &fakeRegistrationStore{regs: map[string]models.Registration{
		"reg-1": {ID: "reg-1", CreatedBy: "u1", RegistrationStatus: models.RegistrationStatusDraft, RegistrationStep: 2},
	}}
	handler := newRegistrationHandlerUnderTest(store)

	c, rec := newRegistrationTestContext(t, http.MethodPost, "/registrations/reg-1/submit", `{"confirm_accuracy":true,"confirm_documents":true}`)
	c.Params = gin.Params{{Key: "id", Value: "reg-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleSpecialEducator})

	handler.Submit(c)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}
