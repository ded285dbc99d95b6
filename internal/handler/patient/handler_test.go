package patient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/service/patient"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
	"github.com/hospitalward/ward-api/pkg/logger"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (r *fakePatientRepo) Create(ctx context.Context, p *model.Patient) error {
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.patients[id]
	if !ok {
		return nil, apperrors.NewNotFound("patient", nil)
	}
	clone := *p
	return &clone, nil
}

func (r *fakePatientRepo) GetByNationalID(ctx context.Context, nationalID string) (*model.Patient, error) {
	for _, p := range r.patients {
		if p.NationalID == nationalID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFound("patient", nil)
}

func (r *fakePatientRepo) Update(ctx context.Context, p *model.Patient) error {
	if _, ok := r.patients[p.ID]; !ok {
		return apperrors.NewNotFound("patient", nil)
	}
	clone := *p
	r.patients[p.ID] = &clone
	return nil
}

func (r *fakePatientRepo) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	var out []*model.Patient
	for _, p := range r.patients {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePatientRepo) ListWithoutBed(ctx context.Context) ([]*model.Patient, error) {
	return r.List(ctx, nil)
}

type fakePaymentRepo struct{}

func (fakePaymentRepo) Create(ctx context.Context, p *model.Payment) error { return nil }

func (fakePaymentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	return nil, apperrors.NewNotFound("payment", nil)
}

func (fakePaymentRepo) Update(ctx context.Context, p *model.Payment) error { return nil }

func (fakePaymentRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Payment, error) {
	return nil, nil
}

func (fakePaymentRepo) HasOutstanding(ctx context.Context, patientID uuid.UUID) (bool, error) {
	return false, nil
}

type fakeBedReleaser struct{}

func (fakeBedReleaser) ReleaseForPatient(ctx context.Context, patientID uuid.UUID) error {
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func setupHandler(t *testing.T, actor model.Actor) (*gin.Engine, *fakePatientRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
	log := logger.New(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	svc := patient.NewService(repo, fakePaymentRepo{}, nil, nil, fakeBedReleaser{}, passthroughTx{}, nil, nil, nil, patient.Config{}, log)

	engine := gin.New()
	group := engine.Group("/api/v1")
	group.Use(func(c *gin.Context) {
		c.Set("actor", actor)
	})
	NewHandler(svc).RegisterRoutes(group)
	return engine, repo
}

func seedPatient(repo *fakePatientRepo, doctorID, nurseID *uuid.UUID) *model.Patient {
	p := &model.Patient{
		Base:           model.Base{ID: uuid.New()},
		NationalID:     "1234567890",
		FirstName:      "Sara",
		LastName:       "Karimi",
		Sickness:       "pneumonia",
		PhoneNumber:    "+989121234567",
		Address:        "12 Azadi St",
		InsuranceType:  model.InsuranceNone,
		BloodType:      model.BloodOPos,
		DoctorID:       doctorID,
		NurseID:        nurseID,
		IsHospitalized: true,
	}
	repo.patients[p.ID] = p
	return p
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var envelope struct {
		Status string                 `json:"status"`
		Data   map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return rec, envelope.Data
}

func TestUpdateResponseHidesContactFieldsFromNurse(t *testing.T) {
	nurse := model.Actor{UserID: uuid.New(), Roles: []model.Role{model.RoleNurses}}
	engine, repo := setupHandler(t, nurse)
	p := seedPatient(repo, nil, &nurse.UserID)

	rec, data := doJSON(t, engine, http.MethodPatch, "/api/v1/patients/"+p.ID.String(),
		gin.H{"nurse_report": "stable overnight"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "stable overnight", data["nurse_report"])
	assert.NotContains(t, data, "national_id")
	assert.NotContains(t, data, "phone_number")
	assert.NotContains(t, data, "address")
	assert.NotContains(t, rec.Body.String(), "1234567890")
	assert.NotContains(t, rec.Body.String(), "+989121234567")
	assert.NotContains(t, rec.Body.String(), "12 Azadi St")
}

func TestUpdateResponseKeepsIdentityForSuperuser(t *testing.T) {
	root := model.Actor{UserID: uuid.New(), IsSuperuser: true}
	engine, repo := setupHandler(t, root)
	p := seedPatient(repo, nil, nil)

	rec, data := doJSON(t, engine, http.MethodPatch, "/api/v1/patients/"+p.ID.String(),
		gin.H{"sickness": "bronchitis"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bronchitis", data["sickness"])
	assert.Equal(t, "1234567890", data["national_id"])
	assert.Equal(t, "+989121234567", data["phone_number"])
}

func TestDischargeResponseIsPolicyFiltered(t *testing.T) {
	manager := model.Actor{UserID: uuid.New(), Roles: []model.Role{model.RoleManagers}}
	engine, repo := setupHandler(t, manager)
	p := seedPatient(repo, nil, nil)

	rec, data := doJSON(t, engine, http.MethodPost, "/api/v1/patients/"+p.ID.String()+"/discharge", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, data["is_hospitalized"])
	// Rendered form, not the raw record.
	assert.Contains(t, data, "visible_fields")
	assert.Contains(t, data, "editable_fields")
}
