package patient

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/policy"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
	"github.com/hospitalward/ward-api/pkg/logger"
	"github.com/hospitalward/ward-api/pkg/messaging"
)

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
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

func (r *fakePatientRepo) Update(ctx context.Context, patient *model.Patient) error {
	if _, ok := r.patients[patient.ID]; !ok {
		return apperrors.NewNotFound("patient", nil)
	}
	clone := *patient
	r.patients[patient.ID] = &clone
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

type fakePaymentRepo struct {
	payments []*model.Payment
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	r.payments = append(r.payments, p)
	return nil
}

func (r *fakePaymentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	for _, p := range r.payments {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.NewNotFound("payment", nil)
}

func (r *fakePaymentRepo) Update(ctx context.Context, payment *model.Payment) error { return nil }

func (r *fakePaymentRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Payment, error) {
	var out []*model.Payment
	for _, p := range r.payments {
		if p.PatientID == patientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) HasOutstanding(ctx context.Context, patientID uuid.UUID) (bool, error) {
	for _, p := range r.payments {
		if p.PatientID == patientID && p.Paid < p.Cost {
			return true, nil
		}
	}
	return false, nil
}

type fakeBedReleaser struct {
	released []uuid.UUID
}

func (r *fakeBedReleaser) ReleaseForPatient(ctx context.Context, patientID uuid.UUID) error {
	r.released = append(r.released, patientID)
	return nil
}

type fakeBroker struct {
	events []messaging.Event
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.events = append(b.events, message.(messaging.Event))
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc      *Service
	repo     *fakePatientRepo
	payments *fakePaymentRepo
	beds     *fakeBedReleaser
	broker   *fakeBroker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     newFakePatientRepo(),
		payments: &fakePaymentRepo{},
		beds:     &fakeBedReleaser{},
		broker:   &fakeBroker{},
	}
	log := logger.New(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	f.svc = NewService(f.repo, f.payments, nil, nil, f.beds, passthroughTx{}, nil, nil, f.broker, Config{}, log)
	return f
}

func superuser() model.Actor {
	return model.Actor{UserID: uuid.New(), IsSuperuser: true}
}

func manager() model.Actor {
	return model.Actor{UserID: uuid.New(), Roles: []model.Role{model.RoleManagers}}
}

func validIntake() *model.CreatePatientRequest {
	return &model.CreatePatientRequest{
		NationalID:  "1234567890",
		FirstName:   "Sara",
		LastName:    "Ahmadi",
		Sickness:    "pneumonia",
		Age:         34,
		Height:      168,
		Weight:      61,
		PhoneNumber: "+989121234567",
		BloodType:   model.BloodOPos,
	}
}

func (f *fixture) admit(t *testing.T) *model.Patient {
	t.Helper()
	p, err := f.svc.Admit(context.Background(), manager(), validIntake())
	require.NoError(t, err)
	return p
}

func TestAdmitSetsHospitalizedAndAdmittedAt(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)

	assert.True(t, p.IsHospitalized)
	assert.False(t, p.AdmittedAt.IsZero())
	assert.Nil(t, p.DischargedAt)
	assert.Equal(t, model.InsuranceNone, p.InsuranceType)

	require.Len(t, f.broker.events, 1)
	assert.Equal(t, messaging.EventPatientAdmitted, f.broker.events[0].Type)
}

func TestAdmitRequiresManagerRole(t *testing.T) {
	f := newFixture(t)
	doctor := model.Actor{UserID: uuid.New(), Roles: []model.Role{model.RoleDoctors}}

	_, err := f.svc.Admit(context.Background(), doctor, validIntake())
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestAdmitRejectsMalformedNationalID(t *testing.T) {
	f := newFixture(t)
	req := validIntake()
	req.NationalID = "12345"

	_, err := f.svc.Admit(context.Background(), manager(), req)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestAdmitRejectsMalformedPhone(t *testing.T) {
	f := newFixture(t)
	req := validIntake()
	req.PhoneNumber = "09121234567"

	_, err := f.svc.Admit(context.Background(), manager(), req)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestUpdateRejectsFieldOutsideEditableSet(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)

	doctorID := uuid.New()
	p.DoctorID = &doctorID
	require.NoError(t, f.repo.Update(context.Background(), p))

	// The attending doctor may write orders but never billing identity
	// fields like the national ID.
	doctor := model.Actor{UserID: doctorID, Roles: []model.Role{model.RoleDoctors}}
	badID := "9999999999"
	_, err := f.svc.Update(context.Background(), doctor, p.ID, &model.UpdatePatientRequest{NationalID: &badID})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestUpdateAllowsAttendingDoctorOrder(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)

	doctorID := uuid.New()
	p.DoctorID = &doctorID
	require.NoError(t, f.repo.Update(context.Background(), p))

	doctor := model.Actor{UserID: doctorID, Roles: []model.Role{model.RoleDoctors}}
	order := "500mg amoxicillin three times daily"
	updated, err := f.svc.Update(context.Background(), doctor, p.ID, &model.UpdatePatientRequest{DoctorOrder: &order})
	require.NoError(t, err)
	assert.Equal(t, order, updated.DoctorOrder)
}

func TestUpdateRejectsUnassignedDoctor(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)

	attending := uuid.New()
	p.DoctorID = &attending
	require.NoError(t, f.repo.Update(context.Background(), p))

	stranger := model.Actor{UserID: uuid.New(), Roles: []model.Role{model.RoleDoctors}}
	order := "should not land"
	_, err := f.svc.Update(context.Background(), stranger, p.ID, &model.UpdatePatientRequest{DoctorOrder: &order})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestDischargeBlockedByOutstandingBalance(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)
	f.payments.payments = append(f.payments.payments, &model.Payment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: p.ID,
		Title:     "ward stay",
		Cost:      500000,
		Paid:      100000,
	})

	_, err := f.svc.Discharge(context.Background(), superuser(), p.ID)
	assert.ErrorIs(t, err, ErrOutstandingBalance)

	stored, getErr := f.repo.Get(context.Background(), p.ID)
	require.NoError(t, getErr)
	assert.True(t, stored.IsHospitalized)
	assert.Empty(t, f.beds.released)
}

func TestDischargeSettledPatient(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)
	f.payments.payments = append(f.payments.payments, &model.Payment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: p.ID,
		Title:     "ward stay",
		Cost:      500000,
		Paid:      500000,
	})

	discharged, err := f.svc.Discharge(context.Background(), superuser(), p.ID)
	require.NoError(t, err)
	assert.False(t, discharged.IsHospitalized)
	require.NotNil(t, discharged.DischargedAt)

	stored, err := f.repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsHospitalized)
	require.NotNil(t, stored.DischargedAt)

	require.Len(t, f.beds.released, 1)
	assert.Equal(t, p.ID, f.beds.released[0])

	require.Len(t, f.broker.events, 2)
	assert.Equal(t, messaging.EventPatientDischarged, f.broker.events[1].Type)
}

func TestDischargeWithoutPaymentsSucceeds(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)

	_, err := f.svc.Discharge(context.Background(), superuser(), p.ID)
	assert.NoError(t, err)
}

func TestDischargeAlreadyDischargedFails(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)
	_, err := f.svc.Discharge(context.Background(), superuser(), p.ID)
	require.NoError(t, err)

	_, err = f.svc.Discharge(context.Background(), superuser(), p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestDischargeRequiresHospitalizationEditRight(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)

	attending := uuid.New()
	p.DoctorID = &attending
	require.NoError(t, f.repo.Update(context.Background(), p))

	doctor := model.Actor{UserID: attending, Roles: []model.Role{model.RoleDoctors}}
	_, err := f.svc.Discharge(context.Background(), doctor, p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestReadmitClearsDischargeTimestamp(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)
	_, err := f.svc.Discharge(context.Background(), superuser(), p.ID)
	require.NoError(t, err)

	readmitted, err := f.svc.Readmit(context.Background(), superuser(), p.ID)
	require.NoError(t, err)
	assert.True(t, readmitted.IsHospitalized)
	assert.Nil(t, readmitted.DischargedAt)

	last := f.broker.events[len(f.broker.events)-1]
	assert.Equal(t, messaging.EventPatientReadmitted, last.Type)
}

func TestReadmitHospitalizedPatientFails(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)

	_, err := f.svc.Readmit(context.Background(), superuser(), p.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestUpdateTogglingHospitalizationRunsDischarge(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)

	hospitalized := false
	updated, err := f.svc.Update(context.Background(), superuser(), p.ID, &model.UpdatePatientRequest{IsHospitalized: &hospitalized})
	require.NoError(t, err)
	assert.False(t, updated.IsHospitalized)
	require.NotNil(t, updated.DischargedAt)
	require.Len(t, f.beds.released, 1)
}

func TestGetResolvesPolicyForActor(t *testing.T) {
	f := newFixture(t)
	p := f.admit(t)

	loaded, pol, err := f.svc.Get(context.Background(), superuser(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, loaded.ID)
	assert.True(t, pol.CanEdit(policy.FieldNationalID))

	nobody := model.Actor{UserID: uuid.New()}
	_, pol, err = f.svc.Get(context.Background(), nobody, p.ID)
	require.NoError(t, err)
	assert.True(t, pol.Locked())
}
