package medicine

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospitalward/ward-api/internal/model"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
)

type fakeMedicineRepo struct {
	medicines []*model.Medicine
}

func (r *fakeMedicineRepo) Create(ctx context.Context, m *model.Medicine) error {
	r.medicines = append(r.medicines, m)
	return nil
}

func (r *fakeMedicineRepo) Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	for _, m := range r.medicines {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, apperrors.NewNotFound("medicine", nil)
}

func (r *fakeMedicineRepo) Update(ctx context.Context, medicine *model.Medicine) error {
	for i, m := range r.medicines {
		if m.ID == medicine.ID {
			r.medicines[i] = medicine
			return nil
		}
	}
	return apperrors.NewNotFound("medicine", nil)
}

func (r *fakeMedicineRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Medicine, error) {
	var out []*model.Medicine
	for _, m := range r.medicines {
		if m.PatientID == patientID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakePatientRepo struct {
	patients []*model.Patient
}

func (r *fakePatientRepo) Create(ctx context.Context, p *model.Patient) error {
	r.patients = append(r.patients, p)
	return nil
}

func (r *fakePatientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	for _, p := range r.patients {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, apperrors.NewNotFound("patient", nil)
}

func (r *fakePatientRepo) GetByNationalID(ctx context.Context, nationalID string) (*model.Patient, error) {
	return nil, apperrors.NewNotFound("patient", nil)
}

func (r *fakePatientRepo) Update(ctx context.Context, patient *model.Patient) error { return nil }

func (r *fakePatientRepo) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return r.patients, nil
}

func (r *fakePatientRepo) ListWithoutBed(ctx context.Context) ([]*model.Patient, error) {
	return r.patients, nil
}

func newMedicineFixture(t *testing.T) (*Service, *fakePatientRepo) {
	t.Helper()
	patients := &fakePatientRepo{}
	return NewService(&fakeMedicineRepo{}, patients), patients
}

func hospitalized(patients *fakePatientRepo, doctorID uuid.UUID) *model.Patient {
	p := &model.Patient{
		Base:           model.Base{ID: uuid.New()},
		DoctorID:       &doctorID,
		IsHospitalized: true,
	}
	patients.patients = append(patients.patients, p)
	return p
}

func TestCreateByAssignedDoctor(t *testing.T) {
	svc, patients := newMedicineFixture(t)
	doctorID := uuid.New()
	p := hospitalized(patients, doctorID)
	doctor := model.Actor{UserID: doctorID, Roles: []model.Role{model.RoleDoctors}}

	m, err := svc.Create(context.Background(), doctor, p.ID, &model.CreateMedicineRequest{
		Name:  "amoxicillin",
		Order: "500mg three times daily",
	})
	require.NoError(t, err)
	assert.Equal(t, p.ID, m.PatientID)

	listed, err := svc.ListByPatient(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestCreateByOtherDoctorFails(t *testing.T) {
	svc, patients := newMedicineFixture(t)
	p := hospitalized(patients, uuid.New())
	stranger := model.Actor{UserID: uuid.New(), Roles: []model.Role{model.RoleDoctors}}

	_, err := svc.Create(context.Background(), stranger, p.ID, &model.CreateMedicineRequest{Name: "insulin"})
	assert.ErrorIs(t, err, ErrNotPrescriber)
}

func TestCreateBySuperuser(t *testing.T) {
	svc, patients := newMedicineFixture(t)
	p := hospitalized(patients, uuid.New())
	root := model.Actor{UserID: uuid.New(), IsSuperuser: true}

	_, err := svc.Create(context.Background(), root, p.ID, &model.CreateMedicineRequest{Name: "insulin"})
	assert.NoError(t, err)
}

func TestCreateForDischargedPatientFails(t *testing.T) {
	svc, patients := newMedicineFixture(t)
	doctorID := uuid.New()
	p := &model.Patient{Base: model.Base{ID: uuid.New()}, DoctorID: &doctorID}
	patients.patients = append(patients.patients, p)
	doctor := model.Actor{UserID: doctorID, Roles: []model.Role{model.RoleDoctors}}

	_, err := svc.Create(context.Background(), doctor, p.ID, &model.CreateMedicineRequest{Name: "insulin"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestUpdateChecksPrescriber(t *testing.T) {
	svc, patients := newMedicineFixture(t)
	doctorID := uuid.New()
	p := hospitalized(patients, doctorID)
	doctor := model.Actor{UserID: doctorID, Roles: []model.Role{model.RoleDoctors}}

	m, err := svc.Create(context.Background(), doctor, p.ID, &model.CreateMedicineRequest{Name: "amoxicillin"})
	require.NoError(t, err)

	stranger := model.Actor{UserID: uuid.New(), Roles: []model.Role{model.RoleDoctors}}
	_, err = svc.Update(context.Background(), stranger, m.ID, &model.CreateMedicineRequest{Name: "changed"})
	assert.ErrorIs(t, err, ErrNotPrescriber)

	updated, err := svc.Update(context.Background(), doctor, m.ID, &model.CreateMedicineRequest{
		Name:  "amoxicillin",
		Order: "250mg twice daily",
	})
	require.NoError(t, err)
	assert.Equal(t, "250mg twice daily", updated.Order)
}
