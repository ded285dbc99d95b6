// Package medicine manages prescription lines. Writes are restricted
// to the patient's assigned doctor and superusers.
package medicine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/repository"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
)

// ErrNotPrescriber rejects medicine writes by anyone other than the
// patient's assigned doctor or a superuser.
var ErrNotPrescriber = apperrors.NewPermissionDenied("only the assigned doctor may manage prescriptions")

type Service struct {
	repo     repository.MedicineRepository
	patients repository.PatientRepository
}

func NewService(repo repository.MedicineRepository, patients repository.PatientRepository) *Service {
	return &Service{
		repo:     repo,
		patients: patients,
	}
}

func (s *Service) Create(ctx context.Context, actor model.Actor, patientID uuid.UUID, req *model.CreateMedicineRequest) (*model.Medicine, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !patient.IsHospitalized {
		return nil, apperrors.NewValidation("cannot prescribe for a discharged patient")
	}
	if err := s.authorize(actor, patient); err != nil {
		return nil, err
	}

	medicine := &model.Medicine{
		Base:      model.Base{ID: uuid.New()},
		PatientID: patient.ID,
		Name:      req.Name,
		Order:     req.Order,
	}
	if err := s.repo.Create(ctx, medicine); err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}
	return medicine, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.CreateMedicineRequest) (*model.Medicine, error) {
	medicine, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patient, err := s.patients.Get(ctx, medicine.PatientID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, patient); err != nil {
		return nil, err
	}

	medicine.Name = req.Name
	medicine.Order = req.Order
	if err := s.repo.Update(ctx, medicine); err != nil {
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}
	return medicine, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Medicine, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) authorize(actor model.Actor, patient *model.Patient) error {
	if actor.IsSuperuser {
		return nil
	}
	if patient.DoctorID != nil && *patient.DoctorID == actor.UserID {
		return nil
	}
	return ErrNotPrescriber
}
