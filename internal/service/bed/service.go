// Package bed enforces the one-patient-per-bed invariant and releases
// beds on discharge. The invariant is double-checked by a unique index
// on beds.patient_id, so concurrent assignments cannot slip past the
// application check.
package bed

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/repository"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
)

var (
	// ErrBedOccupied rejects assignment to a bed that already holds a
	// patient.
	ErrBedOccupied = apperrors.NewConflict("bed is already occupied", nil)
	// ErrBedAlreadyAssigned rejects assigning a patient who already
	// occupies a different bed.
	ErrBedAlreadyAssigned = apperrors.NewConflict("patient already occupies another bed", nil)
)

type Service struct {
	beds     repository.BedRepository
	patients repository.PatientRepository
	tx       repository.Transactor
	occupied prometheus.Gauge
}

func NewService(beds repository.BedRepository, patients repository.PatientRepository, tx repository.Transactor) *Service {
	return &Service{
		beds:     beds,
		patients: patients,
		tx:       tx,
		occupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ward_beds_occupied",
			Help: "Number of beds currently holding a patient",
		}),
	}
}

// Collector exposes the occupancy gauge for registration.
func (s *Service) Collector() prometheus.Collector {
	return s.occupied
}

func (s *Service) CreateBed(ctx context.Context, req *model.CreateBedRequest) (*model.Bed, error) {
	bed := &model.Bed{
		Base:   model.Base{ID: uuid.New()},
		Floor:  req.Floor,
		Room:   req.Room,
		Number: req.Number,
	}
	if err := s.beds.Create(ctx, bed); err != nil {
		return nil, fmt.Errorf("failed to create bed: %w", err)
	}
	return bed, nil
}

func (s *Service) GetBed(ctx context.Context, id uuid.UUID) (*model.Bed, error) {
	return s.beds.Get(ctx, id)
}

func (s *Service) ListBeds(ctx context.Context, filters *model.BedFilters) ([]*model.Bed, error) {
	return s.beds.List(ctx, filters)
}

// AvailableBeds lists beds open for assignment, filtering out every
// bed with a non-null patient reference.
func (s *Service) AvailableBeds(ctx context.Context) ([]*model.Bed, error) {
	vacant := false
	return s.beds.List(ctx, &model.BedFilters{Occupied: &vacant})
}

// CandidatePatients lists hospitalized patients without a bed, the
// only valid targets for assignment.
func (s *Service) CandidatePatients(ctx context.Context) ([]*model.Patient, error) {
	return s.patients.ListWithoutBed(ctx)
}

// Assign places a patient in a bed. The check and the write run in one
// transaction so the occupancy decision cannot go stale between them.
func (s *Service) Assign(ctx context.Context, bedID, patientID uuid.UUID) error {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return err
	}
	if !patient.IsHospitalized {
		return apperrors.NewValidation("cannot assign a bed to a discharged patient")
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		target, err := s.beds.Get(ctx, bedID)
		if err != nil {
			return err
		}
		if target.Occupied() && *target.PatientID != patientID {
			return ErrBedOccupied
		}

		current, err := s.beds.GetByPatient(ctx, patientID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if current != nil && current.ID != bedID {
			return ErrBedAlreadyAssigned
		}

		target.PatientID = &patientID
		return s.beds.Update(ctx, target)
	})
	if err != nil {
		return err
	}

	s.refreshOccupancy(ctx)
	return nil
}

// Release clears the bed's patient reference, making it available for
// reassignment. The bed record itself is preserved.
func (s *Service) Release(ctx context.Context, bedID uuid.UUID) error {
	bed, err := s.beds.Get(ctx, bedID)
	if err != nil {
		return err
	}
	if !bed.Occupied() {
		return nil
	}
	bed.PatientID = nil
	if err := s.beds.Update(ctx, bed); err != nil {
		return fmt.Errorf("failed to release bed: %w", err)
	}

	s.refreshOccupancy(ctx)
	return nil
}

// ReleaseForPatient frees whatever bed the patient occupies. A patient
// without a bed is not an error; discharge calls this unconditionally.
func (s *Service) ReleaseForPatient(ctx context.Context, patientID uuid.UUID) error {
	bed, err := s.beds.GetByPatient(ctx, patientID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	bed.PatientID = nil
	if err := s.beds.Update(ctx, bed); err != nil {
		return fmt.Errorf("failed to release bed: %w", err)
	}
	return nil
}

func (s *Service) refreshOccupancy(ctx context.Context) {
	if count, err := s.beds.CountOccupied(ctx); err == nil {
		s.occupied.Set(float64(count))
	}
}
