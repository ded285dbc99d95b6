package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/hospitalward/ward-api/internal/model"
)

// Transactor runs fn inside a single store transaction. Every
// repository call made through the ctx fn receives joins that
// transaction, so multi-record mutations (discharge plus bed release)
// commit or roll back as one unit.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	GetByNationalID(ctx context.Context, nationalID string) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	ListWithoutBed(ctx context.Context) ([]*model.Patient, error)
}

type BedRepository interface {
	Create(ctx context.Context, bed *model.Bed) error
	Get(ctx context.Context, id uuid.UUID) (*model.Bed, error)
	GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.Bed, error)
	Update(ctx context.Context, bed *model.Bed) error
	List(ctx context.Context, filters *model.BedFilters) ([]*model.Bed, error)
	CountOccupied(ctx context.Context) (int, error)
}

type MedicineRepository interface {
	Create(ctx context.Context, medicine *model.Medicine) error
	Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
	Update(ctx context.Context, medicine *model.Medicine) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Medicine, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	Update(ctx context.Context, payment *model.Payment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Payment, error)
	HasOutstanding(ctx context.Context, patientID uuid.UUID) (bool, error)
}

type UserRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	SetRoles(ctx context.Context, userID uuid.UUID, roles []model.Role) error
	List(ctx context.Context) ([]*model.User, error)
}
