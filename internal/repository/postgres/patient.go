package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/repository"
)

type patientRepository struct {
	db *DB
}

func NewPatientRepository(db *DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (
			id, national_id, first_name, last_name, sickness, watchful_name,
			age, height, weight, phone_number, insurance_type, address,
			blood_type, doctor_order, nurse_report, doctor_id, nurse_id,
			admitted_at, is_hospitalized, discharged_at, created_at, updated_at
		) VALUES (
			:id, :national_id, :first_name, :last_name, :sickness, :watchful_name,
			:age, :height, :weight, :phone_number, :insurance_type, :address,
			:blood_type, :doctor_order, :nurse_report, :doctor_id, :nurse_id,
			:admitted_at, :is_hospitalized, :discharged_at, :created_at, :updated_at
		)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), query, patient)
	if err != nil {
		return mapError(err, "patient")
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &patient, query, id); err != nil {
		return nil, mapError(err, "patient")
	}
	return &patient, nil
}

func (r *patientRepository) GetByNationalID(ctx context.Context, nationalID string) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE national_id = $1 ORDER BY admitted_at DESC LIMIT 1`
	var patient model.Patient
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &patient, query, nationalID); err != nil {
		return nil, mapError(err, "patient")
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients SET
			national_id = :national_id,
			first_name = :first_name,
			last_name = :last_name,
			sickness = :sickness,
			watchful_name = :watchful_name,
			age = :age,
			height = :height,
			weight = :weight,
			phone_number = :phone_number,
			insurance_type = :insurance_type,
			address = :address,
			blood_type = :blood_type,
			doctor_order = :doctor_order,
			nurse_report = :nurse_report,
			doctor_id = :doctor_id,
			nurse_id = :nurse_id,
			is_hospitalized = :is_hospitalized,
			discharged_at = :discharged_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	patient.UpdatedAt = time.Now()

	result, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), query, patient)
	if err != nil {
		return mapError(err, "patient")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return mapError(sql.ErrNoRows, "patient")
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `SELECT * FROM patients WHERE 1=1`
	args := []interface{}{}

	if filters != nil {
		if filters.Search != "" {
			args = append(args, "%"+filters.Search+"%")
			query += fmt.Sprintf(` AND (first_name ILIKE $%d OR last_name ILIKE $%d)`, len(args), len(args))
		}
		if filters.IsHospitalized != nil {
			args = append(args, *filters.IsHospitalized)
			query += fmt.Sprintf(` AND is_hospitalized = $%d`, len(args))
		}
	}
	query += ` ORDER BY admitted_at DESC`

	var patients []*model.Patient
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &patients, query, args...); err != nil {
		return nil, mapError(err, "patients")
	}
	return patients, nil
}

// ListWithoutBed returns hospitalized patients not occupying any bed,
// the candidate set for bed assignment.
func (r *patientRepository) ListWithoutBed(ctx context.Context) ([]*model.Patient, error) {
	query := `
		SELECT p.* FROM patients p
		LEFT JOIN beds b ON b.patient_id = p.id
		WHERE p.is_hospitalized AND b.id IS NULL
		ORDER BY p.admitted_at
	`
	var patients []*model.Patient
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &patients, query); err != nil {
		return nil, mapError(err, "patients")
	}
	return patients, nil
}
