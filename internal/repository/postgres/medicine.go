package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/repository"
)

type medicineRepository struct {
	db *DB
}

func NewMedicineRepository(db *DB) repository.MedicineRepository {
	return &medicineRepository{db: db}
}

func (r *medicineRepository) Create(ctx context.Context, medicine *model.Medicine) error {
	query := `
		INSERT INTO medicines (id, patient_id, name, order_text, created_at, updated_at)
		VALUES (:id, :patient_id, :name, :order_text, :created_at, :updated_at)
	`
	medicine.CreatedAt = time.Now()
	medicine.UpdatedAt = time.Now()

	if _, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), query, medicine); err != nil {
		return mapError(err, "medicine")
	}
	return nil
}

func (r *medicineRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	query := `SELECT * FROM medicines WHERE id = $1`
	var medicine model.Medicine
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &medicine, query, id); err != nil {
		return nil, mapError(err, "medicine")
	}
	return &medicine, nil
}

func (r *medicineRepository) Update(ctx context.Context, medicine *model.Medicine) error {
	query := `
		UPDATE medicines SET name = :name, order_text = :order_text, updated_at = :updated_at
		WHERE id = :id
	`
	medicine.UpdatedAt = time.Now()

	if _, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), query, medicine); err != nil {
		return mapError(err, "medicine")
	}
	return nil
}

func (r *medicineRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Medicine, error) {
	query := `SELECT * FROM medicines WHERE patient_id = $1 ORDER BY created_at`
	var medicines []*model.Medicine
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &medicines, query, patientID); err != nil {
		return nil, mapError(err, "medicines")
	}
	return medicines, nil
}
