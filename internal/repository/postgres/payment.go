package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/repository"
)

type paymentRepository struct {
	db *DB
}

func NewPaymentRepository(db *DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (id, patient_id, title, cost, paid, created_at, updated_at)
		VALUES (:id, :patient_id, :title, :cost, :paid, :created_at, :updated_at)
	`
	payment.CreatedAt = time.Now()
	payment.UpdatedAt = time.Now()

	if _, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), query, payment); err != nil {
		return mapError(err, "payment")
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := `SELECT * FROM payments WHERE id = $1`
	var payment model.Payment
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &payment, query, id); err != nil {
		return nil, mapError(err, "payment")
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *model.Payment) error {
	query := `
		UPDATE payments SET title = :title, cost = :cost, paid = :paid, updated_at = :updated_at
		WHERE id = :id
	`
	payment.UpdatedAt = time.Now()

	if _, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), query, payment); err != nil {
		return mapError(err, "payment")
	}
	return nil
}

// ListByPatient returns the patient's billing lines in creation order,
// the order the invoice numbers them in.
func (r *paymentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Payment, error) {
	query := `SELECT * FROM payments WHERE patient_id = $1 ORDER BY created_at`
	var payments []*model.Payment
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &payments, query, patientID); err != nil {
		return nil, mapError(err, "payments")
	}
	return payments, nil
}

func (r *paymentRepository) HasOutstanding(ctx context.Context, patientID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE patient_id = $1 AND cost > paid)`
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &exists, query, patientID); err != nil {
		return false, fmt.Errorf("failed to check outstanding payments: %w", err)
	}
	return exists, nil
}
