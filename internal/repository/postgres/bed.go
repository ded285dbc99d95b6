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

type bedRepository struct {
	db *DB
}

func NewBedRepository(db *DB) repository.BedRepository {
	return &bedRepository{db: db}
}

func (r *bedRepository) Create(ctx context.Context, bed *model.Bed) error {
	query := `
		INSERT INTO beds (id, floor, room, number, patient_id, created_at, updated_at)
		VALUES (:id, :floor, :room, :number, :patient_id, :created_at, :updated_at)
	`
	bed.CreatedAt = time.Now()
	bed.UpdatedAt = time.Now()

	if _, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), query, bed); err != nil {
		return mapError(err, "bed")
	}
	return nil
}

func (r *bedRepository) Get(ctx context.Context, id uuid.UUID) (*model.Bed, error) {
	query := `SELECT * FROM beds WHERE id = $1`
	var bed model.Bed
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &bed, query, id); err != nil {
		return nil, mapError(err, "bed")
	}
	return &bed, nil
}

func (r *bedRepository) GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.Bed, error) {
	query := `SELECT * FROM beds WHERE patient_id = $1`
	var bed model.Bed
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &bed, query, patientID); err != nil {
		return nil, mapError(err, "bed")
	}
	return &bed, nil
}

// Update persists the bed, including a nil patient reference. The
// one-occupant invariant is also a unique index on patient_id, so a
// concurrent double-assignment fails here as a conflict.
func (r *bedRepository) Update(ctx context.Context, bed *model.Bed) error {
	query := `
		UPDATE beds SET
			floor = :floor,
			room = :room,
			number = :number,
			patient_id = :patient_id,
			updated_at = :updated_at
		WHERE id = :id
	`
	bed.UpdatedAt = time.Now()

	if _, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), query, bed); err != nil {
		return mapError(err, "bed")
	}
	return nil
}

func (r *bedRepository) List(ctx context.Context, filters *model.BedFilters) ([]*model.Bed, error) {
	query := `SELECT * FROM beds`
	args := []interface{}{}

	if filters != nil && filters.Occupied != nil {
		if *filters.Occupied {
			query += ` WHERE patient_id IS NOT NULL`
		} else {
			query += ` WHERE patient_id IS NULL`
		}
	}
	query += ` ORDER BY floor, room, number`

	var beds []*model.Bed
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &beds, query, args...); err != nil {
		return nil, mapError(err, "beds")
	}
	return beds, nil
}

func (r *bedRepository) CountOccupied(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM beds WHERE patient_id IS NOT NULL`
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &count, query); err != nil {
		return 0, fmt.Errorf("failed to count occupied beds: %w", err)
	}
	return count, nil
}
