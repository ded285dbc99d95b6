package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/repository"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT * FROM users WHERE id = $1`
	var user model.User
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &user, query, id); err != nil {
		return nil, mapError(err, "user")
	}
	if err := r.loadRoles(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT * FROM users WHERE username = $1`
	var user model.User
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &user, query, username); err != nil {
		return nil, mapError(err, "user")
	}
	if err := r.loadRoles(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET
			username = :username,
			password_hash = :password_hash,
			email = :email,
			first_name = :first_name,
			last_name = :last_name,
			is_superuser = :is_superuser,
			is_active = :is_active,
			last_login_at = :last_login_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	user.UpdatedAt = time.Now()

	if _, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), query, user); err != nil {
		return mapError(err, "user")
	}
	return nil
}

func (r *userRepository) SetRoles(ctx context.Context, userID uuid.UUID, roles []model.Role) error {
	ext := r.db.ext(ctx)
	if _, err := ext.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return mapError(err, "user roles")
	}
	for _, role := range roles {
		_, err := ext.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, userID, string(role))
		if err != nil {
			return mapError(err, "user roles")
		}
	}
	return nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	query := `SELECT * FROM users ORDER BY username`
	var users []*model.User
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &users, query); err != nil {
		return nil, mapError(err, "users")
	}
	for _, user := range users {
		if err := r.loadRoles(ctx, user); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *userRepository) loadRoles(ctx context.Context, user *model.User) error {
	var roles []model.Role
	query := `SELECT role FROM user_roles WHERE user_id = $1 ORDER BY role`
	if err := sqlx.SelectContext(ctx, r.db.ext(ctx), &roles, query, user.ID); err != nil {
		return mapError(err, "user roles")
	}
	user.Roles = roles
	return nil
}
