// Package user implements the self-service account console. Accounts
// are provisioned out of band; the console only reads and updates.
package user

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/policy"
	"github.com/hospitalward/ward-api/internal/repository"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
)

const bcryptCost = 12

type Service struct {
	repo repository.UserRepository
}

func NewService(repo repository.UserRepository) *Service {
	return &Service{repo: repo}
}

// Get loads an account. Non-superusers asking for anyone but
// themselves get not-found, not forbidden: the console never reveals
// which accounts exist.
func (s *Service) Get(ctx context.Context, actor model.Actor, id uuid.UUID) (*model.User, policy.Policy, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, policy.Policy{}, err
	}
	if !policy.CanViewUser(actor, user) {
		return nil, policy.Policy{}, apperrors.NewNotFound("user", nil)
	}
	return user, policy.ResolveUser(actor, user), nil
}

// List returns all accounts for superusers, only the actor's own
// account otherwise.
func (s *Service) List(ctx context.Context, actor model.Actor) ([]*model.User, error) {
	if actor.IsSuperuser {
		return s.repo.List(ctx)
	}
	user, err := s.repo.Get(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return []*model.User{user}, nil
}

func (s *Service) Update(ctx context.Context, actor model.Actor, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	user, _, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	pol := policy.ResolveUser(actor, user)
	for _, f := range submittedFields(req) {
		if !pol.CanEdit(f) {
			return nil, apperrors.NewPermissionDenied(fmt.Sprintf("field %q is not editable", f))
		}
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.IsSuperuser != nil {
		user.IsSuperuser = *req.IsSuperuser
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if req.Roles != nil {
		if err := s.repo.SetRoles(ctx, user.ID, *req.Roles); err != nil {
			return nil, err
		}
		user.Roles = *req.Roles
	}
	return user, nil
}

func submittedFields(req *model.UpdateUserRequest) []string {
	var fields []string
	add := func(name string, set bool) {
		if set {
			fields = append(fields, name)
		}
	}
	add(policy.FieldUsername, req.Username != nil)
	add(policy.FieldFirstName, req.FirstName != nil)
	add(policy.FieldLastName, req.LastName != nil)
	add(policy.FieldEmail, req.Email != nil)
	add(policy.FieldPassword, req.Password != nil)
	add(policy.FieldIsActive, req.IsActive != nil)
	add(policy.FieldIsSuperuser, req.IsSuperuser != nil)
	add(policy.FieldRoles, req.Roles != nil)
	return fields
}
