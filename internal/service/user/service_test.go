package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospitalward/ward-api/internal/model"
	apperrors "github.com/hospitalward/ward-api/pkg/errors"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("user", nil)
	}
	clone := *u
	return &clone, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, apperrors.NewNotFound("user", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return apperrors.NewNotFound("user", nil)
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) SetRoles(ctx context.Context, userID uuid.UUID, roles []model.Role) error {
	u, ok := r.users[userID]
	if !ok {
		return apperrors.NewNotFound("user", nil)
	}
	u.Roles = roles
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func seedUser(repo *fakeUserRepo, roles ...model.Role) *model.User {
	u := &model.User{
		Base:     model.Base{ID: uuid.New()},
		Username: "staff-" + uuid.NewString()[:8],
		Email:    "staff@ward.example",
		IsActive: true,
		Roles:    roles,
	}
	repo.users[u.ID] = u
	return u
}

func TestGetOwnAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	u := seedUser(repo, model.RoleNurses)

	loaded, pol, err := svc.Get(context.Background(), model.ActorFor(u), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, loaded.ID)
	assert.False(t, pol.Locked())
}

func TestGetOtherAccountIsNotFound(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	me := seedUser(repo, model.RoleDoctors)
	other := seedUser(repo, model.RoleNurses)

	_, _, err := svc.Get(context.Background(), model.ActorFor(me), other.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestListScopedToSelf(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	me := seedUser(repo, model.RoleDoctors)
	seedUser(repo, model.RoleNurses)

	listed, err := svc.List(context.Background(), model.ActorFor(me))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, me.ID, listed[0].ID)

	root := model.Actor{UserID: uuid.New(), IsSuperuser: true}
	all, err := svc.List(context.Background(), root)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateRejectsRestrictedField(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	u := seedUser(repo, model.RoleNurses)

	elevated := true
	_, err := svc.Update(context.Background(), model.ActorFor(u), u.ID, &model.UpdateUserRequest{IsSuperuser: &elevated})
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))
}

func TestUpdateHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	u := seedUser(repo, model.RoleNurses)

	password := "correct horse battery"
	updated, err := svc.Update(context.Background(), model.ActorFor(u), u.ID, &model.UpdateUserRequest{Password: &password})
	require.NoError(t, err)
	assert.NotEqual(t, password, updated.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte(password)))
}

func TestManagerTogglesActivation(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	mgr := seedUser(repo, model.RoleManagers)
	target := seedUser(repo, model.RoleNurses)

	root := model.Actor{UserID: uuid.New(), IsSuperuser: true}
	inactive := false
	updated, err := svc.Update(context.Background(), root, target.ID, &model.UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	// Managers hold the flag on their own account too.
	updated, err = svc.Update(context.Background(), model.ActorFor(mgr), mgr.ID, &model.UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}

func TestSuperuserAssignsRoles(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)
	target := seedUser(repo, model.RoleNurses)

	root := model.Actor{UserID: uuid.New(), IsSuperuser: true}
	roles := []model.Role{model.RoleNurses, model.RoleManagers}
	updated, err := svc.Update(context.Background(), root, target.ID, &model.UpdateUserRequest{Roles: &roles})
	require.NoError(t, err)
	assert.Equal(t, roles, updated.Roles)
	assert.Equal(t, roles, repo.users[target.ID].Roles)
}
