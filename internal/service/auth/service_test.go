package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hospitalward/ward-api/internal/config"
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
	return u, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFound("user", nil)
}

func (r *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) SetRoles(ctx context.Context, userID uuid.UUID, roles []model.Role) error {
	return nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*model.User, error) { return nil, nil }

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", ExpiryHours: 1}
}

func seedAccount(t *testing.T, repo *fakeUserRepo, password string, active bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Username:     "drmiller",
		PasswordHash: string(hash),
		IsActive:     active,
	}
	repo.users[u.ID] = u
	return u
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testJWTConfig())
	u := seedAccount(t, repo, "swordfish", true)

	token, err := svc.Login(context.Background(), &model.LoginRequest{Username: "drmiller", Password: "swordfish"})
	require.NoError(t, err)
	require.NotEmpty(t, token.AccessToken)

	userID, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)

	assert.NotNil(t, repo.users[u.ID].LastLoginAt)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testJWTConfig())
	seedAccount(t, repo, "swordfish", true)

	_, err := svc.Login(context.Background(), &model.LoginRequest{Username: "drmiller", Password: "guppy"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestLoginUnknownUser(t *testing.T) {
	svc := NewService(newFakeUserRepo(), testJWTConfig())

	_, err := svc.Login(context.Background(), &model.LoginRequest{Username: "nobody", Password: "x"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestLoginInactiveAccount(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo, testJWTConfig())
	seedAccount(t, repo, "swordfish", false)

	_, err := svc.Login(context.Background(), &model.LoginRequest{Username: "drmiller", Password: "swordfish"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(newFakeUserRepo(), testJWTConfig())

	_, err := svc.ValidateToken("not.a.token")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	repo := newFakeUserRepo()
	seedAccount(t, repo, "swordfish", true)

	issuer := NewService(repo, config.JWTConfig{Secret: "other-secret", ExpiryHours: 1})
	token, err := issuer.Login(context.Background(), &model.LoginRequest{Username: "drmiller", Password: "swordfish"})
	require.NoError(t, err)

	verifier := NewService(repo, testJWTConfig())
	_, err = verifier.ValidateToken(token.AccessToken)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}
