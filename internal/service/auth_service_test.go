package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lostfound-id/lostfound-api/internal/dto"
	"github.com/lostfound-id/lostfound-api/internal/models"
	appErrors "github.com/lostfound-id/lostfound-api/pkg/errors"
)

type mockUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
	created []*models.User
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.byEmail[email]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.byID[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := m.byEmail[email]
	return ok, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "generated"
	}
	m.created = append(m.created, user)
	if m.byEmail == nil {
		m.byEmail = make(map[string]*models.User)
	}
	m.byEmail[user.Email] = user
	return nil
}

func newTestAuthService(repo *mockUserRepo) *AuthService {
	return NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "lostfound-api",
	})
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestAuthService(repo)

	result, err := svc.Register(context.Background(), dto.RegisterRequest{
		Name:     "Rina",
		Email:    "rina@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.RoleUser, repo.created[0].Role)
	assert.NotEqual(t, "secret123", repo.created[0].PasswordHash)

	claims, err := svc.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, repo.created[0].ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{byEmail: map[string]*models.User{
		"rina@example.com": {ID: "u1", Email: "rina@example.com"},
	}}
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "rina@example.com",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{})

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "rina@example.com",
		Password: "abc",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLogin(t *testing.T) {
	repo := &mockUserRepo{byEmail: map[string]*models.User{
		"rina@example.com": {
			ID:           "u1",
			Email:        "rina@example.com",
			PasswordHash: hashed(t, "secret123"),
			Role:         models.RoleUser,
		},
	}}
	svc := newTestAuthService(repo)

	result, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "rina@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", result.User.ID)
	assert.NotEmpty(t, result.Token)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockUserRepo{byEmail: map[string]*models.User{
		"rina@example.com": {
			ID:           "u1",
			Email:        "rina@example.com",
			PasswordHash: hashed(t, "secret123"),
		},
	}}
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "rina@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{})

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestAuthService(repo)

	result, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email:    "rina@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(result.Token + "x")
	assert.Error(t, err)

	other := NewAuthService(repo, validator.New(), zap.NewNop(), AuthConfig{TokenSecret: "other-secret", TokenExpiry: time.Hour})
	_, err = other.ValidateToken(result.Token)
	assert.Error(t, err)
}

func TestMe(t *testing.T) {
	repo := &mockUserRepo{byID: map[string]*models.User{
		"u1": {ID: "u1", Name: "Rina", Email: "rina@example.com", Role: models.RoleAdmin},
	}}
	svc := newTestAuthService(repo)

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, info.Role)

	_, err = svc.Me(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
