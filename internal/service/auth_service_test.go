package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/schoolstack/sms-api/internal/models"
	appErrors "github.com/schoolstack/sms-api/pkg/errors"
)

type stubUserRepo struct {
	users  map[string]models.User // keyed by email
	resets map[string]models.PasswordReset
	used   []string
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			found := u
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ string, _ time.Time) error {
	return nil
}

func (s *stubUserRepo) UpdatePassword(_ context.Context, id, hash string, _ time.Time) error {
	for email, u := range s.users {
		if u.ID == id {
			u.PasswordHash = hash
			s.users[email] = u
		}
	}
	return nil
}

func (s *stubUserRepo) CreatePasswordReset(_ context.Context, reset *models.PasswordReset) error {
	if s.resets == nil {
		s.resets = make(map[string]models.PasswordReset)
	}
	s.resets[reset.Token] = *reset
	return nil
}

func (s *stubUserRepo) FindPasswordReset(_ context.Context, token string) (*models.PasswordReset, error) {
	r, ok := s.resets[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &r, nil
}

func (s *stubUserRepo) MarkPasswordResetUsed(_ context.Context, id string) error {
	s.used = append(s.used, id)
	return nil
}

func authFixture(t *testing.T) (*AuthService, *stubUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &stubUserRepo{users: map[string]models.User{
		"admin@school.test": {
			ID: "u1", Email: "admin@school.test", FullName: "Admin One",
			Role: models.RoleAdmin, PasswordHash: string(hash), Active: true,
		},
		"gone@school.test": {
			ID: "u2", Email: "gone@school.test", FullName: "Former Staff",
			Role: models.RoleTeacher, PasswordHash: string(hash), Active: false,
		},
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		TokenSecret: "test-secret",
		TokenExpiry: time.Hour,
		Issuer:      "sms-api-test",
	})
	return svc, repo
}

func TestAuthLogin(t *testing.T) {
	svc, _ := authFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "admin@school.test", Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthLoginWrongPassword(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "admin@school.test", Password: "nope",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginUnknownEmail(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "nobody@school.test", Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthLoginInactiveAccount(t *testing.T) {
	svc, _ := authFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "gone@school.test", Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := authFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "admin@school.test", Password: "secret123",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken + "x")
	require.Error(t, err)

	other := NewAuthService(&stubUserRepo{}, nil, nil, AuthConfig{TokenSecret: "different"})
	_, err = other.ValidateToken(resp.AccessToken)
	require.Error(t, err)
}

func TestAuthPasswordResetFlow(t *testing.T) {
	svc, repo := authFixture(t)
	ctx := context.Background()

	token, err := svc.RequestPasswordReset(ctx, models.ResetPasswordRequest{Email: "admin@school.test"})
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Unknown emails are silently accepted.
	silent, err := svc.RequestPasswordReset(ctx, models.ResetPasswordRequest{Email: "nobody@school.test"})
	require.NoError(t, err)
	assert.Empty(t, silent)

	err = svc.ConfirmPasswordReset(ctx, models.ConfirmResetPasswordRequest{
		Token: token, NewPassword: "brandnew1",
	})
	require.NoError(t, err)
	assert.Len(t, repo.used, 1)

	// The old password no longer works, the new one does.
	_, err = svc.Login(ctx, models.LoginRequest{Email: "admin@school.test", Password: "secret123"})
	require.Error(t, err)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "admin@school.test", Password: "brandnew1"})
	require.NoError(t, err)
}

func TestAuthConfirmPasswordResetBadToken(t *testing.T) {
	svc, _ := authFixture(t)

	err := svc.ConfirmPasswordReset(context.Background(), models.ConfirmResetPasswordRequest{
		Token: "bogus", NewPassword: "brandnew1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthChangePassword(t *testing.T) {
	svc, _ := authFixture(t)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, "u1", models.ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "brandnew1",
	})
	require.Error(t, err)

	err = svc.ChangePassword(ctx, "u1", models.ChangePasswordRequest{
		OldPassword: "secret123", NewPassword: "brandnew1",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "admin@school.test", Password: "brandnew1"})
	require.NoError(t, err)
}
