package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
)

func newAuthFixture() (*AuthService, *fakeCollection[models.User], *fakeSessions) {
	users := newFakeCollection(
		models.User{ID: "admin001", Password: "admin123", Role: models.RoleAdmin, Name: "System Admin"},
		models.User{ID: "teacher001", Password: "teacher123", Role: models.RoleTeacher, Name: "Dr. Sarah Johnson"},
	)
	sessions := &fakeSessions{}
	svc := NewAuthService(users, sessions, nil, nil, AuthConfig{AccessTokenSecret: "secret", AccessTokenExpiry: time.Hour, Issuer: "sis-portal"})
	return svc, users, sessions
}

func TestAuthLoginSuccess(t *testing.T) {
	svc, _, sessions := newAuthFixture()

	resp, err := svc.Login(context.Background(), models.LoginRequest{UserID: "teacher001", Password: "teacher123", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "/dashboard/teacher", resp.Redirect)
	require.NotNil(t, sessions.session)
	assert.Equal(t, "teacher001", sessions.session.UserID)
	assert.Equal(t, "Dr. Sarah Johnson", sessions.session.Name)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "teacher001", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestAuthLoginRequiresMatchingRole(t *testing.T) {
	svc, _, sessions := newAuthFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{UserID: "teacher001", Password: "teacher123", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	assert.Nil(t, sessions.session)
}

func TestAuthLoginValidation(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Login(context.Background(), models.LoginRequest{UserID: "admin001"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthValidateTokenRejectsForeignSecret(t *testing.T) {
	svc, _, _ := newAuthFixture()
	resp, err := svc.Login(context.Background(), models.LoginRequest{UserID: "admin001", Password: "admin123", Role: models.RoleAdmin})
	require.NoError(t, err)

	other := NewAuthService(newFakeCollection[models.User](), &fakeSessions{}, nil, nil, AuthConfig{AccessTokenSecret: "other"})
	_, err = other.ValidateToken(resp.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAuthCurrentUserAndLogout(t *testing.T) {
	svc, _, sessions := newAuthFixture()
	ctx := context.Background()

	_, err := svc.CurrentUser(ctx)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	sessions.session = &models.Session{UserID: "admin001", Role: models.RoleAdmin}
	session, err := svc.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin001", session.UserID)

	require.NoError(t, svc.Logout(ctx))
	assert.Nil(t, sessions.session)
}

func TestAuthUpdatePassword(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()

	err := svc.UpdatePassword(ctx, "admin001", models.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = svc.UpdatePassword(ctx, "ghost", models.ChangePasswordRequest{CurrentPassword: "x", NewPassword: "newpass1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	require.NoError(t, svc.UpdatePassword(ctx, "admin001", models.ChangePasswordRequest{CurrentPassword: "admin123", NewPassword: "newpass1"}))
	assert.Equal(t, "newpass1", users.items[0].Password)
}

func TestRedirectPathAndInitials(t *testing.T) {
	assert.Equal(t, "/dashboard/admin", RedirectPath(models.RoleAdmin))
	assert.Equal(t, "/dashboard/student", RedirectPath(models.RoleStudent))
	assert.Equal(t, "/", RedirectPath(models.UserRole("guest")))

	assert.Equal(t, "DJ", Initials("Dr. Sarah Johnson"))
	assert.Equal(t, "JS", Initials("John Smith"))
	assert.Equal(t, "AD", Initials("admin"))
	assert.Equal(t, "??", Initials(""))
}
