package services

import (
	"testing"

	"banquito/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T) (*UserService, *MemberService) {
	t.Helper()
	db := newTestDB(t)
	log := newTestLogger()
	settings := NewSettingsService(db, log, nil)
	return NewUserService(db, log), NewMemberService(db, settings, log)
}

func TestRegisterAndAuthenticate(t *testing.T) {
	users, _ := newTestUserService(t)

	user, err := users.Register(RegisterUserDTO{
		Username: "treasurer1",
		Password: "s3cret-pass",
		Role:     "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	// The hash never equals the raw password
	assert.NotEqual(t, "s3cret-pass", user.Password)

	authed, err := users.Authenticate(LoginDTO{Username: "treasurer1", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, authed.ID)

	_, err = users.Authenticate(LoginDTO{Username: "treasurer1", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Authenticate(LoginDTO{Username: "nobody", Password: "whatever"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDefaultsToMemberRole(t *testing.T) {
	users, _ := newTestUserService(t)

	user, err := users.Register(RegisterUserDTO{
		Username: "plainuser",
		Password: "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleMember, user.Role)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	users, _ := newTestUserService(t)

	_, err := users.Register(RegisterUserDTO{Username: "repeated", Password: "longenough"})
	require.NoError(t, err)

	_, err = users.Register(RegisterUserDTO{Username: "repeated", Password: "different1"})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
}

func TestRegisterValidation(t *testing.T) {
	users, _ := newTestUserService(t)

	// Short password
	_, err := users.Register(RegisterUserDTO{Username: "shortpw", Password: "tiny"})
	assert.Error(t, err)

	// Unknown role
	_, err = users.Register(RegisterUserDTO{Username: "badrole", Password: "longenough", Role: "superuser"})
	assert.Error(t, err)

	// Missing member link target
	missing := uint(999)
	_, err = users.Register(RegisterUserDTO{Username: "nolink", Password: "longenough", MemberID: &missing})
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestAuthenticateDisabledAccount(t *testing.T) {
	users, members := newTestUserService(t)

	member, err := members.CreateMember(CreateMemberDTO{
		Name:      "Linked Member",
		DNI:       "87654321",
		Shares:    5,
		Guarantee: decimal.Zero,
	})
	require.NoError(t, err)

	user, err := users.Register(RegisterUserDTO{
		Username: "linkedlogin",
		Password: "longenough",
		MemberID: &member.ID,
	})
	require.NoError(t, err)

	// Deactivating the member disables the login
	require.NoError(t, members.DeactivateMember(member.ID))

	_, err = users.Authenticate(LoginDTO{Username: user.Username, Password: "longenough"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestChangePassword(t *testing.T) {
	users, _ := newTestUserService(t)

	user, err := users.Register(RegisterUserDTO{Username: "rotating", Password: "oldpassword"})
	require.NoError(t, err)

	err = users.ChangePassword(user.ID, ChangePasswordDTO{
		CurrentPassword: "wrongcurrent",
		NewPassword:     "newpassword",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, users.ChangePassword(user.ID, ChangePasswordDTO{
		CurrentPassword: "oldpassword",
		NewPassword:     "newpassword",
	}))

	_, err = users.Authenticate(LoginDTO{Username: "rotating", Password: "newpassword"})
	assert.NoError(t, err)
	_, err = users.Authenticate(LoginDTO{Username: "rotating", Password: "oldpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
