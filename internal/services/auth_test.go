package services

import (
	"net/http"
	"testing"

	"github.com/rtucker-mozilla/minventory/internal/config"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRequest_Structure(t *testing.T) {
	req := LoginRequest{
		Username: "testuser",
		Password: "password123",
		AuthType: "local",
	}

	if req.Username != "testuser" {
		t.Errorf("Username = %q, expected %q", req.Username, "testuser")
	}
	if req.Password != "password123" {
		t.Errorf("Password = %q, expected %q", req.Password, "password123")
	}
	if req.AuthType != "local" {
		t.Errorf("AuthType = %q, expected %q", req.AuthType, "local")
	}
}

func TestLoginRequest_DefaultAuthType(t *testing.T) {
	req := LoginRequest{
		Username: "user",
		Password: "pass",
	}

	if req.AuthType != "" {
		t.Errorf("AuthType should be empty by default, got %q", req.AuthType)
	}
	if req.Username != "user" {
		t.Errorf("Username = %q, expected %q", req.Username, "user")
	}
	if req.Password != "pass" {
		t.Errorf("Password = %q, expected %q", req.Password, "pass")
	}
}

func TestLoginRequest_LDAPAuthType(t *testing.T) {
	req := LoginRequest{
		Username: "ldapuser",
		Password: "ldappass",
		AuthType: "ldap",
	}

	if req.AuthType != "ldap" {
		t.Errorf("AuthType = %q, expected %q", req.AuthType, "ldap")
	}
	if req.Username != "ldapuser" {
		t.Errorf("Username = %q, expected %q", req.Username, "ldapuser")
	}
	if req.Password != "ldappass" {
		t.Errorf("Password = %q, expected %q", req.Password, "ldappass")
	}
}

func TestLoginResponse_Structure(t *testing.T) {
	resp := LoginResponse{
		Token: "jwt.token.here",
		User:  nil,
	}

	if resp.Token != "jwt.token.here" {
		t.Errorf("Token = %q, expected %q", resp.Token, "jwt.token.here")
	}
	if resp.User != nil {
		t.Error("User should be nil")
	}
}

func TestChangePasswordRequest_Structure(t *testing.T) {
	req := ChangePasswordRequest{
		OldPassword: "oldpass",
		NewPassword: "newpass123",
	}

	if req.OldPassword != "oldpass" {
		t.Errorf("OldPassword = %q, expected %q", req.OldPassword, "oldpass")
	}
	if req.NewPassword != "newpass123" {
		t.Errorf("NewPassword = %q, expected %q", req.NewPassword, "newpass123")
	}
}

func TestChangePasswordRequest_MinLength(t *testing.T) {
	req := ChangePasswordRequest{
		OldPassword: "old",
		NewPassword: "123456",
	}

	if len(req.NewPassword) < 6 {
		t.Errorf("NewPassword length should be at least 6, got %d", len(req.NewPassword))
	}
	if req.OldPassword != "old" {
		t.Errorf("OldPassword = %q, expected %q", req.OldPassword, "old")
	}
}

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	utils.SetJWTSecret("test-secret")
	return NewAuthService(newTestDB(t), &config.JWTConfig{ExpireHour: 2}, &config.LDAPConfig{})
}

func TestAuthService_LocalLogin(t *testing.T) {
	svc := newTestAuthService(t)
	require.NoError(t, svc.CreateAdminIfNotExists())
	// a second call must not create another admin
	require.NoError(t, svc.CreateAdminIfNotExists())

	var count int64
	require.NoError(t, svc.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	assert.False(t, svc.IsLDAPEnabled())
	resp, err := svc.Login(&LoginRequest{Username: "admin", Password: "admin"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User.LastLogin)

	claims, err := utils.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	_, err = svc.Login(&LoginRequest{Username: "admin", Password: "wrong"})
	requireAppError(t, err, http.StatusUnauthorized, "invalid username or password")

	_, err = svc.Login(&LoginRequest{Username: "admin", Password: "admin", AuthType: "kerberos"})
	requireAppError(t, err, http.StatusBadRequest, "invalid auth type")
}

func TestAuthService_DisabledUser(t *testing.T) {
	svc := newTestAuthService(t)
	hash, err := utils.HashPassword("secret1")
	require.NoError(t, err)
	user := models.User{Username: "gone", Password: hash, AuthType: "local", IsActive: true}
	require.NoError(t, svc.db.Create(&user).Error)
	require.NoError(t, svc.db.Model(&user).UpdateColumn("is_active", false).Error)

	_, err = svc.Login(&LoginRequest{Username: "gone", Password: "secret1", AuthType: "local"})
	requireAppError(t, err, http.StatusForbidden, "user is disabled")
}

func TestAuthService_APIKey(t *testing.T) {
	svc := newTestAuthService(t)
	require.NoError(t, svc.CreateAdminIfNotExists())
	admin, err := svc.GetUserByUsername("admin")
	require.NoError(t, err)

	_, err = svc.ResolveAPIKey("")
	requireAppError(t, err, http.StatusUnauthorized, "invalid token")

	key, err := svc.RegenerateAPIKey(admin.ID)
	require.NoError(t, err)
	assert.Len(t, key, 32)

	user, err := svc.ResolveAPIKey(key)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, user.ID)

	rotated, err := svc.RegenerateAPIKey(admin.ID)
	require.NoError(t, err)
	assert.NotEqual(t, key, rotated)
	_, err = svc.ResolveAPIKey(key)
	requireAppError(t, err, http.StatusUnauthorized, "invalid token")

	_, err = svc.RegenerateAPIKey(999)
	requireAppError(t, err, http.StatusNotFound, "user not found")
}

func TestAuthService_Profile(t *testing.T) {
	svc := newTestAuthService(t)
	require.NoError(t, svc.CreateAdminIfNotExists())
	admin, err := svc.GetUserByUsername("admin")
	require.NoError(t, err)

	oncall := true
	profile, err := svc.UpdateProfile(admin.ID, &ProfileRequest{IRCNick: str(" adm "), IsSysadminOncall: &oncall})
	require.NoError(t, err)
	assert.Equal(t, "adm", profile.IRCNick)

	again, err := svc.GetProfile(admin.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, again.ID)
	assert.True(t, again.IsSysadminOncall)
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc := newTestAuthService(t)
	require.NoError(t, svc.CreateAdminIfNotExists())
	admin, err := svc.GetUserByUsername("admin")
	require.NoError(t, err)

	err = svc.ChangePassword(admin.ID, &ChangePasswordRequest{OldPassword: "nope", NewPassword: "newpass1"})
	requireAppError(t, err, http.StatusBadRequest, "incorrect old password")

	require.NoError(t, svc.ChangePassword(admin.ID, &ChangePasswordRequest{OldPassword: "admin", NewPassword: "newpass1"}))
	_, err = svc.Login(&LoginRequest{Username: "admin", Password: "newpass1"})
	require.NoError(t, err)

	ldapUser := models.User{Username: "ldapper", AuthType: "ldap", IsActive: true}
	require.NoError(t, svc.db.Create(&ldapUser).Error)
	err = svc.ChangePassword(ldapUser.ID, &ChangePasswordRequest{OldPassword: "x", NewPassword: "yyyyyy"})
	requireAppError(t, err, http.StatusBadRequest, "LDAP users cannot change password here")
}
