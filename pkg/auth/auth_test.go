package auth

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuth() *Authenticator {
	return New("jwt-secret", "master-secret", time.Hour).WithBcryptCost(bcrypt.MinCost)
}

func TestSessionTokens(t *testing.T) {
	a := newTestAuth()

	admin, err := a.CreateToken(&database.User{Username: "root", Role: database.RoleAdmin})
	require.NoError(t, err)
	manager, err := a.CreateToken(&database.User{Username: "lucia", Role: database.RoleManager, StoreCode: "MAD01"})
	require.NoError(t, err)

	claims, err := a.VerifyToken(manager)
	require.NoError(t, err)
	assert.Equal(t, "lucia", claims.Username)
	assert.True(t, claims.CanAccessStore("mad01"))
	assert.False(t, claims.CanAccessStore("BCN01"))

	assert.True(t, a.IsAdminSession(admin))
	assert.False(t, a.IsAdminSession(manager))
	assert.False(t, a.IsAdminSession(""))
	assert.False(t, a.IsAdminSession("garbage"))

	other := New("another-secret", "master-secret", time.Hour)
	_, err = other.VerifyToken(admin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredToken(t *testing.T) {
	a := New("jwt-secret", "", -time.Minute)
	token, err := a.CreateToken(&database.User{Username: "root", Role: database.RoleAdmin})
	require.NoError(t, err)
	assert.False(t, a.IsAdminSession(token))
}

func TestHMACKeys(t *testing.T) {
	a := newTestAuth()

	key := a.GenerateHMACKey("cron")
	name, err := a.VerifyHMACKey(key)
	require.NoError(t, err)
	assert.Equal(t, "cron", name)

	_, err = a.VerifyHMACKey("cron.deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSignature)
	_, err = a.VerifyHMACKey("no-dot")
	assert.ErrorIs(t, err, ErrInvalidKey)

	other := New("jwt-secret", "different", time.Hour)
	_, err = other.VerifyHMACKey(key)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestEnsureAdminExists(t *testing.T) {
	db, err := database.Open("", filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	a := newTestAuth()

	require.NoError(t, a.EnsureAdminExists(db, "admin", "s3cret", slog.Default()))
	require.NoError(t, a.EnsureAdminExists(db, "admin2", "other", slog.Default()))

	var users []database.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, database.RoleAdmin, users[0].Role)
	assert.True(t, CheckPasswordHash("s3cret", users[0].PasswordHash))
	assert.False(t, CheckPasswordHash("wrong", users[0].PasswordHash))
}
