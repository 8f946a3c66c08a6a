// Tests run against a migrated temp-file SQLite database.
package auth_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/matiasleandrokruk/simonsays/internal/domain/auth"
	"github.com/matiasleandrokruk/simonsays/internal/infra/sqlite/sqlitetest"
	pkgauth "github.com/matiasleandrokruk/simonsays/pkg/auth"
)

func newService(t *testing.T) (*domainauth.Service, *pkgauth.TokenIssuer, *sql.DB) {
	t.Helper()
	db := sqlitetest.Open(t)
	tokens, err := pkgauth.NewTokenIssuer("test-secret-key-32-chars-min!!!", time.Hour)
	require.NoError(t, err)
	return domainauth.NewService(db, tokens, nil), tokens, db
}

func TestSignInAnonymous_CreatesUserAndProfile(t *testing.T) {
	t.Parallel()

	svc, tokens, db := newService(t)
	res, err := svc.SignInAnonymous(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Anonymous)
	assert.Equal(t, int64(3600), res.ExpiresIn)

	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, claims.UserID)
	assert.True(t, claims.Anonymous)

	var anon int
	require.NoError(t, db.QueryRow(`SELECT is_anonymous FROM user_account WHERE id = ?`, res.UserID).Scan(&anon))
	assert.Equal(t, 1, anon)

	var coach string
	require.NoError(t, db.QueryRow(`SELECT active_coach FROM user_profile WHERE user_id = ?`, res.UserID).Scan(&coach))
	assert.Equal(t, "productivity", coach)
}

func TestSignInAnonymous_DistinctUsers(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	a, err := svc.SignInAnonymous(context.Background())
	require.NoError(t, err)
	b, err := svc.SignInAnonymous(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.UserID, b.UserID)
}

func TestLinkCredentials_ThenLogin(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	ctx := context.Background()

	anon, err := svc.SignInAnonymous(ctx)
	require.NoError(t, err)

	linked, err := svc.LinkCredentials(ctx, anon.UserID, " Ada@Example.com ", "correct-horse")
	require.NoError(t, err)
	assert.False(t, linked.Anonymous)
	assert.Equal(t, anon.UserID, linked.UserID)

	login, err := svc.Login(ctx, "ada@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, anon.UserID, login.UserID)
}

func TestLinkCredentials_Errors(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	ctx := context.Background()

	first, err := svc.SignInAnonymous(ctx)
	require.NoError(t, err)
	second, err := svc.SignInAnonymous(ctx)
	require.NoError(t, err)

	_, err = svc.LinkCredentials(ctx, first.UserID, "not-an-email", "long-enough")
	assert.ErrorIs(t, err, domainauth.ErrInvalidInput)

	_, err = svc.LinkCredentials(ctx, first.UserID, "a@b.co", "short")
	assert.ErrorIs(t, err, domainauth.ErrInvalidInput)

	_, err = svc.LinkCredentials(ctx, "missing-user", "a@b.co", "long-enough")
	assert.ErrorIs(t, err, domainauth.ErrUserNotFound)

	_, err = svc.LinkCredentials(ctx, first.UserID, "a@b.co", "long-enough")
	require.NoError(t, err)

	_, err = svc.LinkCredentials(ctx, first.UserID, "other@b.co", "long-enough")
	assert.ErrorIs(t, err, domainauth.ErrAlreadyLinked)

	_, err = svc.LinkCredentials(ctx, second.UserID, "A@B.CO", "long-enough")
	assert.ErrorIs(t, err, domainauth.ErrEmailAlreadyExists)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Parallel()

	svc, _, _ := newService(t)
	ctx := context.Background()

	anon, err := svc.SignInAnonymous(ctx)
	require.NoError(t, err)
	_, err = svc.LinkCredentials(ctx, anon.UserID, "sam@example.com", "long-enough")
	require.NoError(t, err)

	for _, tc := range []struct{ email, password string }{
		{"sam@example.com", "wrong-password"},
		{"nobody@example.com", "long-enough"},
		{"garbage", "long-enough"},
	} {
		_, err := svc.Login(ctx, tc.email, tc.password)
		assert.ErrorIs(t, err, domainauth.ErrInvalidCredentials, tc.email)
	}
}
