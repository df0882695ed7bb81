package auth

import (
	"context"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func TestTokenManager_IssueAndParse(t *testing.T) {
	m := NewTokenManager(testSecret, 5*time.Minute, 24*time.Hour)

	pair, err := m.IssuePair(7, "alice")
	require.NoError(t, err)

	claims, err := m.Parse(pair.Access, TokenAccess)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)
	assert.Equal(t, "alice", claims.Username)
	assert.NotEmpty(t, claims.ID)

	_, err = m.Parse(pair.Refresh, TokenAccess)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized), "refresh token must not authenticate requests")

	_, err = m.Parse(pair.Refresh, TokenRefresh)
	assert.NoError(t, err)
}

func TestTokenManager_RejectsBadSubject(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute, time.Hour)

	for _, sub := range []string{"0", "abc", ""} {
		t.Run("sub="+sub, func(t *testing.T) {
			claims := Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Subject:   sub,
					Issuer:    Issuer,
					Audience:  jwt.ClaimStrings{Audience},
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
					ID:        "jti-" + sub,
				},
				Type: TokenAccess,
			}
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
			require.NoError(t, err)

			_, err = claims.UserID()
			assert.Error(t, err)
			_, err = m.Parse(signed, TokenAccess)
			assert.True(t, models.HasCode(err, models.CodeUnauthorized))
		})
	}
}

func TestTokenManager_Expiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewTokenManager(testSecret, 5*time.Minute, time.Hour).WithClock(func() time.Time { return now })

	pair, err := m.IssuePair(1, "bob")
	require.NoError(t, err)

	now = now.Add(6 * time.Minute)
	_, err = m.Parse(pair.Access, TokenAccess)
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}

func TestTokenManager_RejectsForeignTokens(t *testing.T) {
	m := NewTokenManager(testSecret, time.Minute, time.Hour)
	other := NewTokenManager("another-secret-another-secret-123", time.Minute, time.Hour)

	pair, err := other.IssuePair(1, "eve")
	require.NoError(t, err)
	_, err = m.Parse(pair.Access, TokenAccess)
	assert.Error(t, err)

	_, err = m.Parse("not-a-jwt", TokenAccess)
	assert.Error(t, err)

	_, err = NewTokenManager("", time.Minute, time.Hour).IssuePair(1, "x")
	assert.Error(t, err)
}

func TestResetTokens(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	r := NewResetTokens(testSecret, 0).WithClock(func() time.Time { return now })
	user := &models.User{ID: 3, Email: "carol@example.com", Password: "hash-1"}

	token, err := r.Make(user)
	require.NoError(t, err)
	assert.True(t, r.Check(user, token))

	t.Run("bound to password hash", func(t *testing.T) {
		changed := *user
		changed.Password = "hash-2"
		assert.False(t, r.Check(&changed, token))
	})

	t.Run("bound to email", func(t *testing.T) {
		changed := *user
		changed.Email = "new@example.com"
		assert.False(t, r.Check(&changed, token))
	})

	t.Run("bound to user", func(t *testing.T) {
		other := *user
		other.ID = 4
		assert.False(t, r.Check(&other, token))
	})

	t.Run("not a session token", func(t *testing.T) {
		m := NewTokenManager(testSecret, time.Hour, time.Hour)
		_, err := m.Parse(token, TokenAccess)
		assert.Error(t, err)
	})

	t.Run("tampered", func(t *testing.T) {
		assert.False(t, r.Check(user, token+"x"))
		assert.False(t, r.Check(user, ""))
		assert.False(t, r.Check(nil, token))
	})

	t.Run("expires after the default timeout", func(t *testing.T) {
		now = now.Add(DefaultResetTimeout - time.Minute)
		assert.True(t, r.Check(user, token))
		now = now.Add(2 * time.Minute)
		assert.False(t, r.Check(user, token))
	})
}

func TestResetTokens_WrongAudienceRejected(t *testing.T) {
	r := NewResetTokens(testSecret, time.Hour)
	user := &models.User{ID: 1, Email: "a@example.com", Password: "h"}

	claims := resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			Audience:  jwt.ClaimStrings{Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Fingerprint: r.fingerprint(user),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.False(t, r.Check(user, token))
}

func TestRevocations(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	rev := NewRevocations(rdb)

	assert.False(t, rev.IsRevoked(ctx, "jti-1"))
	require.NoError(t, rev.Revoke(ctx, "jti-1", time.Minute))
	assert.True(t, rev.IsRevoked(ctx, "jti-1"))

	mr.FastForward(2 * time.Minute)
	assert.False(t, rev.IsRevoked(ctx, "jti-1"))

	var disabled *Revocations
	assert.NoError(t, disabled.Revoke(ctx, "x", time.Minute))
	assert.False(t, disabled.IsRevoked(ctx, "x"))
}
