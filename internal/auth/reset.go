package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"

	"inkwell/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// ResetAudience marks password-reset tokens so they can never pass as session tokens.
const ResetAudience = "password-reset"

// DefaultResetTimeout is how long a reset link stays valid.
const DefaultResetTimeout = 72 * time.Hour

type resetClaims struct {
	jwt.RegisteredClaims
	Fingerprint string `json:"fp"`
}

// ResetTokens makes and checks stateless password-reset tokens. A token is
// bound to the user's id, email and password hash, so it stops validating
// as soon as any of them changes, including after a successful reset.
type ResetTokens struct {
	secret  []byte
	timeout time.Duration
	now     func() time.Time
}

func NewResetTokens(secret string, timeout time.Duration) *ResetTokens {
	if timeout <= 0 {
		timeout = DefaultResetTimeout
	}
	return &ResetTokens{secret: []byte(secret), timeout: timeout, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (r *ResetTokens) WithClock(now func() time.Time) *ResetTokens {
	r.now = now
	return r
}

// Make signs a token for the user's current state.
func (r *ResetTokens) Make(u *models.User) (string, error) {
	now := r.now()
	claims := resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(u.ID), 10),
			Audience:  jwt.ClaimStrings{ResetAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(r.timeout)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Fingerprint: r.fingerprint(u),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// Check reports whether token was made for u as it is now and has not expired.
func (r *ResetTokens) Check(u *models.User, token string) bool {
	if u == nil || token == "" {
		return false
	}
	claims := &resetClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(ResetAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil || !parsed.Valid {
		return false
	}
	if claims.Subject != strconv.FormatUint(uint64(u.ID), 10) {
		return false
	}
	return hmac.Equal([]byte(claims.Fingerprint), []byte(r.fingerprint(u)))
}

func (r *ResetTokens) fingerprint(u *models.User) string {
	mac := hmac.New(sha256.New, r.secret)
	mac.Write([]byte(strconv.FormatUint(uint64(u.ID), 10)))
	mac.Write([]byte{'|'})
	mac.Write([]byte(u.Email))
	mac.Write([]byte{'|'})
	mac.Write([]byte(u.Password))
	return hex.EncodeToString(mac.Sum(nil))
}
