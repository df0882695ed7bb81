package service

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"inkwell/internal/auth"
	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetTokenFrom pulls the token out of the last reset email to addr.
func resetTokenFrom(t *testing.T, f *fixture, addr string) string {
	t.Helper()
	msg, ok := f.mailer.Last(addr)
	require.True(t, ok, "no email to %s", addr)
	for _, line := range strings.Split(msg.Body, "\n") {
		if strings.Contains(line, "reset-your-password") {
			u, err := url.Parse(strings.TrimSpace(line))
			require.NoError(t, err)
			assert.Equal(t, addr, u.Query().Get("email"))
			return u.Query().Get("token")
		}
	}
	t.Fatalf("no reset link in %q", msg.Body)
	return ""
}

func TestRequestReset_SameAnswerForUnknownEmail(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	u := f.register(t, "known")

	known, err := f.resetSvc.RequestReset(ctx, u.Email)
	require.NoError(t, err)
	unknown, err := f.resetSvc.RequestReset(ctx, "ghost@example.com")
	require.NoError(t, err)

	assert.Equal(t, ResetRequestedMessage, known)
	assert.Equal(t, known, unknown)
	assert.Len(t, f.mailer.Sent(), 1)

	_, err = f.resetSvc.RequestReset(ctx, "bad-email")
	assert.Contains(t, fieldsOf(t, err), "email")
}

func TestRequestReset_MailFailureIsUpstream(t *testing.T) {
	f := newFixture(t, "")
	u := f.register(t, "unlucky")
	svc := NewPasswordResetService(f.users, auth.NewResetTokens(testSecret, 0), NewPasswords(4), failingMailer{}, nil, "http://localhost/")

	_, err := svc.RequestReset(context.Background(), u.Email)
	assertCode(t, err, models.CodeUpstream)
}

func TestPerformReset_FullFlow(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	u := f.register(t, "forgetful")

	_, err := f.resetSvc.RequestReset(ctx, u.Email)
	require.NoError(t, err)
	token := resetTokenFrom(t, f, u.Email)

	in := PerformResetInput{Email: u.Email, Token: token, NewPassword: "N3wPassw0rd!"}
	require.NoError(t, f.resetSvc.PerformReset(ctx, in))

	_, err = f.userSvc.Authenticate(ctx, "forgetful", "N3wPassw0rd!")
	assert.NoError(t, err)
	_, err = f.userSvc.Authenticate(ctx, "forgetful", testPassword)
	assertCode(t, err, models.CodeUnauthorized)

	// The hash changed, so the same link is dead.
	in.NewPassword = "An0therOne!"
	err = f.resetSvc.PerformReset(ctx, in)
	assertCode(t, err, models.CodeValidation)
	assert.Equal(t, "Invalid or expired token.", err.Error())
}

func TestPerformReset_CheckOrder(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	u := f.register(t, "ordered")

	_, err := f.resetSvc.RequestReset(ctx, u.Email)
	require.NoError(t, err)
	token := resetTokenFrom(t, f, u.Email)

	// Policy first: even an unknown email reports the weak password.
	err = f.resetSvc.PerformReset(ctx, PerformResetInput{Email: "ghost@example.com", Token: "x", NewPassword: "weak"})
	assert.Contains(t, fieldsOf(t, err), "new_password")

	err = f.resetSvc.PerformReset(ctx, PerformResetInput{Email: "ghost@example.com", Token: token, NewPassword: "G00dPassword!"})
	assert.Equal(t, "Invalid email.", err.Error())

	err = f.resetSvc.PerformReset(ctx, PerformResetInput{Email: u.Email, Token: "garbage", NewPassword: "G00dPassword!"})
	assert.Equal(t, "Invalid or expired token.", err.Error())

	err = f.resetSvc.PerformReset(ctx, PerformResetInput{Token: token, NewPassword: "G00dPassword!"})
	assert.Equal(t, "Email is required.", err.Error())
}

func TestPerformReset_ExpiredToken(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	u := f.register(t, "slow")

	_, err := f.resetSvc.RequestReset(ctx, u.Email)
	require.NoError(t, err)
	token := resetTokenFrom(t, f, u.Email)

	f.resetClock = f.resetClock.Add(auth.DefaultResetTimeout + time.Minute)
	err = f.resetSvc.PerformReset(ctx, PerformResetInput{Email: u.Email, Token: token, NewPassword: "G00dPassword!"})
	assert.Equal(t, "Invalid or expired token.", err.Error())
}
