// Package otp stores one-time email verification codes.
package otp

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// DefaultTTL is how long a sent code stays valid.
const DefaultTTL = 5 * time.Minute

// VerifiedTTL is how long a verified email may be used to register.
const VerifiedTTL = 30 * time.Minute

// Store keeps at most one live code per email.
type Store interface {
	// Put replaces any existing code for email.
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	// Consume deletes the code and returns true only if it exists and equals code.
	// A wrong code leaves the stored one in place.
	Consume(ctx context.Context, email, code string) (bool, error)
	// MarkVerified records that email passed verification.
	MarkVerified(ctx context.Context, email string, ttl time.Duration) error
	// ConsumeVerified removes the verified marker, reporting whether it was present.
	ConsumeVerified(ctx context.Context, email string) (bool, error)
}

func codeKey(email string) string     { return "otp:" + email }
func verifiedKey(email string) string { return "otp-verified:" + email }

var maxCode = big.NewInt(1_000_000)

// Generate returns a uniformly random six-digit code, zero padded.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, maxCode)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
