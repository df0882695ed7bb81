package service

import (
	"crypto/sha256"
	"encoding/base64"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Passwords hashes and verifies user passwords. Input is SHA-256 digested and
// base64 encoded before bcrypt, which only reads the first 72 bytes.
type Passwords struct {
	cost      int
	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswords returns a hasher using cost; zero means bcrypt.DefaultCost.
func NewPasswords(cost int) *Passwords {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Passwords{cost: cost}
}

func prehash(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

func (p *Passwords) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword(prehash(password), p.cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (p *Passwords) Matches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) == nil
}

// Burn runs one comparison against a fixed hash so a lookup miss costs the
// same as a wrong password.
func (p *Passwords) Burn(password string) {
	p.dummyOnce.Do(func() {
		p.dummy, _ = bcrypt.GenerateFromPassword(prehash("inkwell-dummy-password"), p.cost)
	})
	_ = bcrypt.CompareHashAndPassword(p.dummy, prehash(password))
}
