// Package auth — password hashing.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, and the slowness is the security property: it
// makes offline brute-force expensive. It also generates a random per-call
// salt and embeds it in the output, so two users with the same password get
// different digests and no separate salt column is needed.
//
// Digest format (the full output of bcrypt.GenerateFromPassword):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 iterations)
//	 version
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly 200–300ms on
// current server hardware — negligible per login, brutal for an attacker
// hashing billions of guesses.
const defaultCost = 12

// PasswordService hashes and verifies passwords.
//
// It's a struct rather than free functions so the cost can be injected:
// tests use bcrypt.MinCost to avoid paying ~250ms per hash without changing
// any of the logic under test.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt.
//
// The returned string is self-contained (salt and cost included) and is what
// gets stored in the users table. Plaintexts longer than 72 bytes are
// rejected explicitly — bcrypt would otherwise truncate them silently.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored digest.
//
// FAIL CLOSED:
// Every failure mode — wrong password, malformed digest, wrong bcrypt
// version — comes back as plain false. Callers can't tell a corrupt digest
// from a bad password, and neither can an attacker probing the login
// endpoint. The comparison itself is constant-time inside bcrypt, so the
// response time leaks nothing either.
func (p *PasswordService) Verify(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
