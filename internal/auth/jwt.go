// Package auth provides the authentication and authorization core: JWT
// issuance/verification, bcrypt password hashing, the bearer-token middleware,
// and the ownership policy predicates.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client registers with email + username + password
//  2. Client logs in; the server verifies the password and issues a JWT
//  3. Client sends "Authorization: Bearer <jwt>" on every subsequent request
//  4. RequireAuth validates the token and resolves the subject to a User
//
// WHY JWT?
// The token is stateless — the subject and expiry live inside the signed
// payload, so verification needs only the secret key, no session store and no
// revocation list. The trade-off is that an issued token stays valid until it
// expires; logout is purely a client-side act of discarding the token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "tumgpt"

// ErrTokenExpired is returned by Verify for a well-formed token whose expiry
// has passed. Callers may distinguish it from other failures internally (e.g.
// for logging), but every verification failure must surface to clients as the
// same "unauthorized" outcome.
var ErrTokenExpired = errors.New("auth: token expired")

// TokenService signs and verifies bearer tokens.
//
// It holds the process-wide HMAC secret, loaded once from configuration at
// startup and never mutated (the struct has no setters on purpose). The same
// service issues both login tokens and password-reset tokens — they differ
// only in TTL, not in shape. A reset token therefore verifies exactly like a
// login token; there is no purpose claim separating the two classes. That is
// a known weakness inherited from the current API contract, kept rather than
// silently widened with extra claims.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production,
// e.g. JWT_SECRET=$(openssl rand -hex 32). Shorter than 16 is rejected
// outright — an HMAC key that short is guessable.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload. Only registered claims are used; the subject
// carries the user's email, which is unique and stable enough to resolve the
// account on every request.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a token for the given subject, valid for ttl.
//
// The TTL is caller-supplied because the two token classes have different
// policies: 30 minutes for a login session, 1 hour for a password-reset link.
// Signing algorithm is HS256 (HMAC-SHA256) — symmetric, one key for signing
// and verifying, which is all a single-process deployment needs.
func (s *TokenService) Issue(subject string, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("auth: token subject must not be empty")
	}

	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a token string, returning the subject it encodes.
//
// Checks performed (mostly by the jwt library):
//   - the signature is valid for our secret (token wasn't tampered with)
//   - the token is not expired, and an expiry is present at all
//   - the issuer matches (tokens from other apps sharing a secret are refused)
//   - the algorithm is HS256
//
// ALGORITHM CONFUSION:
// Without pinning the method, an attacker could present a token signed with
// "none" or an asymmetric algorithm and some parsers would accept it.
// jwt.WithValidMethods closes that door.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}

	return c.Subject, nil
}
