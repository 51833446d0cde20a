// Package auth guards the simulator's JSON-RPC endpoint with a bearer token.
// A request passes with either the configured static token or an HS256 JWT
// signed with the configured secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const staticSubject = "static-token"

type Verifier struct {
	static string
	secret []byte
}

// NewVerifier returns nil when both staticToken and jwtSecret are empty,
// which disables authentication.
func NewVerifier(staticToken, jwtSecret string) *Verifier {
	if staticToken == "" && jwtSecret == "" {
		return nil
	}
	v := &Verifier{static: staticToken}
	if jwtSecret != "" {
		v.secret = []byte(jwtSecret)
	}
	return v
}

// Verify returns the subject the token was issued to.
func (v *Verifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidCredentials
	}
	if v.static != "" && subtle.ConstantTimeCompare([]byte(token), []byte(v.static)) == 1 {
		return staticSubject, nil
	}
	if v.secret == nil {
		return "", ErrInvalidCredentials
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredentials
		}
		return v.secret, nil
	})
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if claims, ok := parsed.Claims.(*jwt.RegisteredClaims); ok && parsed.Valid {
		return claims.Subject, nil
	}
	return "", ErrInvalidCredentials
}

// Issue signs an HS256 token for subject that expires after ttl.
func (v *Verifier) Issue(subject string, ttl time.Duration) (string, error) {
	if v == nil || v.secret == nil {
		return "", errors.New("auth: no jwt secret configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
