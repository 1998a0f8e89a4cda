// Package verifylink mints and validates signed email-confirmation tokens.
// A token binds the account ID and the currently confirmed email address with
// a bounded time-to-live, so a link stops validating once the address it was
// issued against has been superseded.
package verifylink

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer defines the interface for minting confirmation tokens.
type Signer interface {
	// Sign creates a signed confirmation token for the given account
	// and purpose.
	Sign(userID uint, email, purpose string) (string, error)
}

// ErrInvalidToken is returned when a token fails signature, expiry,
// subject or purpose validation.
var ErrInvalidToken = errors.New("invalid confirmation token")

// signer implements Signer and the usecase-facing verification.
type signer struct {
	secret []byte
	ttl    time.Duration
}

// New creates a signer with the provided secret and token lifetime.
func New(secret string, ttl time.Duration) *signer {
	return &signer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign creates a signed HS256 token binding the account ID, email and
// purpose. The purpose claim keeps a registration link from validating at
// the email-update endpoint and vice versa.
func (s *signer) Sign(userID uint, email, purpose string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":     fmt.Sprintf("%d", userID),
		"email":   email,
		"purpose": purpose,
		"exp":     now.Add(s.ttl).Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign confirmation token: %w", err)
	}

	return signed, nil
}

// Verify checks the token's signature and expiry and that it was issued for
// the given account ID, email and purpose. Any failure is reported as
// ErrInvalidToken; the caller decides user-facing messaging.
func (s *signer) Verify(tokenStr string, userID uint, email, purpose string) error {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		// Check signing algorithm (only HMAC allowed)
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub != fmt.Sprintf("%d", userID) {
		return ErrInvalidToken
	}

	claimedEmail, ok := claims["email"].(string)
	if !ok || claimedEmail != email {
		return ErrInvalidToken
	}

	claimedPurpose, ok := claims["purpose"].(string)
	if !ok || claimedPurpose != purpose {
		return ErrInvalidToken
	}

	return nil
}
