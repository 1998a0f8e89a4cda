// Package usecase implements the business logic for the user feature.
package usecase

import "errors"

var (
	// ErrUserNotFound is returned when an account cannot be found by email, ID or API token.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailAlreadyExists is returned when attempting to create an account with an email that already exists.
	ErrEmailAlreadyExists = errors.New("email already exists")

	// ErrConfirmationInvalid is returned when a confirmation link fails
	// signature, expiry or subject validation. The account is not mutated.
	ErrConfirmationInvalid = errors.New("confirmation link is invalid or expired")

	// ErrUnsupportedPrincipal is returned when a password rotation is invoked
	// against a principal that is not an account. This indicates a programming
	// error, not a user-facing condition.
	ErrUnsupportedPrincipal = errors.New("unsupported principal type")
)
