// Package entity defines the domain entities for the user feature.
package entity

import "time"

// Role labels granted to accounts. RoleUser is assigned at registration,
// RoleAPI is required to call the /api routes.
const (
	RoleUser = "ROLE_USER"
	RoleAPI  = "ROLE_API"
)

// PendingEmailConfirmed is the sentinel stored in PendingEmail when no
// email change is awaiting confirmation.
const PendingEmailConfirmed = "confirmed"

// User represents a registered account in the system.
// It contains authentication credentials and metadata for account management.
type User struct {
	// ID is the unique identifier for the account.
	ID uint `gorm:"primaryKey"`

	// Email is the confirmed address used for sign-in.
	// It must be unique across all accounts.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// PendingEmail holds an address submitted for change but not yet
	// confirmed. It is PendingEmailConfirmed when nothing is pending.
	PendingEmail string `gorm:"size:255;not null;default:confirmed"`

	// FirstName is the account's display name.
	FirstName string `gorm:"size:255;not null"`

	// PasswordHash is the bcrypt hash of the account's password.
	// This should never store plaintext passwords.
	PasswordHash string `gorm:"size:255;not null"`

	// Roles is the set of authorization labels granted to the account.
	Roles []string `gorm:"serializer:json"`

	// IsVerified is true once the registration email has been confirmed.
	IsVerified bool `gorm:"not null;default:false"`

	// APIToken is the long-lived bearer credential for programmatic access.
	// 64-character hex string, unique per account.
	APIToken string `gorm:"uniqueIndex;size:64;not null"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time

	// UpdatedAt is the timestamp when the account was last updated.
	UpdatedAt time.Time
}

// HasRole returns true if the account has been granted the given role.
func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// EmailChangePending returns true if an email change awaits confirmation.
func (u *User) EmailChangePending() bool {
	return u.PendingEmail != "" && u.PendingEmail != PendingEmailConfirmed
}

// EffectiveEmail returns the pending address when a change is in flight,
// otherwise the confirmed one. Callers echo this back after an update so the
// client sees the value they submitted.
func (u *User) EffectiveEmail() string {
	if u.EmailChangePending() {
		return u.PendingEmail
	}
	return u.Email
}
