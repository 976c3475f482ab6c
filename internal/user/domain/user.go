package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// User is the core identity entity. The session record (refresh token hash,
// password-change timestamp) and the transient reset record are embedded in the
// same row so every lifecycle mutation is a single atomic record update.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt; never serialized in responses
	Role         Role

	// Session record: at most one live refresh token per user, hashed at rest.
	RefreshTokenHash  string
	PasswordChangedAt *time.Time // nil until the credential is rotated for the first time

	// Reset record: outstanding password-reset token hash and its absolute expiry.
	// Both empty/nil outside an active reset flow.
	PasswordResetTokenHash string
	PasswordResetExpires   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super-admin"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

// ValidateEmail checks that email is syntactically well-formed.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// Validate validates the user for persistence. Returns an error describing the
// first validation failure.
func (u *User) Validate() error {
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	switch u.Role {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
	default:
		return errors.New("invalid role")
	}
	return nil
}

// PasswordChangedAfter reports whether the credential was rotated after the
// given token issue time. A token issued before the last password change is
// stale and must be rejected even if its own expiry has not passed; this is
// the only revocation mechanism for already-issued tokens.
func (u *User) PasswordChangedAfter(tokenIssuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return tokenIssuedAt.Before(*u.PasswordChangedAt)
}

// ResetTokenValidAt reports whether the stored reset record exists and has not
// expired at the given instant.
func (u *User) ResetTokenValidAt(now time.Time) bool {
	if u.PasswordResetTokenHash == "" || u.PasswordResetExpires == nil {
		return false
	}
	return now.Before(*u.PasswordResetExpires)
}
