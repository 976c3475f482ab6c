package repository

import (
	"context"
	"errors"
	"time"

	"identity-token-service/internal/user/domain"
)

// ErrRefreshTokenMismatch is returned by RotateRefreshTokenHash when the stored
// hash no longer equals the expected value: the token was already rotated or
// cleared by a concurrent request.
var ErrRefreshTokenMismatch = errors.New("refresh token mismatch")

// ErrDuplicateEmail is returned by Create when the email is already taken.
// The unique constraint is the authority; a prior existence check can always
// lose a race against a concurrent registration.
var ErrDuplicateEmail = errors.New("email already taken")

// Repository defines persistence for users. Get methods return (nil, nil) when
// no row matches; errors are database failures only. Every mutating method is a
// single atomic row update: a concurrent reader observes either the old record
// or the new one, never a partially applied mix.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByResetTokenHash returns the user holding the given unexpired reset
	// token hash, or nil. Expiry is checked in the query so an expired record
	// is indistinguishable from an absent one.
	GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
	// SetRefreshTokenHash unconditionally overwrites the single refresh token
	// slot. Pass an empty hash to clear it (logout).
	SetRefreshTokenHash(ctx context.Context, userID, tokenHash string, at time.Time) error
	// RotateRefreshTokenHash swaps currentHash for nextHash only if currentHash
	// is still the stored value. This compare-and-overwrite is the
	// serialization point for refresh rotation: of two concurrent redemptions
	// of the same token exactly one succeeds, the other gets
	// ErrRefreshTokenMismatch.
	RotateRefreshTokenHash(ctx context.Context, userID, currentHash, nextHash string, at time.Time) error
	// SetResetToken stores the reset token hash and expiry, overwriting any
	// outstanding reset record. It touches only the reset columns.
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time, at time.Time) error
	// ClearResetToken removes an outstanding reset record (dispatch rollback).
	ClearResetToken(ctx context.Context, userID string, at time.Time) error
	// UpdateCredential atomically installs a new password hash, records the
	// change time, clears the reset record, and overwrites the refresh token
	// slot with refreshTokenHash.
	UpdateCredential(ctx context.Context, userID, passwordHash string, changedAt time.Time, refreshTokenHash string, at time.Time) error
}
