package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"identity-token-service/internal/user/domain"
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, password_hash, role, refresh_token_hash,
	password_changed_at, password_reset_token_hash, password_reset_expires,
	created_at, updated_at`

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetByResetTokenHash returns the user holding the given reset token hash whose
// reset record has not expired at now, or nil. The expiry predicate lives in
// the query so callers cannot accidentally accept an expired record.
func (r *PostgresRepository) GetByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE password_reset_token_hash = $1 AND password_reset_expires > $2`,
		tokenHash, now)
	return scanUser(row)
}

// Create persists the user. The user must have ID set; it is not assigned by
// this method. A unique-constraint violation on the email surfaces as
// ErrDuplicateEmail.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Email, u.PasswordHash, string(u.Role), u.CreatedAt, u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// SetRefreshTokenHash overwrites the refresh token slot unconditionally.
func (r *PostgresRepository) SetRefreshTokenHash(ctx context.Context, userID, tokenHash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = $2, updated_at = $3 WHERE id = $1`,
		userID, tokenHash, at)
	return err
}

// RotateRefreshTokenHash swaps currentHash for nextHash; the WHERE clause makes
// the swap a compare-and-overwrite so only one of two racing rotations wins.
func (r *PostgresRepository) RotateRefreshTokenHash(ctx context.Context, userID, currentHash, nextHash string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = $3, updated_at = $4
		 WHERE id = $1 AND refresh_token_hash = $2`,
		userID, currentHash, nextHash, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

// SetResetToken stores the reset token hash and expiry, superseding any
// outstanding reset record for the user.
func (r *PostgresRepository) SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_reset_token_hash = $2, password_reset_expires = $3, updated_at = $4
		 WHERE id = $1`,
		userID, tokenHash, expiresAt, at)
	return err
}

// ClearResetToken removes the reset record, e.g. after a failed mail dispatch.
func (r *PostgresRepository) ClearResetToken(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_reset_token_hash = '', password_reset_expires = NULL, updated_at = $2
		 WHERE id = $1`,
		userID, at)
	return err
}

// UpdateCredential installs the new password hash, change timestamp, and
// refresh token slot, and clears the reset record, in one statement.
func (r *PostgresRepository) UpdateCredential(ctx context.Context, userID, passwordHash string, changedAt time.Time, refreshTokenHash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, password_changed_at = $3,
			refresh_token_hash = $4, password_reset_token_hash = '',
			password_reset_expires = NULL, updated_at = $5
		 WHERE id = $1`,
		userID, passwordHash, changedAt, refreshTokenHash, at)
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var (
		u            domain.User
		role         string
		changedAt    sql.NullTime
		resetExpires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.RefreshTokenHash,
		&changedAt, &u.PasswordResetTokenHash, &resetExpires,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = domain.Role(role)
	if changedAt.Valid {
		t := changedAt.Time
		u.PasswordChangedAt = &t
	}
	if resetExpires.Valid {
		t := resetExpires.Time
		u.PasswordResetExpires = &t
	}
	return &u, nil
}
