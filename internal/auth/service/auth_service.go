// Package service implements the token and credential lifecycle: registration,
// login, refresh rotation, logout, credential change, and the password reset
// flow. HTTP concerns (cookies, status codes) live in the handler package.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"identity-token-service/internal/notify"
	"identity-token-service/internal/security"
	"identity-token-service/internal/user/domain"
	"identity-token-service/internal/user/repository"
)

const minPasswordLength = 8

// Result holds the outcome of any operation that establishes a session: the
// freshly minted token pair, its expiries, and the sanitized user.
type Result struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	User             *domain.User
}

// AuthService implements password register, login, refresh rotation, logout,
// and credential change against a user repository.
type AuthService struct {
	users    repository.Repository
	hasher   *security.Hasher
	tokens   *security.TokenProvider
	notifier notify.Notifier
	resetTTL time.Duration
	resetURL string
	nowTime  func() time.Time
}

// Option modifies an AuthService during construction.
type Option func(*AuthService)

// WithNowTime sets the clock function (primarily for testing).
func WithNowTime(now func() time.Time) Option {
	return func(s *AuthService) {
		s.nowTime = now
	}
}

// NewAuthService returns an AuthService with the given dependencies.
// resetURL is the externally reachable base URL used to build reset links;
// resetTTL bounds the lifetime of issued reset tokens.
func NewAuthService(
	users repository.Repository,
	hasher *security.Hasher,
	tokens *security.TokenProvider,
	notifier notify.Notifier,
	resetTTL time.Duration,
	resetURL string,
	options ...Option,
) *AuthService {
	s := &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		resetTTL: resetTTL,
		resetURL: resetURL,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Register creates a user with the given email and password. It returns the
// sanitized user; no session is established and passwordChangedAt stays unset
// so tokens issued later are not retroactively invalidated.
func (s *AuthService) Register(ctx context.Context, email, password, passwordConfirm string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if password != passwordConfirm {
		return nil, ErrPasswordMismatch
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}
	hashed, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}
	now := s.nowTime().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashed,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Lost the race against a concurrent registration of the same
			// email; the unique constraint caught what GetByEmail missed.
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, err
	}
	return sanitize(user), nil
}

// Login authenticates with email and password and establishes a session,
// overwriting any previous refresh token for the user. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Result, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	if !s.hasher.Verify(user.PasswordHash, []byte(password)) {
		return nil, ErrUnauthorized
	}
	return s.issueSessionTokens(ctx, user)
}

// Logout clears the user's refresh token slot; the outstanding refresh token
// can no longer be redeemed. Access tokens run out their own short expiry.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.users.SetRefreshTokenHash(ctx, userID, "", s.nowTime().UTC())
}

// Refresh validates the presented refresh token cryptographically and against
// the stored session record, then rotates it: the returned pair is brand new
// and the presented token can never be redeemed again. All failure modes
// surface as ErrUnauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	if refreshToken == "" {
		return nil, ErrUnauthorized
	}
	userID, _, err := s.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// User deleted after the token was issued.
		return nil, ErrUnauthorized
	}
	if user.RefreshTokenHash == "" || !security.RefreshTokenHashEqual(refreshToken, user.RefreshTokenHash) {
		// Superseded token replayed inside its own expiry window.
		return nil, ErrUnauthorized
	}

	access, accessExp, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	err = s.users.RotateRefreshTokenHash(ctx, user.ID,
		security.HashRefreshToken(refreshToken),
		security.HashRefreshToken(refresh),
		s.nowTime().UTC())
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			// Lost the race against a concurrent rotation of the same token.
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return &Result{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             sanitize(user),
	}, nil
}

// ChangePassword rotates the credential of an authenticated user. The current
// secret must verify; on success every previously issued token is invalidated,
// and the returned pair is the only live session.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword, newPasswordConfirm string) (*Result, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	if !s.hasher.Verify(user.PasswordHash, []byte(currentPassword)) {
		return nil, ErrUnauthorized
	}
	if len(newPassword) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	if newPassword != newPasswordConfirm {
		return nil, ErrPasswordMismatch
	}
	return s.rotateCredential(ctx, user, newPassword)
}

// rotateCredential installs newPassword and a fresh session in one atomic
// record update, stamping passwordChangedAt so older tokens go stale. The
// stamp is backdated one second so the pair minted here is not itself stale.
func (s *AuthService) rotateCredential(ctx context.Context, user *domain.User, newPassword string) (*Result, error) {
	hashed, err := s.hasher.Hash([]byte(newPassword))
	if err != nil {
		return nil, err
	}
	access, accessExp, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	now := s.nowTime().UTC()
	changedAt := now.Add(-time.Second)
	err = s.users.UpdateCredential(ctx, user.ID, hashed, changedAt,
		security.HashRefreshToken(refresh), now)
	if err != nil {
		return nil, err
	}
	return &Result{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             sanitize(user),
	}, nil
}

// issueSessionTokens mints an access/refresh pair and persists the refresh
// hash, overwriting the user's single session slot. Either both tokens are
// returned and the slot is updated, or the operation fails with no visible
// session mutation.
func (s *AuthService) issueSessionTokens(ctx context.Context, user *domain.User) (*Result, error) {
	access, accessExp, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	err = s.users.SetRefreshTokenHash(ctx, user.ID, security.HashRefreshToken(refresh), s.nowTime().UTC())
	if err != nil {
		return nil, err
	}
	return &Result{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		User:             sanitize(user),
	}, nil
}

// sanitize returns a copy of the user with credential and session material
// stripped, safe to serialize in responses.
func sanitize(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	c.RefreshTokenHash = ""
	c.PasswordResetTokenHash = ""
	c.PasswordResetExpires = nil
	return &c
}
