package service

import (
	"context"
	"fmt"

	"identity-token-service/internal/security"
	"identity-token-service/internal/user/domain"
)

// RequestPasswordReset starts the out-of-band reset flow: it stores a hashed
// single-use reset token with a bounded lifetime and mails the raw token to
// the user. A repeated request supersedes the outstanding token. If the mail
// cannot be delivered the stored record is rolled back so no undeliverable
// token stays live.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	token, err := security.NewResetToken()
	if err != nil {
		return err
	}
	now := s.nowTime().UTC()
	expiresAt := now.Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, security.HashResetToken(token), expiresAt, now); err != nil {
		return err
	}

	subject := fmt.Sprintf("Your password reset token (valid for %d min)", int(s.resetTTL.Minutes()))
	body := fmt.Sprintf(
		"Forgot your password? Submit a POST request with your new password and passwordConfirm to: %s/v1/auth/reset-password/%s\n"+
			"If you didn't forget your password, please ignore this email!",
		s.resetURL, token)
	if err := s.notifier.Send(ctx, user.Email, subject, body); err != nil {
		// Never leave a token live that the user never received.
		if cerr := s.users.ClearResetToken(ctx, user.ID, s.nowTime().UTC()); cerr != nil {
			return fmt.Errorf("%w: reset record rollback failed: %v", ErrDispatchFailed, cerr)
		}
		return ErrDispatchFailed
	}
	return nil
}

// RedeemPasswordReset consumes a reset token: if it matches a stored,
// unexpired record, the credential is replaced and a fresh session issued in
// one atomic update, which also clears the reset record and invalidates every
// previously issued token. Any non-matching or expired token fails
// ErrResetInvalidOrExpired, even one that merely decodes correctly.
func (s *AuthService) RedeemPasswordReset(ctx context.Context, token, newPassword, newPasswordConfirm string) (*Result, error) {
	if token == "" {
		return nil, ErrResetInvalidOrExpired
	}
	user, err := s.users.GetByResetTokenHash(ctx, security.HashResetToken(token), s.nowTime().UTC())
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrResetInvalidOrExpired
	}
	if newPassword != newPasswordConfirm {
		return nil, ErrPasswordMismatch
	}
	if len(newPassword) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}
	return s.rotateCredential(ctx, user, newPassword)
}
