package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Typed verification failures. Handlers treat all three as unauthorized but
// tests and logs can tell them apart.
var (
	// ErrTokenMalformed is returned when a token cannot be parsed at all.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenExpired is returned when a token's exp claim has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrBadSignature is returned when a token was signed with a different secret.
	ErrBadSignature = errors.New("bad token signature")
)

// SessionClaims holds the JWT claims carried by access and refresh tokens:
// the user id (sub), issue time (iat), expiry (exp), and a unique id (jti) so
// two tokens minted in the same second never collide.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// TokenProvider issues and validates HS256-signed access and refresh tokens.
// The two contexts use independent secrets so a leaked refresh secret cannot
// forge access tokens, and vice versa. TokenProvider is immutable after
// construction and safe for concurrent use.
type TokenProvider struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with the given per-context
// secrets. issuer is set on claims and validated on parse.
func NewTokenProvider(accessSecret, refreshSecret []byte, issuer string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithNow overrides the provider's clock. Primarily for testing expiry paths.
func (p *TokenProvider) WithNow(now func() time.Time) *TokenProvider {
	p2 := *p
	p2.now = now
	return &p2
}

// IssueAccess issues a short-lived access token for the given user.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueAccess(userID string) (token string, expiresAt time.Time, err error) {
	return p.issue(userID, p.accessSecret, p.accessTTL)
}

// IssueRefresh issues a longer-lived refresh token for the given user.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueRefresh(userID string) (token string, expiresAt time.Time, err error) {
	return p.issue(userID, p.refreshSecret, p.refreshTTL)
}

func (p *TokenProvider) issue(userID string, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := p.now().UTC()
	expiresAt := now.Add(ttl)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateAccess parses and validates an access token (signature, exp, iss).
// Returns the user id and issue time, or one of the typed failures.
func (p *TokenProvider) ValidateAccess(tokenString string) (userID string, issuedAt time.Time, err error) {
	return p.validate(tokenString, p.accessSecret)
}

// ValidateRefresh parses and validates a refresh token (signature, exp, iss).
// Returns the user id and issue time, or one of the typed failures.
func (p *TokenProvider) ValidateRefresh(tokenString string) (userID string, issuedAt time.Time, err error) {
	return p.validate(tokenString, p.refreshSecret)
}

func (p *TokenProvider) validate(tokenString string, secret []byte) (string, time.Time, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrBadSignature
		}
		return secret, nil
	}, jwt.WithTimeFunc(p.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", time.Time{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", time.Time{}, ErrBadSignature
		default:
			return "", time.Time{}, ErrTokenMalformed
		}
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return "", time.Time{}, ErrTokenMalformed
	}
	if claims.Issuer != p.issuer {
		return "", time.Time{}, ErrBadSignature
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return "", time.Time{}, ErrTokenMalformed
	}
	return claims.Subject, claims.IssuedAt.Time, nil
}
