package security

import (
	"errors"
	"testing"
	"time"
)

func newTestProvider() *TokenProvider {
	return NewTokenProvider(
		[]byte("access-secret-for-tests"),
		[]byte("refresh-secret-for-tests"),
		"identity-token-service",
		15*time.Minute,
		7*24*time.Hour,
	)
}

func TestIssueAndValidateAccess(t *testing.T) {
	p := newTestProvider()
	token, expiresAt, err := p.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if token == "" {
		t.Fatal("IssueAccess returned empty token")
	}
	if remaining := time.Until(expiresAt); remaining < 14*time.Minute || remaining > 16*time.Minute {
		t.Errorf("access expiry %v from now, want ~15m", remaining)
	}

	userID, issuedAt, err := p.ValidateAccess(token)
	if err != nil {
		t.Fatalf("ValidateAccess: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("userID = %q, want %q", userID, "user-1")
	}
	if issuedAt.IsZero() {
		t.Error("issuedAt is zero")
	}
}

func TestIssueAndValidateRefresh(t *testing.T) {
	p := newTestProvider()
	token, _, err := p.IssueRefresh("user-2")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	userID, _, err := p.ValidateRefresh(token)
	if err != nil {
		t.Fatalf("ValidateRefresh: %v", err)
	}
	if userID != "user-2" {
		t.Errorf("userID = %q, want %q", userID, "user-2")
	}
}

func TestCrossContextRejected(t *testing.T) {
	p := newTestProvider()

	access, _, err := p.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, err := p.ValidateRefresh(access); !errors.Is(err, ErrBadSignature) {
		t.Errorf("ValidateRefresh(access token) = %v, want ErrBadSignature", err)
	}

	refresh, _, err := p.IssueRefresh("user-1")
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if _, _, err := p.ValidateAccess(refresh); !errors.Is(err, ErrBadSignature) {
		t.Errorf("ValidateAccess(refresh token) = %v, want ErrBadSignature", err)
	}
}

func TestExpiredToken(t *testing.T) {
	p := newTestProvider()
	past := time.Now().Add(-time.Hour)
	token, _, err := p.WithNow(func() time.Time { return past }).IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, err := p.ValidateAccess(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ValidateAccess(expired) = %v, want ErrTokenExpired", err)
	}
}

func TestMalformedToken(t *testing.T) {
	p := newTestProvider()
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, _, err := p.ValidateAccess(tok); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("ValidateAccess(%q) = %v, want ErrTokenMalformed", tok, err)
		}
	}
}

func TestWrongSecretRejected(t *testing.T) {
	p := newTestProvider()
	other := NewTokenProvider(
		[]byte("some-other-access-secret"),
		[]byte("some-other-refresh-secret"),
		"identity-token-service",
		15*time.Minute,
		7*24*time.Hour,
	)
	token, _, err := other.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, err := p.ValidateAccess(token); !errors.Is(err, ErrBadSignature) {
		t.Errorf("ValidateAccess(foreign token) = %v, want ErrBadSignature", err)
	}
}

func TestWrongIssuerRejected(t *testing.T) {
	p := newTestProvider()
	other := NewTokenProvider(
		[]byte("access-secret-for-tests"),
		[]byte("refresh-secret-for-tests"),
		"some-other-service",
		15*time.Minute,
		7*24*time.Hour,
	)
	token, _, err := other.IssueAccess("user-1")
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if _, _, err := p.ValidateAccess(token); !errors.Is(err, ErrBadSignature) {
		t.Errorf("ValidateAccess(wrong issuer) = %v, want ErrBadSignature", err)
	}
}
