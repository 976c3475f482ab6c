package security

import (
	"testing"
)

func TestNewResetToken(t *testing.T) {
	token, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if len(token) != resetTokenBytes*2 {
		t.Errorf("token length = %d, want %d (hex)", len(token), resetTokenBytes*2)
	}
}

func TestNewResetToken_Unique(t *testing.T) {
	t1, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	t2, err := NewResetToken()
	if err != nil {
		t.Fatalf("NewResetToken: %v", err)
	}
	if t1 == t2 {
		t.Error("two reset tokens are identical")
	}
}

func TestHashResetToken_Consistent(t *testing.T) {
	token := "test-reset-token"
	if HashResetToken(token) != HashResetToken(token) {
		t.Error("HashResetToken not deterministic")
	}
	if len(HashResetToken(token)) != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", len(HashResetToken(token)))
	}
	if HashResetToken("a") == HashResetToken("b") {
		t.Error("HashResetToken produced same hash for different tokens")
	}
}
