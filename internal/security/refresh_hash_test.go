package security

import (
	"testing"
)

func TestHashRefreshToken(t *testing.T) {
	token := "session-refresh-token"
	if HashRefreshToken(token) != HashRefreshToken(token) {
		t.Error("HashRefreshToken not deterministic")
	}
	if got := len(HashRefreshToken(token)); got != 64 {
		t.Errorf("hash length = %d, want 64 (SHA-256 hex)", got)
	}
	if HashRefreshToken("session-a") == HashRefreshToken("session-b") {
		t.Error("different tokens hashed to the same value")
	}
	if got := len(HashRefreshToken("")); got != 64 {
		t.Errorf("empty token hash length = %d, want 64", got)
	}
}

func TestRefreshTokenHashEqual(t *testing.T) {
	token := "session-refresh-token"
	stored := HashRefreshToken(token)

	if !RefreshTokenHashEqual(token, stored) {
		t.Error("stored hash of the same token should match")
	}
	if RefreshTokenHashEqual("some-other-token", stored) {
		t.Error("a different token must not match the stored hash")
	}
}

func TestRefreshTokenHashEqual_ClearedSlot(t *testing.T) {
	// After logout the slot is empty; no presented token may match it.
	if RefreshTokenHashEqual("session-refresh-token", "") {
		t.Error("cleared slot must reject every token")
	}
	if RefreshTokenHashEqual("", "") {
		t.Error("empty token must not match the cleared slot")
	}
}

func TestRefreshTokenHashEqual_CorruptStoredHash(t *testing.T) {
	token := "session-refresh-token"
	stored := HashRefreshToken(token)

	// Same length, different content.
	flipped := "f" + stored[1:]
	if flipped == stored {
		flipped = "0" + stored[1:]
	}
	if RefreshTokenHashEqual(token, flipped) {
		t.Error("hash differing in content must not match")
	}
	// Different length.
	if RefreshTokenHashEqual(token, stored+"00") {
		t.Error("hash differing in length must not match")
	}
}
