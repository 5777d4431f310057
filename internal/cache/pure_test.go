package cache

import (
	"testing"
)

func TestHashClientKey_Deterministic(t *testing.T) {
	t.Parallel()

	key := "192.168.1.100"

	hash1 := hashClientKey(key)
	hash2 := hashClientKey(key)

	if hash1 != hash2 {
		t.Error("same client key should produce same hash")
	}
}

func TestHashClientKey_Length(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
	}{
		{"IPv4", "192.168.1.1"},
		{"IPv4 localhost", "127.0.0.1"},
		{"IPv6 localhost", "::1"},
		{"IPv6 full", "2001:0db8:85a3:0000:0000:8a2e:0370:7334"},
		{"empty", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			hash := hashClientKey(tt.key)
			// hashClientKey uses first 8 bytes of SHA256, encoded as 16 hex chars
			if len(hash) != 16 {
				t.Errorf("hashClientKey(%q) length = %d, want 16", tt.key, len(hash))
			}
		})
	}
}

func TestHashClientKey_Different(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key1 string
		key2 string
	}{
		{"different IPv4", "192.168.1.1", "192.168.1.2"},
		{"different last octet", "10.0.0.1", "10.0.0.2"},
		{"IPv4 vs IPv6", "127.0.0.1", "::1"},
		{"public vs private", "8.8.8.8", "192.168.1.1"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if hashClientKey(tt.key1) == hashClientKey(tt.key2) {
				t.Errorf("distinct keys %q and %q should not collide", tt.key1, tt.key2)
			}
		})
	}
}
