package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"barhub/internal/policy"
)

func testConfig() Config {
	return Config{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec(testConfig())
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	return codec
}

func TestMintAndVerify(t *testing.T) {
	codec := newTestCodec(t)

	for _, domain := range []Domain{DomainAccess, DomainRefresh} {
		tok, err := codec.Mint(domain, "user-1", policy.RoleStudent)
		if err != nil {
			t.Fatalf("Mint error: %v", err)
		}

		id, err := codec.Verify(domain, tok)
		if err != nil {
			t.Fatalf("Verify error: %v", err)
		}
		if id.Subject != "user-1" || id.Role != policy.RoleStudent {
			t.Fatalf("unexpected identity: %+v", id)
		}
	}
}

func TestCrossDomainVerificationFails(t *testing.T) {
	codec := newTestCodec(t)

	access, err := codec.Mint(DomainAccess, "user-1", policy.RoleAdmin)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	if _, err := codec.Verify(DomainRefresh, access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("access token under refresh secret: got %v, want ErrTokenInvalid", err)
	}

	refresh, err := codec.Mint(DomainRefresh, "user-1", policy.RoleAdmin)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	if _, err := codec.Verify(DomainAccess, refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("refresh token under access secret: got %v, want ErrTokenInvalid", err)
	}
}

func TestExpiredToken(t *testing.T) {
	codec := newTestCodec(t)

	tok, err := codec.Mint(DomainAccess, "user-1", policy.RoleStudent)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	// Move the codec's clock past the access TTL.
	codec.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	if _, err := codec.Verify(DomainAccess, tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestTamperedTokenFails(t *testing.T) {
	codec := newTestCodec(t)

	tok, err := codec.Mint(DomainRefresh, "user-1", policy.RoleStudent)
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	// Flip one character in the payload segment.
	parts := strings.Split(tok, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected JWT shape: %s", tok)
	}
	payload := []byte(parts[1])
	if payload[3] == 'A' {
		payload[3] = 'B'
	} else {
		payload[3] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	if _, err := codec.Verify(DomainRefresh, tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	codec := newTestCodec(t)

	for _, bad := range []string{"", "x", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		if _, err := codec.Verify(DomainAccess, bad); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("Verify(%q): got %v, want ErrTokenInvalid", bad, err)
		}
	}
}

func TestNewCodecRejectsSharedSecret(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshSecret = cfg.AccessSecret

	if _, err := NewCodec(cfg); err == nil {
		t.Fatal("expected shared secrets to be rejected")
	}
}

func TestMintRejectsUnknownRole(t *testing.T) {
	codec := newTestCodec(t)

	if _, err := codec.Mint(DomainAccess, "user-1", policy.Role("ROOT")); err == nil {
		t.Fatal("expected unknown role to be rejected")
	}
	if _, err := codec.Mint(DomainAccess, "", policy.RoleStudent); err == nil {
		t.Fatal("expected empty subject to be rejected")
	}
}
