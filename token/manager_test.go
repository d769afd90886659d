package token

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"
)

func newHSManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		TTL:           ttl,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("test-signing-secret-0123456789ab"),
		Issuer:        "authguard",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestIssueAndVerifyRoundtrip(t *testing.T) {
	m := newHSManager(t, time.Minute)

	tok, err := m.Issue("u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	claims, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("expected u1, got %s", claims.UserID)
	}
	if claims.ID == "" {
		t.Fatal("expected a jti claim")
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	m := newHSManager(t, time.Millisecond)

	tok, err := m.Issue("u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := m.Verify(tok); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	m := newHSManager(t, time.Minute)
	other, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("another-signing-secret-entirely!"),
		Issuer:        "authguard",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	tok, err := other.Issue("u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := m.Verify(tok); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	m := newHSManager(t, time.Minute)

	if _, err := m.Verify("not.a.token"); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if _, err := m.Verify(""); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for empty input, got %v", err)
	}
}

func TestVerifyTamperedToken(t *testing.T) {
	m := newHSManager(t, time.Minute)

	tok, err := m.Issue("u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tampered := tok[:len(tok)-2] + "xx"
	if _, err := m.Verify(tampered); err == nil {
		t.Fatal("expected tampered token to fail")
	}
}

func TestEd25519Roundtrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key failed: %v", err)
	}

	m, err := NewManager(Config{
		TTL:           time.Minute,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	tok, err := m.Issue("u1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.UserID != "u1" {
		t.Fatalf("expected u1, got %s", claims.UserID)
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	if _, err := NewManager(Config{SigningMethod: MethodHS256, PrivateKey: []byte("k")}); err == nil {
		t.Fatal("expected zero TTL to fail")
	}
	if _, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256}); err == nil {
		t.Fatal("expected missing secret to fail")
	}
	if _, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519}); err == nil {
		t.Fatal("expected missing public key to fail")
	}
	if _, err := NewManager(Config{TTL: time.Minute, SigningMethod: "rs256", PrivateKey: []byte("k")}); err == nil {
		t.Fatal("expected unsupported method to fail")
	}
}

func TestIssueRejectsEmptyUserID(t *testing.T) {
	m := newHSManager(t, time.Minute)
	if _, err := m.Issue(""); err == nil {
		t.Fatal("expected empty user id to fail")
	}
}
