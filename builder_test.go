package authguard

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestBuildRequiresRedisAndStore(t *testing.T) {
	if _, err := New().WithSigningSecret([]byte("k")).Build(); err == nil {
		t.Fatal("expected build without redis to fail")
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	if _, err := New().WithRedis(rdb).WithSigningSecret([]byte("k")).Build(); err == nil {
		t.Fatal("expected build without credential store to fail")
	}
}

func TestBuildRejectsMissingSigningSecret(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	if _, err := New().WithRedis(rdb).WithCredentialStore(newMemStore()).Build(); err == nil {
		t.Fatal("expected build without signing secret to fail")
	}
}

func TestBuilderIsSingleUse(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	b := New().
		WithRedis(rdb).
		WithCredentialStore(newMemStore()).
		WithSigningSecret([]byte("test-signing-secret-0123456789ab"))

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	cfg := testConfig()
	cfg.Reputation.BanThreshold = 0

	if _, err := New().WithConfig(cfg).WithRedis(rdb).WithCredentialStore(newMemStore()).Build(); err == nil {
		t.Fatal("expected invalid config to fail")
	}
}

func TestEngineOperationsOnNilEngine(t *testing.T) {
	var engine *Engine

	if _, err := engine.IssueSession("u1"); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.VerifySession("tok"); err != ErrEngineNotReady {
		t.Fatalf("expected ErrEngineNotReady, got %v", err)
	}
	engine.Close()
	if engine.AuditDropped() != 0 {
		t.Fatal("expected zero drops from nil engine")
	}
}
