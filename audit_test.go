package authguard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func collectEvents(t *testing.T, sink *ChannelSink, want int) []AuditEvent {
	t.Helper()

	events := make([]AuditEvent, 0, want)
	deadline := time.After(2 * time.Second)
	for len(events) < want {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		case <-deadline:
			t.Fatalf("timed out after %d of %d events", len(events), want)
		}
	}
	return events
}

func TestAuditTrailForLoginAndBan(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	sink := NewChannelSink(64)

	engine, store := newAuditTestEngine(t, cfg, sink)
	seedUser(t, engine, store, "u1", "alice@example.com", "correct-horse")

	const attacker = "9.9.9.9"
	ctx := WithClientIP(context.Background(), attacker)

	for i := 0; i < 5; i++ {
		if _, err := engine.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
	}

	// five login failures plus the ban event
	events := collectEvents(t, sink, 6)

	failures := 0
	banned := false
	for _, event := range events {
		switch event.EventType {
		case "login.failure":
			failures++
			if event.IP != attacker {
				t.Fatalf("expected attacker ip on failure event, got %q", event.IP)
			}
			if event.Success {
				t.Fatal("failure event marked successful")
			}
		case "reputation.ip_banned":
			banned = true
			if event.IP != attacker {
				t.Fatalf("expected attacker ip on ban event, got %q", event.IP)
			}
			if event.Metadata["reason"] == "" {
				t.Fatal("expected a ban reason in metadata")
			}
		default:
			t.Fatalf("unexpected event type %q", event.EventType)
		}
	}
	if failures != 5 || !banned {
		t.Fatalf("expected 5 failures and a ban, got failures=%d banned=%v", failures, banned)
	}
}

func TestAuditTrailForTwoFactorLifecycle(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Enabled = true
	sink := NewChannelSink(64)

	engine, store := newAuditTestEngine(t, cfg, sink)
	seedUser(t, engine, store, "u1", "alice@example.com", "correct-horse")

	secret, _ := enableTwoFactor(t, engine, "u1")
	if err := engine.DisableTwoFactor(context.Background(), "u1", codeForNow(t, secret, engine.config.TOTP)); err != nil {
		t.Fatalf("disable failed: %v", err)
	}

	events := collectEvents(t, sink, 4)
	wantOrder := []string{
		"twofactor.setup_started",
		"twofactor.setup_confirmed",
		"twofactor.challenge_success",
		"twofactor.disabled",
	}
	for i, want := range wantOrder {
		if events[i].EventType != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, events[i].EventType)
		}
		if events[i].UserID != "u1" {
			t.Fatalf("event %d: expected user u1, got %q", i, events[i].UserID)
		}
	}
}

func TestMetricsCountFlows(t *testing.T) {
	engine, store, _ := newTestEngine(t, testConfig())
	seedUser(t, engine, store, "u1", "alice@example.com", "correct-horse")
	ctx := WithClientIP(context.Background(), "1.2.3.4")

	if _, err := engine.Login(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	_, codes := enableTwoFactor(t, engine, "u1")
	if err := engine.VerifyTwoFactor(ctx, "u1", codes[0]); err != nil {
		t.Fatalf("backup code verify failed: %v", err)
	}

	snap := engine.MetricsSnapshot()
	expectations := map[MetricID]uint64{
		MetricLoginSuccess:   1,
		MetricLoginFailure:   1,
		MetricTokenIssued:    1,
		MetricSetupStarted:   1,
		MetricSetupConfirmed: 1,
		MetricBackupCodeUsed: 1,
	}
	for id, want := range expectations {
		if got := snap.Counters[id]; got != want {
			t.Fatalf("metric %d: expected %d, got %d", id, want, got)
		}
	}
}

func newAuditTestEngine(t *testing.T, cfg Config, sink AuditSink) (*Engine, *memStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newMemStore()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCredentialStore(store).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}
	t.Cleanup(func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	})

	return engine, store
}
