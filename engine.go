package authguard

import (
	internalaudit "github.com/hardenlabs/authguard/internal/audit"
	"github.com/hardenlabs/authguard/internal/stores"
	"github.com/hardenlabs/authguard/password"
	"github.com/hardenlabs/authguard/token"
)

// Engine is the account-security subsystem entry point. Instances are built
// once through [Builder.Build] and are safe for concurrent use afterwards.
type Engine struct {
	config          Config
	credentialStore CredentialStore
	tokenManager    *token.Manager
	totp            *totpManager
	pendingStore    *stores.PendingSetupStore
	reputation      *stores.ReputationStore
	limiter         *challengeLimiter
	passwordHash    *password.Argon2
	audit           *internalaudit.Dispatcher
	metrics         *Metrics
}

// Close flushes and stops the audit dispatcher. It does not close the Redis
// client, which the caller owns.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.SnapshotAll()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// IssueSession mints a signed session token for userID with the configured
// lifetime. It has no side effects beyond signing.
func (e *Engine) IssueSession(userID string) (string, error) {
	if e == nil || e.tokenManager == nil {
		return "", ErrEngineNotReady
	}
	tok, err := e.tokenManager.Issue(userID)
	if err != nil {
		return "", err
	}
	e.metricInc(MetricTokenIssued)
	return tok, nil
}

// VerifySession checks a token's signature and expiry and returns the
// embedded user identifier. It is a pure function: no store round-trips, no
// locking. Failures are [ErrTokenExpired] or [ErrTokenSignature].
func (e *Engine) VerifySession(tokenStr string) (string, error) {
	if e == nil || e.tokenManager == nil {
		return "", ErrEngineNotReady
	}
	claims, err := e.tokenManager.Verify(tokenStr)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
