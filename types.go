package authguard

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/hardenlabs/authguard/internal/audit"
	internalmetrics "github.com/hardenlabs/authguard/internal/metrics"
)

// CredentialStore is the interface callers must implement to integrate
// authguard with their user database. It covers user lookup, password hash
// access, and two-factor credential persistence.
//
// ConsumeBackupCode is the one operation with an atomicity contract: the
// match-and-mark of a backup code hash must be a single compare-and-set so
// that concurrent duplicate submissions of the same code succeed exactly
// once. Implementations backed by SQL typically express this as a
// conditional UPDATE on the used flag; in-memory implementations hold a
// per-user lock.
type CredentialStore interface {
	// GetUserByID and GetUserByIdentifier return an error matching
	// [ErrUserNotFound] (errors.Is) when no such user exists. Any other
	// error is treated as a backend failure and surfaces as
	// [ErrCredentialUnavailable]; it is never counted against the caller.
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (UserRecord, error)

	// GetTwoFactor returns the user's enabled credential, or nil when two-
	// factor is disabled for the account.
	GetTwoFactor(ctx context.Context, userID string) (*TwoFactorCredential, error)
	// SaveTwoFactor persists secret and code hashes as the active credential
	// with enabled=true, replacing any previous credential.
	SaveTwoFactor(ctx context.Context, userID string, secret []byte, codes []BackupCodeRecord) error
	// ClearTwoFactor removes the credential entirely, invalidating the
	// secret and all remaining backup codes.
	ClearTwoFactor(ctx context.Context, userID string) error
	// ConsumeBackupCode atomically marks the code with the given hash used.
	// It reports false when no unused code matches, including codes already
	// consumed by a concurrent caller.
	ConsumeBackupCode(ctx context.Context, userID string, codeHash [32]byte) (bool, error)
}

// UserRecord is the account record returned by [CredentialStore].
type UserRecord struct {
	UserID           string
	Identifier       string
	PasswordHash     string
	TwoFactorEnabled bool
}

// TwoFactorCredential is a user's enabled two-factor state: the shared TOTP
// secret and the remaining backup code hashes. Plaintext codes are shown once
// at setup and never persisted.
type TwoFactorCredential struct {
	Secret []byte
	Codes  []BackupCodeRecord
}

// BackupCodeRecord stores the SHA-256 hash of a single backup code together
// with its consumption flag.
type BackupCodeRecord struct {
	Hash [32]byte
	Used bool
}

// TwoFactorSetup is returned by [Engine.BeginTwoFactorSetup]. BackupCodes
// holds the only plaintext copy of the batch; it cannot be retrieved again.
type TwoFactorSetup struct {
	SecretBase32    string
	ProvisioningURI string
	BackupCodes     []string
}

// SuspiciousIP is one row of the administrative suspicious-address report.
type SuspiciousIP struct {
	IP          string
	Attempts    uint32
	LastAttempt time.Time
	Reason      string
}

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Metrics holds the engine's atomic counters.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot = internalmetrics.Snapshot

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return internalmetrics.New(internalmetrics.Config{
		Enabled: cfg.Enabled,
		Count:   int(metricIDCount),
	})
}
