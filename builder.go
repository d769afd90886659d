package authguard

import (
	"errors"
	"strings"

	internalaudit "github.com/hardenlabs/authguard/internal/audit"
	"github.com/hardenlabs/authguard/internal/stores"
	"github.com/hardenlabs/authguard/password"
	"github.com/hardenlabs/authguard/token"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use: Build may only be
// called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	credentialStore CredentialStore
	auditSink       AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the entire configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the pending-setup store, the
// reputation tracker, and the challenge limiter. The caller owns the client
// lifecycle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithCredentialStore supplies the caller's credential persistence.
func (b *Builder) WithCredentialStore(cs CredentialStore) *Builder {
	b.credentialStore = cs
	return b
}

// WithAuditSink supplies the destination for audit events. Without a sink,
// enabling audit dispatches to a no-op.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithSigningSecret is a convenience for HS256 setups: it sets the signing
// method and shared secret in one call.
func (b *Builder) WithSigningSecret(secret []byte) *Builder {
	b.config.Token.SigningMethod = "hs256"
	b.config.Token.PrivateKey = cloneBytes(secret)
	return b
}

// Build validates the configuration, wires the stores and managers, and
// returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.credentialStore == nil {
		return nil, errors.New("credential store required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var method token.SigningMethod
	switch strings.ToLower(cfg.Token.SigningMethod) {
	case "ed25519":
		method = token.MethodEd25519
	default:
		method = token.MethodHS256
	}

	tm, err := token.NewManager(token.Config{
		TTL:           cfg.Token.TTL,
		SigningMethod: method,
		PrivateKey:    cloneBytes(cfg.Token.PrivateKey),
		PublicKey:     cloneBytes(cfg.Token.PublicKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:          cfg,
		credentialStore: b.credentialStore,
		tokenManager:    tm,
		totp:            newTOTPManager(cfg.TOTP),
		pendingStore:    stores.NewPendingSetupStore(b.redis, "tfs"),
		reputation:      stores.NewReputationStore(b.redis, cfg.Reputation.RedisPrefix),
		limiter:         newChallengeLimiter(b.redis, cfg.TOTP),
		passwordHash:    ph,
		audit: newAuditDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
		}, b.auditSink),
		metrics: NewMetrics(cfg.Metrics),
	}

	b.built = true

	return engine, nil
}

func newAuditDispatcher(cfg internalaudit.Config, sink AuditSink) *internalaudit.Dispatcher {
	return internalaudit.NewDispatcher(cfg, sink)
}
