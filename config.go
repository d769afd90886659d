package authguard

import (
	"errors"
	"strings"
	"time"
)

// Config is the full engine configuration. Instances are intended to be
// configured during initialization and then treated as immutable.
type Config struct {
	Token      TokenConfig
	TOTP       TOTPConfig
	Reputation ReputationConfig
	Password   PasswordConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig carries the session-token policy and signing material. The
// signing secret is process-wide; rotation (redeploying with a new value)
// invalidates all previously issued tokens.
type TokenConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default), "ed25519" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
TOTP CONFIG
====================================
*/

// TOTPConfig carries the two-factor policy: code shape, drift tolerance,
// backup code batch size, setup window, and challenge attempt budget.
type TOTPConfig struct {
	Issuer    string
	Digits    int
	Period    int
	Algorithm string
	// Skew is the accepted clock drift in time steps on either side of now.
	// It must stay small; 1 tolerates one 30-second boundary.
	Skew int

	// SetupTTL bounds how long unverified setup material survives before
	// the user must start over.
	SetupTTL time.Duration

	BackupCodeCount  int
	BackupCodeLength int

	// MaxAttempts failed challenges within Cooldown trip the per-user
	// rate limit.
	MaxAttempts int
	Cooldown    time.Duration
}

/*
====================================
REPUTATION CONFIG
====================================
*/

// ReputationConfig carries the abuse-escalation policy. BanThreshold is the
// failure count at which an address flips from suspicious to permanently
// banned; the ban never expires on its own.
type ReputationConfig struct {
	BanThreshold int
	RedisPrefix  string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig carries the Argon2id parameters for the login flow.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
}

// MetricsConfig controls the in-process metrics system.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL:           30 * time.Minute,
			SigningMethod: "hs256",
			Leeway:        0,
		},
		TOTP: TOTPConfig{
			Issuer:           "authguard",
			Digits:           6,
			Period:           30,
			Algorithm:        "SHA1",
			Skew:             1,
			SetupTTL:         10 * time.Minute,
			BackupCodeCount:  10,
			BackupCodeLength: 10,
			MaxAttempts:      5,
			Cooldown:         time.Minute,
		},
		Reputation: ReputationConfig{
			BanThreshold: 5,
			RedisPrefix:  "rep",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations that would weaken the security posture or
// break the engine invariants.
func (c *Config) Validate() error {
	if c.Token.TTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	switch strings.ToLower(c.Token.SigningMethod) {
	case "hs256", "ed25519":
	default:
		return errors.New("unsupported token signing method")
	}

	if c.TOTP.Digits < 6 || c.TOTP.Digits > 8 {
		return errors.New("totp digits must be between 6 and 8")
	}
	if c.TOTP.Period <= 0 {
		return errors.New("totp period must be positive")
	}
	// Unbounded drift tolerance makes codes long-lived guessing targets.
	if c.TOTP.Skew < 0 || c.TOTP.Skew > 2 {
		return errors.New("totp skew must be between 0 and 2 steps")
	}
	switch strings.ToUpper(c.TOTP.Algorithm) {
	case "", "SHA1", "SHA256", "SHA512":
	default:
		return errors.New("unsupported totp algorithm")
	}
	if c.TOTP.SetupTTL <= 0 {
		return errors.New("totp setup TTL must be positive")
	}
	if c.TOTP.BackupCodeCount <= 0 || c.TOTP.BackupCodeCount > 64 {
		return errors.New("backup code count must be between 1 and 64")
	}
	if c.TOTP.BackupCodeLength < 8 || c.TOTP.BackupCodeLength > 32 {
		return errors.New("backup code length must be between 8 and 32")
	}
	if c.TOTP.MaxAttempts <= 0 {
		return errors.New("totp max attempts must be positive")
	}
	if c.TOTP.Cooldown <= 0 {
		return errors.New("totp cooldown must be positive")
	}

	if c.Reputation.BanThreshold <= 0 {
		return errors.New("ban threshold must be positive")
	}

	if c.Password.Memory < 8*1024 {
		return errors.New("argon2 memory below safe minimum")
	}
	if c.Password.Time == 0 || c.Password.Parallelism == 0 {
		return errors.New("argon2 time and parallelism must be positive")
	}
	if c.Password.SaltLength < 8 || c.Password.KeyLength < 16 {
		return errors.New("argon2 salt/key length below safe minimum")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
