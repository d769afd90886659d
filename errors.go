package authguard

import (
	"errors"

	"github.com/hardenlabs/authguard/token"
)

var (
	// ErrUnauthorized is returned by the gateway when a presented session
	// token does not verify. The specific cause is not disclosed to callers.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenExpired is returned by VerifySession when the token expiry has
	// passed. It aliases the token package sentinel so both match errors.Is.
	ErrTokenExpired = token.ErrExpired
	// ErrTokenSignature is returned by VerifySession when the signature does
	// not verify against the configured signing secret.
	ErrTokenSignature = token.ErrBadSignature
	// ErrIPBanned is returned before any credential work when the caller's
	// address carries a permanent ban.
	ErrIPBanned = errors.New("ip address banned")
	// ErrCodeInvalid is returned for a wrong time-based code, a wrong or
	// already-consumed backup code, and for disable attempts against a
	// cleared credential.
	ErrCodeInvalid = errors.New("invalid two-factor code")
	// ErrSetupNotPending is returned by ConfirmTwoFactorSetup when no setup
	// is outstanding for the user.
	ErrSetupNotPending = errors.New("no two-factor setup pending")
	// ErrTwoFactorNotConfigured is returned when a challenge is demanded of
	// a user whose credential was never enabled.
	ErrTwoFactorNotConfigured = errors.New("two-factor not configured")
	// ErrTwoFactorRateLimited is returned when a user exceeds the challenge
	// attempt budget within the cooldown window.
	ErrTwoFactorRateLimited = errors.New("two-factor attempts rate limited")
	// ErrSecondFactorRequired is returned by Login for accounts with an
	// enabled two-factor credential.
	ErrSecondFactorRequired = errors.New("second factor required")
	// ErrInvalidCredentials is an exported constant used by the login flow.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is an exported constant used by the engine flows.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineNotReady is an exported constant used by the engine flows.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrCredentialUnavailable wraps credential store failures. These are
	// infrastructure errors, never user mistakes.
	ErrCredentialUnavailable = errors.New("credential store unavailable")
	// ErrReputationUnavailable wraps reputation store failures.
	ErrReputationUnavailable = errors.New("reputation store unavailable")
)
