package authguard

import (
	"context"
	"errors"
)

const (
	failureReasonBadToken       = "bad token"
	failureReasonBadCredentials = "bad credentials"
	failureReasonBadTwoFactor   = "bad 2fa code"
)

// Authenticate is the gateway check every inbound request passes through.
// The ban lookup runs before token verification: rejecting a banned address
// is cheaper than signature work and starves banned callers of oracle
// feedback about token validity. Token failures feed the reputation tracker
// and surface as [ErrUnauthorized].
func (e *Engine) Authenticate(ctx context.Context, tokenStr, ip string) (string, error) {
	if e == nil || e.tokenManager == nil || e.reputation == nil {
		return "", ErrEngineNotReady
	}

	banned, err := e.reputation.IsBanned(ctx, ip)
	if err != nil {
		return "", errors.Join(ErrReputationUnavailable, err)
	}
	if banned {
		e.metricInc(MetricIPBanRejected)
		return "", ErrIPBanned
	}

	userID, err := e.VerifySession(tokenStr)
	if err != nil {
		e.metricInc(MetricTokenVerifyFailure)
		e.emitAudit(ctx, auditEventTokenRejected, false, "", ip, err, nil)
		if recErr := e.recordFailure(ctx, ip, failureReasonBadToken); recErr != nil {
			return "", recErr
		}
		return "", ErrUnauthorized
	}

	return userID, nil
}

// RequireSecondFactor gates sensitive operations behind a two-factor
// challenge for userID. Wrong codes count toward IP banning exactly like
// bad tokens. Users without an enabled credential pass: there is nothing to
// challenge, and callers decide separately whether to demand enrollment.
func (e *Engine) RequireSecondFactor(ctx context.Context, userID, ip, code string) error {
	if e == nil || e.reputation == nil {
		return ErrEngineNotReady
	}

	banned, err := e.reputation.IsBanned(ctx, ip)
	if err != nil {
		return errors.Join(ErrReputationUnavailable, err)
	}
	if banned {
		e.metricInc(MetricIPBanRejected)
		return ErrIPBanned
	}

	err = e.VerifyTwoFactor(WithClientIP(ctx, ip), userID, code)
	if errors.Is(err, ErrTwoFactorNotConfigured) {
		return nil
	}
	if errors.Is(err, ErrCodeInvalid) {
		if recErr := e.recordFailure(ctx, ip, failureReasonBadTwoFactor); recErr != nil {
			return recErr
		}
		return ErrCodeInvalid
	}
	return err
}

// Login verifies identifier and password and issues a session token. Wrong
// credentials feed the reputation tracker, keyed by the address from
// [WithClientIP]. Accounts with an enabled two-factor credential get
// [ErrSecondFactorRequired]; complete those with
// [Engine.LoginWithSecondFactor].
func (e *Engine) Login(ctx context.Context, identifier, pass string) (string, error) {
	return e.login(ctx, identifier, pass, "", false)
}

// LoginWithSecondFactor is Login plus the two-factor challenge in one call,
// for accounts that have completed setup.
func (e *Engine) LoginWithSecondFactor(ctx context.Context, identifier, pass, code string) (string, error) {
	return e.login(ctx, identifier, pass, code, true)
}

func (e *Engine) login(ctx context.Context, identifier, pass, code string, withCode bool) (string, error) {
	if e == nil || e.credentialStore == nil || e.passwordHash == nil || e.reputation == nil {
		return "", ErrEngineNotReady
	}
	ip := clientIPFromContext(ctx)

	if ip != "" {
		banned, err := e.reputation.IsBanned(ctx, ip)
		if err != nil {
			return "", errors.Join(ErrReputationUnavailable, err)
		}
		if banned {
			e.metricInc(MetricIPBanRejected)
			return "", ErrIPBanned
		}
	}

	if identifier == "" || pass == "" {
		return "", e.loginFailed(ctx, ip, "")
	}

	user, err := e.credentialStore.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		// only a confirmed miss is a credential guess; a backend outage
		// must not penalize the caller
		if errors.Is(err, ErrUserNotFound) {
			return "", e.loginFailed(ctx, ip, "")
		}
		return "", errors.Join(ErrCredentialUnavailable, err)
	}

	ok, err := e.passwordHash.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		return "", e.loginFailed(ctx, ip, user.UserID)
	}

	if user.TwoFactorEnabled {
		if !withCode {
			return "", ErrSecondFactorRequired
		}
		if err := e.VerifyTwoFactor(ctx, user.UserID, code); err != nil {
			if errors.Is(err, ErrCodeInvalid) {
				return "", e.loginFailed(ctx, ip, user.UserID)
			}
			return "", err
		}
	}

	tok, err := e.IssueSession(user.UserID)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, ip, nil, nil)
	return tok, nil
}

func (e *Engine) loginFailed(ctx context.Context, ip, userID string) error {
	e.metricInc(MetricLoginFailure)
	e.emitAudit(ctx, auditEventLoginFailure, false, userID, ip, ErrInvalidCredentials, nil)
	if ip != "" {
		if err := e.recordFailure(ctx, ip, failureReasonBadCredentials); err != nil {
			return err
		}
	}
	return ErrInvalidCredentials
}
