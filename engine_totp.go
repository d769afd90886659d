package authguard

import (
	"context"
	"errors"
	"time"

	"github.com/hardenlabs/authguard/internal/stores"
)

// BeginTwoFactorSetup generates a fresh secret and a fresh backup code
// batch and parks them, unverified, in the pending-setup store. The returned
// material is shown to the user exactly once; nothing becomes trusted until
// [Engine.ConfirmTwoFactorSetup] proves possession of the secret. Calling
// this again before confirmation discards the previous pending material.
func (e *Engine) BeginTwoFactorSetup(ctx context.Context, userID string) (*TwoFactorSetup, error) {
	if e == nil || e.credentialStore == nil || e.totp == nil || e.pendingStore == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrUserNotFound
	}

	user, err := e.credentialStore.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Join(ErrCredentialUnavailable, err)
	}

	secretRaw, secretBase32, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	codes, records, err := newBackupCodeBatch(userID, e.config.TOTP.BackupCodeCount, e.config.TOTP.BackupCodeLength)
	if err != nil {
		return nil, err
	}
	hashes := make([][32]byte, len(records))
	for i, record := range records {
		hashes[i] = record.Hash
	}

	pending := &stores.PendingSetup{
		Secret:     secretRaw,
		CodeHashes: hashes,
		CreatedAt:  time.Now().Unix(),
	}
	if err := e.pendingStore.Save(ctx, userID, pending, e.config.TOTP.SetupTTL); err != nil {
		return nil, err
	}

	account := user.Identifier
	if account == "" {
		account = user.UserID
	}

	e.metricInc(MetricSetupStarted)
	e.emitAudit(ctx, auditEventSetupStarted, true, userID, "", nil, nil)
	return &TwoFactorSetup{
		SecretBase32:    secretBase32,
		ProvisioningURI: e.totp.ProvisionURI(secretBase32, account),
		BackupCodes:     codes,
	}, nil
}

// ConfirmTwoFactorSetup verifies code against the pending secret and, on
// match, promotes secret and backup codes to the credential store with
// enabled=true. Fails [ErrSetupNotPending] when no setup is outstanding and
// [ErrCodeInvalid] on a wrong code, leaving the pending state unchanged so
// the user may retry or start over.
func (e *Engine) ConfirmTwoFactorSetup(ctx context.Context, userID, code string) error {
	if e == nil || e.credentialStore == nil || e.totp == nil || e.pendingStore == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUserNotFound
	}

	pending, err := e.pendingStore.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, stores.ErrPendingSetupNotFound) {
			return ErrSetupNotPending
		}
		return err
	}

	ok, err := e.totp.VerifyCode(pending.Secret, code, time.Now())
	if err != nil {
		return err
	}
	if !ok {
		e.metricInc(MetricChallengeFailure)
		e.emitAudit(ctx, auditEventSetupFailed, false, userID, "", ErrCodeInvalid, nil)
		return ErrCodeInvalid
	}

	records := make([]BackupCodeRecord, len(pending.CodeHashes))
	for i, h := range pending.CodeHashes {
		records[i] = BackupCodeRecord{Hash: h}
	}
	if err := e.credentialStore.SaveTwoFactor(ctx, userID, pending.Secret, records); err != nil {
		return errors.Join(ErrCredentialUnavailable, err)
	}
	if err := e.pendingStore.Delete(ctx, userID); err != nil {
		return err
	}

	e.metricInc(MetricSetupConfirmed)
	e.emitAudit(ctx, auditEventSetupConfirmed, true, userID, "", nil, nil)
	return nil
}

// VerifyTwoFactor checks a challenge code for a user with an enabled
// credential: the time-based code first, then the unused backup codes. A
// backup code match is consumed atomically, exactly once, even under
// concurrent duplicate submissions; a spent code reports [ErrCodeInvalid].
func (e *Engine) VerifyTwoFactor(ctx context.Context, userID, code string) error {
	if e == nil || e.credentialStore == nil || e.totp == nil || e.limiter == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUserNotFound
	}

	credential, err := e.credentialStore.GetTwoFactor(ctx, userID)
	if err != nil {
		return errors.Join(ErrCredentialUnavailable, err)
	}
	if credential == nil || len(credential.Secret) == 0 {
		return ErrTwoFactorNotConfigured
	}

	return e.verifyChallenge(ctx, userID, credential, code)
}

// DisableTwoFactor requires the same challenge as VerifyTwoFactor and, on
// success, clears the credential: the secret and every remaining backup
// code are permanently invalidated. Replaying a disable against a cleared
// credential fails [ErrCodeInvalid], since nothing remains for the code to
// validate against.
func (e *Engine) DisableTwoFactor(ctx context.Context, userID, code string) error {
	if e == nil || e.credentialStore == nil || e.totp == nil || e.limiter == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrUserNotFound
	}

	credential, err := e.credentialStore.GetTwoFactor(ctx, userID)
	if err != nil {
		return errors.Join(ErrCredentialUnavailable, err)
	}
	if credential == nil || len(credential.Secret) == 0 {
		return ErrCodeInvalid
	}

	if err := e.verifyChallenge(ctx, userID, credential, code); err != nil {
		return err
	}

	if err := e.credentialStore.ClearTwoFactor(ctx, userID); err != nil {
		return errors.Join(ErrCredentialUnavailable, err)
	}
	_ = e.pendingStore.Delete(ctx, userID)
	_ = e.limiter.Reset(ctx, userID)

	e.metricInc(MetricTwoFactorDisabled)
	e.emitAudit(ctx, auditEventTwoFactorDisabled, true, userID, "", nil, nil)
	return nil
}

// verifyChallenge runs the shared challenge logic under the per-user
// attempt limiter. TOTP is checked before backup codes so a valid TOTP
// never burns a backup code.
func (e *Engine) verifyChallenge(ctx context.Context, userID string, credential *TwoFactorCredential, code string) error {
	if err := e.limiter.Check(ctx, userID); err != nil {
		if errors.Is(err, errChallengeRateLimited) {
			e.metricInc(MetricChallengeRateLimited)
			return ErrTwoFactorRateLimited
		}
		return err
	}
	if code == "" {
		return e.challengeFailed(ctx, userID)
	}

	ok, err := e.totp.VerifyCode(credential.Secret, code, time.Now())
	if err != nil {
		return err
	}
	if ok {
		_ = e.limiter.Reset(ctx, userID)
		e.metricInc(MetricChallengeSuccess)
		e.emitAudit(ctx, auditEventChallengeSuccess, true, userID, "", nil, nil)
		return nil
	}

	canonical := canonicalizeBackupCode(code)
	if canonical == "" {
		return e.challengeFailed(ctx, userID)
	}

	consumed, err := e.credentialStore.ConsumeBackupCode(ctx, userID, backupCodeHash(userID, canonical))
	if err != nil {
		return errors.Join(ErrCredentialUnavailable, err)
	}
	if !consumed {
		return e.challengeFailed(ctx, userID)
	}

	_ = e.limiter.Reset(ctx, userID)
	e.metricInc(MetricChallengeSuccess)
	e.metricInc(MetricBackupCodeUsed)
	e.emitAudit(ctx, auditEventBackupCodeUsed, true, userID, "", nil, nil)
	return nil
}

func (e *Engine) challengeFailed(ctx context.Context, userID string) error {
	e.metricInc(MetricChallengeFailure)
	e.emitAudit(ctx, auditEventChallengeFailure, false, userID, "", ErrCodeInvalid, nil)
	if err := e.limiter.RecordFailure(ctx, userID); err != nil {
		if errors.Is(err, errChallengeRateLimited) {
			e.metricInc(MetricChallengeRateLimited)
			// the guess that trips the limit was a validated wrong code;
			// it counts toward the caller's reputation like any other
			if recErr := e.recordFailure(ctx, clientIPFromContext(ctx), failureReasonBadTwoFactor); recErr != nil {
				return recErr
			}
			return ErrTwoFactorRateLimited
		}
		return err
	}
	return ErrCodeInvalid
}
