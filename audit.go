package authguard

import (
	"context"
	"time"

	internalaudit "github.com/hardenlabs/authguard/internal/audit"
)

const (
	auditEventLoginSuccess      = "login.success"
	auditEventLoginFailure      = "login.failure"
	auditEventTokenRejected     = "session.token_rejected"
	auditEventSetupStarted      = "twofactor.setup_started"
	auditEventSetupConfirmed    = "twofactor.setup_confirmed"
	auditEventSetupFailed       = "twofactor.setup_failed"
	auditEventChallengeSuccess  = "twofactor.challenge_success"
	auditEventChallengeFailure  = "twofactor.challenge_failure"
	auditEventBackupCodeUsed    = "twofactor.backup_code_used"
	auditEventTwoFactorDisabled = "twofactor.disabled"
	auditEventIPBanned          = "reputation.ip_banned"
	auditEventBanCleared        = "reputation.ban_cleared"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, userID, ip string, cause error, metadata func() map[string]string) {
	if e == nil || e.audit == nil {
		return
	}

	event := internalaudit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		IP:        ip,
		Success:   success,
	}
	if event.IP == "" {
		event.IP = clientIPFromContext(ctx)
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
