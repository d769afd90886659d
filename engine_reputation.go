package authguard

import (
	"context"
	"errors"
	"time"
)

// recordFailure feeds one qualifying failure into the reputation tracker
// and emits the ban transition when this failure crosses the threshold.
func (e *Engine) recordFailure(ctx context.Context, ip, reason string) error {
	if ip == "" {
		return nil
	}
	_, newlyBanned, err := e.reputation.RecordFailure(ctx, ip, reason, e.config.Reputation.BanThreshold)
	if err != nil {
		return errors.Join(ErrReputationUnavailable, err)
	}
	e.metricInc(MetricIPFailureRecorded)
	if newlyBanned {
		e.metricInc(MetricIPBanned)
		e.emitAudit(ctx, auditEventIPBanned, true, "", ip, nil, func() map[string]string {
			return map[string]string{"reason": reason}
		})
	}
	return nil
}

// IsBanned reports whether ip carries a permanent ban.
func (e *Engine) IsBanned(ctx context.Context, ip string) (bool, error) {
	if e == nil || e.reputation == nil {
		return false, ErrEngineNotReady
	}
	banned, err := e.reputation.IsBanned(ctx, ip)
	if err != nil {
		return false, errors.Join(ErrReputationUnavailable, err)
	}
	return banned, nil
}

// BannedIPs returns the permanently banned addresses in the order their
// records were created. Read-only; intended for the administrative surface.
func (e *Engine) BannedIPs(ctx context.Context) ([]string, error) {
	if e == nil || e.reputation == nil {
		return nil, ErrEngineNotReady
	}
	ips, err := e.reputation.ListBanned(ctx)
	if err != nil {
		return nil, errors.Join(ErrReputationUnavailable, err)
	}
	return ips, nil
}

// SuspiciousIPs returns addresses with recorded failures that have not yet
// crossed the ban threshold, in record creation order.
func (e *Engine) SuspiciousIPs(ctx context.Context) ([]SuspiciousIP, error) {
	if e == nil || e.reputation == nil {
		return nil, ErrEngineNotReady
	}
	records, err := e.reputation.ListSuspicious(ctx)
	if err != nil {
		return nil, errors.Join(ErrReputationUnavailable, err)
	}
	out := make([]SuspiciousIP, 0, len(records))
	for _, record := range records {
		out = append(out, SuspiciousIP{
			IP:          record.IP,
			Attempts:    record.Attempts,
			LastAttempt: time.Unix(record.LastAttempt, 0),
			Reason:      record.Reason,
		})
	}
	return out, nil
}

// ClearBan is the administrative override that resets an address: attempt
// count and both flags. It must only be reachable through an
// elevated-privilege path, never from request authentication itself; no
// engine flow calls it.
func (e *Engine) ClearBan(ctx context.Context, ip string) error {
	if e == nil || e.reputation == nil {
		return ErrEngineNotReady
	}
	if err := e.reputation.ClearBan(ctx, ip); err != nil {
		return errors.Join(ErrReputationUnavailable, err)
	}
	e.emitAudit(ctx, auditEventBanCleared, true, "", ip, nil, nil)
	return nil
}
