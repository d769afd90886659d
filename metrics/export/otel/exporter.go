package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/hardenlabs/authguard"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() authguard.MetricsSnapshot
	AuditDropped() uint64
}

type counterDef struct {
	id   authguard.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{id: authguard.MetricLoginSuccess, name: "authguard_login_success_total", help: "Successful password logins."},
	{id: authguard.MetricLoginFailure, name: "authguard_login_failure_total", help: "Rejected password logins."},
	{id: authguard.MetricTokenIssued, name: "authguard_token_issued_total", help: "Minted session tokens."},
	{id: authguard.MetricTokenVerifyFailure, name: "authguard_token_verify_failure_total", help: "Tokens rejected at the gateway."},
	{id: authguard.MetricChallengeSuccess, name: "authguard_challenge_success_total", help: "Passed two-factor challenges."},
	{id: authguard.MetricChallengeFailure, name: "authguard_challenge_failure_total", help: "Failed two-factor challenges."},
	{id: authguard.MetricChallengeRateLimited, name: "authguard_challenge_rate_limited_total", help: "Challenges refused by the attempt limiter."},
	{id: authguard.MetricBackupCodeUsed, name: "authguard_backup_code_used_total", help: "Consumed backup codes."},
	{id: authguard.MetricSetupStarted, name: "authguard_setup_started_total", help: "Two-factor setup initiations."},
	{id: authguard.MetricSetupConfirmed, name: "authguard_setup_confirmed_total", help: "Credentials promoted to enabled."},
	{id: authguard.MetricTwoFactorDisabled, name: "authguard_two_factor_disabled_total", help: "Cleared two-factor credentials."},
	{id: authguard.MetricIPFailureRecorded, name: "authguard_ip_failure_recorded_total", help: "Reputation failure writes."},
	{id: authguard.MetricIPBanned, name: "authguard_ip_banned_total", help: "Addresses crossing the ban threshold."},
	{id: authguard.MetricIPBanRejected, name: "authguard_ip_ban_rejected_total", help: "Requests refused because the address is banned."},
}

type observedCounter struct {
	id         authguard.MetricID
	instrument metric.Int64ObservableCounter
}

// Exporter mirrors engine counters into OTel observable instruments.
type Exporter struct {
	source       metricsSource
	registration metric.Registration
	counters     []observedCounter
	auditDropped metric.Int64ObservableCounter
}

// NewExporter registers the engine's counters on meter.
func NewExporter(meter metric.Meter, engine *authguard.Engine) (*Exporter, error) {
	return NewExporterFromSource(meter, engine)
}

// NewExporterFromSource is NewExporter for any snapshot source, used in
// tests and by embedders that wrap the engine.
func NewExporterFromSource(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &Exporter{
		source:   source,
		counters: make([]observedCounter, 0, len(counterDefs)),
	}

	observables := make([]metric.Observable, 0, len(counterDefs)+1)

	for _, def := range counterDefs {
		ins, err := meter.Int64ObservableCounter(def.name, metric.WithDescription(def.help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.id, instrument: ins})
		observables = append(observables, ins)
	}

	auditDropped, err := meter.Int64ObservableCounter(
		"authguard_audit_dropped_total",
		metric.WithDescription("Dropped audit events due to dispatcher backpressure."),
	)
	if err != nil {
		return nil, fmt.Errorf("create audit dropped counter: %w", err)
	}
	exporter.auditDropped = auditDropped
	observables = append(observables, auditDropped)

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.MetricsSnapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot.Counters[c.id]))
		}
		observer.ObserveInt64(exporter.auditDropped, int64(exporter.source.AuditDropped()))
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the collection callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
