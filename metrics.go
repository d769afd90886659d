package authguard

import internalmetrics "github.com/hardenlabs/authguard/internal/metrics"

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.MetricID

const (
	// MetricLoginSuccess counts successful password logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected password logins.
	MetricLoginFailure
	// MetricTokenIssued counts minted session tokens.
	MetricTokenIssued
	// MetricTokenVerifyFailure counts tokens rejected at the gateway.
	MetricTokenVerifyFailure
	// MetricChallengeSuccess counts passed two-factor challenges.
	MetricChallengeSuccess
	// MetricChallengeFailure counts failed two-factor challenges.
	MetricChallengeFailure
	// MetricChallengeRateLimited counts challenges refused by the attempt
	// limiter.
	MetricChallengeRateLimited
	// MetricBackupCodeUsed counts consumed backup codes.
	MetricBackupCodeUsed
	// MetricSetupStarted counts two-factor setup initiations.
	MetricSetupStarted
	// MetricSetupConfirmed counts credentials promoted to enabled.
	MetricSetupConfirmed
	// MetricTwoFactorDisabled counts cleared credentials.
	MetricTwoFactorDisabled
	// MetricIPFailureRecorded counts reputation failure writes.
	MetricIPFailureRecorded
	// MetricIPBanned counts addresses crossing the ban threshold.
	MetricIPBanned
	// MetricIPBanRejected counts requests refused because the address is
	// banned.
	MetricIPBanRejected

	metricIDCount
)
