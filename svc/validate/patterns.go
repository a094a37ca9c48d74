package validate

import (
	"regexp"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type detector struct {
	name       string
	severity   Severity
	re         *regexp.Regexp
	minMatches int // matches below this count are ignored
}

// Fixed table of suspicious-content detectors. Matches never block storage;
// high-severity hits annotate the response and emit a security log event
// carrying only counts and a content-prefix hash, never the match itself.
var detectors = []detector{
	{
		name:     "aws_access_key",
		severity: SeverityHigh,
		re:       regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
	},
	{
		name:     "google_api_key",
		severity: SeverityHigh,
		re:       regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`),
	},
	{
		name:     "generic_api_key",
		severity: SeverityHigh,
		re:       regexp.MustCompile(`(?i)\bapi[_-]?key\b\s*[:=]\s*['"]?[A-Za-z0-9_\-]{16,}`),
	},
	{
		name:     "jwt",
		severity: SeverityHigh,
		re:       regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\.[A-Za-z0-9_-]{8,}\b`),
	},
	{
		name:     "private_key_block",
		severity: SeverityHigh,
		re:       regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`),
	},
	{
		name:     "connection_string",
		severity: SeverityHigh,
		re:       regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqps?)://[^\s:@]+:[^\s@]+@`),
	},
	{
		name:     "password_assignment",
		severity: SeverityMedium,
		re:       regexp.MustCompile(`(?i)\b(?:password|passwd|pwd)\b\s*[:=]\s*\S{4,}`),
	},
	{
		name:     "ssn_like",
		severity: SeverityMedium,
		re:       regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
	},
	{
		name:     "card_like",
		severity: SeverityMedium,
		re:       regexp.MustCompile(`\b(?:\d{4}[ -]?){3}\d{4}\b`),
	},
	{
		name:       "bulk_email_list",
		severity:   SeverityMedium,
		re:         regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		minMatches: 10,
	},
}
