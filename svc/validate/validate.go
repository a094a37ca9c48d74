// Package validate is the pure gate in front of storage: it inspects content,
// title and expiry, and either rejects with a caller-correctable error or
// annotates the create with non-blocking warnings. It never touches storage
// and has no side effects beyond the security log.
package validate

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/viralburst/pastebin/metrics"
	"github.com/viralburst/pastebin/pkg/domain"
	"github.com/viralburst/pastebin/svc/util"
)

const (
	whitespaceRatioLimit = 0.5
	repeatRunLimit       = 100
	longLineLimit        = 1000
)

type Validator struct {
	maxContentSize int64
	maxTitleLength int
	minExpiry      time.Duration
	maxExpiry      time.Duration
	strict         bool
	patterns       bool
}

type Result struct {
	Warnings []string
}

func New(maxContentSize int64, maxTitleLength int, minExpiry, maxExpiry time.Duration, strict, patterns bool) *Validator {
	return &Validator{
		maxContentSize: maxContentSize,
		maxTitleLength: maxTitleLength,
		minExpiry:      minExpiry,
		maxExpiry:      maxExpiry,
		strict:         strict,
		patterns:       patterns,
	}
}

func (v *Validator) Validate(content, title string) (*Result, error) {
	if strings.TrimSpace(content) == "" {
		metrics.ValidationRejects.WithLabelValues(domain.ErrEmptyContent.Code).Inc()
		return nil, domain.ErrEmptyContent
	}
	if size := int64(len(content)); size > v.maxContentSize {
		metrics.ValidationRejects.WithLabelValues(domain.ErrContentTooLarge.Code).Inc()
		return nil, domain.ErrContentTooLarge.WithMsg(
			fmt.Sprintf("content is %d bytes, maximum is %d", size, v.maxContentSize))
	}
	if n := utf8.RuneCountInString(title); n > v.maxTitleLength {
		metrics.ValidationRejects.WithLabelValues(domain.ErrTitleTooLong.Code).Inc()
		return nil, domain.ErrTitleTooLong.WithMsg(
			fmt.Sprintf("title is %d characters, maximum is %d", n, v.maxTitleLength))
	}
	res := &Result{}
	if v.strict {
		res.Warnings = append(res.Warnings, qualityWarnings(content)...)
	}
	if v.patterns {
		res.Warnings = append(res.Warnings, v.scan(title+"\n"+content)...)
	}
	return res, nil
}

// ValidateExpiry bounds-checks a resolved expiry duration.
func (v *Validator) ValidateExpiry(d time.Duration) error {
	if d < v.minExpiry {
		metrics.ValidationRejects.WithLabelValues(domain.ErrExpiryTooShort.Code).Inc()
		return domain.ErrExpiryTooShort.WithMsg(
			fmt.Sprintf("expiry %s is below the minimum %s", d, v.minExpiry))
	}
	if d > v.maxExpiry {
		metrics.ValidationRejects.WithLabelValues(domain.ErrExpiryTooLong.Code).Inc()
		return domain.ErrExpiryTooLong.WithMsg(
			fmt.Sprintf("expiry %s exceeds the maximum %s", d, v.maxExpiry))
	}
	return nil
}

// qualityWarnings flags content that is probably garbage. Never blocking.
func qualityWarnings(content string) []string {
	var warnings []string
	if len(content) > 0 {
		ws := 0
		for _, r := range content {
			if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
				ws++
			}
		}
		if ratio := float64(ws) / float64(utf8.RuneCountInString(content)); ratio > whitespaceRatioLimit {
			warnings = append(warnings, "content is mostly whitespace")
		}
	}
	run, best := 0, 0
	var prev rune = -1
	for _, r := range content {
		if r == prev {
			run++
		} else {
			run = 1
			prev = r
		}
		if run > best {
			best = run
		}
	}
	if best > repeatRunLimit {
		warnings = append(warnings, "content contains long runs of a repeated character")
	}
	for _, line := range strings.Split(content, "\n") {
		if utf8.RuneCountInString(line) > longLineLimit {
			warnings = append(warnings, "content contains very long lines")
			break
		}
	}
	return warnings
}

// scan runs the detector table over title+content. High-severity hits warn
// the caller and emit a structured security event; the raw match is never
// logged, only a prefix hash of the scanned text.
func (v *Validator) scan(text string) []string {
	var warnings []string
	for _, d := range detectors {
		matches := d.re.FindAllStringIndex(text, -1)
		min := d.minMatches
		if min == 0 {
			min = 1
		}
		if len(matches) < min {
			continue
		}
		metrics.SecurityPatternHits.WithLabelValues(d.name, string(d.severity)).Inc()
		if d.severity == SeverityHigh {
			warnings = append(warnings,
				fmt.Sprintf("content may contain sensitive data (%s)", d.name))
			util.Warn().
				Str("event", "suspicious_content").
				Str("pattern", d.name).
				Str("severity", string(d.severity)).
				Int("matches", len(matches)).
				Int("content_length", len(text)).
				Str("content_hash", util.ContentPrefixHash(text)).
				Msg("suspicious pattern detected")
		}
	}
	return warnings
}
