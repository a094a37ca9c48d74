package domain

import (
	"time"
)

// Symbolic expiry keys accepted on create. Values are seconds.
var expiryPresets = map[string]int64{
	"5m": 300,
	"1h": 3600,
	"6h": 21600,
	"1d": 86400,
	"1w": 604800,
	"1m": 2592000,
}

// presetOrder keeps /config/expiry-options output stable.
var presetOrder = []string{"5m", "1h", "6h", "1d", "1w", "1m"}

type ExpiryOption struct {
	Key     string `json:"key"`
	Seconds int64  `json:"seconds"`
}

func ExpiryOptions() []ExpiryOption {
	opts := make([]ExpiryOption, 0, len(presetOrder))
	for _, k := range presetOrder {
		opts = append(opts, ExpiryOption{Key: k, Seconds: expiryPresets[k]})
	}
	return opts
}

// ResolveExpiry maps a symbolic key or a raw seconds value to a duration.
// Exactly one of key/seconds may be set; when neither is, defaultKey applies.
// Bounds are enforced by the validator, not here, except that a non-positive
// raw value is rejected immediately as too short.
func ResolveExpiry(key string, seconds int64, defaultKey string) (time.Duration, error) {
	if key != "" {
		secs, ok := expiryPresets[key]
		if !ok {
			return 0, ErrBadExpiryKey.WithMsg("unsupported expiry key: " + key)
		}
		return time.Duration(secs) * time.Second, nil
	}
	if seconds != 0 {
		if seconds < 0 {
			return 0, ErrExpiryTooShort
		}
		return time.Duration(seconds) * time.Second, nil
	}
	secs, ok := expiryPresets[defaultKey]
	if !ok {
		return 0, ErrBadExpiryKey.WithMsg("unsupported default expiry key: " + defaultKey)
	}
	return time.Duration(secs) * time.Second, nil
}
