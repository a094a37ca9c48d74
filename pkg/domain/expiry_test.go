package domain

import (
	"errors"
	"testing"
	"time"
)

func TestResolveExpiryPresets(t *testing.T) {
	cases := map[string]time.Duration{
		"5m": 5 * time.Minute,
		"1h": time.Hour,
		"6h": 6 * time.Hour,
		"1d": 24 * time.Hour,
		"1w": 7 * 24 * time.Hour,
		"1m": 30 * 24 * time.Hour,
	}
	for key, want := range cases {
		got, err := ResolveExpiry(key, 0, "1d")
		if err != nil {
			t.Fatalf("ResolveExpiry(%q) failed: %v", key, err)
		}
		if got != want {
			t.Errorf("ResolveExpiry(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestResolveExpiryRawSeconds(t *testing.T) {
	got, err := ResolveExpiry("", 90, "1d")
	if err != nil {
		t.Fatalf("ResolveExpiry failed: %v", err)
	}
	if got != 90*time.Second {
		t.Errorf("got %v, want 90s", got)
	}
}

func TestResolveExpiryNegativeSeconds(t *testing.T) {
	_, err := ResolveExpiry("", -5, "1d")
	if !errors.Is(err, ErrExpiryTooShort) {
		t.Fatalf("expected ErrExpiryTooShort, got %v", err)
	}
}

func TestResolveExpiryUnknownKey(t *testing.T) {
	_, err := ResolveExpiry("2y", 0, "1d")
	if !errors.Is(err, ErrBadExpiryKey) {
		t.Fatalf("expected ErrBadExpiryKey, got %v", err)
	}
}

func TestResolveExpiryDefault(t *testing.T) {
	got, err := ResolveExpiry("", 0, "1d")
	if err != nil {
		t.Fatalf("ResolveExpiry failed: %v", err)
	}
	if got != 24*time.Hour {
		t.Errorf("default expiry = %v, want 24h", got)
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	p := &Paste{ExpiresAt: &past}
	if !p.Expired(now) {
		t.Error("paste with past expiry should be expired")
	}
	p = &Paste{ExpiresAt: &future}
	if p.Expired(now) {
		t.Error("paste with future expiry should not be expired")
	}
	p = &Paste{}
	if p.Expired(now) {
		t.Error("paste without expiry should never expire")
	}
}

func TestErrWithMsgMatchesTemplate(t *testing.T) {
	err := ErrContentTooLarge.WithMsg("content is 10 bytes, maximum is 5")
	if !errors.Is(err, ErrContentTooLarge) {
		t.Error("WithMsg copy should match its template via errors.Is")
	}
	if Status(err) != ErrContentTooLarge.Status {
		t.Errorf("status = %d, want %d", Status(err), ErrContentTooLarge.Status)
	}
}
