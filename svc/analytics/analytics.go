// Package analytics is the narrow fire-and-forget collaborator the services
// notify about lifecycle events. Implementations must never let a tracking
// failure propagate: callers treat every method as best-effort.
package analytics

import (
	"context"
)

type Stats struct {
	Created    int64            `json:"created"`
	Viewed     int64            `json:"viewed"`
	Errors     int64            `json:"errors"`
	ByLanguage map[string]int64 `json:"by_language"`
	TotalBytes int64            `json:"total_bytes"`
}

type Tracker interface {
	TrackCreated(ctx context.Context, language string, size int64, clientHash string)
	TrackViewed(ctx context.Context, pasteID, clientHash string)
	TrackError(ctx context.Context, kind, clientHash string)
	GetStats(ctx context.Context) (*Stats, error)
}

// Nop discards everything. Useful when analytics is disabled entirely.
type Nop struct{}

func (Nop) TrackCreated(context.Context, string, int64, string) {}
func (Nop) TrackViewed(context.Context, string, string)         {}
func (Nop) TrackError(context.Context, string, string)          {}
func (Nop) GetStats(context.Context) (*Stats, error)            { return &Stats{ByLanguage: map[string]int64{}}, nil }
