// Package store is the ephemeral key-value abstraction behind the paste
// lifecycle. Two variants exist: a Redis-backed persistent store and an
// in-memory double for tests and development. Both enforce the lazy expiry
// double-check on every read: backend TTL sweeps are approximate, so a record
// whose expires_at has passed is deleted and reported absent even if the
// backend has not swept it yet.
package store

import (
	"context"
	"time"

	"github.com/viralburst/pastebin/pkg/domain"
	"github.com/viralburst/pastebin/svc/id"
)

// Store is the paste storage port. Absent records are reported as (nil, nil),
// never as an error; errors mean the backend itself failed.
type Store interface {
	// Create allocates an id, stamps created_at and writes the record. A
	// pre-resolved expiry that is not strictly in the future is rejected
	// with InvalidExpiry and nothing is written.
	Create(ctx context.Context, params domain.CreateParams) (*domain.Paste, error)

	// Get fetches a record. A record whose expiry has already passed is
	// deleted and reported as (nil, ErrPasteExpired); once gone, later
	// reads see plain (nil, nil). Callers on the content path collapse
	// both to not-found.
	Get(ctx context.Context, pasteID string) (*domain.Paste, error)

	// Consume is the one-time-view read: fetch then delete. The backend has
	// no atomic read-and-delete, so two concurrent consumers may both see
	// the record before either delete lands and both receive the content.
	// That double-delivery race is accepted; see Exists for the same
	// weakness on the create path.
	Consume(ctx context.Context, pasteID string) (*domain.Paste, error)

	// Delete removes unconditionally and is idempotent.
	Delete(ctx context.Context, pasteID string) error

	// List enumerates live pastes for admin/testing. Not a hot path.
	List(ctx context.Context, limit int, cursor string) ([]*domain.Paste, string, error)

	Exists(ctx context.Context, pasteID string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// stamp fills the generated id and timestamps into a fresh record, rejecting
// non-positive TTLs before anything is written.
func stamp(ctx context.Context, gen *id.Generator, exists id.ExistsFunc, params domain.CreateParams, now time.Time) (*domain.Paste, time.Duration, error) {
	var ttl time.Duration
	if params.ExpiresAt != nil {
		ttl = params.ExpiresAt.Sub(now)
		if ttl <= 0 {
			return nil, 0, domain.ErrInvalidExpiry
		}
	}
	pasteID, err := gen.Generate(ctx, exists)
	if err != nil {
		return nil, 0, domain.NewStorageErr(domain.CodeIDGenerationFailed, err)
	}
	return &domain.Paste{
		ID:          pasteID,
		Title:       params.Title,
		Content:     params.Content,
		Language:    params.Language,
		CreatedAt:   now,
		ExpiresAt:   params.ExpiresAt,
		OneTimeView: params.OneTimeView,
		Size:        int64(len(params.Content)),
		ClientHash:  params.ClientHash,
	}, ttl, nil
}
