package svc

import (
	"context"

	"github.com/pkg/errors"

	"github.com/viralburst/pastebin/metrics"
	"github.com/viralburst/pastebin/pkg/domain"
	"github.com/viralburst/pastebin/svc/analytics"
	"github.com/viralburst/pastebin/svc/id"
	"github.com/viralburst/pastebin/svc/store"
	"github.com/viralburst/pastebin/svc/util"
)

type Retriever struct {
	store      store.Store
	tracker    analytics.Tracker
	previewLen int
}

func NewRetriever(s store.Store, t analytics.Tracker, previewLen int) *Retriever {
	if s == nil || t == nil {
		panic("retriever: nil dependency (store or tracker)")
	}
	if previewLen <= 0 {
		previewLen = 500
	}
	return &Retriever{store: s, tracker: t, previewLen: previewLen}
}

// Retrieve is the content-delivery path. One-time pastes are consumed (first
// successful read deletes the record); multi-view pastes are left intact.
// Expired is collapsed to not-found here; only the metadata and preview
// paths expose the distinction.
func (r *Retriever) Retrieve(ctx context.Context, pasteID, clientHash string) (*domain.Paste, error) {
	if !id.ValidShape(pasteID) {
		metrics.PasteNotFound.Inc()
		return nil, domain.ErrPasteNotFound
	}
	p, err := r.store.Get(ctx, pasteID)
	if err != nil {
		if errors.Is(err, domain.ErrPasteExpired) {
			metrics.PasteExpired.Inc()
			return nil, domain.ErrPasteNotFound
		}
		return nil, errors.Wrap(err, "get paste")
	}
	if p == nil {
		metrics.PasteNotFound.Inc()
		return nil, domain.ErrPasteNotFound
	}
	mode := "multi_view"
	if p.OneTimeView {
		mode = "one_time"
		// a concurrent consumer or the TTL sweep may win between the
		// fetch above and this consume; both outcomes are not-found
		consumed, err := r.store.Consume(ctx, pasteID)
		if err != nil && !errors.Is(err, domain.ErrPasteExpired) {
			return nil, errors.Wrap(err, "consume paste")
		}
		if consumed == nil {
			metrics.PasteNotFound.Inc()
			return nil, domain.ErrPasteNotFound
		}
		p = consumed
	}
	r.tracker.TrackViewed(ctx, pasteID, clientHash)
	metrics.PasteDelivered.WithLabelValues(mode).Inc()
	util.Debug().Str("paste_id", pasteID).Str("mode", mode).Msg("paste delivered")
	return p, nil
}

// Meta is the non-consuming existence probe. Unlike Retrieve it reports
// expired distinctly, and never spends a one-time view.
func (r *Retriever) Meta(ctx context.Context, pasteID string) (*domain.Paste, error) {
	if !id.ValidShape(pasteID) {
		return nil, domain.ErrPasteNotFound
	}
	p, err := r.store.Get(ctx, pasteID)
	if err != nil {
		if errors.Is(err, domain.ErrPasteExpired) {
			metrics.PasteExpired.Inc()
			return nil, domain.ErrPasteExpired
		}
		return nil, errors.Wrap(err, "get paste")
	}
	if p == nil {
		metrics.PasteNotFound.Inc()
		return nil, domain.ErrPasteNotFound
	}
	return p, nil
}

// Preview returns a truncated non-consuming read so UIs can show a glance
// without spending a one-time view.
func (r *Retriever) Preview(ctx context.Context, pasteID string) (*domain.Paste, error) {
	p, err := r.Meta(ctx, pasteID)
	if err != nil {
		return nil, err
	}
	runes := []rune(p.Content)
	if len(runes) > r.previewLen {
		p.Content = string(runes[:r.previewLen])
	}
	return p, nil
}

// Delete terminates a paste early. Possession of the unguessable id is the
// only authorization; deleting an id that is already gone still succeeds.
func (r *Retriever) Delete(ctx context.Context, pasteID string) error {
	if !id.ValidShape(pasteID) {
		return nil
	}
	if err := r.store.Delete(ctx, pasteID); err != nil {
		return errors.Wrap(err, "delete paste")
	}
	util.Info().Str("paste_id", pasteID).Msg("paste deleted")
	return nil
}
