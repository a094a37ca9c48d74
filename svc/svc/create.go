// Package svc holds the two service handlers: creation and retrieval. Both
// are thin orchestrations over the store; neither keeps per-request state.
package svc

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/viralburst/pastebin/cfg"
	"github.com/viralburst/pastebin/metrics"
	"github.com/viralburst/pastebin/pkg/domain"
	"github.com/viralburst/pastebin/svc/analytics"
	"github.com/viralburst/pastebin/svc/lang"
	"github.com/viralburst/pastebin/svc/store"
	"github.com/viralburst/pastebin/svc/util"
	"github.com/viralburst/pastebin/svc/validate"
)

type CreateInput struct {
	Title       string
	Content     string
	Language    string
	Expires     string // symbolic key, e.g. "5m", "1d"
	ExpiresIn   int64  // raw seconds; mutually exclusive with Expires
	OneTimeView bool
	ClientHash  string
}

type Creator struct {
	store     store.Store
	validator *validate.Validator
	tracker   analytics.Tracker
	cfg       *cfg.Cfg
	now       func() time.Time
}

func NewCreator(s store.Store, v *validate.Validator, t analytics.Tracker, c *cfg.Cfg) *Creator {
	if s == nil || v == nil || t == nil || c == nil {
		panic("creator: nil dependency (store, validator, tracker, or cfg)")
	}
	return &Creator{store: s, validator: v, tracker: t, cfg: c, now: time.Now}
}

// SetClock swaps the time source for tests.
func (c *Creator) SetClock(now func() time.Time) { c.now = now }

// Create validates the input, resolves language and expiry, writes the
// record and returns a shareable descriptor. Validation failures stop before
// any storage write; a tracking failure never fails the create.
func (c *Creator) Create(ctx context.Context, in CreateInput) (*domain.Descriptor, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = domain.DefaultTitle
	}
	content := in.Content

	res, err := c.validator.Validate(content, title)
	if err != nil {
		return nil, err
	}

	if in.Expires != "" && in.ExpiresIn != 0 {
		return nil, domain.ErrInvalidRequest.WithMsg("expires and expires_in are mutually exclusive")
	}
	ttl, err := domain.ResolveExpiry(in.Expires, in.ExpiresIn, c.cfg.DefaultExpiryKey)
	if err != nil {
		return nil, err
	}
	if err := c.validator.ValidateExpiry(ttl); err != nil {
		return nil, err
	}

	language := in.Language
	if language != "" {
		language = lang.Sanitize(language)
	} else {
		language = lang.Detect(content)
	}

	expiresAt := c.now().Add(ttl)
	paste, err := c.store.Create(ctx, domain.CreateParams{
		Title:       title,
		Content:     content,
		Language:    language,
		ExpiresAt:   &expiresAt,
		OneTimeView: in.OneTimeView,
		ClientHash:  in.ClientHash,
	})
	if err != nil {
		c.tracker.TrackError(ctx, "create", in.ClientHash)
		return nil, errors.Wrap(err, "create paste")
	}

	c.tracker.TrackCreated(ctx, language, paste.Size, in.ClientHash)
	metrics.PasteCreated.Inc()
	util.Info().
		Str("paste_id", paste.ID).
		Str("language", language).
		Int64("size", paste.Size).
		Bool("one_time", paste.OneTimeView).
		Msg("paste created")

	return &domain.Descriptor{
		ID:        paste.ID,
		ShareURL:  strings.TrimRight(c.cfg.BaseURL, "/") + "/" + paste.ID,
		Title:     paste.Title,
		Language:  paste.Language,
		ExpiresAt: paste.ExpiresAt,
		Size:      paste.Size,
		CreatedAt: paste.CreatedAt,
		Warnings:  res.Warnings,
	}, nil
}
