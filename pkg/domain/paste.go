package domain

import (
	"time"
)

// DefaultTitle is used when the creator supplies no title.
const DefaultTitle = "Untitled Paste"

// FallbackLanguage tags content that matches no supported language.
const FallbackLanguage = "text"

type Paste struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Language    string     `json:"language"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	OneTimeView bool       `json:"one_time_view"`
	Consumed    bool       `json:"consumed"`
	Size        int64      `json:"size"`
	ClientHash  string     `json:"-"`
}

// Expired reports whether the paste's absolute expiry has passed at t.
// Pastes without an expiry never expire; they live until consumed or deleted.
func (p *Paste) Expired(t time.Time) bool {
	return p.ExpiresAt != nil && !t.Before(*p.ExpiresAt)
}

type CreateParams struct {
	Title       string
	Content     string
	Language    string
	ExpiresAt   *time.Time
	OneTimeView bool
	ClientHash  string
}

// Descriptor is what the creator gets back after a successful create.
type Descriptor struct {
	ID        string     `json:"id"`
	ShareURL  string     `json:"share_url"`
	Title     string     `json:"title"`
	Language  string     `json:"language"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Size      int64      `json:"size"`
	CreatedAt time.Time  `json:"created_at"`
	Warnings  []string   `json:"warnings,omitempty"`
}
