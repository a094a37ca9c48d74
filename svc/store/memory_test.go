package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/viralburst/pastebin/pkg/domain"
	"github.com/viralburst/pastebin/svc/id"
)

func newTestStore(t *testing.T) *Memory {
	t.Helper()
	return NewMemory(id.NewGenerator(12, 10))
}

func futureExpiry(d time.Duration) *time.Time {
	t := time.Now().Add(d)
	return &t
}

func TestCreateGetRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, domain.CreateParams{
		Title:       "notes",
		Content:     "hello world",
		Language:    "text",
		ExpiresAt:   futureExpiry(time.Hour),
		OneTimeView: false,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatal("Create did not stamp id/created_at")
	}
	if created.Size != int64(len("hello world")) {
		t.Errorf("size = %d, want %d", created.Size, len("hello world"))
	}

	got, err := st.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned absent for a live paste")
	}
	if got.Content != "hello world" || got.Title != "notes" || got.Language != "text" || got.OneTimeView {
		t.Errorf("round-trip mismatch: %+v", got)
	}
}

func TestConsumeOnce(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, domain.CreateParams{
		Content:     "secret",
		ExpiresAt:   futureExpiry(time.Hour),
		OneTimeView: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, err := st.Consume(ctx, created.ID)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if first == nil || first.Content != "secret" {
		t.Fatalf("first consume should deliver content, got %+v", first)
	}
	if !first.Consumed {
		t.Error("delivered paste should be marked consumed")
	}

	second, err := st.Consume(ctx, created.ID)
	if err != nil {
		t.Fatalf("second Consume errored: %v", err)
	}
	if second != nil {
		t.Error("second consume should return absent")
	}
	got, err := st.Get(ctx, created.ID)
	if err != nil || got != nil {
		t.Errorf("Get after consume = (%v, %v), want absent", got, err)
	}
}

func TestMultiViewRepeatable(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, domain.CreateParams{
		Content:   "shared",
		ExpiresAt: futureExpiry(time.Hour),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := st.Get(ctx, created.ID)
		if err != nil || got == nil {
			t.Fatalf("read %d failed: (%v, %v)", i, got, err)
		}
		if got.Content != "shared" {
			t.Errorf("read %d content = %q", i, got.Content)
		}
	}
}

func TestLazyExpiryWithoutSweep(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, domain.CreateParams{
		Content:   "ephemeral",
		ExpiresAt: futureExpiry(5 * time.Minute),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// advance past the expiry without any sweep running
	st.SetClock(func() time.Time { return time.Now().Add(10 * time.Minute) })

	if st.Len() != 1 {
		t.Fatal("record should still be physically present before the read")
	}
	got, err := st.Get(ctx, created.ID)
	if got != nil {
		t.Error("expired paste should be reported absent")
	}
	if !errors.Is(err, domain.ErrPasteExpired) {
		t.Errorf("first read of expired paste should signal expiry, got %v", err)
	}
	if st.Len() != 0 {
		t.Error("lazy check should have deleted the record")
	}

	// no resurrection: subsequent reads are plain absent
	got, err = st.Get(ctx, created.ID)
	if got != nil || err != nil {
		t.Errorf("second read = (%v, %v), want plain absent", got, err)
	}
	consumed, err := st.Consume(ctx, created.ID)
	if consumed != nil || err != nil {
		t.Errorf("consume after expiry = (%v, %v), want plain absent", consumed, err)
	}
}

func TestCreateRejectsPastExpiry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	_, err := st.Create(ctx, domain.CreateParams{Content: "x", ExpiresAt: &past})
	if !errors.Is(err, domain.ErrInvalidExpiry) {
		t.Fatalf("expected ErrInvalidExpiry, got %v", err)
	}
	if st.Len() != 0 {
		t.Error("nothing should be written for a past expiry")
	}
}

func TestDeleteIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.Delete(ctx, "nonexistent1"); err != nil {
		t.Fatalf("delete of missing id should not error: %v", err)
	}

	created, err := st.Create(ctx, domain.CreateParams{Content: "bye", ExpiresAt: futureExpiry(time.Hour)})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := st.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	got, err := st.Get(ctx, created.ID)
	if got != nil || err != nil {
		t.Errorf("Get after delete = (%v, %v), want absent", got, err)
	}
	if err := st.Delete(ctx, created.ID); err != nil {
		t.Errorf("repeat delete should not error: %v", err)
	}
}

func TestList(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := st.Create(ctx, domain.CreateParams{Content: "entry", ExpiresAt: futureExpiry(time.Hour)}); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}
	var all []*domain.Paste
	cursor := ""
	for {
		page, next, err := st.List(ctx, 2, cursor)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		all = append(all, page...)
		if next == "" {
			break
		}
		cursor = next
	}
	if len(all) != 5 {
		t.Errorf("listed %d pastes, want 5", len(all))
	}
}

func TestConcurrentConsumeSingleWinnerPerRecord(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.Create(ctx, domain.CreateParams{
		Content:     "raced",
		ExpiresAt:   futureExpiry(time.Hour),
		OneTimeView: true,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// the in-memory double serializes consume under one lock, so exactly
	// one goroutine wins; the redis variant documents a wider race
	var wg sync.WaitGroup
	winners := make(chan *domain.Paste, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if p, err := st.Consume(ctx, created.ID); err == nil && p != nil {
				winners <- p
			}
		}()
	}
	wg.Wait()
	close(winners)
	count := 0
	for range winners {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly 1 winner, got %d", count)
	}
}
