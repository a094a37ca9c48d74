package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/viralburst/pastebin/metrics"
	"github.com/viralburst/pastebin/pkg/domain"
	"github.com/viralburst/pastebin/svc/id"
)

// Memory is the in-process Store variant for tests and development. It never
// sweeps: expired records linger until a read trips the lazy expiry check,
// which deliberately mirrors a backend whose TTL sweep has not run yet.
type Memory struct {
	mu     sync.RWMutex
	pastes map[string]domain.Paste
	gen    *id.Generator
	now    func() time.Time
}

func NewMemory(gen *id.Generator) *Memory {
	return &Memory{
		pastes: make(map[string]domain.Paste),
		gen:    gen,
		now:    time.Now,
	}
}

// SetClock swaps the time source so tests can advance past an expiry without
// waiting or triggering any sweep.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) Create(ctx context.Context, params domain.CreateParams) (*domain.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	paste, _, err := stamp(ctx, m.gen, m.existsLocked, params, m.now())
	if err != nil {
		return nil, err
	}
	m.pastes[paste.ID] = *paste
	return paste, nil
}

func (m *Memory) existsLocked(_ context.Context, pasteID string) (bool, error) {
	_, ok := m.pastes[pasteID]
	return ok, nil
}

func (m *Memory) Get(ctx context.Context, pasteID string) (*domain.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchLocked(pasteID)
}

func (m *Memory) fetchLocked(pasteID string) (*domain.Paste, error) {
	p, ok := m.pastes[pasteID]
	if !ok {
		return nil, nil
	}
	if p.Expired(m.now()) {
		metrics.LazyExpiryDeletes.Inc()
		delete(m.pastes, pasteID)
		return nil, domain.ErrPasteExpired
	}
	cp := p
	return &cp, nil
}

func (m *Memory) Consume(ctx context.Context, pasteID string) (*domain.Paste, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.fetchLocked(pasteID)
	if err != nil || p == nil || p.Consumed {
		return nil, err
	}
	delete(m.pastes, pasteID)
	p.Consumed = true
	return p, nil
}

func (m *Memory) Delete(ctx context.Context, pasteID string) error {
	m.mu.Lock()
	delete(m.pastes, pasteID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(ctx context.Context, limit int, cursor string) ([]*domain.Paste, string, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.pastes))
	for pid := range m.pastes {
		ids = append(ids, pid)
	}
	sort.Strings(ids)
	start := 0
	if cursor != "" {
		start = sort.SearchStrings(ids, cursor)
	}
	var out []*domain.Paste
	i := start
	for ; i < len(ids) && len(out) < limit; i++ {
		if p, err := m.fetchLocked(ids[i]); err == nil && p != nil {
			out = append(out, p)
		}
	}
	next := ""
	if i < len(ids) {
		next = ids[i]
	}
	return out, next, nil
}

func (m *Memory) Exists(ctx context.Context, pasteID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.pastes[pasteID]
	return ok, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }
func (m *Memory) Close() error                   { return nil }

// Len reports live record count without the lazy check, for tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pastes)
}
