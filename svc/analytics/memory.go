package analytics

import (
	"context"
	"sync"
)

// Memory keeps process-lifetime counters behind a mutex. Scoped to a single
// instance; use the Redis variant when counts must survive restarts or be
// shared across replicas.
type Memory struct {
	mu         sync.Mutex
	created    int64
	viewed     int64
	errors     int64
	byLanguage map[string]int64
	totalBytes int64
}

func NewMemory() *Memory {
	return &Memory{byLanguage: make(map[string]int64)}
}

func (m *Memory) TrackCreated(_ context.Context, language string, size int64, _ string) {
	m.mu.Lock()
	m.created++
	m.byLanguage[language]++
	m.totalBytes += size
	m.mu.Unlock()
}

func (m *Memory) TrackViewed(_ context.Context, _, _ string) {
	m.mu.Lock()
	m.viewed++
	m.mu.Unlock()
}

func (m *Memory) TrackError(_ context.Context, _, _ string) {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

func (m *Memory) GetStats(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byLang := make(map[string]int64, len(m.byLanguage))
	for k, v := range m.byLanguage {
		byLang[k] = v
	}
	return &Stats{
		Created:    m.created,
		Viewed:     m.viewed,
		Errors:     m.errors,
		ByLanguage: byLang,
		TotalBytes: m.totalBytes,
	}, nil
}
