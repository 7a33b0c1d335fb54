package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/daszybak/polymarket_cli/internal/model"
)

type entry struct {
	series   model.PriceSeries
	storedAt time.Time
}

// Memory is a process-local cache. Expired entries are skipped on read and
// never evicted.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

var _ Cache = (*Memory)(nil)

// NewMemory creates an empty cache. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (m *Memory) Get(_ context.Context, key string) (model.PriceSeries, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || m.now().Sub(e.storedAt) >= m.ttl {
		return nil, false
	}
	return slices.Clone(e.series), true
}

func (m *Memory) Set(_ context.Context, key string, series model.PriceSeries) {
	e := entry{
		series:   slices.Clone(series),
		storedAt: m.now(),
	}
	if e.series == nil {
		e.series = model.PriceSeries{}
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
