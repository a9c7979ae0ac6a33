package snapshot

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	data    []byte
	expires time.Time
}

// Memory is an in-process Cache, used when no Redis address is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[View]map[string]memEntry
	gens    map[View]int64
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: map[View]map[string]memEntry{}, gens: map[View]int64{}, now: time.Now}
}

func (m *Memory) Get(_ context.Context, view View, key string) ([]byte, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gen := m.gens[view]
	e, ok := m.entries[view][key]
	if !ok || m.now().After(e.expires) {
		return nil, gen, ErrMiss
	}
	return e.data, gen, nil
}

// Set drops the write when view has moved past gen.
func (m *Memory) Set(_ context.Context, view View, key string, gen int64, data []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gens[view] != gen {
		return nil
	}
	if m.entries[view] == nil {
		m.entries[view] = map[string]memEntry{}
	}
	m.entries[view][key] = memEntry{data: data, expires: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Invalidate(_ context.Context, views ...View) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range views {
		m.gens[v]++
		delete(m.entries, v)
	}
	return nil
}
