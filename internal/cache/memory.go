package cache

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/google/uuid"
)

// Memory keeps the published current version of each resource in process.
// Entries expire after the configured TTL; a zero TTL disables expiry.
type Memory struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	version   *document.Version
	expiresAt time.Time
}

// MemoryOption configures the in-process cache.
type MemoryOption func(*Memory)

// WithMemoryClock overrides the expiry clock. Tests freeze it.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMemory builds an in-process published cache with the given TTL.
func NewMemory(ttl time.Duration, opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ document.PublishedCache = (*Memory)(nil)

// GetCurrent returns the cached current version, or (nil, nil) on a miss.
// Expired entries are evicted on read.
func (m *Memory) GetCurrent(_ context.Context, resourceID uuid.UUID) (*document.Version, error) {
	m.mu.RLock()
	entry, ok := m.entries[resourceID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		if stored, still := m.entries[resourceID]; still && stored.expiresAt.Equal(entry.expiresAt) {
			delete(m.entries, resourceID)
		}
		m.mu.Unlock()
		return nil, nil
	}

	return entry.version.Clone(), nil
}

// SetCurrent stores a defensive copy of the version under its resource ID.
func (m *Memory) SetCurrent(_ context.Context, version *document.Version) error {
	if version == nil || version.ResourceID == uuid.Nil {
		return nil
	}

	entry := memoryEntry{version: version.Clone()}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[version.ResourceID] = entry
	m.mu.Unlock()
	return nil
}

// Invalidate drops the cached entry for a resource.
func (m *Memory) Invalidate(_ context.Context, resourceID uuid.UUID) error {
	m.mu.Lock()
	delete(m.entries, resourceID)
	m.mu.Unlock()
	return nil
}

// Len reports how many resources are currently cached, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
