// Package kvstore provides the explicit key-value store injected into
// components that previously leaned on ambient cookie/global storage (the
// prescription theme cache). Values carry an optional TTL and expire lazily.
package kvstore

import (
	"sync"
	"time"
)

// Store is a string key-value store with per-entry TTL.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Remove(key string)
}

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Memory is a mutex-guarded in-memory Store.
type Memory struct {
	mu    sync.RWMutex
	items map[string]entry
	now   func() time.Time
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry), now: time.Now}
}

// Get returns the value for key; expired entries are removed and reported
// as absent.
func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	e, ok := m.items[key]
	m.mu.RUnlock()
	if !ok {
		return "", false
	}
	if !e.expiresAt.IsZero() && m.now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.items, key)
		m.mu.Unlock()
		return "", false
	}
	return e.value, true
}

// Set stores value under key. A ttl of zero or less means no expiry.
func (m *Memory) Set(key, value string, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = e
	m.mu.Unlock()
}

// Remove deletes key. Removing an absent key is a no-op.
func (m *Memory) Remove(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}
