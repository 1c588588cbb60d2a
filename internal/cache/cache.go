// Package cache provides a generic TTL-bounded LRU cache, a manager that
// sweeps expired entries, and a caching wrapper for sales sources.
package cache

import (
	"log/slog"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Clear drops every entry.
	Clear()
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps registered caches.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the sweep. Call before StartCleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := m.Sweep()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "component", "cache", "cleaned", cleaned)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Sweep runs one cleanup pass and returns the number of entries dropped.
func (m *Manager) Sweep() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop halts the cleanup goroutine started by StartCleanup and waits for it.
func (m *Manager) Stop() {
	select {
	case <-m.stopCleanup:
		return
	default:
	}
	close(m.stopCleanup)
	<-m.cleanupDone
}
