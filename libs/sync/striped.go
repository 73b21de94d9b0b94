// Package sync provides keyed locking on top of the standard sync package.
package sync

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultStripes is the stripe count used by NewStripedMutex when zero is
// passed.
const DefaultStripes = 64

// StripedMutex serializes work per key using a fixed set of mutexes. Two
// distinct keys may share a stripe; callers must not nest locks for
// different keys.
type StripedMutex struct {
	stripes []sync.Mutex
}

// NewStripedMutex returns a StripedMutex with n stripes.
func NewStripedMutex(n int) *StripedMutex {
	if n <= 0 {
		n = DefaultStripes
	}
	return &StripedMutex{stripes: make([]sync.Mutex, n)}
}

func (m *StripedMutex) stripe(key string) *sync.Mutex {
	return &m.stripes[xxhash.Sum64String(key)%uint64(len(m.stripes))]
}

// Lock locks the stripe owning key.
func (m *StripedMutex) Lock(key string) { m.stripe(key).Lock() }

// Unlock unlocks the stripe owning key.
func (m *StripedMutex) Unlock(key string) { m.stripe(key).Unlock() }

// Do runs fn while holding the stripe owning key.
func (m *StripedMutex) Do(key string, fn func()) {
	mtx := m.stripe(key)
	mtx.Lock()
	defer mtx.Unlock()
	fn()
}
