// Package fifo provides a mutual-exclusion lock whose waiters are served in
// strict arrival order. Ownership passes directly from the releasing holder to
// the longest-waiting caller, so the grant order is the Lock call order.
package fifo

import "sync"

// Mutex is a FIFO lock. The zero value is an unlocked Mutex.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	mu      sync.Mutex
	locked  bool
	waiters []chan struct{}
}

// Lock acquires the mutex, parking the caller until every earlier waiter has
// been served. It never fails and never spins.
func (m *Mutex) Lock() {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return
	}
	ready := make(chan struct{})
	m.waiters = append(m.waiters, ready)
	m.mu.Unlock()
	<-ready
}

// TryLock acquires the mutex only if it is free and nobody is queued.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases the mutex. When callers are queued, ownership passes to the
// one that has waited longest and the mutex stays locked on its behalf.
//
// It panics if m is not locked.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.locked {
		panic("fifo: unlock of unlocked mutex")
	}
	if len(m.waiters) == 0 {
		m.locked = false
		return
	}
	next := m.waiters[0]
	m.waiters[0] = nil
	m.waiters = m.waiters[1:]
	close(next)
}

// Do runs fn while holding the mutex. The mutex is released on every exit
// path, including a panic in fn, before the error or panic reaches the caller.
func (m *Mutex) Do(fn func() error) error {
	m.Lock()
	defer m.Unlock()
	return fn()
}

// Waiting reports the number of callers parked in Lock.
func (m *Mutex) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}
