package review

import (
	"fmt"
	"sync"
	"time"
)

// Registry maps scan ids to live controllers.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]entry
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	controller *Controller
	touched    time.Time
}

// DefaultSessionTTL is how long an untouched session is kept.
const DefaultSessionTTL = 2 * time.Hour

// NewRegistry creates a registry that forgets sessions idle longer than ttl.
// A non-positive ttl selects DefaultSessionTTL.
func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Registry{
		sessions: make(map[string]entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put registers c under its scan id.
func (r *Registry) Put(c *Controller) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	r.sessions[c.ScanID()] = entry{controller: c, touched: r.now()}
}

// Get returns the controller for scanID.
func (r *Registry) Get(scanID string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	e, ok := r.sessions[scanID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, scanID)
	}
	e.touched = r.now()
	r.sessions[scanID] = e
	return e.controller, nil
}

// Delete forgets scanID.
func (r *Registry) Delete(scanID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, scanID)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) pruneLocked() {
	cutoff := r.now().Add(-r.ttl)
	for id, e := range r.sessions {
		if e.touched.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
