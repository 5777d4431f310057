package metrics

import (
	"sync"
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	LoginSuccesses  uint64
	LoginFailures   uint64
	Registrations   uint64
	AuthRejections  map[string]uint64
	RateLimited     uint64
	ProductsCreated uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	loginSuccesses  uint64
	loginFailures   uint64
	registrations   uint64
	rateLimited     uint64
	productsCreated uint64

	mu             sync.Mutex
	authRejections map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		authRejections: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	rejections := make(map[string]uint64, len(m.authRejections))
	for reason, count := range m.authRejections {
		rejections[reason] = count
	}
	m.mu.Unlock()

	return Snapshot{
		LoginSuccesses:  atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:   atomic.LoadUint64(&m.loginFailures),
		Registrations:   atomic.LoadUint64(&m.registrations),
		AuthRejections:  rejections,
		RateLimited:     atomic.LoadUint64(&m.rateLimited),
		ProductsCreated: atomic.LoadUint64(&m.productsCreated),
	}
}

// IncLoginSuccess increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	atomic.AddUint64(&m.loginSuccesses, 1)
}

// IncLoginFailure increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncRegistration increments the registration counter.
func (m *InMemoryRecorder) IncRegistration() {
	atomic.AddUint64(&m.registrations, 1)
}

// IncAuthRejected increments the rejection counter for a reason.
func (m *InMemoryRecorder) IncAuthRejected(reason string) {
	m.mu.Lock()
	m.authRejections[reason]++
	m.mu.Unlock()
}

// IncRateLimited increments the throttled request counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncProductCreated increments the product created counter.
func (m *InMemoryRecorder) IncProductCreated() {
	atomic.AddUint64(&m.productsCreated, 1)
}
