// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Authentication flow metrics
	IncLoginSuccess()
	IncLoginFailure()
	IncRegistration()
	IncAuthRejected(reason string) // reason: "missing", "invalid", "user_gone"
	IncRateLimited()

	// Catalog metrics
	IncProductCreated()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
