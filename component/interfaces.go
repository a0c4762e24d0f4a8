package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health is the result of one component check, as rendered by /health.
type Health struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	LatencyMs int64        `json:"latency_ms"`
}

// Component is a piece of infrastructure with a lifecycle: the database
// pool, the HTTP server. Names are unique within a Registry.
type Component interface {
	Name() string
	// Start connects or binds. It returns once the component is usable.
	Start(ctx context.Context) error
	// Stop releases the component within the deadline carried by ctx.
	Stop(ctx context.Context) error
	// Health must honour the deadline of ctx.
	Health(ctx context.Context) Health
}

// Description is a one-line summary a component reports about itself.
type Description struct {
	// Name is the display name; the component's Name() is used when empty.
	Name string
	// Type categorizes the component: "database", "server", ...
	Type string
	// Details such as "sqlserver eCommerceConnection pool=25/5".
	Details string
}

// Describable is optionally implemented by Components to report how they
// are configured when the registry starts them.
type Describable interface {
	Describe() Description
}
