package observability

import "context"

// HealthStatus is the health state of a component or the whole service.
type HealthStatus string

const (
	HealthUp       HealthStatus = "up"
	HealthDown     HealthStatus = "down"
	HealthDegraded HealthStatus = "degraded"
)

// Health describes one component's health.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// ServiceHealth aggregates component health into an overall status.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by collaborators that can report health.
// The sidecar clients satisfy it through availabilityChecker adapters in
// the gateway.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// NewServiceHealth creates a ServiceHealth with status up.
func NewServiceHealth(service, version string) *ServiceHealth {
	return &ServiceHealth{Service: service, Status: HealthUp, Version: version}
}

// AddComponent records a component result. A down sidecar degrades the
// service rather than taking it down; chat can still stream without the
// document or speech collaborators.
func (sh *ServiceHealth) AddComponent(h Health) {
	sh.Components = append(sh.Components, h)

	switch h.Status {
	case HealthDown, HealthDegraded:
		if sh.Status == HealthUp {
			sh.Status = HealthDegraded
		}
	}
}
