package server

import (
	"sync"
	"time"
)

// HealthStatus represents the health of a component.
type HealthStatus struct {
	Healthy     bool      `json:"healthy"`
	LastCheck   time.Time `json:"lastCheck"`
	LastSuccess time.Time `json:"lastSuccess,omitzero"`
	Message     string    `json:"message,omitempty"`
}

// Health tracks the health of the corpora and the generator.
type Health struct {
	mu         sync.RWMutex
	components map[string]HealthStatus
}

// NewHealth creates a new health tracker.
func NewHealth() *Health {
	return &Health{
		components: make(map[string]HealthStatus),
	}
}

// SetHealthy marks a component as healthy.
func (h *Health) SetHealthy(component, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	h.components[component] = HealthStatus{
		Healthy:     true,
		LastCheck:   now,
		LastSuccess: now,
		Message:     message,
	}
}

// SetUnhealthy marks a component as unhealthy.
func (h *Health) SetUnhealthy(component string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	status := h.components[component]
	status.Healthy = false
	status.LastCheck = time.Now()
	status.Message = err.Error()
	h.components[component] = status
}

// Status returns the status of a component.
func (h *Health) Status(component string) (HealthStatus, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status, ok := h.components[component]
	return status, ok
}

// Snapshot returns a copy of all component statuses.
func (h *Health) Snapshot() map[string]HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make(map[string]HealthStatus, len(h.components))
	for name, status := range h.components {
		result[name] = status
	}
	return result
}

// IsOverallHealthy returns true if all components are healthy.
func (h *Health) IsOverallHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, status := range h.components {
		if !status.Healthy {
			return false
		}
	}
	return true
}
