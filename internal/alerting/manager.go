// Package alerting manages the host-facing alert list.
//
// Alerts are ephemeral: a bounded in-memory list the host UI renders and
// dismisses. Nothing here is persisted or pushed — the engine emits
// structured alerts, the host decides how to show them.
package alerting

import (
	"sync"
	"time"

	"github.com/roadwise/hoswatch/internal/model"
)

// DefaultCap bounds the alert list. Raising past the cap evicts the
// oldest alert.
const DefaultCap = 20

// Manager is a bounded, newest-last alert list. Safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	alerts []model.Alert
	cap    int
}

// NewManager creates a Manager with the given capacity; zero or negative
// means DefaultCap.
func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Manager{cap: capacity}
}

// Raise appends an alert, evicting the oldest when the list is full.
func (m *Manager) Raise(a model.Alert) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	if len(m.alerts) > m.cap {
		m.alerts = m.alerts[len(m.alerts)-m.cap:]
	}
}

// Dismiss removes the alert with the given ID. Dismissing an unknown ID
// is a no-op: the host may race a dismissal against expiry.
func (m *Manager) Dismiss(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.alerts {
		if a.ID == id {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			return
		}
	}
}

// ExpireStale drops every alert whose expiry has passed. Expiry is not
// background work — the scheduler calls this once per monitoring cycle.
func (m *Manager) ExpireStale(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.alerts[:0]
	for _, a := range m.alerts {
		if a.ExpiresAt != nil && !now.Before(*a.ExpiresAt) {
			continue
		}
		kept = append(kept, a)
	}
	m.alerts = kept
}

// List returns a copy of the current alerts, oldest first.
func (m *Manager) List() []model.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Alert, len(m.alerts))
	copy(out, m.alerts)
	return out
}

// Len returns the number of active alerts.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.alerts)
}
