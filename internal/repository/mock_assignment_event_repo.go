package repository

import (
	"context"
	"sync"

	"github.com/ricirt/grievance-queue/internal/domain"
)

// MockAssignmentEventRepository is a hand-written, in-memory implementation
// of AssignmentEventRepository. It backs unit tests and deployments that run
// without DATABASE_URL.
type MockAssignmentEventRepository struct {
	mu     sync.RWMutex
	events []*domain.AssignmentEvent

	// Optional error override; set in tests to simulate failure paths.
	RecordErr error
}

func NewMockAssignmentEventRepository() *MockAssignmentEventRepository {
	return &MockAssignmentEventRepository{}
}

func (m *MockAssignmentEventRepository) Record(_ context.Context, e *domain.AssignmentEvent) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *e
	m.events = append(m.events, &clone)
	return nil
}

// ListRecent returns newest first.
func (m *MockAssignmentEventRepository) ListRecent(_ context.Context, limit int) ([]*domain.AssignmentEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.AssignmentEvent, 0, min(limit, len(m.events)))
	for i := len(m.events) - 1; i >= 0 && len(result) < limit; i-- {
		clone := *m.events[i]
		result = append(result, &clone)
	}
	return result, nil
}

// Events returns every recorded event in insertion order.
func (m *MockAssignmentEventRepository) Events() []domain.AssignmentEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.AssignmentEvent, len(m.events))
	for i, e := range m.events {
		out[i] = *e
	}
	return out
}
