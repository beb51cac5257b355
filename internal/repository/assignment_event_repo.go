package repository

import (
	"context"

	"github.com/ricirt/grievance-queue/internal/domain"
)

// AssignmentEventRepository persists the assignment worker's audit trail.
// The pgx implementation is in pg_assignment_event_repo.go.
// Tests and database-less deployments use the in-memory mock.
type AssignmentEventRepository interface {
	Record(ctx context.Context, e *domain.AssignmentEvent) error
	ListRecent(ctx context.Context, limit int) ([]*domain.AssignmentEvent, error)
}
