package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricirt/grievance-queue/internal/domain"
)

type pgAssignmentEventRepository struct {
	pool *pgxpool.Pool
}

// NewPgAssignmentEventRepository returns an AssignmentEventRepository backed by PostgreSQL.
func NewPgAssignmentEventRepository(pool *pgxpool.Pool) AssignmentEventRepository {
	return &pgAssignmentEventRepository{pool: pool}
}

func (r *pgAssignmentEventRepository) Record(ctx context.Context, e *domain.AssignmentEvent) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO assignment_events
			(id, complaint_id, municipality, outcome, attempt, error, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.ComplaintID, e.Municipality, e.Outcome, e.Attempt, e.Error, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert assignment event: %w", err)
	}
	return nil
}

func (r *pgAssignmentEventRepository) ListRecent(ctx context.Context, limit int) ([]*domain.AssignmentEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, complaint_id, municipality, outcome, attempt, error, created_at
		FROM assignment_events
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list assignment events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ---- helpers ----

func scanEvent(row pgx.Row) (*domain.AssignmentEvent, error) {
	var e domain.AssignmentEvent
	err := row.Scan(
		&e.ID, &e.ComplaintID, &e.Municipality, &e.Outcome,
		&e.Attempt, &e.Error, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanEvents(rows pgx.Rows) ([]*domain.AssignmentEvent, error) {
	var result []*domain.AssignmentEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
