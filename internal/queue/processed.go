package queue

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/domain"
)

// ProcessedQueue holds complaints that passed registration and are ready
// for assignment. Reads return raw payloads; the assignment worker decodes
// them itself so it can route undecodable heads.
type ProcessedQueue struct {
	client *Client
	name   string
	logger *zap.Logger
}

func NewProcessedQueue(client *Client, logger *zap.Logger) *ProcessedQueue {
	return &ProcessedQueue{
		client: client,
		name:   ProcessedComplaintQueue,
		logger: logger.With(zap.String("queue", ProcessedComplaintQueue)),
	}
}

func (q *ProcessedQueue) Name() string { return q.name }

func (q *ProcessedQueue) Push(ctx context.Context, c domain.ProcessedComplaint) (int64, error) {
	return q.client.Push(ctx, q.name, c)
}

func (q *ProcessedQueue) Length(ctx context.Context) (int64, error) {
	return q.client.Length(ctx, q.name)
}

// Peek returns the raw head without removing it.
func (q *ProcessedQueue) Peek(ctx context.Context) (string, bool, error) {
	n, err := q.client.Length(ctx, q.name)
	if err != nil {
		return "", false, err
	}
	if n == 0 {
		return "", false, nil
	}
	return q.client.Peek(ctx, q.name)
}

// PeekAt returns the raw element at index without removing it.
func (q *ProcessedQueue) PeekAt(ctx context.Context, index int64) (string, bool, error) {
	return q.client.PeekAt(ctx, q.name, index)
}

// Pop removes the head and returns it.
func (q *ProcessedQueue) Pop(ctx context.Context) (string, bool, error) {
	return q.client.Pop(ctx, q.name)
}

// MoveHead pops the head and appends it verbatim to dest. The two steps are
// not atomic; if the push fails the raw payload is logged and the error returned.
func (q *ProcessedQueue) MoveHead(ctx context.Context, dest string) (string, bool, error) {
	raw, ok, err := q.client.Pop(ctx, q.name)
	if err != nil || !ok {
		return raw, ok, err
	}
	if _, err := q.client.PushRaw(ctx, dest, raw); err != nil {
		q.logger.Error("move head: push to destination failed",
			zap.String("destination", dest), zap.String("raw", raw), zap.Error(err))
		return raw, true, fmt.Errorf("move head to %s: %w", dest, err)
	}
	return raw, true, nil
}

// All returns every decodable complaint currently queued, head first.
// Entries that fail to decode are skipped. Diagnostic use only: O(n).
func (q *ProcessedQueue) All(ctx context.Context) ([]domain.ProcessedComplaint, error) {
	raws, err := q.client.Range(ctx, q.name)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ProcessedComplaint, 0, len(raws))
	for i, raw := range raws {
		c, err := domain.DecodeProcessedComplaint([]byte(raw))
		if err != nil {
			q.logger.Debug("skipping undecodable entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
