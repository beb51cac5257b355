package queue

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/domain"
)

// Queue names shared by every producer and consumer process.
const (
	ComplaintRegistrationQueue = "complaint:registration:queue"
	UserRegistrationQueue      = "user:registration:queue"
	ProcessedComplaintQueue    = "complaint:processed:queue"
	AssignmentMalformedQueue   = "complaint:assignment:malformed"
	AssignmentFailedQueue      = "complaint:assignment:failed"
	RegistrationRejectedQueue  = "complaint:registration:rejected"
)

// MalformedQueueName returns the dead-letter sibling of a queue.
func MalformedQueueName(queue string) string {
	return queue + ":malformed"
}

// RegistrationQueue appends newly created records of one domain type to a
// registration queue and lets synchronous callers drain it one item at a time.
// Construct one per domain type at startup and share it.
type RegistrationQueue[T any] struct {
	client    *Client
	name      string
	malformed string
	logger    *zap.Logger
}

func NewRegistrationQueue[T any](client *Client, name string, logger *zap.Logger) *RegistrationQueue[T] {
	return &RegistrationQueue[T]{
		client:    client,
		name:      name,
		malformed: MalformedQueueName(name),
		logger:    logger.With(zap.String("queue", name)),
	}
}

func NewComplaintRegistrationQueue(client *Client, logger *zap.Logger) *RegistrationQueue[domain.Complaint] {
	return NewRegistrationQueue[domain.Complaint](client, ComplaintRegistrationQueue, logger)
}

func NewUserRegistrationQueue(client *Client, logger *zap.Logger) *RegistrationQueue[domain.User] {
	return NewRegistrationQueue[domain.User](client, UserRegistrationQueue, logger)
}

func (q *RegistrationQueue[T]) Name() string { return q.name }

// MalformedName is the list unparsable entries are relocated to.
func (q *RegistrationQueue[T]) MalformedName() string { return q.malformed }

// Push appends record to the queue. Store and connection errors are returned
// to the caller unchanged; there is no internal retry beyond the client's
// single reconnect.
func (q *RegistrationQueue[T]) Push(ctx context.Context, record T) (int64, error) {
	return q.client.Push(ctx, q.name, record)
}

// Length is used by health checks.
func (q *RegistrationQueue[T]) Length(ctx context.Context) (int64, error) {
	return q.client.Length(ctx, q.name)
}

// PollAndPop removes and returns one record without blocking. It never
// returns an error: an empty queue, a lost race with another consumer, an
// unparsable entry and a store failure all yield ok=false so it can be
// called in a loop. Unparsable entries are moved verbatim to the malformed
// list, never handed out and never dropped.
func (q *RegistrationQueue[T]) PollAndPop(ctx context.Context) (T, bool) {
	var zero T

	n, err := q.client.Length(ctx, q.name)
	if err != nil {
		q.logger.Error("poll: length failed", zap.Error(err))
		return zero, false
	}
	if n == 0 {
		return zero, false
	}

	raw, ok, err := q.client.Pop(ctx, q.name)
	if err != nil {
		q.logger.Error("poll: pop failed", zap.Error(err))
		return zero, false
	}
	if !ok {
		// Another consumer emptied the queue between LLEN and LPOP.
		return zero, false
	}

	var record T
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		q.logger.Warn("poll: malformed entry relocated",
			zap.String("malformed_queue", q.malformed),
			zap.Int("size", len(raw)),
			zap.Error(err),
		)
		if _, pushErr := q.client.PushRaw(ctx, q.malformed, raw); pushErr != nil {
			q.logger.Error("poll: failed to relocate malformed entry",
				zap.String("raw", raw), zap.Error(pushErr))
		}
		return zero, false
	}

	return record, true
}

// Peek returns the head record without removing it. Unparsable heads are
// reported as ok=false and left in place.
func (q *RegistrationQueue[T]) Peek(ctx context.Context) (T, bool, error) {
	var zero T

	n, err := q.client.Length(ctx, q.name)
	if err != nil {
		return zero, false, err
	}
	if n == 0 {
		return zero, false, nil
	}

	raw, ok, err := q.client.Peek(ctx, q.name)
	if err != nil || !ok {
		return zero, false, err
	}

	var record T
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		q.logger.Warn("peek: head entry is not valid JSON", zap.Error(err))
		return zero, false, nil
	}
	return record, true, nil
}
