package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/domain"
	"github.com/ricirt/grievance-queue/internal/queue"
)

// IntakeService is the producer side of the pipeline: it stamps new
// complaints and users and appends them to their registration queues.
// Store errors are returned, never swallowed, so the HTTP layer can fail
// the request.
type IntakeService struct {
	complaints *queue.RegistrationQueue[domain.Complaint]
	users      *queue.RegistrationQueue[domain.User]
	logger     *zap.Logger
	onEnqueued func(queue string)
}

func NewIntakeService(
	complaints *queue.RegistrationQueue[domain.Complaint],
	users *queue.RegistrationQueue[domain.User],
	logger *zap.Logger,
	onEnqueued func(queue string),
) *IntakeService {
	if onEnqueued == nil {
		onEnqueued = func(string) {}
	}
	return &IntakeService{complaints: complaints, users: users, logger: logger, onEnqueued: onEnqueued}
}

// SubmitComplaint validates c, assigns an id and timestamp when missing and
// enqueues it. The returned length is the registration queue depth.
func (s *IntakeService) SubmitComplaint(ctx context.Context, c domain.Complaint) (*domain.Complaint, int64, error) {
	if err := c.Validate(); err != nil {
		return nil, 0, err
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	n, err := s.complaints.Push(ctx, c)
	if err != nil {
		return nil, 0, fmt.Errorf("enqueue complaint: %w", err)
	}

	s.onEnqueued(s.complaints.Name())
	s.logger.Info("complaint enqueued",
		zap.String("complaint_id", c.ID),
		zap.String("municipality", c.Municipality),
		zap.Int64("queue_length", n),
	)
	return &c, n, nil
}

// RegisterUser validates u, assigns an id and timestamp when missing and enqueues it.
func (s *IntakeService) RegisterUser(ctx context.Context, u domain.User) (*domain.User, int64, error) {
	if err := u.Validate(); err != nil {
		return nil, 0, err
	}
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	n, err := s.users.Push(ctx, u)
	if err != nil {
		return nil, 0, fmt.Errorf("enqueue user: %w", err)
	}

	s.onEnqueued(s.users.Name())
	s.logger.Info("user enqueued", zap.String("user_id", u.ID), zap.Int64("queue_length", n))
	return &u, n, nil
}
