package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/domain"
	"github.com/ricirt/grievance-queue/internal/queue"
)

// PromoteWorker moves complaints from the registration queue to the
// processed queue. It drains up to batch complaints per tick with the
// non-blocking PollAndPop, so unparsable registrations end up on the
// registration queue's malformed list, not here.
//
// Complaints that fail validation are parked on the rejected list.
// Pop and push are separate store calls; a crash between them loses that
// one complaint, which is logged with its full payload on push failure.
type PromoteWorker struct {
	client        *queue.Client
	registrations *queue.RegistrationQueue[domain.Complaint]
	processed     *queue.ProcessedQueue
	interval      time.Duration
	batch         int
	logger        *zap.Logger
	onPromoted    func()
}

func NewPromoteWorker(
	client *queue.Client,
	registrations *queue.RegistrationQueue[domain.Complaint],
	processed *queue.ProcessedQueue,
	interval time.Duration,
	batch int,
	logger *zap.Logger,
	onPromoted func(),
) *PromoteWorker {
	if onPromoted == nil {
		onPromoted = func() {}
	}
	if batch <= 0 {
		batch = 1
	}
	return &PromoteWorker{
		client: client, registrations: registrations, processed: processed,
		interval: interval, batch: batch, logger: logger, onPromoted: onPromoted,
	}
}

// Run ticks every interval and promotes any waiting complaints.
// Stops cleanly when ctx is cancelled.
func (pw *PromoteWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	pw.logger.Info("promote worker started",
		zap.Duration("interval", pw.interval), zap.Int("batch", pw.batch))

	for {
		select {
		case <-ctx.Done():
			pw.logger.Info("promote worker stopping")
			return
		case <-ticker.C:
			if n := pw.PromoteOnce(ctx); n > 0 {
				pw.logger.Info("promoted complaints", zap.Int("count", n))
			}
		}
	}
}

// PromoteOnce drains up to one batch and returns how many complaints reached
// the processed queue.
func (pw *PromoteWorker) PromoteOnce(ctx context.Context) int {
	promoted := 0
	for i := 0; i < pw.batch; i++ {
		c, ok := pw.registrations.PollAndPop(ctx)
		if !ok {
			break
		}

		log := pw.logger.With(zap.String("complaint_id", c.ID))

		if err := c.Validate(); err != nil {
			log.Warn("rejecting invalid complaint",
				zap.String("rejected_queue", queue.RegistrationRejectedQueue), zap.Error(err))
			if _, err := pw.client.Push(ctx, queue.RegistrationRejectedQueue, c); err != nil {
				log.Error("failed to park rejected complaint", zap.Any("complaint", c), zap.Error(err))
			}
			continue
		}

		if _, err := pw.processed.Push(ctx, domain.NewProcessedComplaint(c)); err != nil {
			log.Error("failed to push complaint to processed queue, re-registering", zap.Error(err))
			if _, err := pw.registrations.Push(ctx, c); err != nil {
				log.Error("failed to re-register complaint", zap.Any("complaint", c), zap.Error(err))
			}
			break
		}

		promoted++
		pw.onPromoted()
	}
	return promoted
}
