package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/queue"
)

// DepthSampler periodically records every queue's length through set,
// normally metrics.Metrics.SetQueueDepth.
type DepthSampler struct {
	queues   []queue.LengthReporter
	set      func(queue string, n int64)
	interval time.Duration
	logger   *zap.Logger
}

func NewDepthSampler(
	queues []queue.LengthReporter,
	set func(queue string, n int64),
	interval time.Duration,
	logger *zap.Logger,
) *DepthSampler {
	return &DepthSampler{queues: queues, set: set, interval: interval, logger: logger}
}

// Run samples immediately, then every interval until ctx is cancelled.
func (ds *DepthSampler) Run(ctx context.Context) {
	ticker := time.NewTicker(ds.interval)
	defer ticker.Stop()

	ds.SampleOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ds.SampleOnce(ctx)
		}
	}
}

// SampleOnce reads each queue length; unreachable queues are logged and skipped.
func (ds *DepthSampler) SampleOnce(ctx context.Context) {
	for _, q := range ds.queues {
		n, err := q.Length(ctx)
		if err != nil {
			ds.logger.Warn("queue depth sample failed", zap.String("queue", q.Name()), zap.Error(err))
			continue
		}
		ds.set(q.Name(), n)
	}
}
