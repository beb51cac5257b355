package service

import (
	"context"

	"github.com/ricirt/grievance-queue/internal/queue"
)

// Overall queue-store health as reported by Check.
const (
	HealthOK      = "ok"
	HealthPartial = "partial"
	HealthError   = "error"
)

// QueueHealth is one queue's entry in a HealthReport.
type QueueHealth struct {
	Length int64  `json:"length"`
	Error  string `json:"error,omitempty"`
}

// HealthReport aggregates per-queue length checks.
type HealthReport struct {
	Status string                 `json:"status"`
	Queues map[string]QueueHealth `json:"queues"`
}

// HealthService checks every registered queue independently so that one
// failing queue does not hide the lengths of the others.
type HealthService struct {
	queues []queue.LengthReporter
}

func NewHealthService(queues ...queue.LengthReporter) *HealthService {
	return &HealthService{queues: queues}
}

// Check returns ok when every queue answers, partial when only some do and
// error when none do (or none are registered).
func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{Queues: make(map[string]QueueHealth, len(s.queues))}

	failed := 0
	for _, q := range s.queues {
		n, err := q.Length(ctx)
		if err != nil {
			failed++
			report.Queues[q.Name()] = QueueHealth{Error: err.Error()}
			continue
		}
		report.Queues[q.Name()] = QueueHealth{Length: n}
	}

	switch {
	case len(s.queues) == 0 || failed == len(s.queues):
		report.Status = HealthError
	case failed > 0:
		report.Status = HealthPartial
	default:
		report.Status = HealthOK
	}
	return report
}
