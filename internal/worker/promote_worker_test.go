package worker_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/domain"
	"github.com/ricirt/grievance-queue/internal/queue"
	"github.com/ricirt/grievance-queue/internal/worker"
)

func TestPromoteWorker_PromoteOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	regs := queue.NewComplaintRegistrationQueue(f.client, zap.NewNop())

	promotedHook := 0
	pw := worker.NewPromoteWorker(f.client, regs, f.q, time.Second, 10, zap.NewNop(), func() { promotedHook++ })

	_, _ = regs.Push(ctx, domain.Complaint{ID: "c-1", Title: "Water", Description: "No supply", Municipality: "Ranchi", Department: "water"})
	_, _ = regs.Push(ctx, domain.Complaint{ID: "c-bad", Title: "", Description: "No title"})
	f.s.Push(regs.Name(), "garbage")
	_, _ = regs.Push(ctx, domain.Complaint{ID: "c-2", Title: "Road", Description: "Pothole", Municipality: "Dhanbad"})

	if n := pw.PromoteOnce(ctx); n != 2 {
		t.Fatalf("expected 2 promoted, got %d", n)
	}
	if promotedHook != 2 {
		t.Fatalf("expected hook called twice, got %d", promotedHook)
	}

	all, err := f.q.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 2 || all[0].ID != "c-1" || all[1].ID != "c-2" {
		t.Fatalf("unexpected processed contents: %+v", all)
	}
	if all[0].Version != domain.PayloadV2 || all[0].Municipality != "Ranchi" || all[0].Department != "water" {
		t.Fatalf("unexpected processed payload: %+v", all[0])
	}

	rejected, _ := f.s.List(queue.RegistrationRejectedQueue)
	if len(rejected) != 1 {
		t.Fatalf("expected one rejected complaint, got %v", rejected)
	}
	malformed, _ := f.s.List(regs.MalformedName())
	if len(malformed) != 1 || malformed[0] != "garbage" {
		t.Fatalf("expected garbage on the malformed list, got %v", malformed)
	}
	if n, _ := regs.Length(ctx); n != 0 {
		t.Fatalf("expected registration queue drained, got %d", n)
	}
}

func TestPromoteWorker_RespectsBatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	regs := queue.NewComplaintRegistrationQueue(f.client, zap.NewNop())
	pw := worker.NewPromoteWorker(f.client, regs, f.q, time.Second, 2, zap.NewNop(), nil)

	for _, id := range []string{"a", "b", "c"} {
		_, _ = regs.Push(ctx, domain.Complaint{ID: id, Title: "t", Description: "d", Municipality: "Bokaro"})
	}

	if n := pw.PromoteOnce(ctx); n != 2 {
		t.Fatalf("expected 2 promoted in the first batch, got %d", n)
	}
	if n, _ := regs.Length(ctx); n != 1 {
		t.Fatalf("expected 1 left, got %d", n)
	}
	if n := pw.PromoteOnce(ctx); n != 1 {
		t.Fatalf("expected 1 promoted in the second batch, got %d", n)
	}
}

func TestPromoteWorker_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	regs := queue.NewComplaintRegistrationQueue(f.client, zap.NewNop())
	pw := worker.NewPromoteWorker(f.client, regs, f.q, 5*time.Millisecond, 10, zap.NewNop(), nil)

	_, _ = regs.Push(context.Background(), domain.Complaint{ID: "c-1", Title: "t", Description: "d", Municipality: "Ranchi"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pw.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		n, _ := f.q.Length(context.Background())
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("complaint was never promoted")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("promote worker did not stop")
	}
}

func TestDepthSampler_SampleOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	regs := queue.NewComplaintRegistrationQueue(f.client, zap.NewNop())

	_, _ = regs.Push(ctx, domain.Complaint{ID: "a"})
	f.push(t, "p-1", "Ranchi")
	f.push(t, "p-2", "Ranchi")

	got := map[string]int64{}
	ds := worker.NewDepthSampler(
		[]queue.LengthReporter{regs, f.q, f.client.List(queue.AssignmentMalformedQueue)},
		func(name string, n int64) { got[name] = n },
		time.Minute,
		zap.NewNop(),
	)
	ds.SampleOnce(ctx)

	if got[queue.ComplaintRegistrationQueue] != 1 || got[queue.ProcessedComplaintQueue] != 2 {
		t.Fatalf("unexpected samples: %v", got)
	}
	if n, ok := got[queue.AssignmentMalformedQueue]; !ok || n != 0 {
		t.Fatalf("expected empty malformed list sampled as 0, got %v", got)
	}
}
