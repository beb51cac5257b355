package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ricirt/grievance-queue/internal/api"
	"github.com/ricirt/grievance-queue/internal/domain"
	"github.com/ricirt/grievance-queue/internal/queue"
	"github.com/ricirt/grievance-queue/internal/repository"
	"github.com/ricirt/grievance-queue/internal/service"
)

type testServer struct {
	s         *miniredis.Miniredis
	processed *queue.ProcessedQueue
	events    *repository.MockAssignmentEventRepository
	handler   http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := miniredis.RunT(t)
	logger := zap.NewNop()

	client := queue.NewClient(func(ctx context.Context) (*redis.Client, error) {
		return redis.NewClient(&redis.Options{Addr: s.Addr()}), nil
	}, logger)
	t.Cleanup(func() { _ = client.Disconnect() })

	complaints := queue.NewComplaintRegistrationQueue(client, logger)
	users := queue.NewUserRegistrationQueue(client, logger)
	processed := queue.NewProcessedQueue(client, logger)
	events := repository.NewMockAssignmentEventRepository()

	h := api.NewRouter(
		service.NewIntakeService(complaints, users, logger, nil),
		service.NewHealthService(complaints, processed),
		processed,
		events,
		prometheus.NewRegistry(),
		logger,
	)
	return &testServer{s: s, processed: processed, events: events, handler: h}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var out map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func TestHealth_OK(t *testing.T) {
	ts := newTestServer(t)
	ts.s.Push(queue.ComplaintRegistrationQueue, "{}", "{}")

	rec, body := ts.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
	queues := body["queues"].(map[string]any)
	complaint := queues[queue.ComplaintRegistrationQueue].(map[string]any)
	if complaint["length"].(float64) != 2 {
		t.Fatalf("expected complaint length 2, got %v", complaint["length"])
	}
}

func TestHealth_StoreDownIs503(t *testing.T) {
	ts := newTestServer(t)
	ts.s.Close()

	rec, body := ts.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body["status"] != "error" {
		t.Fatalf("expected status error, got %v", body["status"])
	}
}

func TestCreateComplaint(t *testing.T) {
	ts := newTestServer(t)

	rec, body := ts.do(t, http.MethodPost, "/api/v1/complaints",
		`{"title":"Pothole","description":"Main road","municipality":"Ranchi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["queue_length"].(float64) != 1 {
		t.Fatalf("expected queue_length 1, got %v", body["queue_length"])
	}
	if rec.Header().Get("X-Correlation-ID") == "" {
		t.Fatal("expected a correlation id header")
	}
	if list, _ := ts.s.List(queue.ComplaintRegistrationQueue); len(list) != 1 {
		t.Fatalf("expected one queued complaint, got %v", list)
	}
}

func TestCreateComplaint_Errors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		storeDown bool
		want      int
	}{
		{name: "bad json", body: `{`, want: http.StatusBadRequest},
		{name: "missing municipality", body: `{"title":"t","description":"d"}`, want: http.StatusUnprocessableEntity},
		{name: "store down", body: `{"title":"t","description":"d","municipality":"Ranchi"}`, storeDown: true, want: http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t)
			if tc.storeDown {
				ts.s.Close()
			}
			rec, _ := ts.do(t, http.MethodPost, "/api/v1/complaints", tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCreateUser(t *testing.T) {
	ts := newTestServer(t)

	rec, _ := ts.do(t, http.MethodPost, "/api/v1/users", `{"name":"Ravi","phone":"+91-99999"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/users", `{"name":"Ravi"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}

func TestProcessedQueueEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	for _, id := range []string{"c1", "c2"} {
		pc := domain.ProcessedComplaint{Version: domain.PayloadV2, ID: id, Municipality: "Ranchi"}
		if _, err := ts.processed.Push(ctx, pc); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	ts.s.Push(queue.ProcessedComplaintQueue, "not json")

	rec, body := ts.do(t, http.MethodGet, "/api/v1/queues/processed", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["total"].(float64) != 2 {
		t.Fatalf("expected 2 decodable entries, got %v", body["total"])
	}

	rec, body = ts.do(t, http.MethodGet, "/api/v1/queues/processed/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["data"].(map[string]any)["id"] != "c2" {
		t.Fatalf("expected c2 at index 1, got %v", body["data"])
	}

	rec, body = ts.do(t, http.MethodGet, "/api/v1/queues/processed/-1", "")
	if rec.Code != http.StatusOK || body["raw"] != "not json" {
		t.Fatalf("expected raw tail entry, got %d %v", rec.Code, body)
	}

	if rec, _ := ts.do(t, http.MethodGet, "/api/v1/queues/processed/9", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if rec, _ := ts.do(t, http.MethodGet, "/api/v1/queues/processed/head", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	if got, _ := ts.s.List(queue.ProcessedComplaintQueue); len(got) != 3 {
		t.Fatalf("diagnostic reads must not remove entries, got %d", len(got))
	}
}

func TestListAssignmentEvents(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	for i, outcome := range []domain.Outcome{domain.OutcomeAssigned, domain.OutcomeFailed, domain.OutcomeAssigned} {
		_ = ts.events.Record(ctx, &domain.AssignmentEvent{
			ID:        string(rune('a' + i)),
			Outcome:   outcome,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		})
	}

	rec, body := ts.do(t, http.MethodGet, "/api/v1/assignments/events?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["total"].(float64) != 2 || body["limit"].(float64) != 2 {
		t.Fatalf("expected 2 events with limit 2, got %v", body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	if rec, _ := ts.do(t, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
