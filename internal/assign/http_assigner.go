package assign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ricirt/grievance-queue/internal/domain"
)

// HTTPAssigner calls the auto-assign endpoint over HTTP.
// The base URL is injected from config so tests can point to httptest.
type HTTPAssigner struct {
	endpoint   string
	httpClient *http.Client
}

func NewHTTPAssigner(baseURL string, timeout time.Duration) *HTTPAssigner {
	return &HTTPAssigner{
		endpoint: strings.TrimRight(baseURL, "/") + AutoAssignPath,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Assign posts the complaint and treats any 2xx as success. Every other
// status, transport error and timeout wraps domain.ErrAssignmentFailed.
func (a *HTTPAssigner) Assign(ctx context.Context, c domain.ProcessedComplaint) error {
	body, err := json.Marshal(AssignRequest{
		ID:           c.ID,
		Municipality: c.Municipality,
		Department:   c.Department,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send request: %v", domain.ErrAssignmentFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: unexpected status %d", domain.ErrAssignmentFailed, resp.StatusCode)
	}
	return nil
}

// compile-time check that HTTPAssigner implements Assigner
var _ Assigner = (*HTTPAssigner)(nil)
