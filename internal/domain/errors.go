package domain

import "errors"

// Sentinel errors used throughout the pipeline.
// Queue and worker code wraps these with context via fmt.Errorf("...: %w");
// handlers translate them to HTTP status codes via a single mapError function.
var (
	// Queue store
	ErrConnection    = errors.New("queue store unreachable")
	ErrStore         = errors.New("queue store operation failed")
	ErrSerialization = errors.New("payload cannot be encoded as JSON")

	// Queue payloads
	ErrMalformedPayload      = errors.New("payload is not valid JSON")
	ErrUnknownPayloadVersion = errors.New("unknown payload version")
	ErrMissingField          = errors.New("payload is missing a required field")
	ErrMissingID             = errors.New("payload has a municipality but no complaint id")

	// Assignment
	ErrOutOfScope       = errors.New("municipality is not served by this worker")
	ErrAssignmentFailed = errors.New("assignment call failed")

	// Intake validation
	ErrInvalidComplaint = errors.New("complaint requires a title, description and municipality")
	ErrInvalidUser      = errors.New("user requires a name and an email or phone")
)
