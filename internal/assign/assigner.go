package assign

import (
	"context"

	"github.com/ricirt/grievance-queue/internal/domain"
)

// AutoAssignPath is the agent-assignment endpoint on the complaint service.
const AutoAssignPath = "/api/agent/complaints/auto-assign"

// AssignRequest is the JSON body posted to the assignment service.
type AssignRequest struct {
	ID           string `json:"id"`
	Municipality string `json:"municipality"`
	Department   string `json:"department"`
}

// Assigner hands a ready complaint to the agent-assignment service.
// A nil error means the service acknowledged the complaint.
type Assigner interface {
	Assign(ctx context.Context, c domain.ProcessedComplaint) error
}
