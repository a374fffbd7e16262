package agent

import (
	"context"
	"log"

	"itsm-triage-be/pkg/ticketing/ivanti"
	"itsm-triage-be/pkg/ticketing/nice"
	"itsm-triage-be/pkg/triage/decision"
)

const (
	ToolCreateIncident = "create_incident"
	ToolCreateCallback = "create_callback"
)

// ToolRunner executes the side-effecting actions a decision proposes.
// Tool failures are embedded in the result payload, never returned as
// errors, so the agent loop can relay them to the model.
type ToolRunner struct {
	ivanti *ivanti.Client
	nice   *nice.Client
	logger *log.Logger
}

func NewToolRunner(ivantiClient *ivanti.Client, niceClient *nice.Client, logger *log.Logger) *ToolRunner {
	return &ToolRunner{
		ivanti: ivantiClient,
		nice:   niceClient,
		logger: logger,
	}
}

// Execute runs the tool matching the decision's proposed action. Returns
// the tool name, its result and whether anything ran. Only incident and
// callback map to tools; every other action is a no-op.
func (t *ToolRunner) Execute(ctx context.Context, d *decision.AgentDecision, contact ContactInfo) (string, interface{}, bool) {
	switch d.ProposedAction {
	case decision.ActionIncident:
		t.logger.Printf("[TOOL] Creating incident: priority=%s category=%s team=%s", d.Priority, d.Category, d.Team)
		result := t.ivanti.CreateIncident(ctx, ivanti.IncidentRequest{
			Subject:   d.Summary,
			Symptom:   d.Summary,
			Impact:    d.Priority,
			Category:  d.Category,
			Service:   d.Category,
			OwnerTeam: d.Team,
		})
		return ToolCreateIncident, result, true

	case decision.ActionCallback:
		t.logger.Printf("[TOOL] Creating callback: priority=%s", d.Priority)
		result := t.nice.CreateCallback(ctx, nice.CallbackRequest{
			PhoneNumber: contact.Phone,
			EmailFrom:   contact.Email,
			FirstName:   contact.FirstName,
			LastName:    contact.LastName,
			Notes:       d.Summary,
		})
		return ToolCreateCallback, result, true

	default:
		return "", nil, false
	}
}
