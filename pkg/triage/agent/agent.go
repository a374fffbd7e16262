package agent

import (
	"context"

	"itsm-triage-be/pkg/llm"
)

// ContactInfo carries the requester details the callback tool needs.
type ContactInfo struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
}

// RunResult is the raw outcome of one agent run. RawText is untrusted
// and must go through the parser; ToolResults records the side effects
// the run actually performed, keyed by tool name.
type RunResult struct {
	RawText     string
	ToolResults map[string]interface{}
}

// ReasoningAgent produces a triage decision for a conversation. No
// contract is enforced on the output format; callers must parse and
// validate everything.
type ReasoningAgent interface {
	Run(ctx context.Context, history []llm.Message, contact ContactInfo) (*RunResult, error)
}
