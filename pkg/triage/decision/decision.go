package decision

// AgentDecision is the structured verdict extracted from the reasoning
// agent's raw output. Fields default to zero values when the model omits
// them; the invariant pass may overwrite any of them afterwards.
type AgentDecision struct {
	Priority       string                 `json:"priority"`
	Category       string                 `json:"category"`
	Team           string                 `json:"team"`
	Summary        string                 `json:"summary"`
	KbUsed         bool                   `json:"kb_used"`
	KbSufficient   bool                   `json:"kb_sufficient"`
	Urgency        string                 `json:"urgency"`
	ProposedAction string                 `json:"proposed_action"`
	Actions        []string               `json:"actions"`
	ToolResults    map[string]interface{} `json:"tool_results"`
	Final          bool                   `json:"final"`
}

// Outcome tags how the decision was obtained.
type Outcome int

const (
	// ParsedOk means a JSON object was recovered from the agent output.
	ParsedOk Outcome = iota
	// ParsedFallback means no JSON could be recovered and the decision
	// is a synthesized placeholder carrying the raw text as summary.
	ParsedFallback
)

const (
	UrgencyUrgent    = "urgent"
	UrgencyNonUrgent = "non_urgent"
	UrgencyAmbiguous = "ambiguous"

	ActionCallback = "callback"
	ActionIncident = "incident"
	ActionAskUser  = "ask_user"
	ActionKbAnswer = "kb_answer"

	// Unknown marks classification fields the system could not determine.
	Unknown = "Unknown"
)
