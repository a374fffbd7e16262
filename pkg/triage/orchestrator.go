package triage

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"itsm-triage-be/pkg/kb"
	"itsm-triage-be/pkg/llm"
	"itsm-triage-be/pkg/triage/agent"
	"itsm-triage-be/pkg/triage/decision"
	"itsm-triage-be/pkg/triage/history"
	"itsm-triage-be/pkg/triage/invariant"
	"itsm-triage-be/pkg/triage/kbcontext"
	"itsm-triage-be/pkg/triage/prompt"
	"itsm-triage-be/pkg/triage/state"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TurnRequest is one user turn entering the pipeline. SearchQuery, when
// set, is what the KB pre-search embeds instead of the full turn text;
// structured ticket turns use it to search on subject and description
// without the contact boilerplate.
type TurnRequest struct {
	ConversationId string
	Text           string
	SearchQuery    string
	Image          []byte
	Contact        agent.ContactInfo
}

// TicketRequest is a structured ITSM ticket submitted for triage in one
// shot, as opposed to a free-form chat turn.
type TicketRequest struct {
	ConversationId    string
	Subject           string
	Description       string
	UserEmail         string
	PhoneNumber       string
	FirstName         string
	LastName          string
	AdditionalContext string
	Image             []byte
}

// TriageResult is the orchestrator's output contract: the enforced
// decision plus the ground-truth KB bookkeeping for this turn. Built
// fresh per turn and never mutated afterwards.
type TriageResult struct {
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

	KbHitsCount int               `json:"kb_hits_count"`
	KbResults   []kb.KnowledgeHit `json:"kb_results"`
	Timestamp   time.Time         `json:"timestamp"`
	Status      string            `json:"status"`
	UserMessage string            `json:"user_message"`
}

// Orchestrator composes the per-turn pipeline: follow-up detection, KB
// pre-search, agent run, parse, invariant enforcement, persistence.
// Turns for the same conversation are serialized; different conversations
// proceed concurrently.
type Orchestrator struct {
	histories    history.Store
	stateMachine *state.Machine
	searcher     kb.Searcher
	reasoner     agent.ReasoningAgent
	parser       *decision.Parser
	enforcer     *invariant.Enforcer
	builder      *kbcontext.Builder
	topK         int
	logger       *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOrchestrator(
	histories history.Store,
	stateMachine *state.Machine,
	searcher kb.Searcher,
	reasoner agent.ReasoningAgent,
	topK int,
	logger *log.Logger,
) *Orchestrator {
	if topK <= 0 {
		topK = 5
	}
	return &Orchestrator{
		histories:    histories,
		stateMachine: stateMachine,
		searcher:     searcher,
		reasoner:     reasoner,
		parser:       decision.NewParser(),
		enforcer:     invariant.NewEnforcer(logger),
		builder:      kbcontext.NewBuilder(),
		topK:         topK,
		logger:       logger,
		locks:        map[string]*sync.Mutex{},
	}
}

// ProcessTurn runs one conversation turn end to end. It never returns an
// error: every backend failure degrades into a well-formed failed result
// so the caller always has natural-language text to show the user.
func (o *Orchestrator) ProcessTurn(ctx context.Context, req TurnRequest) *TriageResult {
	lock := o.lockFor(req.ConversationId)
	lock.Lock()
	defer lock.Unlock()

	messages, err := o.histories.Load(ctx, req.ConversationId)
	if err != nil {
		o.logger.Printf("[ERROR] History load failed for %s, continuing with empty history: %v", req.ConversationId, err)
		messages = nil
	}

	isFollowup := o.stateMachine.IsFollowupReply(ctx, req.ConversationId, req.Text, messages)

	var kbResult *kb.QueryResult
	turnContent := req.Text
	if isFollowup {
		// No search on follow-up turns; hit count stays zero for bookkeeping.
		kbResult = kb.Miss()
		turnContent = req.Text + "\n\n" + followupNote(req.Text)
		o.logger.Printf("[PHASE] Follow-up turn for %s, skipping KB search", req.ConversationId)
	} else {
		query := req.SearchQuery
		if query == "" {
			query = req.Text
		}
		kbResult = o.searcher.Search(ctx, query, o.topK, req.Image)
		turnContent = req.Text
		if len(req.Image) > 0 {
			turnContent += "\n[User attached an image that has been embedded for visual search]"
		}
		turnContent += "\n\n" + o.builder.Build(kbResult)
		o.logger.Printf("[PHASE] KB search for %s returned %d hit(s)", req.ConversationId, kbResult.HitCount)
	}

	agentHistory := toAgentHistory(messages)
	agentHistory = append(agentHistory, llm.Message{Role: "user", Content: turnContent})

	runResult, err := o.reasoner.Run(ctx, agentHistory, req.Contact)
	if err != nil {
		o.logger.Printf("[ERROR] Agent run failed for %s: %v", req.ConversationId, err)
		result := o.degradedResult(req, kbResult)
		o.persistTurn(ctx, req.ConversationId, req.Text, result.Summary)
		return result
	}

	d, outcome := o.parser.Parse(runResult.RawText)
	if outcome == decision.ParsedFallback {
		o.logger.Printf("[PHASE] Agent output for %s had no JSON, using fallback decision", req.ConversationId)
	}
	if len(d.ToolResults) == 0 && len(runResult.ToolResults) > 0 {
		d.ToolResults = runResult.ToolResults
	}

	nextState := o.enforcer.Enforce(d, kbResult, isFollowup)
	if nextState != invariant.StateUnchanged {
		o.stateMachine.Transition(ctx, req.ConversationId, nextState)
	}

	o.persistTurn(ctx, req.ConversationId, req.Text, d.Summary)

	return o.buildResult(req, d, kbResult, StatusCompleted)
}

// ProcessTicket runs a structured ticket through the same pipeline as a
// chat turn. The ticket fields are rendered into the user message; the
// KB pre-search embeds only the subject and description.
func (o *Orchestrator) ProcessTicket(ctx context.Context, req TicketRequest) *TriageResult {
	var sb strings.Builder
	sb.WriteString("New ITSM ticket:\n")
	sb.WriteString(fmt.Sprintf("Subject: %s\n", req.Subject))
	sb.WriteString(fmt.Sprintf("Description: %s\n", req.Description))
	sb.WriteString(fmt.Sprintf("Email: %s\n", req.UserEmail))
	sb.WriteString(fmt.Sprintf("Phone: %s\n", req.PhoneNumber))
	sb.WriteString(fmt.Sprintf("Name: %s %s\n", req.FirstName, req.LastName))
	if req.AdditionalContext != "" {
		sb.WriteString(fmt.Sprintf("Additional Context: %s\n", req.AdditionalContext))
	}

	return o.ProcessTurn(ctx, TurnRequest{
		ConversationId: req.ConversationId,
		Text:           sb.String(),
		SearchQuery:    req.Subject + ". " + req.Description,
		Image:          req.Image,
		Contact: agent.ContactInfo{
			Email:     req.UserEmail,
			Phone:     req.PhoneNumber,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		},
	})
}

func (o *Orchestrator) lockFor(conversationId string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.locks[conversationId]
	if !ok {
		lock = &sync.Mutex{}
		o.locks[conversationId] = lock
	}
	return lock
}

func (o *Orchestrator) persistTurn(ctx context.Context, conversationId, userText, assistantText string) {
	if err := o.histories.Append(ctx, conversationId, history.RoleUser, userText); err != nil {
		o.logger.Printf("[ERROR] Persisting user turn failed for %s: %v", conversationId, err)
	}
	if err := o.histories.Append(ctx, conversationId, history.RoleAssistant, assistantText); err != nil {
		o.logger.Printf("[ERROR] Persisting assistant turn failed for %s: %v", conversationId, err)
	}
}

func (o *Orchestrator) buildResult(req TurnRequest, d *decision.AgentDecision, kbResult *kb.QueryResult, status string) *TriageResult {
	return &TriageResult{
		Priority:       d.Priority,
		Category:       d.Category,
		Team:           d.Team,
		Summary:        d.Summary,
		KbUsed:         d.KbUsed,
		KbSufficient:   d.KbSufficient,
		Urgency:        d.Urgency,
		ProposedAction: d.ProposedAction,
		Actions:        d.Actions,
		ToolResults:    d.ToolResults,
		Final:          d.Final,
		KbHitsCount:    kbResult.HitCount,
		KbResults:      kbResult.Hits,
		Timestamp:      time.Now(),
		Status:         status,
		UserMessage:    req.Text,
	}
}

func (o *Orchestrator) degradedResult(req TurnRequest, kbResult *kb.QueryResult) *TriageResult {
	d := &decision.AgentDecision{
		Priority:     decision.Unknown,
		Category:     decision.Unknown,
		Team:         decision.Unknown,
		Summary:      prompt.DegradedSummary,
		KbUsed:       false,
		KbSufficient: false,
		Actions:      []string{},
		ToolResults:  map[string]interface{}{},
		Final:        true,
	}
	return o.buildResult(req, d, kbResult, StatusFailed)
}

func toAgentHistory(messages []history.Message) []llm.Message {
	out := make([]llm.Message, 0, len(messages)+1)
	for _, m := range messages {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

func followupNote(input string) string {
	switch state.ChosenOption(input) {
	case 1:
		return "The user chose option 1: create an incident. Set proposed_action=\"incident\" and proceed."
	case 2:
		return "The user chose option 2: request a callback. Set proposed_action=\"callback\" and proceed."
	default:
		return ""
	}
}
