package invariant

import (
	"log"
	"strings"

	"itsm-triage-be/pkg/kb"
	"itsm-triage-be/pkg/store"
	"itsm-triage-be/pkg/triage/decision"
	"itsm-triage-be/pkg/triage/prompt"
)

// StateUnchanged is returned when no rule demands a transition; the
// caller must leave the conversation in whatever state it already holds.
const StateUnchanged = ""

// Enforcer applies the non-negotiable rules to a parsed agent decision.
// It is pure policy over already-parsed data: it mutates the decision in
// place and returns the conversation state the turn must end in. It never
// fails.
type Enforcer struct {
	logger *log.Logger
}

func NewEnforcer(logger *log.Logger) *Enforcer {
	return &Enforcer{
		logger: logger,
	}
}

// Enforce applies the rules in order.
//
// Rule 1: the agent must never claim a KB match that did not occur. When
// the ground-truth hit count is zero, kb_used and kb_sufficient are
// forced false. Skipped on follow-up turns, where no search ran.
//
// Rule 2: no side effects under ambiguity. When urgency is ambiguous or
// the agent proposes ask_user, any tool results are discarded, the
// summary is replaced with the fixed two-option prompt and the
// conversation moves to WAITING_FOR_CHOICE.
//
// The returned state is RESOLVED when the decision is final,
// WAITING_FOR_CHOICE when the surviving summary still carries the
// two-option prompt, and StateUnchanged otherwise: an intermediate turn
// must not disturb the state a previous turn established.
func (e *Enforcer) Enforce(d *decision.AgentDecision, kbResult *kb.QueryResult, isFollowup bool) string {
	if !isFollowup {
		e.enforceTruthfulKbClaim(d, kbResult)
	}

	if e.isAmbiguous(d) {
		return e.enforceNoSideEffects(d)
	}

	if d.Final {
		return store.StateResolved
	}
	if e.summaryIsChoicePrompt(d.Summary) {
		return store.StateWaitingForChoice
	}
	return StateUnchanged
}

func (e *Enforcer) enforceTruthfulKbClaim(d *decision.AgentDecision, kbResult *kb.QueryResult) {
	hitCount := 0
	if kbResult != nil {
		hitCount = kbResult.HitCount
	}
	if hitCount > 0 {
		return
	}
	if d.KbUsed || d.KbSufficient {
		e.logger.Printf("[INVARIANT] Overriding KB claim: agent asserted kb_used=%v kb_sufficient=%v with zero hits", d.KbUsed, d.KbSufficient)
	}
	d.KbUsed = false
	d.KbSufficient = false
}

func (e *Enforcer) isAmbiguous(d *decision.AgentDecision) bool {
	return d.Urgency == decision.UrgencyAmbiguous || d.ProposedAction == decision.ActionAskUser
}

func (e *Enforcer) enforceNoSideEffects(d *decision.AgentDecision) string {
	if len(d.ToolResults) > 0 {
		e.logger.Printf("[INVARIANT] Discarding %d tool result(s) produced under ambiguous intent", len(d.ToolResults))
	}
	d.ToolResults = map[string]interface{}{}
	d.Summary = prompt.AskUserPrompt
	d.Final = false
	return store.StateWaitingForChoice
}

func (e *Enforcer) summaryIsChoicePrompt(summary string) bool {
	for _, fingerprint := range prompt.ChoicePromptFingerprints {
		if strings.Contains(summary, fingerprint) {
			return true
		}
	}
	return false
}
