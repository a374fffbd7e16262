package decision

import (
	"encoding/json"
	"strings"
)

// Parser recovers an AgentDecision from untrusted agent text. It never
// fails: when no JSON can be extracted it synthesizes a fallback decision
// that carries the raw text as the user-facing summary.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse attempts, in order: the whole text as JSON, then the first fenced
// code block, then the fallback. First success wins. Calling Parse twice
// on the same text yields identical results.
func (p *Parser) Parse(raw string) (*AgentDecision, Outcome) {
	trimmed := strings.TrimSpace(raw)

	if d, ok := tryUnmarshal(trimmed); ok {
		return d, ParsedOk
	}

	if inner, ok := extractFencedBlock(trimmed); ok {
		if d, ok := tryUnmarshal(inner); ok {
			return d, ParsedOk
		}
	}

	return p.fallback(raw), ParsedFallback
}

func (p *Parser) fallback(raw string) *AgentDecision {
	return &AgentDecision{
		Priority:     Unknown,
		Category:     Unknown,
		Team:         Unknown,
		Summary:      raw,
		KbUsed:       false,
		KbSufficient: false,
		Actions:      []string{},
		ToolResults:  map[string]interface{}{},
		Final:        true,
	}
}

func tryUnmarshal(text string) (*AgentDecision, bool) {
	if !strings.HasPrefix(text, "{") {
		return nil, false
	}
	var d AgentDecision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, false
	}
	if d.Actions == nil {
		d.Actions = []string{}
	}
	if d.ToolResults == nil {
		d.ToolResults = map[string]interface{}{}
	}
	return &d, true
}

// extractFencedBlock returns the contents of the first triple-backtick
// block, stripping an optional "json" language tag.
func extractFencedBlock(text string) (string, bool) {
	start := strings.Index(text, "```")
	if start == -1 {
		return "", false
	}
	rest := text[start+3:]
	end := strings.Index(rest, "```")
	if end == -1 {
		return "", false
	}
	inner := rest[:end]
	inner = strings.TrimPrefix(strings.TrimSpace(inner), "json")
	return strings.TrimSpace(inner), true
}
