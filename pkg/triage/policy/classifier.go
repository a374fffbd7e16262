package policy

import (
	"fmt"
	"strings"
)

// DefaultAutoEscalateThreshold is the minimum priority confidence needed
// to auto-create a callback. Below this the gate always asks the user.
const DefaultAutoEscalateThreshold = 0.75

const (
	GateAutoEscalate = "AUTO_ESCALATE"
	GateAskUser      = "ASK_USER"
)

// ClassificationResult is the deterministic triage verdict for a ticket.
type ClassificationResult struct {
	Priority     string `json:"priority"`
	Category     string `json:"category"`
	Team         string `json:"team"`
	UrgencyLevel string `json:"urgency_level"`

	// Confidence scores (0.0 - 1.0)
	PriorityConfidence float64 `json:"priority_confidence"`
	CategoryConfidence float64 `json:"category_confidence"`
	OverallConfidence  float64 `json:"overall_confidence"`

	AutoEscalate   bool   `json:"auto_escalate"`
	EscalationGate string `json:"escalation_gate"`
}

// Keyword sets encode the ITSM policy document. Order matters on ties:
// higher priorities and earlier categories win.
var p1Keywords = []string{
	"down", "outage", "complete", "critical", "production", "all users",
	"system failure", "cannot work", "urgent", "emergency", "asap",
	"broken", "crashed", "not working at all", "entire", "whole",
}

var p2Keywords = []string{
	"intermittent", "slow", "degraded", "partial", "multiple users",
	"important", "high priority", "affecting team", "major",
	"can't connect", "cannot access", "blocked",
}

var p3Keywords = []string{
	"single user", "individual", "minor", "one person", "my",
	"password reset", "access request", "help with",
}

var p4Keywords = []string{
	"request", "enhancement", "feature", "cosmetic", "question",
	"inquiry", "information", "how to", "documentation",
}

var hardwareKeywords = []string{
	"laptop", "desktop", "computer", "workstation", "server",
	"printer", "monitor", "keyboard", "mouse", "hardware",
	"physical", "device", "equipment",
}

var softwareKeywords = []string{
	"application", "app", "software", "program", "install",
	"license", "error message", "crash", "bug", "update",
	"excel", "word", "outlook", "browser", "chrome",
}

var networkKeywords = []string{
	"vpn", "network", "connectivity", "connection", "internet",
	"wifi", "wireless", "firewall", "dns", "bandwidth",
	"slow connection", "cannot connect", "timeout",
}

var securityKeywords = []string{
	"login", "password", "account", "access", "permission",
	"locked out", "cannot login", "security", "unauthorized",
	"mfa", "2fa", "authentication", "credentials",
}

var teamMap = map[string]string{
	"Hardware":        "Infrastructure Team",
	"Software":        "Backend Team",
	"Network":         "Infrastructure Team",
	"Access/Security": "Security Team",
}

// Classifier scores ticket text against the policy keyword sets. It is a
// total function: unmatched text yields a defined low-confidence default
// (P3/Software at 0.3), never an error.
type Classifier struct {
	autoEscalateThreshold float64
}

func NewClassifier(autoEscalateThreshold float64) *Classifier {
	if autoEscalateThreshold <= 0 {
		autoEscalateThreshold = DefaultAutoEscalateThreshold
	}
	return &Classifier{
		autoEscalateThreshold: autoEscalateThreshold,
	}
}

// Classify scores subject and description and computes the escalation
// gate. Auto-escalation requires priority P1/P2 AND priority confidence
// at or above the threshold; everything else defers to asking the user.
func (c *Classifier) Classify(subject, description string) ClassificationResult {
	text := strings.ToLower(fmt.Sprintf("%s %s", subject, description))

	priority, urgency, priorityConfidence := classifyPriority(text)
	category, categoryConfidence := classifyCategory(text)

	team, ok := teamMap[category]
	if !ok {
		team = "Backend Team"
	}

	autoEscalate := c.shouldAutoEscalate(priority, priorityConfidence)
	gate := GateAskUser
	if autoEscalate {
		gate = GateAutoEscalate
	}

	return ClassificationResult{
		Priority:           priority,
		Category:           category,
		Team:               team,
		UrgencyLevel:       urgency,
		PriorityConfidence: priorityConfidence,
		CategoryConfidence: categoryConfidence,
		OverallConfidence:  (priorityConfidence + categoryConfidence) / 2.0,
		AutoEscalate:       autoEscalate,
		EscalationGate:     gate,
	}
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}

func classifyPriority(text string) (string, string, float64) {
	buckets := []struct {
		priority string
		urgency  string
		score    int
	}{
		{"P1", "critical", countMatches(text, p1Keywords)},
		{"P2", "high", countMatches(text, p2Keywords)},
		{"P3", "medium", countMatches(text, p3Keywords)},
		{"P4", "low", countMatches(text, p4Keywords)},
	}

	best := buckets[0]
	total := 0
	for _, b := range buckets {
		total += b.score
		if b.score > best.score {
			best = b
		}
	}

	if total == 0 {
		return "P3", "medium", 0.3
	}

	confidence := float64(best.score) / float64(total)

	// Multiple strong P1 indicators boost confidence.
	if buckets[0].score >= 2 {
		confidence = confidence + 0.2
		if confidence > 1.0 {
			confidence = 1.0
		}
	}

	return best.priority, best.urgency, confidence
}

func classifyCategory(text string) (string, float64) {
	buckets := []struct {
		category string
		score    int
	}{
		{"Hardware", countMatches(text, hardwareKeywords)},
		{"Software", countMatches(text, softwareKeywords)},
		{"Network", countMatches(text, networkKeywords)},
		{"Access/Security", countMatches(text, securityKeywords)},
	}

	best := buckets[0]
	total := 0
	for _, b := range buckets {
		total += b.score
		if b.score > best.score {
			best = b
		}
	}

	if total == 0 {
		return "Software", 0.3
	}

	return best.category, float64(best.score) / float64(total)
}

func (c *Classifier) shouldAutoEscalate(priority string, priorityConfidence float64) bool {
	if priority != "P1" && priority != "P2" {
		return false
	}
	return priorityConfidence >= c.autoEscalateThreshold
}
