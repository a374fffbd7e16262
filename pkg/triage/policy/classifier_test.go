package policy

import (
	"testing"
)

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name         string
		subject      string
		description  string
		wantPriority string
		wantUrgency  string
	}{
		{
			name:         "production outage is P1",
			subject:      "Production outage",
			description:  "The entire system is down, all users affected",
			wantPriority: "P1",
			wantUrgency:  "critical",
		},
		{
			name:         "degraded service is P2",
			subject:      "Intermittent slowness",
			description:  "The app is slow and degraded for multiple users",
			wantPriority: "P2",
			wantUrgency:  "high",
		},
		{
			name:         "password reset is P3",
			subject:      "Password reset",
			description:  "Single user needs help with password reset",
			wantPriority: "P3",
			wantUrgency:  "medium",
		},
		{
			name:         "feature question is P4",
			subject:      "Feature request",
			description:  "Question about documentation, how to export reports",
			wantPriority: "P4",
			wantUrgency:  "low",
		},
		{
			name:         "no keywords defaults to P3",
			subject:      "hello",
			description:  "xyzzy",
			wantPriority: "P3",
			wantUrgency:  "medium",
		},
	}

	c := NewClassifier(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.subject, tt.description)

			if got.Priority != tt.wantPriority {
				t.Errorf("Priority = %q, want %q", got.Priority, tt.wantPriority)
			}
			if got.UrgencyLevel != tt.wantUrgency {
				t.Errorf("UrgencyLevel = %q, want %q", got.UrgencyLevel, tt.wantUrgency)
			}
		})
	}
}

func TestClassifyDefaultConfidence(t *testing.T) {
	c := NewClassifier(0)
	got := c.Classify("hello", "xyzzy")

	if got.PriorityConfidence != 0.3 {
		t.Errorf("PriorityConfidence = %v, want 0.3", got.PriorityConfidence)
	}
	if got.CategoryConfidence != 0.3 {
		t.Errorf("CategoryConfidence = %v, want 0.3", got.CategoryConfidence)
	}
	if got.Category != "Software" {
		t.Errorf("Category = %q, want default Software", got.Category)
	}
}

func TestClassifyP1Boost(t *testing.T) {
	c := NewClassifier(0)

	// Two P1 keywords ("outage", "down") and one P3 keyword ("my").
	boosted := c.Classify("Network outage", "my connection to the datacenter is down")
	if boosted.Priority != "P1" {
		t.Fatalf("Priority = %q, want P1", boosted.Priority)
	}

	// Base ratio is 2/3; boost adds 0.2.
	base := 2.0 / 3.0
	if boosted.PriorityConfidence < base+0.2-1e-9 {
		t.Errorf("PriorityConfidence = %v, want >= %v", boosted.PriorityConfidence, base+0.2)
	}
	if boosted.PriorityConfidence > 1.0 {
		t.Errorf("PriorityConfidence = %v, must be capped at 1.0", boosted.PriorityConfidence)
	}
}

func TestClassifyBoostIsCapped(t *testing.T) {
	c := NewClassifier(0)

	// Only P1 keywords: ratio 1.0, boost applies, cap holds.
	got := c.Classify("Complete outage", "production down, emergency, all users cannot work")
	if got.PriorityConfidence != 1.0 {
		t.Errorf("PriorityConfidence = %v, want exactly 1.0", got.PriorityConfidence)
	}
}

func TestClassifyCategoryAndTeam(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantCategory string
		wantTeam     string
	}{
		{"hardware", "my laptop screen and keyboard are broken hardware", "Hardware", "Infrastructure Team"},
		{"software", "excel and outlook crash with an error message", "Software", "Backend Team"},
		{"network", "vpn connection timeout, wifi and dns failing", "Network", "Infrastructure Team"},
		{"security", "locked out of my account, mfa and credentials rejected", "Access/Security", "Security Team"},
	}

	c := NewClassifier(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify("", tt.text)

			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Team != tt.wantTeam {
				t.Errorf("Team = %q, want %q", got.Team, tt.wantTeam)
			}
		})
	}
}

func TestEscalationGate(t *testing.T) {
	tests := []struct {
		name     string
		subject  string
		desc     string
		wantGate string
	}{
		{
			name:     "high-confidence P1 auto-escalates",
			subject:  "Complete outage",
			desc:     "production down, emergency, all users, system failure",
			wantGate: GateAutoEscalate,
		},
		{
			name:     "P3 never auto-escalates",
			subject:  "Password reset",
			desc:     "single user password reset",
			wantGate: GateAskUser,
		},
		{
			name:     "low-confidence P1 asks the user",
			subject:  "Something broken",
			desc:     "my app crashed, it is slow, quick question",
			wantGate: GateAskUser,
		},
		{
			name:     "unmatched text asks the user",
			subject:  "hello",
			desc:     "xyzzy",
			wantGate: GateAskUser,
		},
	}

	c := NewClassifier(DefaultAutoEscalateThreshold)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.subject, tt.desc)

			if got.EscalationGate != tt.wantGate {
				t.Errorf("EscalationGate = %q (priority=%s conf=%.2f), want %q",
					got.EscalationGate, got.Priority, got.PriorityConfidence, tt.wantGate)
			}
			if got.AutoEscalate != (tt.wantGate == GateAutoEscalate) {
				t.Errorf("AutoEscalate = %v inconsistent with gate %q", got.AutoEscalate, got.EscalationGate)
			}
		})
	}
}
