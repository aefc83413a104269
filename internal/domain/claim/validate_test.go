package claim

import (
	"strings"
	"testing"
)

func validSubmission() Submission {
	return Submission{
		PolicyNumber:  "POL-2024-001",
		ClaimType:     TypeAuto,
		Amount:        2500,
		IncidentDate:  "2026-07-15",
		Description:   "Rear-ended at a stop light, bumper and trunk damage",
		ClaimantName:  "Jordan Avery",
		ClaimantEmail: "jordan.avery@example.com",
	}
}

func TestValidateAcceptsCompleteSubmission(t *testing.T) {
	sub := validSubmission()
	if problems := sub.Validate(); len(problems) != 0 {
		t.Errorf("expected no problems, got %v", problems)
	}
}

func TestValidateProblems(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Submission)
		problem string
	}{
		{
			name:    "missing policy number",
			mutate:  func(s *Submission) { s.PolicyNumber = "" },
			problem: "policy number is required",
		},
		{
			name:    "policy number too short",
			mutate:  func(s *Submission) { s.PolicyNumber = "AB" },
			problem: "policy number format invalid",
		},
		{
			name:    "missing claim type",
			mutate:  func(s *Submission) { s.ClaimType = "" },
			problem: "claim type is required",
		},
		{
			name:    "unknown claim type",
			mutate:  func(s *Submission) { s.ClaimType = "pet" },
			problem: "unknown claim type",
		},
		{
			name:    "zero amount",
			mutate:  func(s *Submission) { s.Amount = 0 },
			problem: "claim amount must be positive",
		},
		{
			name:    "negative amount",
			mutate:  func(s *Submission) { s.Amount = -100 },
			problem: "claim amount must be positive",
		},
		{
			name:    "missing incident date",
			mutate:  func(s *Submission) { s.IncidentDate = "" },
			problem: "incident date is required",
		},
		{
			name:    "malformed incident date",
			mutate:  func(s *Submission) { s.IncidentDate = "15/07/2026" },
			problem: "incident date must be YYYY-MM-DD",
		},
		{
			name:    "short description",
			mutate:  func(s *Submission) { s.Description = "crash" },
			problem: "description must be at least",
		},
		{
			name:    "missing claimant name",
			mutate:  func(s *Submission) { s.ClaimantName = "  " },
			problem: "claimant name is required",
		},
		{
			name:    "missing email",
			mutate:  func(s *Submission) { s.ClaimantEmail = "" },
			problem: "claimant email is required",
		},
		{
			name:    "malformed email",
			mutate:  func(s *Submission) { s.ClaimantEmail = "not-an-email" },
			problem: "invalid email format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.mutate(&sub)
			problems := sub.Validate()
			if len(problems) == 0 {
				t.Fatal("expected validation problems, got none")
			}
			found := false
			for _, p := range problems {
				if strings.Contains(p, tt.problem) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("expected problem containing %q, got %v", tt.problem, problems)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	sub := Submission{}
	problems := sub.Validate()
	if len(problems) < 6 {
		t.Errorf("expected every missing field reported, got %d: %v", len(problems), problems)
	}
}

func TestClaimTypeIsValid(t *testing.T) {
	for _, valid := range []ClaimType{TypeHealth, TypeAuto, TypeHome, TypeLife} {
		if !valid.IsValid() {
			t.Errorf("expected %s to be valid", valid)
		}
	}
	for _, invalid := range []ClaimType{"", "pet", "AUTO", "travel"} {
		if invalid.IsValid() {
			t.Errorf("expected %s to be invalid", invalid)
		}
	}
}

func TestReviewDecisionValidate(t *testing.T) {
	payout := 500.0
	zero := 0.0

	tests := []struct {
		name     string
		decision ReviewDecision
		wantErr  bool
	}{
		{"approve", ReviewDecision{Action: ActionApprove}, false},
		{"modify with payout", ReviewDecision{Action: ActionModify, ModifiedPayout: &payout}, false},
		{"modify without payout", ReviewDecision{Action: ActionModify}, true},
		{"modify with zero payout", ReviewDecision{Action: ActionModify, ModifiedPayout: &zero}, true},
		{"escalate with reason", ReviewDecision{Action: ActionEscalate, EscalationReason: "complex liability"}, false},
		{"escalate without reason", ReviewDecision{Action: ActionEscalate}, true},
		{"request_info with documents", ReviewDecision{Action: ActionRequestInfo, RequestedDocuments: []string{"invoice"}}, false},
		{"request_info without documents", ReviewDecision{Action: ActionRequestInfo}, true},
		{"unknown action", ReviewDecision{Action: "defer"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decision.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
