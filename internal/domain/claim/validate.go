package claim

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// MinDescriptionLength is the minimum length for a claim description
const MinDescriptionLength = 20

// Validate checks a submission for missing or malformed intake fields.
// It returns every problem found, not just the first one.
func (s *Submission) Validate() []string {
	var problems []string

	if strings.TrimSpace(s.PolicyNumber) == "" {
		problems = append(problems, "policy number is required")
	} else if len(s.PolicyNumber) < 3 {
		problems = append(problems, "policy number format invalid")
	}

	if s.ClaimType == "" {
		problems = append(problems, "claim type is required")
	} else if !s.ClaimType.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown claim type: %s", s.ClaimType))
	}

	if s.Amount <= 0 {
		problems = append(problems, "claim amount must be positive")
	}

	if s.IncidentDate == "" {
		problems = append(problems, "incident date is required")
	} else if _, err := time.Parse("2006-01-02", s.IncidentDate); err != nil {
		problems = append(problems, "incident date must be YYYY-MM-DD")
	}

	if len(strings.TrimSpace(s.Description)) < MinDescriptionLength {
		problems = append(problems, fmt.Sprintf("description must be at least %d characters", MinDescriptionLength))
	}

	if strings.TrimSpace(s.ClaimantName) == "" {
		problems = append(problems, "claimant name is required")
	}

	if s.ClaimantEmail == "" {
		problems = append(problems, "claimant email is required")
	} else if !emailRegex.MatchString(s.ClaimantEmail) {
		problems = append(problems, fmt.Sprintf("invalid email format: %s", s.ClaimantEmail))
	}

	return problems
}
