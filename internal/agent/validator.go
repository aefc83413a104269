package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

const validatorSystemPrompt = `You are a claims validation expert. Analyze the claim submission for:
1. Completeness of required information
2. Data format correctness
3. Reasonable claim amount for the incident type
4. Incident date validity

Provide a confidence score (0-1) and specific findings.

Respond in this format:
STATUS: [PASSED/FAILED/WARNING]
CONFIDENCE: [0.0-1.0]
FINDINGS: [Your detailed analysis]
RECOMMENDATIONS: [Comma-separated list of recommendations]`

// Validator checks claim completeness and data integrity
type Validator struct {
	llm    *LLMClient
	logger *zap.Logger
}

// NewValidator creates the claim validator agent
func NewValidator(llm *LLMClient, logger *zap.Logger) *Validator {
	return &Validator{llm: llm, logger: logger}
}

// Kind returns the capability this agent implements
func (a *Validator) Kind() Kind {
	return KindValidator
}

// Invoke validates the claim submission
func (a *Validator) Invoke(ctx context.Context, in Input) (*claim.Verdict, error) {
	prompt := fmt.Sprintf(`Validate this claim:

Policy Number: %s
Claim Type: %s
Claim Amount: $%.2f
Incident Date: %s
Description: %s
Claimant: %s
Documents: %d files`,
		in.Submission.PolicyNumber,
		in.Submission.ClaimType,
		in.Submission.Amount,
		in.Submission.IncidentDate,
		in.Submission.Description,
		in.Submission.ClaimantName,
		len(in.Submission.Documents),
	)

	content, err := a.llm.Complete(ctx, "Claim Validator", validatorSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	v := parseVerdict("Claim Validator", content, claim.VerdictWarning)

	a.logger.Info("Claim validation completed",
		zap.String("claim_id", in.ClaimID),
		zap.String("status", v.Status.String()),
		zap.Float64("confidence", v.Confidence))

	return v, nil
}
