package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

const fraudSystemPrompt = `You are a fraud detection specialist for insurance claims. Analyze for:
1. Suspicious patterns or inconsistencies
2. Unusually high claim amounts
3. Vague or generic descriptions
4. Red flags in timing or circumstances
5. Similarities with known fraudulent claims

Provide a risk score (0-1, where 1 is highest fraud risk).

Respond in this format:
STATUS: [PASSED/FAILED/WARNING]
CONFIDENCE: [0.0-1.0] (fraud risk score)
FINDINGS: [Your detailed fraud analysis]
RECOMMENDATIONS: [Comma-separated list of actions to take]`

// FraudDetector scores a claim for fraud indicators, using similar historical
// claims from the vector search collaborator as context
type FraudDetector struct {
	llm    *LLMClient
	logger *zap.Logger
}

// NewFraudDetector creates the fraud detection agent
func NewFraudDetector(llm *LLMClient, logger *zap.Logger) *FraudDetector {
	return &FraudDetector{llm: llm, logger: logger}
}

// Kind returns the capability this agent implements
func (a *FraudDetector) Kind() Kind {
	return KindFraudDetector
}

// Invoke analyzes the claim for fraud indicators
func (a *FraudDetector) Invoke(ctx context.Context, in Input) (*claim.Verdict, error) {
	prompt := fmt.Sprintf(`Analyze this claim for fraud indicators:

Policy Number: %s
Claim Type: %s
Claim Amount: $%.2f
Incident Date: %s
Description: %s

Similar Historical Claims:
%s`,
		in.Submission.PolicyNumber,
		in.Submission.ClaimType,
		in.Submission.Amount,
		in.Submission.IncidentDate,
		in.Submission.Description,
		formatSimilarClaims(in.SimilarClaims),
	)

	content, err := a.llm.Complete(ctx, "Fraud Detector", fraudSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	v := parseVerdict("Fraud Detector", content, claim.VerdictWarning)
	if v.Metadata == nil {
		v.Metadata = map[string]interface{}{}
	}
	// The confidence the fraud agent reports is the risk score itself.
	v.Metadata["fraud_risk"] = v.Confidence

	a.logger.Info("Fraud analysis completed",
		zap.String("claim_id", in.ClaimID),
		zap.String("status", v.Status.String()),
		zap.Float64("fraud_risk", v.Confidence))

	return v, nil
}

func formatSimilarClaims(claims []claim.SimilarClaim) string {
	if len(claims) == 0 {
		return "No similar claims found in history."
	}
	if len(claims) > 3 {
		claims = claims[:3]
	}

	var b strings.Builder
	for i, c := range claims {
		desc := c.Description
		if len(desc) > 100 {
			desc = desc[:100] + "..."
		}
		fmt.Fprintf(&b, "- Claim #%d: %s Amount: $%.2f Outcome: %s\n", i+1, desc, c.Amount, c.Status)
	}
	return strings.TrimRight(b.String(), "\n")
}
