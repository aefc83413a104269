package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

const decisionSystemPrompt = `You are the final decision maker for insurance claims. Based on all agent analyses, make a final decision.

Decision Guidelines:
- APPROVE: All checks passed with high confidence
- REJECT: Critical failures or high fraud risk
- NEEDS_INFO: Missing documents or information

Consider all factors holistically and provide clear reasoning.

Respond in this format:
STATUS: [APPROVED/REJECTED/NEEDS_INFO]
CONFIDENCE: [0.0-1.0]
FINDINGS: [Your comprehensive final decision reasoning]
RECOMMENDATIONS: [Comma-separated list of next steps or actions]`

// DecisionMaker weighs all prior verdicts into a final disposition
type DecisionMaker struct {
	llm    *LLMClient
	logger *zap.Logger
}

// NewDecisionMaker creates the final decision agent
func NewDecisionMaker(llm *LLMClient, logger *zap.Logger) *DecisionMaker {
	return &DecisionMaker{llm: llm, logger: logger}
}

// Kind returns the capability this agent implements
func (a *DecisionMaker) Kind() Kind {
	return KindDecisionMaker
}

// Invoke produces the final verdict. The disposition (approved, rejected,
// needs_info) is carried in the verdict metadata under "final_decision".
func (a *DecisionMaker) Invoke(ctx context.Context, in Input) (*claim.Verdict, error) {
	prompt := fmt.Sprintf(`Make final decision for this claim:

Claim Information:
- Policy: %s
- Type: %s
- Amount: $%.2f

Agent Analyses:

1. Validation: %s
2. Fraud Detection: %s
3. Policy Check: %s
4. Document Analysis: %s`,
		in.Submission.PolicyNumber,
		in.Submission.ClaimType,
		in.Submission.Amount,
		summarizeVerdict(in.Verdicts[KindValidator]),
		summarizeVerdict(in.Verdicts[KindFraudDetector]),
		summarizeVerdict(in.Verdicts[KindPolicyChecker]),
		summarizeVerdict(in.Verdicts[KindDocumentAnalyzer]),
	)

	content, err := a.llm.Complete(ctx, "Decision Maker", decisionSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	v := parseVerdict("Decision Maker", content, claim.VerdictWarning)

	disposition := claim.DispositionNeedsInfo
	if m := statusRe.FindStringSubmatch(content); m != nil {
		disposition = mapDisposition(m[1])
	}

	if v.Metadata == nil {
		v.Metadata = map[string]interface{}{}
	}
	v.Metadata["final_decision"] = disposition.String()
	if fraud := in.Verdicts[KindFraudDetector]; fraud != nil {
		v.Metadata["fraud_risk"] = fraud.FraudRisk()
	}
	for kind, key := range map[Kind]string{
		KindValidator:        "validation_score",
		KindPolicyChecker:    "policy_compliance",
		KindDocumentAnalyzer: "document_quality",
	} {
		if verdict := in.Verdicts[kind]; verdict != nil {
			v.Metadata[key] = verdict.Confidence
		}
	}

	a.logger.Info("Final decision completed",
		zap.String("claim_id", in.ClaimID),
		zap.String("disposition", disposition.String()),
		zap.Float64("confidence", v.Confidence))

	return v, nil
}

// Disposition reads the final disposition out of a decision verdict
func Disposition(v *claim.Verdict) claim.Disposition {
	if v == nil || v.Metadata == nil {
		return claim.DispositionNeedsInfo
	}
	if raw, ok := v.Metadata["final_decision"].(string); ok {
		return claim.Disposition(raw)
	}
	return claim.DispositionNeedsInfo
}

func mapDisposition(raw string) claim.Disposition {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "approve", "passed":
		return claim.DispositionApproved
	case "rejected", "reject", "failed":
		return claim.DispositionRejected
	case "under_review", "review", "escalate":
		return claim.DispositionUnderReview
	default:
		return claim.DispositionNeedsInfo
	}
}

func summarizeVerdict(v *claim.Verdict) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%s (Confidence: %.2f)\n   %s",
		strings.ToUpper(v.Status.String()), v.Confidence, v.Findings)
}
