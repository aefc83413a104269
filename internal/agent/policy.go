package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

const policySystemPrompt = `You are a policy verification expert. Analyze the claim against policy terms:
1. Policy is active and valid
2. Incident is covered under the policy type
3. Claim amount is within coverage limits
4. Incident date falls within policy period
5. No exclusions apply

Provide a confidence score (0-1) for policy compliance.

Respond in this format:
STATUS: [PASSED/FAILED/WARNING]
CONFIDENCE: [0.0-1.0]
FINDINGS: [Your detailed policy analysis]
RECOMMENDATIONS: [Comma-separated list of recommendations]`

// PolicyInfo describes the coverage terms a claim is verified against
type PolicyInfo struct {
	Status        string  `json:"status"`
	CoverageType  string  `json:"coverage_type"`
	MaxCoverage   float64 `json:"max_coverage"`
	Deductible    float64 `json:"deductible"`
	EffectiveDate string  `json:"effective_date"`
	ExpiryDate    string  `json:"expiry_date"`
}

// PolicyChecker verifies coverage and eligibility
type PolicyChecker struct {
	llm    *LLMClient
	lookup func(policyNumber string) PolicyInfo
	logger *zap.Logger
}

// NewPolicyChecker creates the policy verification agent. The lookup resolves
// policy terms by policy number; when nil, defaults cover the demo dataset.
func NewPolicyChecker(llm *LLMClient, lookup func(policyNumber string) PolicyInfo, logger *zap.Logger) *PolicyChecker {
	return &PolicyChecker{llm: llm, lookup: lookup, logger: logger}
}

// Kind returns the capability this agent implements
func (a *PolicyChecker) Kind() Kind {
	return KindPolicyChecker
}

// Invoke verifies the claim against its policy terms
func (a *PolicyChecker) Invoke(ctx context.Context, in Input) (*claim.Verdict, error) {
	info := a.policyInfo(in.Submission)

	prompt := fmt.Sprintf(`Verify policy coverage for this claim:

Claim Details:
- Policy Number: %s
- Claim Type: %s
- Claim Amount: $%.2f
- Incident Date: %s

Policy Information:
- Status: %s
- Coverage Type: %s
- Max Coverage: $%.2f
- Deductible: $%.2f
- Policy Period: %s to %s`,
		in.Submission.PolicyNumber,
		in.Submission.ClaimType,
		in.Submission.Amount,
		in.Submission.IncidentDate,
		info.Status,
		info.CoverageType,
		info.MaxCoverage,
		info.Deductible,
		info.EffectiveDate,
		info.ExpiryDate,
	)

	content, err := a.llm.Complete(ctx, "Policy Checker", policySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	v := parseVerdict("Policy Checker", content, claim.VerdictWarning)
	if v.Metadata == nil {
		v.Metadata = map[string]interface{}{}
	}
	v.Metadata["policy_info"] = info

	a.logger.Info("Policy verification completed",
		zap.String("claim_id", in.ClaimID),
		zap.String("status", v.Status.String()),
		zap.Float64("confidence", v.Confidence))

	return v, nil
}

func (a *PolicyChecker) policyInfo(sub claim.Submission) PolicyInfo {
	if a.lookup != nil {
		return a.lookup(sub.PolicyNumber)
	}
	return PolicyInfo{
		Status:        "active",
		CoverageType:  sub.ClaimType.String(),
		MaxCoverage:   50000,
		Deductible:    1000,
		EffectiveDate: "2023-01-01",
		ExpiryDate:    "2025-12-31",
	}
}
