// Package agent provides the analysis capabilities the workflow engine
// invokes on a claim. Every agent follows the same contract: expected domain
// outcomes (a failed validation, a policy mismatch, a high fraud score) come
// back inside the Verdict, and an error is returned only when the backing
// service could not be reached at all.
package agent

import (
	"context"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

// Kind identifies one of the fixed analysis capabilities
type Kind string

const (
	KindValidator        Kind = "validator"
	KindFraudDetector    Kind = "fraud_detector"
	KindPolicyChecker    Kind = "policy_checker"
	KindDocumentAnalyzer Kind = "document_analyzer"
	KindDecisionMaker    Kind = "decision_maker"
)

// Input carries everything an agent may need about the claim under analysis.
// Later-stage agents receive the verdicts produced by earlier ones.
type Input struct {
	ClaimID       string
	Submission    claim.Submission
	SimilarClaims []claim.SimilarClaim

	// Verdicts accumulated so far, keyed by agent kind. Consumed by the
	// decision maker.
	Verdicts map[Kind]*claim.Verdict
}

// Agent is the uniform call contract for one analysis capability
type Agent interface {
	// Kind returns the capability this agent implements
	Kind() Kind

	// Invoke analyzes the claim and returns a verdict. An error return means
	// infrastructure failure only; domain conditions are reported in the
	// verdict status and confidence.
	Invoke(ctx context.Context, in Input) (*claim.Verdict, error)
}
