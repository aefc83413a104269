package engine

import (
	"github.com/claimpilot/claims-workflow/internal/domain/claim"
	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
)

// Review gate thresholds
const (
	// reviewConfidenceFloor pauses a claim whose final decision came back
	// with less confidence than this
	reviewConfidenceFloor = 0.70

	// reviewFraudCeiling pauses a claim whose fraud risk reaches this score
	reviewFraudCeiling = 0.80
)

// Gate reasons reported to callers and to the review queue
const (
	ReasonLowConfidence    = "low confidence"
	ReasonHighFraudRisk    = "high fraud risk"
	ReasonValidationFailed = "validation failed"
)

// RequiresReview decides whether a claim must pause for a human analyst,
// from the stage outputs accumulated through the decide stage. It is pure:
// same inputs, same answer, no side effects.
//
// Any matching trigger forces review; the reported reason is the first match
// in priority order (confidence, fraud, validation).
func RequiresReview(data map[string]interface{}) (bool, string) {
	confidence, hasDecision := stageConfidence(data, workflow.DataDecision)
	lowConfidence := hasDecision && confidence < reviewConfidenceFloor

	highFraud := fraudRisk(data) >= reviewFraudCeiling

	validationFailed := stageStatus(data, workflow.DataValidation) == claim.VerdictFailed.String()

	switch {
	case lowConfidence:
		return true, ReasonLowConfidence
	case highFraud:
		return true, ReasonHighFraudRisk
	case validationFailed:
		return true, ReasonValidationFailed
	default:
		return false, ""
	}
}

func stageOutput(data map[string]interface{}, key string) map[string]interface{} {
	if data == nil {
		return nil
	}
	out, _ := data[key].(map[string]interface{})
	return out
}

func stageStatus(data map[string]interface{}, key string) string {
	if out := stageOutput(data, key); out != nil {
		if s, ok := out["status"].(string); ok {
			return s
		}
	}
	return ""
}

func stageConfidence(data map[string]interface{}, key string) (float64, bool) {
	if out := stageOutput(data, key); out != nil {
		if c, ok := out["confidence"].(float64); ok {
			return c, true
		}
	}
	return 0, false
}

func fraudRisk(data map[string]interface{}) float64 {
	out := stageOutput(data, workflow.DataFraud)
	if out == nil {
		return 0
	}
	if risk, ok := out["risk_score"].(float64); ok {
		return risk
	}
	if c, ok := out["confidence"].(float64); ok {
		return c
	}
	return 0
}
