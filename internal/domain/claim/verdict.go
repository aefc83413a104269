package claim

// VerdictStatus is the outcome category an analysis agent reports
type VerdictStatus string

const (
	VerdictPassed  VerdictStatus = "passed"
	VerdictFailed  VerdictStatus = "failed"
	VerdictWarning VerdictStatus = "warning"
)

// String returns the string representation of the verdict status
func (s VerdictStatus) String() string {
	return string(s)
}

// Verdict is the structured result an analysis agent produces for a claim.
// Expected domain conditions (low confidence, policy mismatch, validation
// failure) are expressed through Status and Confidence, never through errors.
type Verdict struct {
	AgentName       string                 `json:"agent_name"`
	Status          VerdictStatus          `json:"status"`
	Confidence      float64                `json:"confidence"` // 0.0 - 1.0
	Findings        string                 `json:"findings"`
	Recommendations []string               `json:"recommendations,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// FraudRisk reads the fraud risk score from verdict metadata, if present
func (v *Verdict) FraudRisk() float64 {
	if v == nil || v.Metadata == nil {
		return 0
	}
	if risk, ok := v.Metadata["fraud_risk"].(float64); ok {
		return risk
	}
	return 0
}

// Disposition is the final outcome the decision maker assigns to a claim
type Disposition string

const (
	DispositionApproved    Disposition = "approved"
	DispositionRejected    Disposition = "rejected"
	DispositionNeedsInfo   Disposition = "needs_info"
	DispositionUnderReview Disposition = "under_review"
)

// String returns the string representation of the disposition
func (d Disposition) String() string {
	return string(d)
}
