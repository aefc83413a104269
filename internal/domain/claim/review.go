package claim

import "fmt"

// ReviewAction is the decision a human analyst takes on a paused claim
type ReviewAction string

const (
	ActionApprove     ReviewAction = "approve"
	ActionModify      ReviewAction = "modify"
	ActionEscalate    ReviewAction = "escalate"
	ActionRequestInfo ReviewAction = "request_info"
)

// String returns the string representation of the review action
func (a ReviewAction) String() string {
	return string(a)
}

// ReviewDecision carries an analyst's disposition for a claim awaiting review
type ReviewDecision struct {
	Action             ReviewAction `json:"action"`
	Reason             string       `json:"reason"`
	ModifiedPayout     *float64     `json:"modified_payout,omitempty"`
	EscalationReason   string       `json:"escalation_reason,omitempty"`
	RequestedDocuments []string     `json:"requested_documents,omitempty"`
	AnalystID          string       `json:"analyst_id,omitempty"`
}

// Validate checks that the action-specific fields are present
func (d *ReviewDecision) Validate() error {
	switch d.Action {
	case ActionApprove:
		return nil
	case ActionModify:
		if d.ModifiedPayout == nil {
			return fmt.Errorf("modified_payout is required when action is %q", ActionModify)
		}
		if *d.ModifiedPayout <= 0 {
			return fmt.Errorf("modified_payout must be positive, got %.2f", *d.ModifiedPayout)
		}
		return nil
	case ActionEscalate:
		if d.EscalationReason == "" {
			return fmt.Errorf("escalation_reason is required when action is %q", ActionEscalate)
		}
		return nil
	case ActionRequestInfo:
		if len(d.RequestedDocuments) == 0 {
			return fmt.Errorf("requested_documents is required when action is %q", ActionRequestInfo)
		}
		return nil
	default:
		return fmt.Errorf("unknown review action: %q", d.Action)
	}
}
