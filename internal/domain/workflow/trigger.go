package workflow

// Trigger represents an event that can cause a stage transition
type Trigger string

const (
	TriggerStartUnderstand Trigger = "START_UNDERSTAND"
	TriggerStartDecide     Trigger = "START_DECIDE"
	TriggerRequestReview   Trigger = "REQUEST_REVIEW"
	TriggerStartDeliver    Trigger = "START_DELIVER"
	TriggerComplete        Trigger = "COMPLETE"
	TriggerRequestInfo     Trigger = "REQUEST_INFO"
	TriggerEscalate        Trigger = "ESCALATE"
	TriggerFail            Trigger = "FAIL"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
