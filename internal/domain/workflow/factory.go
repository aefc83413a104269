package workflow

// BuildClaimStateMachine creates a state machine configured for the claim
// processing pipeline. The stage graph is acyclic except for the single
// designed cycle from review back to intake when an analyst requests more
// information.
func BuildClaimStateMachine(initial Stage) StateMachine {
	b := NewBuilder()

	b.Configure(StageIntake).
		Permit(TriggerStartUnderstand, StageUnderstand).
		Permit(TriggerFail, StageError)

	// A failed validation verdict routes straight to review, bypassing decide.
	b.Configure(StageUnderstand).
		Permit(TriggerStartDecide, StageDecide).
		Permit(TriggerRequestReview, StageReview).
		Permit(TriggerFail, StageError)

	b.Configure(StageDecide).
		Permit(TriggerRequestReview, StageReview).
		Permit(TriggerStartDeliver, StageDeliver).
		Permit(TriggerFail, StageError)

	b.Configure(StageReview).
		Permit(TriggerStartDeliver, StageDeliver).
		Permit(TriggerRequestInfo, StageIntake).
		Permit(TriggerEscalate, StageReview).
		Permit(TriggerFail, StageError)

	b.Configure(StageDeliver).
		Permit(TriggerComplete, StageCompleted).
		Permit(TriggerFail, StageError)

	// COMPLETED and ERROR are terminal, no outgoing transitions.

	return b.Build(initial)
}
