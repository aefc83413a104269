package workflow

// Stage represents a phase of the claim processing pipeline
type Stage string

const (
	StageIntake     Stage = "intake"
	StageUnderstand Stage = "understand"
	StageDecide     Stage = "decide"
	StageReview     Stage = "review"
	StageDeliver    Stage = "deliver"

	// Pseudo-stages that terminate a workflow
	StageCompleted Stage = "completed"
	StageError     Stage = "error"
)

var validStages = map[Stage]bool{
	StageIntake:     true,
	StageUnderstand: true,
	StageDecide:     true,
	StageReview:     true,
	StageDeliver:    true,
	StageCompleted:  true,
	StageError:      true,
}

var terminalStages = map[Stage]bool{
	StageCompleted: true,
	StageError:     true,
}

// IsTerminal returns true if no further transitions are allowed from the stage
func (s Stage) IsTerminal() bool {
	return terminalStages[s]
}

// IsValid returns true if the stage is part of the pipeline
func (s Stage) IsValid() bool {
	return validStages[s]
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// StageStatus describes the execution state of the current stage
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusInProgress StageStatus = "in_progress"
	StatusCompleted  StageStatus = "completed"
	StatusFailed     StageStatus = "failed"
	StatusSkipped    StageStatus = "skipped"

	// StatusEscalated marks a review handed to a senior adjuster. The
	// workflow does not advance past it without a fresh review decision
	// out of band, so it is terminal for the automated path.
	StatusEscalated StageStatus = "escalated"
)

// String returns the string representation of the status
func (s StageStatus) String() string {
	return string(s)
}
