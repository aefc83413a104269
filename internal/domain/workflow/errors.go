package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a stage transition is not allowed
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrInvalidStage is returned when a stage is not part of the pipeline
	ErrInvalidStage = errors.New("invalid stage")

	// ErrNotFound is returned when no workflow exists for a claim id
	ErrNotFound = errors.New("workflow not found")

	// ErrAlreadyRunning is returned when start is called for a claim whose
	// workflow is still in flight
	ErrAlreadyRunning = errors.New("workflow already running")
)

// ErrorKind classifies a recorded stage failure
type ErrorKind string

const (
	// KindValidation marks bad or missing intake fields
	KindValidation ErrorKind = "validation"

	// KindInfrastructure marks an unreachable or timed-out collaborator
	KindInfrastructure ErrorKind = "infrastructure"
)

// ValidationError reports bad or missing submission fields
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "validation failed"
	}
	msg := "validation failed: " + e.Problems[0]
	for _, p := range e.Problems[1:] {
		msg += ", " + p
	}
	return msg
}

// InfrastructureError reports an unreachable or timed-out collaborator.
// Agents return it only for failures outside the claim domain.
type InfrastructureError struct {
	Collaborator string
	Err          error
}

func (e *InfrastructureError) Error() string {
	return "collaborator " + e.Collaborator + " unavailable: " + e.Err.Error()
}

func (e *InfrastructureError) Unwrap() error {
	return e.Err
}

// ClassifyError maps a stage failure to its error kind
func ClassifyError(err error) ErrorKind {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	return KindInfrastructure
}
