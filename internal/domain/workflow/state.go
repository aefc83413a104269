package workflow

import (
	"time"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

// WorkflowData keys. Keys are additive only; a key's value is overwritten
// only when a claim re-enters the pipeline after a request_info loop and the
// caller asked for re-analysis.
const (
	DataIntake         = "intake"
	DataValidation     = "validation"
	DataFraud          = "fraud"
	DataPolicy         = "policy"
	DataDocuments      = "documents"
	DataSimilarClaims  = "similar_claims"
	DataDecision       = "decision"
	DataReviewRequired = "review_required"
	DataReviewReason   = "review_reason"
	DataRequestedDocs  = "requested_documents"
	DataDeliver        = "deliver"
)

// StageEvent is one immutable entry in a claim's audit trail
type StageEvent struct {
	Stage     Stage                  `json:"stage"`
	Status    StageStatus            `json:"status"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// ErrorRecord is one recorded stage failure
type ErrorRecord struct {
	Stage     Stage     `json:"stage"`
	Kind      ErrorKind `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// State tracks the progress of one claim through the pipeline. It is owned
// exclusively by the engine; callers only ever see snapshots.
type State struct {
	ClaimID     string                 `json:"claim_id"`
	Submission  *claim.Submission      `json:"submission,omitempty"`
	Stage       Stage                  `json:"current_stage"`
	StageStatus StageStatus            `json:"stage_status"`
	History     []StageEvent           `json:"stage_history"`
	Data        map[string]interface{} `json:"workflow_data"`
	Errors      []ErrorRecord          `json:"errors"`
	StartTime   time.Time              `json:"start_time"`
	LastUpdated time.Time              `json:"last_updated"`
}

// NewState creates the state record for a freshly submitted claim
func NewState(claimID string) *State {
	now := time.Now()
	return &State{
		ClaimID:     claimID,
		Stage:       StageIntake,
		StageStatus: StatusPending,
		History:     []StageEvent{},
		Data:        make(map[string]interface{}),
		Errors:      []ErrorRecord{},
		StartTime:   now,
		LastUpdated: now,
	}
}

// AddEvent appends an event to the stage history
func (s *State) AddEvent(stage Stage, status StageStatus, message string, data map[string]interface{}) {
	now := time.Now()
	s.History = append(s.History, StageEvent{
		Stage:     stage,
		Status:    status,
		Message:   message,
		Timestamp: now,
		Data:      data,
	})
	s.LastUpdated = now
}

// TransitionTo moves the claim to a new stage and records the transition
func (s *State) TransitionTo(stage Stage, status StageStatus) {
	s.Stage = stage
	s.StageStatus = status
	s.AddEvent(stage, status, "transitioned to "+stage.String(), nil)
}

// RecordError appends an error record for a failed stage
func (s *State) RecordError(stage Stage, kind ErrorKind, message string) {
	now := time.Now()
	s.Errors = append(s.Errors, ErrorRecord{
		Stage:     stage,
		Kind:      kind,
		Message:   message,
		Timestamp: now,
	})
	s.LastUpdated = now
}

// IsTerminal returns true once the claim can make no further progress on its
// own. An escalated review is terminal for the automated path.
func (s *State) IsTerminal() bool {
	if s.Stage.IsTerminal() {
		return true
	}
	return s.Stage == StageReview && s.StageStatus == StatusEscalated
}

// AwaitingReview returns true if the claim is paused for a human decision
func (s *State) AwaitingReview() bool {
	return s.Stage == StageReview && s.StageStatus == StatusPending
}

// AwaitingResubmission returns true if the claim was looped back to intake by
// a request_info decision and is waiting for updated information
func (s *State) AwaitingResubmission() bool {
	if s.Stage != StageIntake || s.StageStatus != StatusPending {
		return false
	}
	_, ok := s.Data[DataRequestedDocs]
	return ok
}

// Snapshot returns a deep copy safe to hand to callers
func (s *State) Snapshot() *State {
	cp := &State{
		ClaimID:     s.ClaimID,
		Stage:       s.Stage,
		StageStatus: s.StageStatus,
		History:     make([]StageEvent, len(s.History)),
		Data:        copyMap(s.Data),
		Errors:      append([]ErrorRecord{}, s.Errors...),
		StartTime:   s.StartTime,
		LastUpdated: s.LastUpdated,
	}
	if s.Submission != nil {
		sub := *s.Submission
		sub.Documents = append([]string{}, s.Submission.Documents...)
		cp.Submission = &sub
	}
	for i, ev := range s.History {
		cp.History[i] = StageEvent{
			Stage:     ev.Stage,
			Status:    ev.Status,
			Message:   ev.Message,
			Timestamp: ev.Timestamp,
			Data:      copyMap(ev.Data),
		}
	}
	return cp
}

func copyMap(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		if nested, ok := v.(map[string]interface{}); ok {
			dst[k] = copyMap(nested)
			continue
		}
		dst[k] = v
	}
	return dst
}
