package workflow

import (
	"testing"
)

func TestState_EventTimestampsNonDecreasing(t *testing.T) {
	s := NewState("CLM-1")

	s.TransitionTo(StageIntake, StatusInProgress)
	s.AddEvent(StageIntake, StatusCompleted, "intake completed", nil)
	s.TransitionTo(StageUnderstand, StatusInProgress)
	s.AddEvent(StageUnderstand, StatusCompleted, "understanding completed", nil)

	for i := 1; i < len(s.History); i++ {
		if s.History[i].Timestamp.Before(s.History[i-1].Timestamp) {
			t.Fatalf("event %d timestamp %v precedes event %d timestamp %v",
				i, s.History[i].Timestamp, i-1, s.History[i-1].Timestamp)
		}
	}
}

func TestState_TransitionToUpdatesCurrentStage(t *testing.T) {
	s := NewState("CLM-1")
	s.TransitionTo(StageUnderstand, StatusInProgress)

	if s.Stage != StageUnderstand || s.StageStatus != StatusInProgress {
		t.Errorf("got (%v, %v), want (%v, %v)", s.Stage, s.StageStatus, StageUnderstand, StatusInProgress)
	}

	last := s.History[len(s.History)-1]
	if last.Stage != StageUnderstand {
		t.Errorf("latest event stage = %v, want %v", last.Stage, StageUnderstand)
	}
}

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		name     string
		stage    Stage
		status   StageStatus
		expected bool
	}{
		{"in flight", StageDecide, StatusInProgress, false},
		{"awaiting review", StageReview, StatusPending, false},
		{"escalated review", StageReview, StatusEscalated, true},
		{"completed", StageCompleted, StatusCompleted, true},
		{"errored", StageError, StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState("CLM-1")
			s.Stage = tt.stage
			s.StageStatus = tt.status
			if got := s.IsTerminal(); got != tt.expected {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_AwaitingResubmission(t *testing.T) {
	s := NewState("CLM-1")
	if s.AwaitingResubmission() {
		t.Error("fresh state should not await resubmission")
	}

	s.Stage = StageIntake
	s.StageStatus = StatusPending
	s.Data[DataRequestedDocs] = []string{"police_report"}
	if !s.AwaitingResubmission() {
		t.Error("intake/pending with requested documents should await resubmission")
	}
}

func TestState_SnapshotIsIsolated(t *testing.T) {
	s := NewState("CLM-1")
	s.Data[DataFraud] = map[string]interface{}{"confidence": 0.2}
	s.AddEvent(StageIntake, StatusCompleted, "intake completed", nil)

	snap := s.Snapshot()

	// Mutating the snapshot must not leak back into the owned state.
	snap.Data[DataFraud].(map[string]interface{})["confidence"] = 0.9
	snap.Data[DataPolicy] = map[string]interface{}{}
	snap.History[0].Message = "tampered"

	if got := s.Data[DataFraud].(map[string]interface{})["confidence"]; got != 0.2 {
		t.Errorf("owned fraud confidence = %v, want 0.2", got)
	}
	if _, ok := s.Data[DataPolicy]; ok {
		t.Error("owned data gained a key added to the snapshot")
	}
	if s.History[0].Message != "intake completed" {
		t.Errorf("owned history message = %q, want %q", s.History[0].Message, "intake completed")
	}
}

func TestState_RecordError(t *testing.T) {
	s := NewState("CLM-1")
	s.RecordError(StageUnderstand, KindInfrastructure, "llm unreachable")

	if len(s.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(s.Errors))
	}
	if s.Errors[0].Stage != StageUnderstand || s.Errors[0].Kind != KindInfrastructure {
		t.Errorf("error record = %+v", s.Errors[0])
	}
}
