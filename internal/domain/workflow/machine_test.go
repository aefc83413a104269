package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestStage_IsTerminal(t *testing.T) {
	tests := []struct {
		stage    Stage
		expected bool
	}{
		{StageIntake, false},
		{StageUnderstand, false},
		{StageDecide, false},
		{StageReview, false},
		{StageDeliver, false},
		{StageCompleted, true},
		{StageError, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			if got := tt.stage.IsTerminal(); got != tt.expected {
				t.Errorf("Stage.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStage_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		stage    Stage
		expected bool
	}{
		{"pipeline stage", StageIntake, true},
		{"pseudo stage", StageError, true},
		{"unknown stage", Stage("archive"), false},
		{"empty stage", Stage(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stage.IsValid(); got != tt.expected {
				t.Errorf("Stage.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_ConfigurePanicsOnInvalidStage(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid stage")
		}
	}()

	NewBuilder().Configure(Stage("archive"))
}

func TestBuilder_BuildPanicsOnInvalidInitialStage(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial stage")
		}
	}()

	NewBuilder().Build(Stage("archive"))
}

func TestMachine_FireMovesToTargetStage(t *testing.T) {
	b := NewBuilder()
	b.Configure(StageIntake).Permit(TriggerStartUnderstand, StageUnderstand)
	m := b.Build(StageIntake)

	if err := m.Fire(context.Background(), TriggerStartUnderstand); err != nil {
		t.Fatalf("Fire() error = %v", err)
	}
	if m.Stage() != StageUnderstand {
		t.Errorf("Stage() = %v, want %v", m.Stage(), StageUnderstand)
	}
}

func TestMachine_FireRejectsUnknownTrigger(t *testing.T) {
	b := NewBuilder()
	b.Configure(StageIntake).Permit(TriggerStartUnderstand, StageUnderstand)
	m := b.Build(StageIntake)

	err := m.Fire(context.Background(), TriggerComplete)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
	}
	if m.Stage() != StageIntake {
		t.Errorf("failed Fire() must not change stage, got %v", m.Stage())
	}
}

func TestMachine_GuardControlsTransition(t *testing.T) {
	allow := false
	b := NewBuilder()
	b.Configure(StageDecide).PermitIf(TriggerStartDeliver, StageDeliver, func(ctx context.Context) bool {
		return allow
	})
	m := b.Build(StageDecide)

	if err := m.Fire(context.Background(), TriggerStartDeliver); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() with failing guard error = %v, want ErrInvalidTransition", err)
	}

	allow = true
	if err := m.Fire(context.Background(), TriggerStartDeliver); err != nil {
		t.Fatalf("Fire() with passing guard error = %v", err)
	}
	if m.Stage() != StageDeliver {
		t.Errorf("Stage() = %v, want %v", m.Stage(), StageDeliver)
	}
}

func TestBuildClaimStateMachine_HappyPath(t *testing.T) {
	ctx := context.Background()
	m := BuildClaimStateMachine(StageIntake)

	steps := []struct {
		trigger Trigger
		want    Stage
	}{
		{TriggerStartUnderstand, StageUnderstand},
		{TriggerStartDecide, StageDecide},
		{TriggerStartDeliver, StageDeliver},
		{TriggerComplete, StageCompleted},
	}

	for _, step := range steps {
		if err := m.Fire(ctx, step.trigger); err != nil {
			t.Fatalf("Fire(%s) error = %v", step.trigger, err)
		}
		if m.Stage() != step.want {
			t.Fatalf("after %s: Stage() = %v, want %v", step.trigger, m.Stage(), step.want)
		}
	}

	if len(m.PermittedTriggers()) != 0 {
		t.Errorf("completed stage should permit no triggers, got %v", m.PermittedTriggers())
	}
}

func TestBuildClaimStateMachine_UnderstandRoutesDirectlyToReview(t *testing.T) {
	m := BuildClaimStateMachine(StageUnderstand)

	if err := m.Fire(context.Background(), TriggerRequestReview); err != nil {
		t.Fatalf("Fire(REQUEST_REVIEW) error = %v", err)
	}
	if m.Stage() != StageReview {
		t.Errorf("Stage() = %v, want %v", m.Stage(), StageReview)
	}
}

func TestBuildClaimStateMachine_RequestInfoCycle(t *testing.T) {
	m := BuildClaimStateMachine(StageReview)

	if err := m.Fire(context.Background(), TriggerRequestInfo); err != nil {
		t.Fatalf("Fire(REQUEST_INFO) error = %v", err)
	}
	if m.Stage() != StageIntake {
		t.Errorf("Stage() = %v, want %v", m.Stage(), StageIntake)
	}

	// From intake the pipeline runs forward again.
	if !m.CanFire(TriggerStartUnderstand) {
		t.Error("re-entered intake should permit START_UNDERSTAND")
	}
}

func TestBuildClaimStateMachine_EscalateStaysAtReview(t *testing.T) {
	m := BuildClaimStateMachine(StageReview)

	if err := m.Fire(context.Background(), TriggerEscalate); err != nil {
		t.Fatalf("Fire(ESCALATE) error = %v", err)
	}
	if m.Stage() != StageReview {
		t.Errorf("Stage() = %v, want %v", m.Stage(), StageReview)
	}
}

func TestBuildClaimStateMachine_AnyStageCanFail(t *testing.T) {
	for _, stage := range []Stage{StageIntake, StageUnderstand, StageDecide, StageReview, StageDeliver} {
		m := BuildClaimStateMachine(stage)
		if err := m.Fire(context.Background(), TriggerFail); err != nil {
			t.Errorf("Fire(FAIL) from %s error = %v", stage, err)
			continue
		}
		if m.Stage() != StageError {
			t.Errorf("Fire(FAIL) from %s: Stage() = %v, want %v", stage, m.Stage(), StageError)
		}
	}
}
