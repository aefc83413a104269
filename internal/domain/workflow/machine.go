package workflow

import (
	"context"
	"fmt"
)

// StateMachine tracks the current stage and validates transitions
type StateMachine interface {
	// Stage returns the current stage
	Stage() Stage

	// CanFire returns true if the trigger is permitted in the current stage
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, moving to the new stage if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current stage
	PermittedTriggers() []Trigger
}

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// Builder assembles a stage transition table
type Builder interface {
	// Configure returns a configuration handle for the given stage
	Configure(stage Stage) StageConfiguration

	// Build creates a state machine instance starting at the given stage
	Build(initial Stage) StateMachine
}

// StageConfiguration configures outgoing transitions for one stage
type StageConfiguration interface {
	// Permit allows a trigger to transition to the target stage
	Permit(trigger Trigger, to Stage) StageConfiguration

	// PermitIf allows the transition only when the guard passes
	PermitIf(trigger Trigger, to Stage, guard GuardFunc) StageConfiguration
}

type transition struct {
	to    Stage
	guard GuardFunc
}

type stageConfig struct {
	transitions map[Trigger][]transition
}

type builder struct {
	configs map[Stage]*stageConfig
}

type machine struct {
	current Stage
	configs map[Stage]*stageConfig
}

// NewBuilder creates an empty transition-table builder
func NewBuilder() Builder {
	return &builder{configs: make(map[Stage]*stageConfig)}
}

func (b *builder) Configure(stage Stage) StageConfiguration {
	if !stage.IsValid() {
		panic(fmt.Sprintf("invalid stage: %s", stage))
	}
	cfg, ok := b.configs[stage]
	if !ok {
		cfg = &stageConfig{transitions: make(map[Trigger][]transition)}
		b.configs[stage] = cfg
	}
	return cfg
}

func (b *builder) Build(initial Stage) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial stage: %s", initial))
	}

	// Copy the table so machines built later are unaffected by further
	// Configure calls.
	configs := make(map[Stage]*stageConfig, len(b.configs))
	for stage, cfg := range b.configs {
		copied := &stageConfig{transitions: make(map[Trigger][]transition, len(cfg.transitions))}
		for trigger, ts := range cfg.transitions {
			copied.transitions[trigger] = append([]transition{}, ts...)
		}
		configs[stage] = copied
	}

	return &machine{current: initial, configs: configs}
}

func (c *stageConfig) Permit(trigger Trigger, to Stage) StageConfiguration {
	return c.PermitIf(trigger, to, nil)
}

func (c *stageConfig) PermitIf(trigger Trigger, to Stage, guard GuardFunc) StageConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target stage: %s", to))
	}
	c.transitions[trigger] = append(c.transitions[trigger], transition{to: to, guard: guard})
	return c
}

func (m *machine) Stage() Stage {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	cfg, ok := m.configs[m.current]
	if !ok {
		return false
	}
	return len(cfg.transitions[trigger]) > 0
}

func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	cfg, ok := m.configs[m.current]
	if !ok {
		return fmt.Errorf("%w: trigger %s from stage %s", ErrInvalidTransition, trigger, m.current)
	}

	ts := cfg.transitions[trigger]
	if len(ts) == 0 {
		return fmt.Errorf("%w: trigger %s from stage %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range ts {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: guard rejected trigger %s from stage %s", ErrInvalidTransition, trigger, m.current)
}

func (m *machine) PermittedTriggers() []Trigger {
	cfg, ok := m.configs[m.current]
	if !ok {
		return []Trigger{}
	}
	triggers := make([]Trigger, 0, len(cfg.transitions))
	for trigger := range cfg.transitions {
		triggers = append(triggers, trigger)
	}
	return triggers
}
