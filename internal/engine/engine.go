// Package engine drives claims through the processing pipeline. It owns the
// workflow state for every claim, invokes the analysis agents stage by stage,
// pauses claims at the human review gate and resumes them when an analyst
// decides.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/agent"
	"github.com/claimpilot/claims-workflow/internal/domain/claim"
	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
	"github.com/claimpilot/claims-workflow/internal/notify"
	"github.com/claimpilot/claims-workflow/internal/report"
	"github.com/claimpilot/claims-workflow/internal/store"
)

// BriefWriter renders the adjuster workbook artifact
type BriefWriter interface {
	Write(b report.Brief) (string, error)
}

// SimilaritySearcher finds historical claims resembling a submission
type SimilaritySearcher interface {
	TopK(ctx context.Context, sub claim.Submission) ([]claim.SimilarClaim, error)
	Index(ctx context.Context, claimID string, sub claim.Submission, decision *claim.Verdict) error
}

// Deps collects the engine's collaborators. Agents, States, Audit and Logger
// are required; the rest degrade gracefully when nil.
type Deps struct {
	Agents   []agent.Agent
	Searcher SimilaritySearcher
	Notifier notify.Notifier
	Briefs   BriefWriter
	States   store.StateStore
	Audit    store.AuditLog
	Logger   *zap.Logger
}

// Engine processes claims. All methods are safe for concurrent use; calls
// touching the same claim are serialized.
type Engine struct {
	agents   map[agent.Kind]agent.Agent
	searcher SimilaritySearcher
	notifier notify.Notifier
	briefs   BriefWriter
	states   store.StateStore
	audit    store.AuditLog
	logger   *zap.Logger
}

// NewEngine creates a claim processing engine
func NewEngine(deps Deps) (*Engine, error) {
	agents := make(map[agent.Kind]agent.Agent, len(deps.Agents))
	for _, a := range deps.Agents {
		agents[a.Kind()] = a
	}
	for _, kind := range []agent.Kind{
		agent.KindValidator,
		agent.KindFraudDetector,
		agent.KindPolicyChecker,
		agent.KindDocumentAnalyzer,
		agent.KindDecisionMaker,
	} {
		if agents[kind] == nil {
			return nil, fmt.Errorf("missing required agent: %s", kind)
		}
	}
	if deps.States == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if deps.Audit == nil {
		return nil, fmt.Errorf("audit log is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Engine{
		agents:   agents,
		searcher: deps.Searcher,
		notifier: deps.Notifier,
		briefs:   deps.Briefs,
		states:   deps.States,
		audit:    deps.Audit,
		logger:   deps.Logger,
	}, nil
}

// Start runs the pipeline for a freshly submitted claim until it reaches a
// pause point (human review, requested information) or a terminal stage. The
// second return value reports whether a run actually started. Starting a
// completed claim is a no-op; starting a claim that is still in flight
// returns ErrAlreadyRunning. A claim that previously failed may be restarted.
func (e *Engine) Start(ctx context.Context, claimID string, sub claim.Submission) (*workflow.State, bool, error) {
	unlock := e.states.Lock(claimID)
	defer unlock()

	if existing, ok := e.states.Get(claimID); ok {
		if existing.Stage == workflow.StageCompleted {
			e.logger.Info("Start skipped, claim already completed",
				zap.String("claim_id", claimID))
			e.auditEvent(ctx, claimID, workflow.StageEvent{
				Stage:     workflow.StageCompleted,
				Status:    workflow.StatusSkipped,
				Message:   "start skipped, claim already completed",
				Timestamp: time.Now(),
			})
			return existing.Snapshot(), false, nil
		}
		if existing.Stage != workflow.StageError {
			return nil, false, fmt.Errorf("%w: claim %s is at stage %s",
				workflow.ErrAlreadyRunning, claimID, existing.Stage)
		}
		// A failed run leaves no partial progress worth keeping.
		e.logger.Info("Restarting claim after failed run",
			zap.String("claim_id", claimID))
	}

	st := workflow.NewState(claimID)
	st.Submission = &sub
	e.states.Put(st)

	e.logger.Info("Workflow started",
		zap.String("claim_id", claimID),
		zap.String("claim_type", sub.ClaimType.String()),
		zap.Float64("amount", sub.Amount))

	e.runPipeline(ctx, st, runOptions{})
	e.states.Put(st)
	return st.Snapshot(), true, nil
}

// snapshot copies a claim's state under its per-claim lock so readers never
// observe a pipeline run mid-mutation.
func (e *Engine) snapshot(claimID string) (*workflow.State, bool) {
	unlock := e.states.Lock(claimID)
	defer unlock()
	st, ok := e.states.Get(claimID)
	if !ok {
		return nil, false
	}
	return st.Snapshot(), true
}

// GetState returns a snapshot of a claim's workflow state
func (e *Engine) GetState(claimID string) (*workflow.State, error) {
	snap, ok := e.snapshot(claimID)
	if !ok {
		return nil, fmt.Errorf("%w: claim %s", workflow.ErrNotFound, claimID)
	}
	return snap, nil
}

// ListStates returns snapshots of every known claim, newest first
func (e *Engine) ListStates() []*workflow.State {
	states := e.states.List()
	out := make([]*workflow.State, 0, len(states))
	for _, st := range states {
		if snap, ok := e.snapshot(st.ClaimID); ok {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

// ResumeAfterReview applies a human analyst's decision to a claim paused at
// the review gate and advances the workflow accordingly.
func (e *Engine) ResumeAfterReview(ctx context.Context, claimID string, decision claim.ReviewDecision) (*workflow.State, error) {
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	unlock := e.states.Lock(claimID)
	defer unlock()

	st, ok := e.states.Get(claimID)
	if !ok {
		return nil, fmt.Errorf("%w: claim %s", workflow.ErrNotFound, claimID)
	}
	if !st.AwaitingReview() {
		return nil, fmt.Errorf("%w: claim %s is not awaiting review (stage %s, status %s)",
			workflow.ErrInvalidStage, claimID, st.Stage, st.StageStatus)
	}

	sm := workflow.BuildClaimStateMachine(st.Stage)

	e.logger.Info("Applying review decision",
		zap.String("claim_id", claimID),
		zap.String("action", decision.Action.String()),
		zap.String("analyst", decision.AnalystID))

	switch decision.Action {
	case claim.ActionApprove:
		e.overrideDisposition(st, claim.DispositionApproved, nil)
		st.AddEvent(workflow.StageReview, workflow.StatusCompleted,
			"analyst approved the claim", reviewEventData(decision))
		e.auditDecision(ctx, st, decision, "analyst approved the claim")
		if err := sm.Fire(ctx, workflow.TriggerStartDeliver); err != nil {
			return nil, err
		}
		st.TransitionTo(workflow.StageDeliver, workflow.StatusInProgress)
		e.runDeliver(ctx, st)

	case claim.ActionModify:
		e.overrideDisposition(st, claim.DispositionApproved, decision.ModifiedPayout)
		st.AddEvent(workflow.StageReview, workflow.StatusCompleted,
			fmt.Sprintf("analyst approved with modified payout $%.2f", *decision.ModifiedPayout),
			reviewEventData(decision))
		e.auditDecision(ctx, st, decision,
			fmt.Sprintf("analyst approved with modified payout $%.2f", *decision.ModifiedPayout))
		if err := sm.Fire(ctx, workflow.TriggerStartDeliver); err != nil {
			return nil, err
		}
		st.TransitionTo(workflow.StageDeliver, workflow.StatusInProgress)
		e.runDeliver(ctx, st)

	case claim.ActionEscalate:
		if err := sm.Fire(ctx, workflow.TriggerEscalate); err != nil {
			return nil, err
		}
		st.Stage = workflow.StageReview
		st.StageStatus = workflow.StatusEscalated
		st.AddEvent(workflow.StageReview, workflow.StatusEscalated,
			"escalated to senior review: "+decision.EscalationReason, reviewEventData(decision))
		e.auditDecision(ctx, st, decision,
			"escalated to senior review: "+decision.EscalationReason)

	case claim.ActionRequestInfo:
		docs := make([]interface{}, len(decision.RequestedDocuments))
		for i, d := range decision.RequestedDocuments {
			docs[i] = d
		}
		st.Data[workflow.DataRequestedDocs] = docs
		delete(st.Data, workflow.DataReviewRequired)
		delete(st.Data, workflow.DataReviewReason)
		if err := sm.Fire(ctx, workflow.TriggerRequestInfo); err != nil {
			return nil, err
		}
		st.Stage = workflow.StageIntake
		st.StageStatus = workflow.StatusPending
		st.AddEvent(workflow.StageIntake, workflow.StatusPending,
			"additional information requested from claimant", reviewEventData(decision))
		e.auditDecision(ctx, st, decision,
			"additional information requested from claimant")
	}

	e.states.Put(st)
	return st.Snapshot(), nil
}

// Resubmit feeds updated claimant information back into a claim that was
// looped to intake by a request_info decision. With reanalyze set, every
// analysis agent runs again; otherwise only validation and the final decision
// are redone against the retained analyses.
func (e *Engine) Resubmit(ctx context.Context, claimID string, sub claim.Submission, reanalyze bool) (*workflow.State, error) {
	unlock := e.states.Lock(claimID)
	defer unlock()

	st, ok := e.states.Get(claimID)
	if !ok {
		return nil, fmt.Errorf("%w: claim %s", workflow.ErrNotFound, claimID)
	}
	if !st.AwaitingResubmission() {
		return nil, fmt.Errorf("%w: claim %s is not awaiting resubmission (stage %s, status %s)",
			workflow.ErrInvalidStage, claimID, st.Stage, st.StageStatus)
	}

	st.Submission = &sub
	delete(st.Data, workflow.DataRequestedDocs)

	st.AddEvent(workflow.StageIntake, workflow.StatusInProgress,
		"claim resubmitted with additional information", nil)

	e.logger.Info("Claim resubmitted",
		zap.String("claim_id", claimID),
		zap.Bool("reanalyze", reanalyze))

	e.runPipeline(ctx, st, runOptions{reuseAnalyses: !reanalyze})
	e.states.Put(st)
	return st.Snapshot(), nil
}

// AuditTrail returns a claim's audit entries in chronological order
func (e *Engine) AuditTrail(ctx context.Context, claimID string) ([]store.AuditEntry, error) {
	if _, ok := e.states.Get(claimID); !ok {
		return nil, fmt.Errorf("%w: claim %s", workflow.ErrNotFound, claimID)
	}
	return e.audit.ByClaim(ctx, claimID)
}

// Deliverables returns the artifacts the deliver stage produced for a claim
func (e *Engine) Deliverables(claimID string) (map[string]interface{}, error) {
	snap, ok := e.snapshot(claimID)
	if !ok {
		return nil, fmt.Errorf("%w: claim %s", workflow.ErrNotFound, claimID)
	}
	outputs, _ := snap.Data[workflow.DataDeliver].(map[string]interface{})
	if outputs == nil {
		return nil, fmt.Errorf("no deliverables for claim %s at stage %s", claimID, snap.Stage)
	}
	return outputs, nil
}

// Queue priorities
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// ReviewItem is one claim waiting for an analyst
type ReviewItem struct {
	ClaimID      string    `json:"claim_id"`
	Reason       string    `json:"reason"`
	Priority     string    `json:"priority"`
	Confidence   float64   `json:"confidence"`
	FraudRisk    float64   `json:"fraud_risk"`
	ClaimType    string    `json:"claim_type"`
	Amount       float64   `json:"amount"`
	WaitingSince time.Time `json:"waiting_since"`
}

// ReviewQueue lists every claim paused for human review, high priority first
// and oldest first within a priority.
func (e *Engine) ReviewQueue() []ReviewItem {
	var items []ReviewItem
	for _, st := range e.states.List() {
		snap, ok := e.snapshot(st.ClaimID)
		if !ok || !snap.AwaitingReview() {
			continue
		}

		confidence, _ := stageConfidence(snap.Data, workflow.DataDecision)
		risk := fraudRisk(snap.Data)
		reason, _ := snap.Data[workflow.DataReviewReason].(string)

		item := ReviewItem{
			ClaimID:      snap.ClaimID,
			Reason:       reason,
			Priority:     PriorityNormal,
			Confidence:   confidence,
			FraudRisk:    risk,
			WaitingSince: snap.LastUpdated,
		}
		if risk >= 0.8 || confidence < 0.5 {
			item.Priority = PriorityHigh
		}
		if snap.Submission != nil {
			item.ClaimType = snap.Submission.ClaimType.String()
			item.Amount = snap.Submission.Amount
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Priority != items[j].Priority {
			return items[i].Priority == PriorityHigh
		}
		return items[i].WaitingSince.Before(items[j].WaitingSince)
	})
	return items
}

// overrideDisposition rewrites the final decision after a human verdict
func (e *Engine) overrideDisposition(st *workflow.State, d claim.Disposition, payout *float64) {
	decision, _ := st.Data[workflow.DataDecision].(map[string]interface{})
	if decision == nil {
		decision = map[string]interface{}{}
		st.Data[workflow.DataDecision] = decision
	}
	decision["final_decision"] = d.String()
	decision["human_reviewed"] = true
	if payout != nil {
		decision["approved_payout"] = *payout
	}
}

func reviewEventData(decision claim.ReviewDecision) map[string]interface{} {
	data := map[string]interface{}{
		"action": decision.Action.String(),
	}
	if decision.Reason != "" {
		data["reason"] = decision.Reason
	}
	if decision.AnalystID != "" {
		data["analyst_id"] = decision.AnalystID
	}
	if decision.ModifiedPayout != nil {
		data["modified_payout"] = *decision.ModifiedPayout
	}
	if decision.EscalationReason != "" {
		data["escalation_reason"] = decision.EscalationReason
	}
	if len(decision.RequestedDocuments) > 0 {
		data["requested_documents"] = decision.RequestedDocuments
	}
	return data
}

func (e *Engine) auditDecision(ctx context.Context, st *workflow.State, decision claim.ReviewDecision, message string) {
	entry := store.AuditEntry{
		ClaimID:   st.ClaimID,
		Stage:     workflow.StageReview.String(),
		Status:    st.StageStatus.String(),
		Action:    decision.Action.String(),
		Actor:     decision.AnalystID,
		Message:   message,
		Timestamp: time.Now(),
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		e.logger.Warn("Failed to record review decision in audit log",
			zap.String("claim_id", st.ClaimID),
			zap.Error(err))
	}
}

func (e *Engine) auditEvent(ctx context.Context, claimID string, ev workflow.StageEvent) {
	if err := store.RecordStageEvent(ctx, e.audit, claimID, ev); err != nil {
		e.logger.Warn("Failed to record stage event in audit log",
			zap.String("claim_id", claimID),
			zap.Error(err))
	}
}
