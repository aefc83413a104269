package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/agent"
	"github.com/claimpilot/claims-workflow/internal/domain/claim"
	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
)

type runOptions struct {
	// reuseAnalyses replays the retained fraud, policy and document analyses
	// instead of invoking those agents again. Validation and the final
	// decision always run.
	reuseAnalyses bool
}

// runPipeline drives a claim from intake until it pauses or terminates.
// Failures land in the state record, never in a returned error: callers see
// the outcome through the snapshot.
func (e *Engine) runPipeline(ctx context.Context, st *workflow.State, opts runOptions) {
	sm := workflow.BuildClaimStateMachine(st.Stage)

	if !e.runIntake(ctx, st, sm) {
		return
	}
	verdicts, ok := e.runUnderstand(ctx, st, sm, opts)
	if !ok {
		return
	}
	if !e.runDecide(ctx, st, sm, verdicts) {
		return
	}
	e.runDeliver(ctx, st)
}

// runIntake validates the submission and gathers similar historical claims.
// Returns false when the pipeline must stop.
func (e *Engine) runIntake(ctx context.Context, st *workflow.State, sm workflow.StateMachine) bool {
	st.StageStatus = workflow.StatusInProgress
	st.AddEvent(workflow.StageIntake, workflow.StatusInProgress, "intake started", nil)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])

	sub := *st.Submission
	if problems := sub.Validate(); len(problems) > 0 {
		err := &workflow.ValidationError{Problems: problems}
		e.failStage(ctx, st, sm, workflow.StageIntake, err)
		return false
	}

	similar := []claim.SimilarClaim{}
	if e.searcher != nil {
		found, err := e.searcher.TopK(ctx, sub)
		if err != nil {
			// Missing history degrades analysis quality but never blocks it.
			e.logger.Warn("Similarity search unavailable, continuing without history",
				zap.String("claim_id", st.ClaimID),
				zap.Error(err))
			st.RecordError(workflow.StageIntake, workflow.KindInfrastructure, err.Error())
		} else {
			similar = found
		}
	}

	st.Data[workflow.DataIntake] = map[string]interface{}{
		"policy_number": sub.PolicyNumber,
		"claim_type":    sub.ClaimType.String(),
		"amount":        sub.Amount,
		"incident_date": sub.IncidentDate,
	}
	st.Data[workflow.DataSimilarClaims] = similarClaimsData(similar)

	st.AddEvent(workflow.StageIntake, workflow.StatusCompleted, "intake completed", nil)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])

	if err := sm.Fire(ctx, workflow.TriggerStartUnderstand); err != nil {
		e.failStage(ctx, st, sm, workflow.StageIntake, err)
		return false
	}
	st.TransitionTo(workflow.StageUnderstand, workflow.StatusInProgress)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])
	return true
}

// runUnderstand invokes the analysis agents. A failed validation verdict
// routes the claim straight to review. Returns the accumulated verdicts and
// false when the pipeline must stop.
func (e *Engine) runUnderstand(ctx context.Context, st *workflow.State, sm workflow.StateMachine, opts runOptions) (map[agent.Kind]*claim.Verdict, bool) {
	in := agent.Input{
		ClaimID:       st.ClaimID,
		Submission:    *st.Submission,
		SimilarClaims: similarClaimsFromData(st.Data),
		Verdicts:      map[agent.Kind]*claim.Verdict{},
	}

	// Validation runs first: a failed verdict routes the claim straight to
	// review without spending the remaining analyses on it.
	validation, err := e.agents[agent.KindValidator].Invoke(ctx, in)
	if err != nil {
		e.failStage(ctx, st, sm, workflow.StageUnderstand, err)
		return nil, false
	}
	in.Verdicts[agent.KindValidator] = validation
	st.Data[workflow.DataValidation] = verdictData(validation)
	st.AddEvent(workflow.StageUnderstand, workflow.StatusInProgress,
		validation.AgentName+" reported "+validation.Status.String(), nil)

	if validation.Status == claim.VerdictFailed {
		st.AddEvent(workflow.StageUnderstand, workflow.StatusFailed, "validation failed", nil)
		e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])
		e.pauseForReview(ctx, st, sm, workflow.TriggerRequestReview, ReasonValidationFailed)
		return nil, false
	}

	steps := []struct {
		kind agent.Kind
		key  string
	}{
		{agent.KindFraudDetector, workflow.DataFraud},
		{agent.KindPolicyChecker, workflow.DataPolicy},
		{agent.KindDocumentAnalyzer, workflow.DataDocuments},
	}

	for _, step := range steps {
		var v *claim.Verdict
		if opts.reuseAnalyses {
			if retained := verdictFromData(st.Data, step.key); retained != nil {
				v = retained
				e.logger.Debug("Reusing retained analysis",
					zap.String("claim_id", st.ClaimID),
					zap.String("agent", string(step.kind)))
			}
		}
		if v == nil {
			invoked, err := e.agents[step.kind].Invoke(ctx, in)
			if err != nil {
				e.failStage(ctx, st, sm, workflow.StageUnderstand, err)
				return nil, false
			}
			v = invoked
		}

		in.Verdicts[step.kind] = v
		st.Data[step.key] = verdictData(v)
		st.AddEvent(workflow.StageUnderstand, workflow.StatusInProgress,
			v.AgentName+" reported "+v.Status.String(), nil)
	}

	// Fraud risk rides along for the review gate and the deliver artifacts.
	if fraud := in.Verdicts[agent.KindFraudDetector]; fraud != nil {
		if data, ok := st.Data[workflow.DataFraud].(map[string]interface{}); ok {
			data["risk_score"] = fraud.FraudRisk()
		}
	}

	st.AddEvent(workflow.StageUnderstand, workflow.StatusCompleted, "analysis completed", nil)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])

	if err := sm.Fire(ctx, workflow.TriggerStartDecide); err != nil {
		e.failStage(ctx, st, sm, workflow.StageUnderstand, err)
		return nil, false
	}
	st.TransitionTo(workflow.StageDecide, workflow.StatusInProgress)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])
	return in.Verdicts, true
}

// runDecide invokes the decision maker and applies the review gate. Returns
// false when the pipeline must stop.
func (e *Engine) runDecide(ctx context.Context, st *workflow.State, sm workflow.StateMachine, verdicts map[agent.Kind]*claim.Verdict) bool {
	in := agent.Input{
		ClaimID:       st.ClaimID,
		Submission:    *st.Submission,
		SimilarClaims: similarClaimsFromData(st.Data),
		Verdicts:      verdicts,
	}

	v, err := e.agents[agent.KindDecisionMaker].Invoke(ctx, in)
	if err != nil {
		e.failStage(ctx, st, sm, workflow.StageDecide, err)
		return false
	}

	st.Data[workflow.DataDecision] = verdictData(v)
	st.AddEvent(workflow.StageDecide, workflow.StatusCompleted,
		"final decision: "+agent.Disposition(v).String(), nil)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])

	if required, reason := RequiresReview(st.Data); required {
		e.pauseForReview(ctx, st, sm, workflow.TriggerRequestReview, reason)
		return false
	}

	if err := sm.Fire(ctx, workflow.TriggerStartDeliver); err != nil {
		e.failStage(ctx, st, sm, workflow.StageDecide, err)
		return false
	}
	st.TransitionTo(workflow.StageDeliver, workflow.StatusInProgress)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])
	return true
}

// pauseForReview parks the claim in the review stage for a human analyst
func (e *Engine) pauseForReview(ctx context.Context, st *workflow.State, sm workflow.StateMachine, trigger workflow.Trigger, reason string) {
	if err := sm.Fire(ctx, trigger); err != nil {
		e.failStage(ctx, st, sm, st.Stage, err)
		return
	}
	st.Data[workflow.DataReviewRequired] = true
	st.Data[workflow.DataReviewReason] = reason
	st.Stage = workflow.StageReview
	st.StageStatus = workflow.StatusPending
	st.AddEvent(workflow.StageReview, workflow.StatusPending,
		"paused for human review: "+reason, nil)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])

	e.logger.Info("Claim paused for human review",
		zap.String("claim_id", st.ClaimID),
		zap.String("reason", reason))
}

// failStage records a stage failure and moves the claim to the error stage
func (e *Engine) failStage(ctx context.Context, st *workflow.State, sm workflow.StateMachine, stage workflow.Stage, cause error) {
	kind := workflow.ClassifyError(cause)
	st.RecordError(stage, kind, cause.Error())
	st.AddEvent(stage, workflow.StatusFailed, cause.Error(), nil)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])

	if sm.CanFire(workflow.TriggerFail) {
		_ = sm.Fire(ctx, workflow.TriggerFail)
	}
	st.Stage = workflow.StageError
	st.StageStatus = workflow.StatusFailed
	st.AddEvent(workflow.StageError, workflow.StatusFailed,
		"workflow stopped at "+stage.String(), nil)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])

	e.logger.Error("Workflow failed",
		zap.String("claim_id", st.ClaimID),
		zap.String("stage", stage.String()),
		zap.String("kind", string(kind)),
		zap.Error(cause))
}

// verdictData flattens a verdict into the workflow data record
func verdictData(v *claim.Verdict) map[string]interface{} {
	data := map[string]interface{}{
		"agent":      v.AgentName,
		"status":     v.Status.String(),
		"confidence": v.Confidence,
		"findings":   v.Findings,
	}
	if len(v.Recommendations) > 0 {
		recs := make([]interface{}, len(v.Recommendations))
		for i, r := range v.Recommendations {
			recs[i] = r
		}
		data["recommendations"] = recs
	}
	for k, val := range v.Metadata {
		data[k] = val
	}
	return data
}

// verdictFromData rebuilds a verdict from a retained stage record
func verdictFromData(data map[string]interface{}, key string) *claim.Verdict {
	record := stageOutput(data, key)
	if record == nil {
		return nil
	}
	status, _ := record["status"].(string)
	if status == "" {
		return nil
	}
	v := &claim.Verdict{
		AgentName: payloadString(record, "agent"),
		Status:    claim.VerdictStatus(status),
		Findings:  payloadString(record, "findings"),
		Metadata:  map[string]interface{}{},
	}
	v.Confidence, _ = record["confidence"].(float64)
	if recs, ok := record["recommendations"].([]interface{}); ok {
		for _, r := range recs {
			if s, ok := r.(string); ok {
				v.Recommendations = append(v.Recommendations, s)
			}
		}
	}
	for k, val := range record {
		switch k {
		case "agent", "status", "confidence", "findings", "recommendations":
		default:
			v.Metadata[k] = val
		}
	}
	return v
}

func similarClaimsData(similar []claim.SimilarClaim) []interface{} {
	out := make([]interface{}, len(similar))
	for i, s := range similar {
		out[i] = map[string]interface{}{
			"description": s.Description,
			"amount":      s.Amount,
			"status":      s.Status,
			"claim_type":  s.ClaimType,
			"score":       s.Score,
		}
	}
	return out
}

func similarClaimsFromData(data map[string]interface{}) []claim.SimilarClaim {
	raw, _ := data[workflow.DataSimilarClaims].([]interface{})
	out := make([]claim.SimilarClaim, 0, len(raw))
	for _, item := range raw {
		record, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, claim.SimilarClaim{
			Description: payloadString(record, "description"),
			Amount:      payloadFloat(record, "amount"),
			Status:      payloadString(record, "status"),
			ClaimType:   payloadString(record, "claim_type"),
			Score:       payloadFloat(record, "score"),
		})
	}
	return out
}

func payloadString(record map[string]interface{}, key string) string {
	s, _ := record[key].(string)
	return s
}

func payloadFloat(record map[string]interface{}, key string) float64 {
	f, _ := record[key].(float64)
	return f
}
