package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/agent"
	"github.com/claimpilot/claims-workflow/internal/domain/claim"
	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
	"github.com/claimpilot/claims-workflow/internal/notify"
	"github.com/claimpilot/claims-workflow/internal/report"
)

// siuAlertThreshold is the fraud risk at or above which the special
// investigations unit is alerted during delivery
const siuAlertThreshold = 0.70

// runDeliver produces the final artifacts and completes the workflow.
// Collaborator failures here (workbook rendering, the SIU notifier, the
// similarity index) are recorded but never fail the claim: the decision is
// already made and the textual artifacts always exist.
func (e *Engine) runDeliver(ctx context.Context, st *workflow.State) {
	sub := *st.Submission
	decision := verdictFromData(st.Data, workflow.DataDecision)
	disposition := agent.Disposition(decision)
	risk := fraudRisk(st.Data)
	payout := approvedPayout(st, disposition)

	var confidence float64
	var findings string
	if decision != nil {
		confidence = decision.Confidence
		findings = decision.Findings
	}

	outputs := map[string]interface{}{
		"final_status":     disposition.String(),
		"adjuster_brief":   adjusterBrief(st.ClaimID, sub, disposition, confidence, risk, payout, findings),
		"claimant_message": claimantMessage(sub, disposition, payout),
		"generated_at":     time.Now().Format(time.RFC3339),
	}
	if payout > 0 {
		outputs["approved_payout"] = payout
	}

	var deliverErrors []string

	if e.briefs != nil {
		path, err := e.briefs.Write(report.Brief{
			ClaimID:     st.ClaimID,
			Submission:  sub,
			Disposition: disposition,
			Confidence:  confidence,
			FraudRisk:   risk,
			Findings:    findings,
			AgentRows:   agentRows(st.Data),
			Payout:      payout,
		})
		if err != nil {
			st.RecordError(workflow.StageDeliver, workflow.ClassifyError(err), err.Error())
			deliverErrors = append(deliverErrors, "brief workbook: "+err.Error())
			e.logger.Warn("Failed to write adjuster brief workbook",
				zap.String("claim_id", st.ClaimID),
				zap.Error(err))
		} else {
			outputs["brief_path"] = path
		}
	}

	outputs["siu_alert"] = false
	if risk >= siuAlertThreshold && e.notifier != nil {
		alert := notify.SIUAlert{
			ClaimID:   st.ClaimID,
			Reason:    "fraud risk at or above alert threshold",
			RiskScore: risk,
			ClaimType: sub.ClaimType.String(),
			Amount:    sub.Amount,
		}
		if err := e.notifier.SendAlert(ctx, alert); err != nil {
			st.RecordError(workflow.StageDeliver, workflow.ClassifyError(err), err.Error())
			deliverErrors = append(deliverErrors, "siu alert: "+err.Error())
			e.logger.Warn("Failed to deliver SIU alert",
				zap.String("claim_id", st.ClaimID),
				zap.Error(err))
		} else {
			outputs["siu_alert"] = true
		}
	}

	if e.searcher != nil {
		if err := e.searcher.Index(ctx, st.ClaimID, sub, decision); err != nil {
			st.RecordError(workflow.StageDeliver, workflow.ClassifyError(err), err.Error())
			deliverErrors = append(deliverErrors, "similarity index: "+err.Error())
			e.logger.Warn("Failed to index claim for similarity search",
				zap.String("claim_id", st.ClaimID),
				zap.Error(err))
		}
	}

	if len(deliverErrors) > 0 {
		errs := make([]interface{}, len(deliverErrors))
		for i, msg := range deliverErrors {
			errs[i] = msg
		}
		outputs["errors"] = errs
	}

	st.Data[workflow.DataDeliver] = outputs

	// The event trail of a finished claim ends on the deliver stage; the
	// completed pseudo-stage only shows in the current-stage fields.
	st.AddEvent(workflow.StageDeliver, workflow.StatusCompleted,
		"artifacts generated, workflow completed", nil)
	e.auditEvent(ctx, st.ClaimID, st.History[len(st.History)-1])
	st.Stage = workflow.StageCompleted
	st.StageStatus = workflow.StatusCompleted
	st.LastUpdated = time.Now()

	e.logger.Info("Workflow completed",
		zap.String("claim_id", st.ClaimID),
		zap.String("disposition", disposition.String()),
		zap.Int("deliver_errors", len(deliverErrors)))
}

// approvedPayout resolves the payout amount for an approved claim. A human
// modification takes precedence over the claimed amount.
func approvedPayout(st *workflow.State, disposition claim.Disposition) float64 {
	if disposition != claim.DispositionApproved {
		return 0
	}
	if decision := stageOutput(st.Data, workflow.DataDecision); decision != nil {
		if modified, ok := decision["approved_payout"].(float64); ok {
			return modified
		}
	}
	return st.Submission.Amount
}

func adjusterBrief(claimID string, sub claim.Submission, disposition claim.Disposition, confidence, risk, payout float64, findings string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CLAIM ADJUSTER BRIEF\n")
	fmt.Fprintf(&b, "Claim ID: %s\n", claimID)
	fmt.Fprintf(&b, "Policy: %s\n", sub.PolicyNumber)
	fmt.Fprintf(&b, "Type: %s\n", sub.ClaimType)
	fmt.Fprintf(&b, "Claimed amount: $%.2f\n", sub.Amount)
	fmt.Fprintf(&b, "Incident date: %s\n\n", sub.IncidentDate)
	fmt.Fprintf(&b, "Decision: %s (confidence %.2f)\n", strings.ToUpper(disposition.String()), confidence)
	fmt.Fprintf(&b, "Fraud risk: %.2f\n", risk)
	if payout > 0 {
		fmt.Fprintf(&b, "Approved payout: $%.2f\n", payout)
	}
	if findings != "" {
		fmt.Fprintf(&b, "\nReasoning:\n%s\n", findings)
	}
	return b.String()
}

func claimantMessage(sub claim.Submission, disposition claim.Disposition, payout float64) string {
	switch disposition {
	case claim.DispositionApproved:
		return fmt.Sprintf(
			"Dear %s,\n\nYour %s insurance claim has been approved. "+
				"The approved amount of $%.2f will be processed within 5-7 business days.\n\n"+
				"Thank you for your patience.",
			sub.ClaimantName, sub.ClaimType, payout)
	case claim.DispositionRejected:
		return fmt.Sprintf(
			"Dear %s,\n\nAfter careful review, we are unable to approve your %s insurance claim "+
				"at this time. A detailed explanation will be mailed to you. "+
				"You may appeal this decision within 30 days.\n\n"+
				"We appreciate your understanding.",
			sub.ClaimantName, sub.ClaimType)
	default:
		return fmt.Sprintf(
			"Dear %s,\n\nWe need additional information to continue processing your %s insurance claim. "+
				"Please provide the requested documents through the claims portal.\n\n"+
				"Thank you for your cooperation.",
			sub.ClaimantName, sub.ClaimType)
	}
}

// agentRows collects the per-agent summary lines for the workbook
func agentRows(data map[string]interface{}) []report.AgentRow {
	var rows []report.AgentRow
	for _, key := range []string{
		workflow.DataValidation,
		workflow.DataFraud,
		workflow.DataPolicy,
		workflow.DataDocuments,
		workflow.DataDecision,
	} {
		record := stageOutput(data, key)
		if record == nil {
			continue
		}
		rows = append(rows, report.AgentRow{
			Agent:      payloadString(record, "agent"),
			Status:     payloadString(record, "status"),
			Confidence: payloadFloat(record, "confidence"),
		})
	}
	return rows
}
