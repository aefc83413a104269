package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
	"github.com/claimpilot/claims-workflow/internal/engine"
	"github.com/claimpilot/claims-workflow/internal/store"
)

// WorkflowService is the engine surface the HTTP layer depends on
type WorkflowService interface {
	Start(ctx context.Context, claimID string, sub claim.Submission) (*workflow.State, bool, error)
	GetState(claimID string) (*workflow.State, error)
	ListStates() []*workflow.State
	ResumeAfterReview(ctx context.Context, claimID string, decision claim.ReviewDecision) (*workflow.State, error)
	Resubmit(ctx context.Context, claimID string, sub claim.Submission, reanalyze bool) (*workflow.State, error)
	AuditTrail(ctx context.Context, claimID string) ([]store.AuditEntry, error)
	Deliverables(claimID string) (map[string]interface{}, error)
	ReviewQueue() []engine.ReviewItem
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	workflows WorkflowService
	logger    *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(workflows WorkflowService, logger *zap.Logger) *Handlers {
	return &Handlers{workflows: workflows, logger: logger}
}

// SubmitRequest is the claim submission payload
type SubmitRequest struct {
	ClaimID string `json:"claim_id,omitempty"`
	claim.Submission
}

// ResubmitRequest carries updated claimant information for a claim that was
// looped back by a request_info decision
type ResubmitRequest struct {
	claim.Submission
	Reanalyze bool `json:"reanalyze"`
}

// StateResponse is the claim state returned by the API
type StateResponse struct {
	ClaimID     string                 `json:"claim_id"`
	Stage       string                 `json:"current_stage"`
	StageStatus string                 `json:"stage_status"`
	Terminal    bool                   `json:"terminal"`
	History     []workflow.StageEvent  `json:"stage_history"`
	Data        map[string]interface{} `json:"workflow_data"`
	Errors      []workflow.ErrorRecord `json:"errors,omitempty"`
	StartTime   time.Time              `json:"start_time"`
	LastUpdated time.Time              `json:"last_updated"`
}

func stateResponse(st *workflow.State) StateResponse {
	return StateResponse{
		ClaimID:     st.ClaimID,
		Stage:       st.Stage.String(),
		StageStatus: st.StageStatus.String(),
		Terminal:    st.IsTerminal(),
		History:     st.History,
		Data:        st.Data,
		Errors:      st.Errors,
		StartTime:   st.StartTime,
		LastUpdated: st.LastUpdated,
	}
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// SubmitClaim files a new claim and runs the workflow until it pauses or
// terminates
func (h *Handlers) SubmitClaim(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	claimID := req.ClaimID
	if claimID == "" {
		claimID = "CLM-" + uuid.NewString()
	}

	st, started, err := h.workflows.Start(c.Request.Context(), claimID, req.Submission)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !started {
		c.JSON(http.StatusOK, gin.H{
			"message": "claim already completed",
			"state":   stateResponse(st),
		})
		return
	}

	c.JSON(http.StatusCreated, stateResponse(st))
}

// ListClaims returns every claim's state, newest first, optionally filtered
// by current stage
func (h *Handlers) ListClaims(c *gin.Context) {
	states := h.workflows.ListStates()

	stageFilter := c.Query("stage")
	items := make([]StateResponse, 0, len(states))
	for _, st := range states {
		if stageFilter != "" && st.Stage.String() != stageFilter {
			continue
		}
		items = append(items, stateResponse(st))
	}

	c.JSON(http.StatusOK, gin.H{"claims": items, "count": len(items)})
}

// GetClaim returns a claim's workflow state
func (h *Handlers) GetClaim(c *gin.Context) {
	st, err := h.workflows.GetState(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse(st))
}

// GetAuditTrail returns a claim's audit entries in chronological order
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	entries, err := h.workflows.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim_id": c.Param("id"), "entries": entries})
}

// GetDeliverables returns the artifacts produced for a completed claim
func (h *Handlers) GetDeliverables(c *gin.Context) {
	outputs, err := h.workflows.Deliverables(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outputs)
}

// ResubmitClaim feeds updated information into a claim awaiting resubmission
func (h *Handlers) ResubmitClaim(c *gin.Context) {
	var req ResubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	st, err := h.workflows.Resubmit(c.Request.Context(), c.Param("id"), req.Submission, req.Reanalyze)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse(st))
}

// ReviewQueue lists claims paused for human review, high priority first
func (h *Handlers) ReviewQueue(c *gin.Context) {
	items := h.workflows.ReviewQueue()
	if items == nil {
		items = []engine.ReviewItem{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// ReviewDetail returns everything an analyst needs to decide a paused claim
func (h *Handlers) ReviewDetail(c *gin.Context) {
	st, err := h.workflows.GetState(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !st.AwaitingReview() {
		c.JSON(http.StatusConflict, gin.H{"error": "claim is not awaiting review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"claim_id":   st.ClaimID,
		"reason":     st.Data[workflow.DataReviewReason],
		"submission": st.Submission,
		"analyses": gin.H{
			"validation": st.Data[workflow.DataValidation],
			"fraud":      st.Data[workflow.DataFraud],
			"policy":     st.Data[workflow.DataPolicy],
			"documents":  st.Data[workflow.DataDocuments],
			"decision":   st.Data[workflow.DataDecision],
		},
		"similar_claims": st.Data[workflow.DataSimilarClaims],
	})
}

// SubmitReviewDecision applies an analyst's decision to a paused claim
func (h *Handlers) SubmitReviewDecision(c *gin.Context) {
	var decision claim.ReviewDecision
	if err := c.ShouldBindJSON(&decision); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := decision.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.workflows.ResumeAfterReview(c.Request.Context(), c.Param("id"), decision)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stateResponse(st))
}

// respondError maps engine errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrAlreadyRunning),
		errors.Is(err, workflow.ErrInvalidStage),
		errors.Is(err, workflow.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
