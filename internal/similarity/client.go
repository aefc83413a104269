// Package similarity implements the vector search collaborator used to find
// historical claims resembling the one under analysis.
package similarity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
)

// Searcher is the boundary the engine consumes. Unavailability is an error
// the engine tolerates by continuing with an empty result list.
type Searcher interface {
	// TopK returns the most similar historical claims, best first
	TopK(ctx context.Context, sub claim.Submission) ([]claim.SimilarClaim, error)

	// Index stores a processed claim for future similarity lookups
	Index(ctx context.Context, claimID string, sub claim.Submission, decision *claim.Verdict) error
}

// Config holds the vector store connection settings
type Config struct {
	BaseURL        string
	APIKey         string
	Collection     string
	TopK           int
	Timeout        time.Duration
	EmbeddingModel string
}

// Client searches a Qdrant collection using OpenAI embeddings of the claim text
type Client struct {
	http       *http.Client
	baseURL    string
	apiKey     string
	collection string
	topK       int
	embedder   *openai.Client
	model      openai.EmbeddingModel
	logger     *zap.Logger
}

// NewClient creates a similarity search client
func NewClient(cfg Config, openaiKey string, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	model := openai.EmbeddingModel(cfg.EmbeddingModel)
	if cfg.EmbeddingModel == "" {
		model = openai.SmallEmbedding3
	}
	return &Client{
		http:       &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		topK:       topK,
		embedder:   openai.NewClient(openaiKey),
		model:      model,
		logger:     logger,
	}
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		Score   float64                `json:"score"`
		Payload map[string]interface{} `json:"payload"`
	} `json:"result"`
}

// TopK returns the most similar historical claims, best first
func (c *Client) TopK(ctx context.Context, sub claim.Submission) ([]claim.SimilarClaim, error) {
	vector, err := c.embed(ctx, claimText(sub))
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(searchRequest{Vector: vector, Limit: c.topK, WithPayload: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	resp, err := c.do(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, &workflow.InfrastructureError{
			Collaborator: "similarity search",
			Err:          fmt.Errorf("failed to decode search response: %w", err),
		}
	}

	results := make([]claim.SimilarClaim, 0, len(parsed.Result))
	for _, hit := range parsed.Result {
		results = append(results, claim.SimilarClaim{
			Description: payloadString(hit.Payload, "description"),
			Amount:      payloadFloat(hit.Payload, "amount"),
			Status:      payloadString(hit.Payload, "decision"),
			ClaimType:   payloadString(hit.Payload, "claim_type"),
			Score:       hit.Score,
		})
	}

	c.logger.Debug("Similarity search completed", zap.Int("hits", len(results)))
	return results, nil
}

type upsertRequest struct {
	Points []point `json:"points"`
}

type point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector"`
	Payload map[string]interface{} `json:"payload"`
}

// Index stores a processed claim for future similarity lookups
func (c *Client) Index(ctx context.Context, claimID string, sub claim.Submission, decision *claim.Verdict) error {
	vector, err := c.embed(ctx, claimText(sub))
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"claim_id":      claimID,
		"claim_type":    sub.ClaimType.String(),
		"amount":        sub.Amount,
		"description":   sub.Description,
		"claimant_name": sub.ClaimantName,
		"incident_date": sub.IncidentDate,
	}
	if decision != nil {
		payload["decision"] = decision.Status.String()
		payload["confidence"] = decision.Confidence
	}

	body, err := json.Marshal(upsertRequest{Points: []point{{
		ID:      uuid.NewString(),
		Vector:  vector,
		Payload: payload,
	}}})
	if err != nil {
		return fmt.Errorf("failed to encode upsert request: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points", c.baseURL, c.collection)
	resp, err := c.do(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("Indexed claim for similarity search", zap.String("claim_id", claimID))
	return nil
}

func (c *Client) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.embedder.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: c.model,
		Input: []string{text},
	})
	if err != nil {
		return nil, &workflow.InfrastructureError{Collaborator: "embedding service", Err: err}
	}
	if len(resp.Data) == 0 {
		return nil, &workflow.InfrastructureError{
			Collaborator: "embedding service",
			Err:          fmt.Errorf("empty embedding response"),
		}
	}
	return resp.Data[0].Embedding, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &workflow.InfrastructureError{Collaborator: "similarity search", Err: err}
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, &workflow.InfrastructureError{
			Collaborator: "similarity search",
			Err:          fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url),
		}
	}
	return resp, nil
}

func claimText(sub claim.Submission) string {
	return fmt.Sprintf("%s claim: %s Amount: $%.2f", sub.ClaimType, sub.Description, sub.Amount)
}

func payloadString(payload map[string]interface{}, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

func payloadFloat(payload map[string]interface{}, key string) float64 {
	if f, ok := payload[key].(float64); ok {
		return f
	}
	return 0
}
