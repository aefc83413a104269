// Package notify pushes SIU alerts to the fraud investigation team.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/workflow"
)

// SIUAlert is the payload sent to the fraud team when a processed claim
// carries a high fraud score
type SIUAlert struct {
	ClaimID   string  `json:"claim_id"`
	Reason    string  `json:"reason"`
	RiskScore float64 `json:"risk_score"`
	ClaimType string  `json:"claim_type"`
	Amount    float64 `json:"amount"`
}

// Notifier delivers SIU alerts
type Notifier interface {
	SendAlert(ctx context.Context, alert SIUAlert) error
}

// Config holds the Lark messaging settings
type Config struct {
	AppID     string
	AppSecret string
	// SIUChatID is the group chat of the fraud investigation team
	SIUChatID string
}

// LarkNotifier sends SIU alerts to a Lark group chat
type LarkNotifier struct {
	client *lark.Client
	chatID string
	logger *zap.Logger
}

// NewLarkNotifier creates a Lark-backed SIU notifier
func NewLarkNotifier(cfg Config, logger *zap.Logger) *LarkNotifier {
	client := lark.NewClient(cfg.AppID, cfg.AppSecret,
		lark.WithLogLevel(larkcore.LogLevelInfo),
		lark.WithEnableTokenCache(true),
	)
	return &LarkNotifier{
		client: client,
		chatID: cfg.SIUChatID,
		logger: logger,
	}
}

// SendAlert posts the alert as a text message to the SIU group chat. Failure
// is reported as an infrastructure error; the deliver stage treats it as
// non-fatal.
func (n *LarkNotifier) SendAlert(ctx context.Context, alert SIUAlert) error {
	text := fmt.Sprintf(
		"SIU ALERT\nClaim: %s\nType: %s\nAmount: $%.2f\nFraud risk: %.2f\nReason: %s",
		alert.ClaimID, alert.ClaimType, alert.Amount, alert.RiskScore, alert.Reason,
	)

	content, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode alert content: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("chat_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(n.chatID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.client.Im.Message.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send SIU alert",
			zap.String("claim_id", alert.ClaimID),
			zap.Error(err))
		return &workflow.InfrastructureError{Collaborator: "siu notifier", Err: err}
	}

	if !resp.Success() {
		n.logger.Error("SIU alert rejected by messaging API",
			zap.String("claim_id", alert.ClaimID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return &workflow.InfrastructureError{
			Collaborator: "siu notifier",
			Err:          fmt.Errorf("messaging API error: code=%d msg=%s", resp.Code, resp.Msg),
		}
	}

	n.logger.Info("SIU alert sent",
		zap.String("claim_id", alert.ClaimID),
		zap.Float64("risk_score", alert.RiskScore))

	return nil
}
