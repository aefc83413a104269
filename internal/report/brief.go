// Package report writes the adjuster-facing artifacts produced by the
// deliver stage.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

// Brief is the data rendered into the adjuster workbook
type Brief struct {
	ClaimID     string
	Submission  claim.Submission
	Disposition claim.Disposition
	Confidence  float64
	FraudRisk   float64
	Findings    string
	AgentRows   []AgentRow
	Payout      float64
}

// AgentRow is one agent's line in the analysis summary sheet
type AgentRow struct {
	Agent      string
	Status     string
	Confidence float64
}

// BriefWriter renders adjuster briefs as workbooks
type BriefWriter struct {
	outputDir string
	logger    *zap.Logger
}

// NewBriefWriter creates a brief writer targeting outputDir
func NewBriefWriter(outputDir string, logger *zap.Logger) *BriefWriter {
	return &BriefWriter{outputDir: outputDir, logger: logger}
}

// Write renders the brief and returns the workbook path
func (w *BriefWriter) Write(b Brief) (string, error) {
	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Adjuster Brief"
	f.SetSheetName("Sheet1", sheet)

	rows := [][]interface{}{
		{"Claim ID", b.ClaimID},
		{"Policy Number", b.Submission.PolicyNumber},
		{"Claim Type", b.Submission.ClaimType.String()},
		{"Claim Amount", b.Submission.Amount},
		{"Incident Date", b.Submission.IncidentDate},
		{"Claimant", b.Submission.ClaimantName},
		{},
		{"Final Decision", b.Disposition.String()},
		{"Decision Confidence", b.Confidence},
		{"Fraud Risk", b.FraudRisk},
		{"Recommended Payout", b.Payout},
		{},
		{"Agent", "Status", "Confidence"},
	}
	for _, row := range b.AgentRows {
		rows = append(rows, []interface{}{row.Agent, row.Status, row.Confidence})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Findings", b.Findings})

	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return "", fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return "", fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	name := fmt.Sprintf("brief_%s_%s.xlsx", b.ClaimID, time.Now().Format("20060102_150405"))
	path := filepath.Join(w.outputDir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save brief workbook: %w", err)
	}

	w.logger.Info("Adjuster brief workbook written",
		zap.String("claim_id", b.ClaimID),
		zap.String("path", path))

	return path, nil
}
