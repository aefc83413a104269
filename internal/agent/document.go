package agent

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

const documentSystemPrompt = `You are a document analysis expert for insurance claims.
You have been provided with text extracted from claim documents.

Evaluate:
1. Completeness of supporting documentation
2. Document authenticity indicators
3. Consistency between documents and claim description
4. Required documents based on claim type
5. Quality and clarity of extracted information
6. Verify key details match claim (dates, amounts, names, locations)

Provide a confidence score (0-1) for document validity.

Respond in this format:
STATUS: [PASSED/FAILED/WARNING]
CONFIDENCE: [0.0-1.0]
FINDINGS: [Your detailed document analysis]
RECOMMENDATIONS: [Comma-separated list of missing or additional documents needed]`

// maxExtractChars bounds how much extracted text goes into the prompt
const maxExtractChars = 2000

// TextExtractor is the OCR/text-extraction collaborator boundary
type TextExtractor interface {
	// ExtractText returns the text content of a document reference. An error
	// marks extraction failure for that document; analysis continues without
	// its text.
	ExtractText(ctx context.Context, ref string) (string, error)
}

// DocumentAnalyzer evaluates supporting documents against the claim
type DocumentAnalyzer struct {
	llm       *LLMClient
	extractor TextExtractor
	logger    *zap.Logger
}

// NewDocumentAnalyzer creates the document analysis agent
func NewDocumentAnalyzer(llm *LLMClient, extractor TextExtractor, logger *zap.Logger) *DocumentAnalyzer {
	return &DocumentAnalyzer{llm: llm, extractor: extractor, logger: logger}
}

// Kind returns the capability this agent implements
func (a *DocumentAnalyzer) Kind() Kind {
	return KindDocumentAnalyzer
}

// Invoke analyzes the submitted documents. Extraction failures never abort
// the analysis; they are flagged in the prompt so the verdict reflects the
// reduced confidence.
func (a *DocumentAnalyzer) Invoke(ctx context.Context, in Input) (*claim.Verdict, error) {
	var extracted []string
	var summary []string

	for i, ref := range in.Submission.Documents {
		name := filepath.Base(ref)
		text, err := a.extractText(ctx, ref)
		if err != nil {
			a.logger.Warn("Document extraction failed",
				zap.String("claim_id", in.ClaimID),
				zap.String("document", name),
				zap.Error(err))
			summary = append(summary, fmt.Sprintf("Document %d: %s (extraction failed: %v)", i+1, name, err))
			continue
		}
		extracted = append(extracted, text)
		preview := text
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		summary = append(summary, fmt.Sprintf("Document %d: %s\nExtracted Text: %s", i+1, name, preview))
	}

	if len(summary) == 0 {
		summary = append(summary, "No documents provided")
	}

	allText := "No text extracted"
	if len(extracted) > 0 {
		allText = strings.Join(extracted, "\n\n")
		if len(allText) > maxExtractChars {
			allText = allText[:maxExtractChars]
		}
	}

	prompt := fmt.Sprintf(`Analyze documents for this claim:

Claim Information:
- Claim Type: %s
- Claim Amount: $%.2f
- Incident Date: %s
- Claimant: %s
- Description: %s

Submitted Documents:
%s

Extracted Text from All Documents:
%s

Required Documents for %s claims:
- Police report (if applicable)
- Medical records (health claims)
- Photos of damage (auto/home claims)
- Receipts and invoices
- Witness statements (if applicable)

Cross-verify:
- Do dates in documents match incident date?
- Do amounts match claim amount?
- Is claimant name consistent?
- Are there any red flags or inconsistencies?`,
		in.Submission.ClaimType,
		in.Submission.Amount,
		in.Submission.IncidentDate,
		in.Submission.ClaimantName,
		in.Submission.Description,
		strings.Join(summary, "\n"),
		allText,
		in.Submission.ClaimType,
	)

	content, err := a.llm.Complete(ctx, "Document Analyzer", documentSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	v := parseVerdict("Document Analyzer", content, claim.VerdictWarning)
	if v.Metadata == nil {
		v.Metadata = map[string]interface{}{}
	}
	v.Metadata["document_count"] = len(in.Submission.Documents)
	v.Metadata["extracted_count"] = len(extracted)

	a.logger.Info("Document analysis completed",
		zap.String("claim_id", in.ClaimID),
		zap.String("status", v.Status.String()),
		zap.Int("documents", len(in.Submission.Documents)),
		zap.Int("extracted", len(extracted)))

	return v, nil
}

func (a *DocumentAnalyzer) extractText(ctx context.Context, ref string) (string, error) {
	if a.extractor == nil {
		return "", fmt.Errorf("no extractor configured")
	}
	return a.extractor.ExtractText(ctx, ref)
}
