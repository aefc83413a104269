package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

func TestParseVerdict_WellFormedResponse(t *testing.T) {
	content := `STATUS: PASSED
CONFIDENCE: 0.92
FINDINGS: All required fields present and the amount is plausible for an auto claim.
RECOMMENDATIONS: proceed to fraud check, verify incident date with police report`

	v := parseVerdict("Claim Validator", content, claim.VerdictWarning)

	assert.Equal(t, "Claim Validator", v.AgentName)
	assert.Equal(t, claim.VerdictPassed, v.Status)
	assert.InDelta(t, 0.92, v.Confidence, 0.0001)
	assert.Contains(t, v.Findings, "All required fields present")
	assert.Equal(t, []string{"proceed to fraud check", "verify incident date with police report"}, v.Recommendations)
}

func TestParseVerdict_StatusVariants(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected claim.VerdictStatus
	}{
		{"failed", "STATUS: FAILED\nCONFIDENCE: 0.3", claim.VerdictFailed},
		{"warning", "STATUS: WARNING\nCONFIDENCE: 0.6", claim.VerdictWarning},
		{"bracketed", "STATUS: [PASSED]\nCONFIDENCE: 0.8", claim.VerdictPassed},
		{"lowercase", "status: passed\nconfidence: 0.8", claim.VerdictPassed},
		{"rejected maps to failed", "STATUS: REJECTED\nCONFIDENCE: 0.9", claim.VerdictFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := parseVerdict("agent", tt.raw, claim.VerdictWarning)
			assert.Equal(t, tt.expected, v.Status)
		})
	}
}

func TestParseVerdict_MalformedResponseDegradesToFallback(t *testing.T) {
	content := "The model went off script and wrote prose instead."

	v := parseVerdict("agent", content, claim.VerdictWarning)

	assert.Equal(t, claim.VerdictWarning, v.Status)
	assert.InDelta(t, 0.5, v.Confidence, 0.0001)
	assert.Equal(t, content, v.Findings)
	assert.Empty(t, v.Recommendations)
}

func TestParseVerdict_ConfidenceClamped(t *testing.T) {
	v := parseVerdict("agent", "STATUS: PASSED\nCONFIDENCE: 7.5", claim.VerdictWarning)
	assert.Equal(t, 1.0, v.Confidence)
}

func TestParseVerdict_FindingsStopAtRecommendations(t *testing.T) {
	content := `STATUS: WARNING
CONFIDENCE: 0.55
FINDINGS: Description is vague.
RECOMMENDATIONS: request incident photos`

	v := parseVerdict("agent", content, claim.VerdictWarning)

	assert.Equal(t, "Description is vague.", v.Findings)
	assert.Equal(t, []string{"request incident photos"}, v.Recommendations)
}

func TestMapDisposition(t *testing.T) {
	tests := []struct {
		raw      string
		expected claim.Disposition
	}{
		{"APPROVED", claim.DispositionApproved},
		{"rejected", claim.DispositionRejected},
		{"NEEDS_INFO", claim.DispositionNeedsInfo},
		{"UNDER_REVIEW", claim.DispositionUnderReview},
		{"escalate", claim.DispositionUnderReview},
		{"gibberish", claim.DispositionNeedsInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, mapDisposition(tt.raw), "raw=%s", tt.raw)
	}
}
