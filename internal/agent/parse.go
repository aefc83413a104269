package agent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/claimpilot/claims-workflow/internal/domain/claim"
)

// Agents prompt the model for a fixed line-oriented reply:
//
//	STATUS: [PASSED/FAILED/WARNING]
//	CONFIDENCE: [0.0-1.0]
//	FINDINGS: [free text]
//	RECOMMENDATIONS: [comma-separated list]
var (
	statusRe          = regexp.MustCompile(`(?i)STATUS:\s*\[?([A-Za-z_]+)\]?`)
	confidenceRe      = regexp.MustCompile(`(?i)CONFIDENCE:\s*\[?([\d.]+)\]?`)
	findingsRe        = regexp.MustCompile(`(?is)FINDINGS:\s*(.+?)(?:RECOMMENDATIONS:|$)`)
	recommendationsRe = regexp.MustCompile(`(?is)RECOMMENDATIONS:\s*(.+)`)
)

// parseVerdict extracts a verdict from a model completion. Missing fields
// degrade to a warning verdict at half confidence rather than failing the
// stage; the completion text itself is kept as the findings.
func parseVerdict(agentName, content string, fallbackStatus claim.VerdictStatus) *claim.Verdict {
	v := &claim.Verdict{
		AgentName:  agentName,
		Status:     fallbackStatus,
		Confidence: 0.5,
		Findings:   strings.TrimSpace(content),
	}

	if m := statusRe.FindStringSubmatch(content); m != nil {
		v.Status = normalizeStatus(m[1], fallbackStatus)
	}

	if m := confidenceRe.FindStringSubmatch(content); m != nil {
		if conf, err := strconv.ParseFloat(m[1], 64); err == nil {
			v.Confidence = clamp01(conf)
		}
	}

	if m := findingsRe.FindStringSubmatch(content); m != nil {
		if findings := strings.TrimSpace(m[1]); findings != "" {
			v.Findings = findings
		}
	}

	if m := recommendationsRe.FindStringSubmatch(content); m != nil {
		for _, rec := range strings.Split(m[1], ",") {
			if rec = strings.TrimSpace(rec); rec != "" {
				v.Recommendations = append(v.Recommendations, rec)
			}
		}
	}

	return v
}

func normalizeStatus(raw string, fallback claim.VerdictStatus) claim.VerdictStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "passed", "pass", "approved":
		return claim.VerdictPassed
	case "failed", "fail", "rejected":
		return claim.VerdictFailed
	case "warning", "warn", "needs_info":
		return claim.VerdictWarning
	default:
		return fallback
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
