package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/bryanwahyu/rootcause/internal/domain/ai"
	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
)

// ReportDraft is the five-field document the provider must return.
type ReportDraft struct {
	Summary     string `json:"summary"`
	RootCause   string `json:"root_cause"`
	Impact      string `json:"impact"`
	Remediation string `json:"remediation"`
	Prevention  string `json:"prevention"`
}

// ReportDraftSystemPrompt provides strict directions and schema for JSON output.
func ReportDraftSystemPrompt() string {
	return `You are a senior reliability engineer writing an incident report draft. You must produce one valid JSON object only (no markdown, no code fences, no commentary) that follows the schema below.

Requirements:
- Output must be a single JSON object with exactly these five string fields: summary, root_cause, impact, remediation, prevention.
- Every field must be a non-empty string. No nested objects, no arrays.
- Base the draft strictly on the analysis content provided, favouring the highest-confidence hypotheses.

Schema (example with empty values):
{
  "summary": "<string>",
  "root_cause": "<string>",
  "impact": "<string>",
  "remediation": "<string>",
  "prevention": "<string>"
}`
}

// ReportDraftUserPrompt packs the analysis context, including existing
// hypotheses, into a compact JSON payload.
func ReportDraftUserPrompt(a *analyses.Analysis) string {
	ctx := map[string]any{
		"analysis_type":       a.Type,
		"symptoms":            a.Symptoms,
		"signals":             a.Signals,
		"hypotheses":          a.Hypotheses,
		"environment_context": a.Environment,
		"timeline_events":     a.Timeline,
		"dependency_impact":   a.Dependencies,
		"risk_classification": a.Risk,
	}
	b, _ := json.Marshal(ctx)
	return fmt.Sprintf("Write the incident report draft for this analysis and respond with the JSON object per schema. Analysis: %s", b)
}

// reportDraftWire uses pointers so absent fields are distinguishable from
// empty ones.
type reportDraftWire struct {
	Summary     *string `json:"summary"`
	RootCause   *string `json:"root_cause"`
	Impact      *string `json:"impact"`
	Remediation *string `json:"remediation"`
	Prevention  *string `json:"prevention"`
}

// ParseReportDraft validates the raw response: a JSON object carrying all five
// string fields, none empty.
func ParseReportDraft(raw string) (*ReportDraft, error) {
	var wire reportDraftWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: expected JSON object: %v", ai.ErrMalformedOutput, err)
	}
	fields := map[string]*string{
		"summary":     wire.Summary,
		"root_cause":  wire.RootCause,
		"impact":      wire.Impact,
		"remediation": wire.Remediation,
		"prevention":  wire.Prevention,
	}
	for name, v := range fields {
		if v == nil || *v == "" {
			return nil, fmt.Errorf("%w: missing or empty field %q", ai.ErrMalformedOutput, name)
		}
	}
	return &ReportDraft{
		Summary:     *wire.Summary,
		RootCause:   *wire.RootCause,
		Impact:      *wire.Impact,
		Remediation: *wire.Remediation,
		Prevention:  *wire.Prevention,
	}, nil
}
