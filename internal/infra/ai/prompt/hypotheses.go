package prompt

import (
	"encoding/json"
	"fmt"

	"github.com/bryanwahyu/rootcause/internal/domain/ai"
	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
)

// HypothesesSystemPrompt provides strict directions and schema for JSON output.
func HypothesesSystemPrompt() string {
	return `You are a senior reliability engineer helping with root-cause analysis. You must produce one valid JSON array only (no markdown, no code fences, no commentary) that follows the schema below.

Requirements:
- Output must be a single JSON array of hypothesis objects.
- Each object has: "text" (string, non-empty), "confidence" (number 0-100), "evidence" (array of strings, may be empty).
- Propose 3 to 5 plausible hypotheses ranked by confidence, highest first.
- Ground every hypothesis in the symptoms, signals and context provided; do not invent facts.

Schema (example):
[
  {"text": "<string>", "confidence": 0, "evidence": ["<string>"]}
]`
}

// HypothesesUserPrompt packs the analysis context into a compact JSON payload.
func HypothesesUserPrompt(a *analyses.Analysis) string {
	ctx := map[string]any{
		"analysis_type":       a.Type,
		"symptoms":            a.Symptoms,
		"signals":             a.Signals,
		"environment_context": a.Environment,
		"timeline_events":     a.Timeline,
		"dependency_impact":   a.Dependencies,
		"risk_classification": a.Risk,
	}
	b, _ := json.Marshal(ctx)
	return fmt.Sprintf("Generate root-cause hypotheses for this incident context and respond with the JSON array per schema. Context: %s", b)
}

// hypothesisWire mirrors the provider contract. Confidence is a number so a
// fractional value still parses; it is rounded and clamped afterwards.
type hypothesisWire struct {
	Text       string   `json:"text"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// ParseHypotheses validates the raw response against the contract and
// normalizes it. Non-conforming output fails whole; nothing partial survives.
func ParseHypotheses(raw string) ([]analyses.Hypothesis, error) {
	var wire []hypothesisWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("%w: expected JSON array: %v", ai.ErrMalformedOutput, err)
	}
	if len(wire) == 0 {
		return nil, fmt.Errorf("%w: empty hypothesis array", ai.ErrMalformedOutput)
	}

	out := make([]analyses.Hypothesis, 0, len(wire))
	for i, h := range wire {
		if h.Text == "" {
			return nil, fmt.Errorf("%w: hypothesis %d has empty text", ai.ErrMalformedOutput, i)
		}
		out = append(out, analyses.Hypothesis{
			Text:       h.Text,
			Confidence: clampConfidence(h.Confidence),
			Evidence:   dropEmpty(h.Evidence),
		})
	}
	return out, nil
}

func clampConfidence(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v + 0.5)
}

func dropEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
