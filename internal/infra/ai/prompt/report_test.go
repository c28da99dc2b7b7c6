package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rootcause/internal/domain/ai"
	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
)

func TestParseReportDraft(t *testing.T) {
	raw := `{
		"summary": "Checkout latency tripled for 40 minutes.",
		"root_cause": "Connection pool exhausted.",
		"impact": "7% of checkouts timed out.",
		"remediation": "Pool size raised.",
		"prevention": "Alert on saturation."
	}`
	draft, err := ParseReportDraft(raw)
	require.NoError(t, err)
	assert.Equal(t, "Connection pool exhausted.", draft.RootCause)
	assert.Equal(t, "Alert on saturation.", draft.Prevention)
}

func TestParseReportDraftRejects(t *testing.T) {
	cases := map[string]string{
		"prose":       "the root cause was the pool",
		"array":       `[{"summary": "s"}]`,
		"missing":     `{"summary": "s", "root_cause": "r", "impact": "i", "remediation": "m"}`,
		"empty field": `{"summary": "", "root_cause": "r", "impact": "i", "remediation": "m", "prevention": "p"}`,
		"null field":  `{"summary": null, "root_cause": "r", "impact": "i", "remediation": "m", "prevention": "p"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReportDraft(raw)
			assert.ErrorIs(t, err, ai.ErrMalformedOutput)
		})
	}
}

func TestReportDraftUserPromptIncludesHypotheses(t *testing.T) {
	a := &analyses.Analysis{
		Type:       analyses.TypeOutage,
		Symptoms:   []string{"site down"},
		Hypotheses: []analyses.Hypothesis{{Text: "cert expired", Confidence: 95}},
	}
	p := ReportDraftUserPrompt(a)
	assert.Contains(t, p, "cert expired")
	assert.Contains(t, p, "site down")
}
