package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/rootcause/internal/domain/ai"
	"github.com/bryanwahyu/rootcause/internal/domain/analyses"
)

func TestParseHypotheses(t *testing.T) {
	raw := `[
		{"text": "connection pool exhausted", "confidence": 82.4, "evidence": ["pool wait climbing", ""]},
		{"text": "retry storm", "confidence": 140},
		{"text": "index dropped", "confidence": -7, "evidence": []}
	]`
	hyps, err := ParseHypotheses(raw)
	require.NoError(t, err)
	require.Len(t, hyps, 3)

	assert.Equal(t, "connection pool exhausted", hyps[0].Text)
	assert.Equal(t, 82, hyps[0].Confidence)
	assert.Equal(t, []string{"pool wait climbing"}, hyps[0].Evidence)

	assert.Equal(t, 100, hyps[1].Confidence)
	assert.Equal(t, 0, hyps[2].Confidence)
	assert.Nil(t, hyps[2].Evidence)
}

func TestParseHypothesesRejects(t *testing.T) {
	cases := map[string]string{
		"prose":        "the pool is probably exhausted",
		"object":       `{"text": "x", "confidence": 50}`,
		"empty array":  `[]`,
		"empty text":   `[{"text": "", "confidence": 50}]`,
		"broken json":  `[{"text": "x"`,
		"wrong types":  `[{"text": 42, "confidence": "high"}]`,
		"fenced block": "```json\n[{\"text\": \"x\", \"confidence\": 50}]\n```",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseHypotheses(raw)
			assert.ErrorIs(t, err, ai.ErrMalformedOutput)
		})
	}
}

func TestHypothesesUserPromptCarriesContext(t *testing.T) {
	a := &analyses.Analysis{
		Type:     analyses.TypeLatency,
		Symptoms: []string{"p99 latency tripled"},
		Signals:  []string{"pool wait climbing"},
		Risk:     map[string]any{"severity": "high"},
	}
	p := HypothesesUserPrompt(a)
	assert.Contains(t, p, "p99 latency tripled")
	assert.Contains(t, p, "pool wait climbing")
	assert.Contains(t, p, `"severity":"high"`)
	assert.Contains(t, p, string(analyses.TypeLatency))
}
