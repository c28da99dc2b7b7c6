package analyses

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadiness(t *testing.T) {
	cases := []struct {
		name string
		a    Analysis
		want int
	}{
		{"empty", Analysis{}, 0},
		{"symptoms only", Analysis{Symptoms: []string{"p99 spike"}}, 25},
		{"signals only", Analysis{Signals: []string{"cpu 95%"}}, 25},
		{"hypotheses only", Analysis{Hypotheses: []Hypothesis{{Text: "gc pause"}}}, 25},
		{"context only", Analysis{Environment: map[string]any{"region": "us-east-1"}}, 25},
		{
			"symptoms signals hypothesis",
			Analysis{
				Symptoms:   []string{"p99 spike"},
				Signals:    []string{"cpu 95%"},
				Hypotheses: []Hypothesis{{Text: "gc pause", Confidence: 80}},
			},
			75,
		},
		{
			"all four",
			Analysis{
				Symptoms:   []string{"p99 spike"},
				Signals:    []string{"cpu 95%"},
				Hypotheses: []Hypothesis{{Text: "gc pause"}},
				Timeline:   map[string]any{"start": "09:00"},
			},
			100,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Readiness(&tc.a))
		})
	}
}

func TestReadinessAnyContextMapCounts(t *testing.T) {
	for _, a := range []Analysis{
		{Environment: map[string]any{"k": "v"}},
		{Timeline: map[string]any{"k": "v"}},
		{Dependencies: map[string]any{"k": "v"}},
		{Risk: map[string]any{"k": "v"}},
	} {
		assert.Equal(t, 25, Readiness(&a))
	}
	// Multiple populated maps still count once.
	a := Analysis{
		Environment: map[string]any{"k": "v"},
		Risk:        map[string]any{"k": "v"},
	}
	assert.Equal(t, 25, Readiness(&a))
}
