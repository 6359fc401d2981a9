package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"plain", `{"a":1}`, `{"a":1}`, true},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"fence without lang", "```\n{\"a\":1}\n```", `{"a":1}`, true},
		{"chatter", "Sure!\n{\"a\":{\"b\":2}}\nThanks", `{"a":{"b":2}}`, true},
		{"no object", "nothing here", "", false},
		{"broken", `{"a":}`, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := extractJSON(tc.in)
			if !tc.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseQuestionNullAnalysis(t *testing.T) {
	q, err := parseQuestion(`{"question":"Q?","analysis":null,"difficulty_level":"MEDIUM"}`)
	require.NoError(t, err)
	assert.Equal(t, "", q.Analysis)
	assert.Equal(t, "medium", q.DifficultyLevel)

	_, err = parseQuestion(`{"analysis":"x","difficulty_level":"easy"}`)
	assert.Error(t, err)
}

func TestParseAssessmentRequiresAllFields(t *testing.T) {
	_, err := parseAssessment(`{"overall_score": 5, "technical_accuracy": "a"}`)
	assert.Error(t, err)

	a, err := parseAssessment(`{"overall_score": 0, "technical_accuracy": "a", "communication_quality": "b", "strengths": "c", "areas_of_improvement": "d"}`)
	require.NoError(t, err)
	assert.Equal(t, 0.0, a.OverallScore)
}
