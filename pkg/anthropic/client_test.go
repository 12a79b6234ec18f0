package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 500_000}

	cost := u.EstimateCost("claude-haiku-4-5-20251001")
	assert.InDelta(t, 0.80+2.00, cost, 0.0001)

	assert.Equal(t, 0.0, u.EstimateCost("unknown-model"))
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  ```json\n{\"a\":1}\n```  ", "{\"a\":1}"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StripFences(tc.in), "input %q", tc.in)
	}
}
