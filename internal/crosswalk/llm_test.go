package crosswalk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lead-warehouse/internal/model"
)

var testVocab = []string{"Software", "Financial Services", "Healthcare"}

func TestClassify_StrictJSON(t *testing.T) {
	llm := &fakeLLM{text: `{"fintech infra": ["Financial Services", "Software"]}`}
	c := NewIndustryClassifier(llm, "claude-haiku-4-5-20251001", 0)

	out, err := c.Classify(context.Background(), []string{"fintech infra"}, testVocab)
	require.NoError(t, err)
	assert.Equal(t, []string{"Financial Services", "Software"}, out["fintech infra"])
}

func TestClassify_FencedResponseTolerated(t *testing.T) {
	llm := &fakeLLM{text: "```json\n{\"health saas\": [\"Healthcare\"]}\n```"}
	c := NewIndustryClassifier(llm, "claude-haiku-4-5-20251001", 0)

	out, err := c.Classify(context.Background(), []string{"health saas"}, testVocab)
	require.NoError(t, err)
	assert.Equal(t, []string{"Healthcare"}, out["health saas"])
}

func TestClassify_MalformedJSONIsHardError(t *testing.T) {
	llm := &fakeLLM{text: "Sure! The best match would be Software."}
	c := NewIndustryClassifier(llm, "claude-haiku-4-5-20251001", 0)

	_, err := c.Classify(context.Background(), []string{"saas"}, testVocab)
	require.Error(t, err)
	var perr *model.UpstreamParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Excerpt, "Sure!")
}

func TestClassify_OutOfVocabularyDropped(t *testing.T) {
	llm := &fakeLLM{text: `{"saas": ["Software", "Blockchain"]}`}
	c := NewIndustryClassifier(llm, "claude-haiku-4-5-20251001", 0)

	out, err := c.Classify(context.Background(), []string{"saas"}, testVocab)
	require.NoError(t, err)
	assert.Equal(t, []string{"Software"}, out["saas"])
}

func TestClassify_EmptyInputs(t *testing.T) {
	c := NewIndustryClassifier(&fakeLLM{}, "claude-haiku-4-5-20251001", 0)

	out, err := c.Classify(context.Background(), nil, testVocab)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = c.Classify(context.Background(), []string{"saas"}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
