package crosswalk

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/model"
	"github.com/sells-group/lead-warehouse/pkg/anthropic"
)

// classifySystem pins the model to the vocabulary and to strict JSON output.
const classifySystem = `You classify free-text industry terms against a fixed canonical vocabulary.
For each input term choose between 1 and 5 canonical values, best match first.
Respond with JSON only: an object mapping each input term to an array of canonical values.
Use only values from the provided vocabulary. No prose, no markdown.`

// IndustryClassifier batch-maps free-text industry terms to canonical
// vocabulary values with one model call.
type IndustryClassifier struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewIndustryClassifier creates a classifier using the given model.
func NewIndustryClassifier(client anthropic.Client, modelID string, maxTokens int64) *IndustryClassifier {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &IndustryClassifier{client: client, model: modelID, maxTokens: maxTokens}
}

// Classify maps each term to 1-5 canonical values from vocab. A response that
// is not valid JSON is a hard UpstreamParseError; it is never defaulted to an
// empty mapping. Values outside the vocabulary are dropped; a term the model
// omits simply has no entry.
func (c *IndustryClassifier) Classify(ctx context.Context, terms, vocab []string) (map[string][]string, error) {
	if len(terms) == 0 || len(vocab) == 0 {
		return map[string][]string{}, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Canonical vocabulary:\n")
	for _, v := range vocab {
		fmt.Fprintf(&prompt, "- %s\n", v)
	}
	prompt.WriteString("\nInput terms:\n")
	for _, t := range terms {
		fmt.Fprintf(&prompt, "- %s\n", t)
	}

	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    classifySystem,
		Messages: []anthropic.Message{
			{Role: "user", Content: prompt.String()},
		},
	})
	if err != nil {
		return nil, err
	}
	resp.Usage.LogCost(c.model, "industry_classify")

	text := anthropic.StripFences(resp.Text)
	var mapped map[string][]string
	if err := json.Unmarshal([]byte(text), &mapped); err != nil {
		return nil, &model.UpstreamParseError{Excerpt: text, Err: err}
	}

	allowed := make(map[string]bool, len(vocab))
	for _, v := range vocab {
		allowed[v] = true
	}

	out := make(map[string][]string, len(mapped))
	for term, vals := range mapped {
		var kept []string
		for _, v := range vals {
			if allowed[v] {
				kept = append(kept, v)
			} else {
				zap.L().Warn("crosswalk: classifier returned out-of-vocabulary value",
					zap.String("term", term),
					zap.String("value", v),
				)
			}
			if len(kept) == 5 {
				break
			}
		}
		if len(kept) > 0 {
			out[term] = kept
		}
	}
	return out, nil
}
