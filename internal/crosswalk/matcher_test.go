package crosswalk

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/pkg/anthropic"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeLLM returns canned responses for classifier tests.
type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) CreateMessage(_ context.Context, _ anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{Text: f.text}, nil
}

func canonicalRows(vals ...string) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{"canonical_value"})
	for _, v := range vals {
		rows.AddRow(v)
	}
	return rows
}

func TestMatch_Exact(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT canonical_value FROM reference.crosswalk WHERE category = \\$1 AND raw_value = \\$2").
		WithArgs(CategoryLocation, "nyc").
		WillReturnRows(canonicalRows("New York, NY"))

	m := NewMatcher(mock, nil)
	res, err := m.Match(context.Background(), CategoryLocation, "nyc")
	require.NoError(t, err)
	assert.Equal(t, MatchExact, res.Kind)
	assert.Equal(t, "New York, NY", res.Canonical)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatch_FuzzyFallback(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Exact misses; "Greater" and "Boston" are both >= 4 chars, "MA" is skipped.
	mock.ExpectQuery("raw_value = \\$2").
		WithArgs(CategoryLocation, "Greater Boston MA").
		WillReturnRows(canonicalRows())
	mock.ExpectQuery("ILIKE").
		WithArgs(CategoryLocation, "Greater").
		WillReturnRows(canonicalRows())
	mock.ExpectQuery("ILIKE").
		WithArgs(CategoryLocation, "Boston").
		WillReturnRows(canonicalRows("Boston, MA", "South Boston, MA"))

	m := NewMatcher(mock, nil)
	res, err := m.Match(context.Background(), CategoryLocation, "Greater Boston MA")
	require.NoError(t, err)
	assert.Equal(t, MatchFuzzy, res.Kind)
	assert.Equal(t, "Boston, MA", res.Canonical)
	assert.Equal(t, []string{"South Boston, MA"}, res.Alternatives)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMatch_NoMatchIsTerminal(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("raw_value = \\$2").
		WithArgs(CategoryJobTitle, "Chief Vibes Officer").
		WillReturnRows(canonicalRows())
	mock.ExpectQuery("ILIKE").
		WithArgs(CategoryJobTitle, "Chief").
		WillReturnRows(canonicalRows())
	mock.ExpectQuery("ILIKE").
		WithArgs(CategoryJobTitle, "Vibes").
		WillReturnRows(canonicalRows())
	mock.ExpectQuery("ILIKE").
		WithArgs(CategoryJobTitle, "Officer").
		WillReturnRows(canonicalRows())

	m := NewMatcher(mock, nil)
	res, err := m.Match(context.Background(), CategoryJobTitle, "Chief Vibes Officer")
	require.NoError(t, err, "no match must not be an error")
	assert.Equal(t, NoMatch, res.Kind)
	assert.Empty(t, res.Canonical)
}

func TestMatch_SeniorityHasNoFuzzyStage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("raw_value = \\$2").
		WithArgs(CategorySeniority, "Head Honcho").
		WillReturnRows(canonicalRows())

	m := NewMatcher(mock, nil)
	res, err := m.Match(context.Background(), CategorySeniority, "Head Honcho")
	require.NoError(t, err)
	assert.Equal(t, NoMatch, res.Kind)
	assert.NoError(t, mock.ExpectationsWereMet(), "fuzzy query must not run for seniority")
}

func TestMatch_EmptyValue(t *testing.T) {
	m := NewMatcher(nil, nil)
	res, err := m.Match(context.Background(), CategoryLocation, "   ")
	require.NoError(t, err)
	assert.Equal(t, NoMatch, res.Kind)
}

func TestMatch_IndustryLLMStage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("raw_value = \\$2").
		WithArgs(CategoryIndustry, "b2b saas tools").
		WillReturnRows(canonicalRows())
	mock.ExpectQuery("ILIKE").
		WithArgs(CategoryIndustry, "saas").
		WillReturnRows(canonicalRows())
	mock.ExpectQuery("ILIKE").
		WithArgs(CategoryIndustry, "tools").
		WillReturnRows(canonicalRows())
	mock.ExpectQuery("SELECT DISTINCT canonical_value").
		WithArgs(CategoryIndustry).
		WillReturnRows(canonicalRows("Software", "Financial Services"))

	llm := &fakeLLM{text: `{"b2b saas tools": ["Software"]}`}
	m := NewMatcher(mock, NewIndustryClassifier(llm, "claude-haiku-4-5-20251001", 0))

	res, err := m.Match(context.Background(), CategoryIndustry, "b2b saas tools")
	require.NoError(t, err)
	assert.Equal(t, MatchLLM, res.Kind)
	assert.Equal(t, "Software", res.Canonical)
	assert.NoError(t, mock.ExpectationsWereMet())
}
