// Package crosswalk resolves free-text attributes against curated reference
// vocabularies. Matching is staged: exact, then fuzzy substring, then (for
// industry) generative classification. Matchers only read; vocabulary writes
// go through the loader.
package crosswalk

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/db"
)

// MatchKind tags the stage that produced a result. NoMatch is a first-class
// terminal outcome, never an error.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
	MatchLLM   MatchKind = "llm"
	NoMatch    MatchKind = "no_match"
)

// Categories of reference vocabulary.
const (
	CategoryLocation   = "location"
	CategoryIndustry   = "industry"
	CategoryJobTitle   = "job_title"
	CategoryTechnology = "technology"
	CategorySeniority  = "seniority"
)

// categoryRules declares which stages each category may use past exact match.
var categoryRules = map[string]struct {
	fuzzy bool
	llm   bool
}{
	CategoryLocation:   {fuzzy: true},
	CategoryIndustry:   {fuzzy: true, llm: true},
	CategoryJobTitle:   {fuzzy: true},
	CategoryTechnology: {fuzzy: true},
	CategorySeniority:  {},
}

// Result is the outcome of one match operation.
type Result struct {
	Kind         MatchKind `json:"kind"`
	Canonical    string    `json:"canonical,omitempty"`
	Alternatives []string  `json:"alternatives,omitempty"`
}

// Matcher runs the staged cascade over the reference tier.
type Matcher struct {
	pool       db.Pool
	classifier *IndustryClassifier // nil disables the llm stage
}

// NewMatcher creates a Matcher. classifier may be nil when no generative
// backend is configured; the industry cascade then ends at fuzzy.
func NewMatcher(pool db.Pool, classifier *IndustryClassifier) *Matcher {
	return &Matcher{pool: pool, classifier: classifier}
}

// Match resolves value within category, stopping at the first stage that
// produces a hit. An exhausted cascade returns Kind NoMatch with nil error.
func (m *Matcher) Match(ctx context.Context, category, value string) (Result, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Result{Kind: NoMatch}, nil
	}

	canonical, err := m.exact(ctx, category, value)
	if err != nil {
		return Result{}, err
	}
	if canonical != "" {
		return Result{Kind: MatchExact, Canonical: canonical}, nil
	}

	rules := categoryRules[category]

	if rules.fuzzy {
		hits, err := m.fuzzy(ctx, category, value)
		if err != nil {
			return Result{}, err
		}
		if len(hits) > 0 {
			return Result{Kind: MatchFuzzy, Canonical: hits[0], Alternatives: hits[1:]}, nil
		}
	}

	if rules.llm && m.classifier != nil {
		vocab, err := m.CanonicalValues(ctx, category)
		if err != nil {
			return Result{}, err
		}
		mapped, err := m.classifier.Classify(ctx, []string{value}, vocab)
		if err != nil {
			return Result{}, err
		}
		if vals := mapped[value]; len(vals) > 0 {
			return Result{Kind: MatchLLM, Canonical: vals[0], Alternatives: vals[1:]}, nil
		}
	}

	zap.L().Debug("crosswalk: no match",
		zap.String("category", category),
		zap.String("value", value),
	)
	return Result{Kind: NoMatch}, nil
}

// exact checks literal equality against the raw_value column.
func (m *Matcher) exact(ctx context.Context, category, value string) (string, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT canonical_value FROM reference.crosswalk WHERE category = $1 AND raw_value = $2 LIMIT 1`,
		category, value,
	)
	if err != nil {
		return "", eris.Wrapf(err, "crosswalk: exact match %s", category)
	}
	defer rows.Close()

	if rows.Next() {
		var canonical string
		if err := rows.Scan(&canonical); err != nil {
			return "", eris.Wrap(err, "crosswalk: scan exact match")
		}
		return canonical, nil
	}
	return "", rows.Err()
}

// fuzzy tokenizes the candidate and searches reference raw values containing
// any token of length >= 4 as a substring. The first hit wins; the remainder
// come back as alternatives, deduplicated, in query order.
func (m *Matcher) fuzzy(ctx context.Context, category, value string) ([]string, error) {
	var hits []string
	seen := map[string]bool{}

	for _, token := range strings.Fields(value) {
		token = strings.Trim(token, ",.;:()&/")
		if len(token) < 4 {
			continue
		}
		rows, err := m.pool.Query(ctx,
			`SELECT canonical_value FROM reference.crosswalk
			 WHERE category = $1 AND raw_value ILIKE '%' || $2 || '%'
			 ORDER BY raw_value`,
			category, token,
		)
		if err != nil {
			return nil, eris.Wrapf(err, "crosswalk: fuzzy match %s token %q", category, token)
		}
		for rows.Next() {
			var canonical string
			if err := rows.Scan(&canonical); err != nil {
				rows.Close()
				return nil, eris.Wrap(err, "crosswalk: scan fuzzy match")
			}
			if !seen[canonical] {
				seen[canonical] = true
				hits = append(hits, canonical)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, eris.Wrap(err, "crosswalk: fuzzy rows")
		}
	}
	return hits, nil
}

// CanonicalValues lists the full canonical vocabulary of a category,
// deduplicated and sorted. The industry classifier constrains the model to
// this list.
func (m *Matcher) CanonicalValues(ctx context.Context, category string) ([]string, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT DISTINCT canonical_value FROM reference.crosswalk WHERE category = $1 ORDER BY canonical_value`,
		category,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "crosswalk: list canonical values %s", category)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "crosswalk: scan canonical value")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
