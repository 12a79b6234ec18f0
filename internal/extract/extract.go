// Package extract turns captured raw payloads into typed, identity-tagged
// records for the extracted tier. One normalizer per payload kind, all behind
// a single interface; nested arrays explode into one record per element, and
// a malformed element never sinks its siblings.
package extract

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-warehouse/internal/model"
)

// Normalizer is the contract every payload kind implements. It is a pure
// transform over one raw payload: no reads of prior extractions, no writes.
// Per-item problems come back as ItemFailures; err is reserved for payloads
// unusable as a whole (undecodable body, missing identity).
type Normalizer interface {
	Kind() model.PayloadKind
	Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error)
}

// Registry resolves payload kinds to normalizers. Built once at startup and
// never mutated afterward.
type Registry struct {
	byKind map[model.PayloadKind]Normalizer
}

// NewRegistry builds the closed normalizer set.
func NewRegistry() *Registry {
	r := &Registry{byKind: make(map[model.PayloadKind]Normalizer)}
	for _, n := range []Normalizer{
		&firmographicsNormalizer{},
		&buyerProfileNormalizer{},
		&caseStudyNormalizer{},
		&customerListNormalizer{},
		&competitorListNormalizer{},
		&intentSignalNormalizer{},
		&adCreativeNormalizer{},
		&vcPortfolioNormalizer{},
		&personNormalizer{},
	} {
		r.byKind[n.Kind()] = n
	}
	return r
}

// ForKind returns the normalizer for a payload kind.
func (r *Registry) ForKind(kind model.PayloadKind) (Normalizer, error) {
	n, ok := r.byKind[kind]
	if !ok {
		return nil, eris.Errorf("extract: no normalizer for payload kind %q", kind)
	}
	return n, nil
}

// decode unmarshals the payload body into dst, wrapping decode failures with
// the payload kind for log context.
func decode(raw model.RawPayload, dst any) error {
	if err := json.Unmarshal(raw.Payload, dst); err != nil {
		return eris.Wrapf(err, "extract: decode %s payload %s", raw.Kind, raw.ID)
	}
	return nil
}

// firstNonEmpty returns the first non-empty string, for payloads whose
// providers disagree on key names.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
