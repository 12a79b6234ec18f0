package crosswalk

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-warehouse/internal/db"
	"github.com/sells-group/lead-warehouse/internal/model"
)

// LoadEntries upserts crosswalk entries into the reference tier, keyed on
// (category, raw_value). Re-loading a seed refreshes canonical values in place.
func LoadEntries(ctx context.Context, pool db.Pool, entries []model.CrosswalkEntry) (int64, error) {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		if e.Category == "" || e.RawValue == "" || e.CanonicalValue == "" {
			return 0, eris.Errorf("crosswalk: incomplete entry %q/%q", e.Category, e.RawValue)
		}
		rows = append(rows, []any{e.Category, e.RawValue, e.CanonicalValue, e.Source})
	}

	n, err := db.BulkUpsert(ctx, pool, db.UpsertConfig{
		Table:        "reference.crosswalk",
		Columns:      []string{"category", "raw_value", "canonical_value", "source"},
		ConflictKeys: []string{"category", "raw_value"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "crosswalk: load entries")
	}

	zap.L().Info("crosswalk: reference entries loaded", zap.Int64("rows", n))
	return n, nil
}

// seedFile is the YAML shape for bootstrap vocabularies:
//
//	location:
//	  - raw: "nyc"
//	    canonical: "New York, NY"
//	    source: "seed"
type seedFile map[string][]struct {
	Raw       string `yaml:"raw"`
	Canonical string `yaml:"canonical"`
	Source    string `yaml:"source"`
}

// LoadSeedFile reads a YAML vocabulary seed and upserts its entries.
func LoadSeedFile(ctx context.Context, pool db.Pool, path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, eris.Wrapf(err, "crosswalk: read seed %s", path)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, eris.Wrapf(err, "crosswalk: parse seed %s", path)
	}

	var entries []model.CrosswalkEntry
	for category, items := range seed {
		for _, it := range items {
			source := it.Source
			if source == "" {
				source = "seed"
			}
			entries = append(entries, model.CrosswalkEntry{
				Category:       category,
				RawValue:       it.Raw,
				CanonicalValue: it.Canonical,
				Source:         source,
			})
		}
	}
	return LoadEntries(ctx, pool, entries)
}
