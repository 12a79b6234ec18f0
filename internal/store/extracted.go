package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/model"
)

// InsertExtracted appends records to the extracted tier. The tier is
// insert-only with one exception: records carrying a ReplaceSet first delete
// every prior row of the same kind and set, so re-extracting a source replaces
// its child rows instead of accumulating them.
//
// Inserts are per-record so one malformed record cannot sink its siblings;
// the returned count is the number actually written.
func (s *Store) InsertExtracted(ctx context.Context, records []model.ExtractedRecord) (int, []model.ItemFailure, error) {
	replaced := map[string]bool{}
	for _, rec := range records {
		if rec.ReplaceSet == "" {
			continue
		}
		key := string(rec.Kind) + "\x00" + rec.ReplaceSet
		if replaced[key] {
			continue
		}
		tag, err := s.pool.Exec(ctx,
			`DELETE FROM extracted.records WHERE kind = $1 AND replace_set = $2`,
			string(rec.Kind), rec.ReplaceSet,
		)
		if err != nil {
			return 0, nil, eris.Wrapf(err, "store: clear replace set %s/%s", rec.Kind, rec.ReplaceSet)
		}
		if n := tag.RowsAffected(); n > 0 {
			zap.L().Debug("store: replaced extracted set",
				zap.String("kind", string(rec.Kind)),
				zap.String("replace_set", rec.ReplaceSet),
				zap.Int64("removed", n),
			)
		}
		replaced[key] = true
	}

	var inserted int
	var failures []model.ItemFailure
	for i, rec := range records {
		fields, err := json.Marshal(rec.Fields)
		if err != nil {
			failures = append(failures, model.ItemFailure{Index: i, Reason: "marshal fields: " + err.Error()})
			continue
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO extracted.records (kind, identity, fields, replace_set, source_raw_id)
			 VALUES ($1, $2, $3, $4, $5)`,
			string(rec.Kind), rec.Identity, fields, rec.ReplaceSet, rec.SourceRawID,
		)
		if err != nil {
			zap.L().Warn("store: extracted insert failed",
				zap.String("kind", string(rec.Kind)),
				zap.String("identity", rec.Identity),
				zap.Error(err),
			)
			failures = append(failures, model.ItemFailure{Index: i, Reason: err.Error()})
			continue
		}
		inserted++
	}
	return inserted, failures, nil
}

// ListExtractedBySet returns the current extracted rows for one replace set,
// e.g. the champion list of a case study URL.
func (s *Store) ListExtractedBySet(ctx context.Context, kind model.RecordKind, replaceSet string) ([]model.ExtractedRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT kind, identity, fields, replace_set, source_raw_id
		 FROM extracted.records WHERE kind = $1 AND replace_set = $2 ORDER BY id`,
		string(kind), replaceSet,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: list extracted by set")
	}
	defer rows.Close()

	var out []model.ExtractedRecord
	for rows.Next() {
		var rec model.ExtractedRecord
		var k string
		var fields []byte
		if err := rows.Scan(&k, &rec.Identity, &fields, &rec.ReplaceSet, &rec.SourceRawID); err != nil {
			return nil, eris.Wrap(err, "store: scan extracted record")
		}
		rec.Kind = model.RecordKind(k)
		if err := json.Unmarshal(fields, &rec.Fields); err != nil {
			return nil, eris.Wrap(err, "store: decode extracted fields")
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
