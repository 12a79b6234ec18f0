package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-warehouse/internal/model"
)

// CaptureRaw appends one inbound payload to the raw tier. The tier is
// append-only; nothing ever updates or deletes here.
func (s *Store) CaptureRaw(ctx context.Context, raw model.RawPayload) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO raw.payloads (id, provider, workflow_slug, kind, captured_at, payload, identity_hint, payload_sha)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		raw.ID, raw.Provider, raw.WorkflowSlug, string(raw.Kind), raw.CapturedAt, raw.Payload, raw.IdentityHint, raw.PayloadSHA,
	)
	if err != nil {
		return eris.Wrap(err, "store: capture raw payload")
	}
	return nil
}

// GetRaw fetches one raw payload by ID.
func (s *Store) GetRaw(ctx context.Context, id string) (*model.RawPayload, error) {
	var raw model.RawPayload
	var kind string
	err := s.pool.QueryRow(ctx,
		`SELECT id, provider, workflow_slug, kind, captured_at, payload, identity_hint, payload_sha
		 FROM raw.payloads WHERE id = $1`, id,
	).Scan(&raw.ID, &raw.Provider, &raw.WorkflowSlug, &kind, &raw.CapturedAt, &raw.Payload, &raw.IdentityHint, &raw.PayloadSHA)
	if err != nil {
		return nil, eris.Wrapf(err, "store: get raw payload %s", id)
	}
	raw.Kind = model.PayloadKind(kind)
	return &raw, nil
}

// ListRawByKind returns raw payloads of one kind in capture order, for replay.
// A zero kind lists every payload.
func (s *Store) ListRawByKind(ctx context.Context, kind model.PayloadKind, limit int) ([]model.RawPayload, error) {
	sql := `SELECT id, provider, workflow_slug, kind, captured_at, payload, identity_hint, payload_sha
	        FROM raw.payloads`
	args := []any{}
	if kind != "" {
		sql += ` WHERE kind = $1`
		args = append(args, string(kind))
	}
	sql += ` ORDER BY captured_at`
	if limit > 0 {
		args = append(args, limit)
		if kind != "" {
			sql += ` LIMIT $2`
		} else {
			sql += ` LIMIT $1`
		}
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list raw payloads")
	}
	defer rows.Close()

	var out []model.RawPayload
	for rows.Next() {
		var raw model.RawPayload
		var k string
		if err := rows.Scan(&raw.ID, &raw.Provider, &raw.WorkflowSlug, &k, &raw.CapturedAt, &raw.Payload, &raw.IdentityHint, &raw.PayloadSHA); err != nil {
			return nil, eris.Wrap(err, "store: scan raw payload")
		}
		raw.Kind = model.PayloadKind(k)
		out = append(out, raw)
	}
	return out, rows.Err()
}
