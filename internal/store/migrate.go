package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// migration is the full warehouse DDL. Idempotent; the migrate command applies
// it on every deploy.
const migration = `
CREATE SCHEMA IF NOT EXISTS raw;
CREATE SCHEMA IF NOT EXISTS extracted;
CREATE SCHEMA IF NOT EXISTS reference;
CREATE SCHEMA IF NOT EXISTS core;
CREATE SCHEMA IF NOT EXISTS relay;

CREATE TABLE IF NOT EXISTS raw.payloads (
	id            TEXT PRIMARY KEY,
	provider      TEXT NOT NULL,
	workflow_slug TEXT NOT NULL,
	kind          TEXT NOT NULL,
	captured_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	payload       JSONB NOT NULL,
	identity_hint TEXT NOT NULL DEFAULT '',
	payload_sha   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_raw_payloads_kind ON raw.payloads (kind, captured_at);
CREATE INDEX IF NOT EXISTS idx_raw_payloads_sha ON raw.payloads (payload_sha);

CREATE TABLE IF NOT EXISTS extracted.records (
	id            BIGSERIAL PRIMARY KEY,
	kind          TEXT NOT NULL,
	identity      TEXT NOT NULL,
	fields        JSONB NOT NULL,
	replace_set   TEXT NOT NULL DEFAULT '',
	source_raw_id TEXT NOT NULL REFERENCES raw.payloads(id),
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_extracted_records_kind_identity ON extracted.records (kind, identity);
CREATE INDEX IF NOT EXISTS idx_extracted_records_replace_set ON extracted.records (kind, replace_set) WHERE replace_set <> '';

CREATE TABLE IF NOT EXISTS reference.crosswalk (
	category        TEXT NOT NULL,
	raw_value       TEXT NOT NULL,
	canonical_value TEXT NOT NULL,
	source          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (category, raw_value)
);

CREATE TABLE IF NOT EXISTS core.companies (
	id             BIGSERIAL PRIMARY KEY,
	domain         TEXT NOT NULL UNIQUE,
	name           TEXT,
	linkedin_url   TEXT,
	description    TEXT,
	industry       TEXT,
	location       TEXT,
	employee_count INTEGER,
	is_b2b         BOOLEAN,
	is_b2c         BOOLEAN,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	enriched_at    TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS core.people (
	id             BIGSERIAL PRIMARY KEY,
	profile_url    TEXT NOT NULL UNIQUE,
	full_name      TEXT,
	email          TEXT,
	title          TEXT,
	seniority      TEXT,
	company_domain TEXT,
	location       TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS core.customer_edges (
	origin_domain   TEXT NOT NULL,
	customer_name   TEXT NOT NULL,
	customer_domain TEXT,
	source          TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (origin_domain, customer_name)
);

CREATE TABLE IF NOT EXISTS core.competitor_edges (
	origin_domain     TEXT NOT NULL,
	competitor_domain TEXT NOT NULL,
	source            TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (origin_domain, competitor_domain)
);

CREATE TABLE IF NOT EXISTS core.champion_edges (
	full_name      TEXT NOT NULL,
	company_domain TEXT NOT NULL,
	case_study_url TEXT NOT NULL,
	title          TEXT,
	quote          TEXT,
	PRIMARY KEY (full_name, company_domain, case_study_url)
);

CREATE TABLE IF NOT EXISTS core.investor_edges (
	investor_domain  TEXT NOT NULL,
	portfolio_domain TEXT NOT NULL,
	source           TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (investor_domain, portfolio_domain)
);

CREATE TABLE IF NOT EXISTS relay.jobs (
	id         TEXT PRIMARY KEY,
	status     TEXT NOT NULL DEFAULT 'pending',
	total      INTEGER NOT NULL DEFAULT 0,
	sent       INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate applies the warehouse DDL.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, migration); err != nil {
		return eris.Wrap(err, "store: migrate")
	}
	zap.L().Info("store: migration applied")
	return nil
}
