// Package canonical merges matched records into the current-truth tier.
// One row per identity key; all mutation goes through populate-only upserts,
// so an absent incoming field never erases a stored value.
package canonical

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/db"
	"github.com/sells-group/lead-warehouse/internal/model"
)

// Upserter writes the core tier.
type Upserter struct {
	pool db.Pool
}

// NewUpserter creates an Upserter over the given pool.
func NewUpserter(pool db.Pool) *Upserter {
	return &Upserter{pool: pool}
}

// upsertCompanySQL folds incoming fields into the row for a domain.
// COALESCE(EXCLUDED.col, companies.col) is the populate-only merge: a NULL
// incoming column keeps whatever is stored. Concurrent upserts to one domain
// race at the storage layer, later commit winning per column; acceptable under
// low per-identity write concurrency.
const upsertCompanySQL = `
INSERT INTO core.companies (domain, name, linkedin_url, description, industry, location, employee_count, is_b2b, is_b2c, enriched_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
ON CONFLICT (domain) DO UPDATE SET
	name           = COALESCE(EXCLUDED.name, companies.name),
	linkedin_url   = COALESCE(EXCLUDED.linkedin_url, companies.linkedin_url),
	description    = COALESCE(EXCLUDED.description, companies.description),
	industry       = COALESCE(EXCLUDED.industry, companies.industry),
	location       = COALESCE(EXCLUDED.location, companies.location),
	employee_count = COALESCE(EXCLUDED.employee_count, companies.employee_count),
	is_b2b         = COALESCE(EXCLUDED.is_b2b, companies.is_b2b),
	is_b2c         = COALESCE(EXCLUDED.is_b2c, companies.is_b2c),
	enriched_at    = COALESCE(EXCLUDED.enriched_at, companies.enriched_at),
	updated_at     = now()
RETURNING id, domain, name, linkedin_url, description, industry, location, employee_count, is_b2b, is_b2c, created_at, updated_at, enriched_at`

// UpsertCompany inserts or populate-merges the canonical row for a domain.
// Idempotent: repeating the same input converges to the same state.
func (u *Upserter) UpsertCompany(ctx context.Context, domain string, f model.Company) (*model.Company, error) {
	if domain == "" {
		return nil, &model.ValidationError{Field: "domain", Reason: "required identity key is empty"}
	}

	var c model.Company
	err := u.pool.QueryRow(ctx, upsertCompanySQL,
		domain, f.Name, f.LinkedInURL, f.Description, f.Industry, f.Location,
		f.EmployeeCount, f.IsB2B, f.IsB2C, f.EnrichedAt,
	).Scan(&c.ID, &c.Domain, &c.Name, &c.LinkedInURL, &c.Description, &c.Industry,
		&c.Location, &c.EmployeeCount, &c.IsB2B, &c.IsB2C, &c.CreatedAt, &c.UpdatedAt, &c.EnrichedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "canonical: upsert company %s", domain)
	}

	zap.L().Debug("canonical: company upserted",
		zap.String("domain", domain),
		zap.Int64("company_id", c.ID),
	)
	return &c, nil
}

const upsertPersonSQL = `
INSERT INTO core.people (profile_url, full_name, email, title, seniority, company_domain, location, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (profile_url) DO UPDATE SET
	full_name      = COALESCE(EXCLUDED.full_name, people.full_name),
	email          = COALESCE(EXCLUDED.email, people.email),
	title          = COALESCE(EXCLUDED.title, people.title),
	seniority      = COALESCE(EXCLUDED.seniority, people.seniority),
	company_domain = COALESCE(EXCLUDED.company_domain, people.company_domain),
	location       = COALESCE(EXCLUDED.location, people.location),
	updated_at     = now()
RETURNING id, profile_url, full_name, email, title, seniority, company_domain, location, created_at, updated_at`

// UpsertPerson inserts or populate-merges the canonical row for a profile URL.
func (u *Upserter) UpsertPerson(ctx context.Context, profileURL string, f model.Person) (*model.Person, error) {
	if profileURL == "" {
		return nil, &model.ValidationError{Field: "profile_url", Reason: "required identity key is empty"}
	}

	var p model.Person
	err := u.pool.QueryRow(ctx, upsertPersonSQL,
		profileURL, f.FullName, f.Email, f.Title, f.Seniority, f.CompanyDomain, f.Location,
	).Scan(&p.ID, &p.ProfileURL, &p.FullName, &p.Email, &p.Title, &p.Seniority,
		&p.CompanyDomain, &p.Location, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "canonical: upsert person %s", profileURL)
	}
	return &p, nil
}

// GetCompanyByDomain fetches the canonical company row, or nil when absent.
func (u *Upserter) GetCompanyByDomain(ctx context.Context, domain string) (*model.Company, error) {
	var c model.Company
	err := u.pool.QueryRow(ctx,
		`SELECT id, domain, name, linkedin_url, description, industry, location, employee_count, is_b2b, is_b2c, created_at, updated_at, enriched_at
		 FROM core.companies WHERE domain = $1`, domain,
	).Scan(&c.ID, &c.Domain, &c.Name, &c.LinkedInURL, &c.Description, &c.Industry,
		&c.Location, &c.EmployeeCount, &c.IsB2B, &c.IsB2C, &c.CreatedAt, &c.UpdatedAt, &c.EnrichedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "canonical: get company %s", domain)
	}
	return &c, nil
}
