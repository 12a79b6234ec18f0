package canonical

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/model"
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// UpsertCustomerEdge records a vendor→customer link, deduplicated on
// (origin_domain, customer_name). An already-resolved customer_domain is kept:
// COALESCE prefers the stored value, so resolution is first-wins here too.
func (u *Upserter) UpsertCustomerEdge(ctx context.Context, e model.CustomerEdge) error {
	if e.OriginDomain == "" || e.CustomerName == "" {
		return &model.ValidationError{Field: "origin_domain/customer_name", Reason: "edge natural key incomplete"}
	}
	_, err := u.pool.Exec(ctx,
		`INSERT INTO core.customer_edges (origin_domain, customer_name, customer_domain, source)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (origin_domain, customer_name) DO UPDATE SET
			customer_domain = COALESCE(customer_edges.customer_domain, EXCLUDED.customer_domain)`,
		e.OriginDomain, e.CustomerName, e.CustomerDomain, e.Source,
	)
	if err != nil {
		return eris.Wrapf(err, "canonical: upsert customer edge %s→%s", e.OriginDomain, e.CustomerName)
	}
	return nil
}

// ResolveCustomerDomain sets the inferred domain for a customer edge, only if
// it is currently unresolved. First-resolution-wins: a later attempt with a
// different value, whatever its confidence, changes nothing. Returns whether
// this call performed the resolution.
func (u *Upserter) ResolveCustomerDomain(ctx context.Context, originDomain, customerName, domain string) (bool, error) {
	if domain == "" {
		return false, &model.ValidationError{Field: "customer_domain", Reason: "resolved domain is empty"}
	}
	tag, err := u.pool.Exec(ctx,
		`UPDATE core.customer_edges SET customer_domain = $3
		 WHERE origin_domain = $1 AND customer_name = $2 AND customer_domain IS NULL`,
		originDomain, customerName, domain,
	)
	if err != nil {
		return false, eris.Wrapf(err, "canonical: resolve customer domain %s→%s", originDomain, customerName)
	}
	set := tag.RowsAffected() > 0
	if !set {
		zap.L().Debug("canonical: customer domain already resolved, keeping first resolution",
			zap.String("origin", originDomain),
			zap.String("customer", customerName),
		)
	}
	return set, nil
}

// UpsertCompetitorEdge records a competitor link, deduplicated on its key.
func (u *Upserter) UpsertCompetitorEdge(ctx context.Context, e model.CompetitorEdge) error {
	if e.OriginDomain == "" || e.CompetitorDomain == "" {
		return &model.ValidationError{Field: "origin_domain/competitor_domain", Reason: "edge natural key incomplete"}
	}
	_, err := u.pool.Exec(ctx,
		`INSERT INTO core.competitor_edges (origin_domain, competitor_domain, source)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (origin_domain, competitor_domain) DO NOTHING`,
		e.OriginDomain, e.CompetitorDomain, e.Source,
	)
	if err != nil {
		return eris.Wrapf(err, "canonical: upsert competitor edge %s→%s", e.OriginDomain, e.CompetitorDomain)
	}
	return nil
}

// UpsertChampionEdge records a case-study champion, deduplicated on
// (full_name, company_domain, case_study_url). Title and quote populate-merge.
func (u *Upserter) UpsertChampionEdge(ctx context.Context, e model.ChampionEdge) error {
	if e.FullName == "" || e.CompanyDomain == "" || e.CaseStudyURL == "" {
		return &model.ValidationError{Field: "champion edge", Reason: "edge natural key incomplete"}
	}
	_, err := u.pool.Exec(ctx,
		`INSERT INTO core.champion_edges (full_name, company_domain, case_study_url, title, quote)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (full_name, company_domain, case_study_url) DO UPDATE SET
			title = COALESCE(EXCLUDED.title, champion_edges.title),
			quote = COALESCE(EXCLUDED.quote, champion_edges.quote)`,
		e.FullName, e.CompanyDomain, e.CaseStudyURL, e.Title, e.Quote,
	)
	if err != nil {
		return eris.Wrapf(err, "canonical: upsert champion edge %s@%s", e.FullName, e.CompanyDomain)
	}
	return nil
}

// UpsertInvestorEdge records an investor→portfolio link.
func (u *Upserter) UpsertInvestorEdge(ctx context.Context, e model.InvestorEdge) error {
	if e.InvestorDomain == "" || e.PortfolioDomain == "" {
		return &model.ValidationError{Field: "investor_domain/portfolio_domain", Reason: "edge natural key incomplete"}
	}
	_, err := u.pool.Exec(ctx,
		`INSERT INTO core.investor_edges (investor_domain, portfolio_domain, source)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (investor_domain, portfolio_domain) DO NOTHING`,
		e.InvestorDomain, e.PortfolioDomain, e.Source,
	)
	if err != nil {
		return eris.Wrapf(err, "canonical: upsert investor edge %s→%s", e.InvestorDomain, e.PortfolioDomain)
	}
	return nil
}
