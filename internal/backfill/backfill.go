// Package backfill reconciles the canonical tier against the extracted tier.
// Each job targets one canonical field and drains an ordered waterfall of
// sources: a higher-priority source claims an identity for the run, and lower
// sources never touch a claimed identity. Writes go through the populate-only
// merge, so re-running a job is harmless and an interrupted run picks up
// where it left off.
package backfill

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/db"
	"github.com/sells-group/lead-warehouse/internal/model"
)

// Candidate is one proposed fill: set Value on Identity's target field.
// Qualifier carries the second half of a composite key where the target
// table has one.
type Candidate struct {
	Identity  string
	Qualifier string
	Value     string
}

// source selects candidates whose canonical target is still empty. Queries
// take (limit, cursor) and return (identity, qualifier, value) rows ordered
// by a stable sort key, so pagination advances even when the run is dry and
// nothing drops out of the predicate.
type source struct {
	name  string
	query string
}

func (s source) cursorKey(c Candidate) string {
	if c.Qualifier != "" {
		return c.Identity + "|" + c.Qualifier
	}
	return c.Identity
}

// Job fills one canonical target field from an ordered list of sources.
type Job struct {
	Name    string
	sources []source
	apply   func(ctx context.Context, core Upserts, c Candidate) error
}

// Upserts is the canonical-tier write surface the reconciler uses.
type Upserts interface {
	UpsertCompany(ctx context.Context, domain string, f model.Company) (*model.Company, error)
	UpsertPerson(ctx context.Context, profileURL string, f model.Person) (*model.Person, error)
	ResolveCustomerDomain(ctx context.Context, originDomain, customerName, domain string) (bool, error)
}

// Options bound one reconciler run.
type Options struct {
	BatchSize  int
	MaxBatches int // 0 means unbounded
	DryRun     bool
}

// SourceReport counts one source's contribution to a run.
type SourceReport struct {
	Source     string `json:"source"`
	Candidates int    `json:"candidates"`
	Written    int    `json:"written"`
	Skipped    int    `json:"skipped"`
}

// JobReport aggregates a job's sources.
type JobReport struct {
	Job        string         `json:"job"`
	DryRun     bool           `json:"dry_run"`
	Candidates int            `json:"candidates"`
	Written    int            `json:"written"`
	Skipped    int            `json:"skipped"`
	Sources    []SourceReport `json:"sources"`
}

// Reconciler runs backfill jobs over the warehouse.
type Reconciler struct {
	pool db.Pool
	core Upserts
}

func New(pool db.Pool, core Upserts) *Reconciler {
	return &Reconciler{pool: pool, core: core}
}

// companyDescriptionJob coalesces core.companies.description from extracted
// sources, richest first.
var companyDescriptionJob = Job{
	Name: "company-description",
	sources: []source{
		{
			name: "vc_portfolio.long_description",
			query: `SELECT DISTINCT ON (r.identity) r.identity, '', r.fields->>'long_description'
				FROM extracted.records r
				JOIN core.companies c ON c.domain = r.identity
				WHERE r.kind = 'portfolio_company'
				  AND c.description IS NULL
				  AND COALESCE(r.fields->>'long_description', '') <> ''
				  AND r.identity > $2
				ORDER BY r.identity, r.created_at DESC
				LIMIT $1`,
		},
		{
			name: "firmographics.description",
			query: `SELECT DISTINCT ON (r.identity) r.identity, '', r.fields->>'description'
				FROM extracted.records r
				JOIN core.companies c ON c.domain = r.identity
				WHERE r.kind = 'company_facts'
				  AND c.description IS NULL
				  AND COALESCE(r.fields->>'description', '') <> ''
				  AND r.identity > $2
				ORDER BY r.identity, r.created_at DESC
				LIMIT $1`,
		},
	},
	apply: func(ctx context.Context, core Upserts, c Candidate) error {
		_, err := core.UpsertCompany(ctx, c.Identity, model.Company{Description: &c.Value})
		return err
	},
}

// personTitleJob fills core.people.title from extracted person facts and
// case-study champion quotes.
var personTitleJob = Job{
	Name: "person-title",
	sources: []source{
		{
			name: "person_facts.title",
			query: `SELECT DISTINCT ON (r.identity) r.identity, '', r.fields->>'title'
				FROM extracted.records r
				JOIN core.people p ON p.profile_url = r.identity
				WHERE r.kind = 'person_facts'
				  AND p.title IS NULL
				  AND COALESCE(r.fields->>'title', '') <> ''
				  AND r.identity > $2
				ORDER BY r.identity, r.created_at DESC
				LIMIT $1`,
		},
		{
			name: "champion.title",
			query: `SELECT DISTINCT ON (r.identity) r.identity, '', r.fields->>'title'
				FROM extracted.records r
				JOIN core.people p ON p.profile_url = r.identity
				WHERE r.kind = 'champion'
				  AND p.title IS NULL
				  AND COALESCE(r.fields->>'title', '') <> ''
				  AND r.identity > $2
				ORDER BY r.identity, r.created_at DESC
				LIMIT $1`,
		},
	},
	apply: func(ctx context.Context, core Upserts, c Candidate) error {
		_, err := core.UpsertPerson(ctx, c.Identity, model.Person{Title: &c.Value})
		return err
	},
}

// customerDomainJob infers unresolved customer_edges.customer_domain by
// matching the stored customer name against canonical company names. The
// write path is first-resolution-wins, so a concurrent resolver cannot be
// overwritten.
var customerDomainJob = Job{
	Name: "customer-domain",
	sources: []source{
		{
			name: "companies.name",
			query: `SELECT e.origin_domain, e.customer_name, c.domain
				FROM core.customer_edges e
				JOIN core.companies c ON lower(c.name) = lower(e.customer_name)
				WHERE e.customer_domain IS NULL
				  AND (e.origin_domain || '|' || e.customer_name) > $2
				ORDER BY e.origin_domain || '|' || e.customer_name
				LIMIT $1`,
		},
	},
	apply: func(ctx context.Context, core Upserts, c Candidate) error {
		_, err := core.ResolveCustomerDomain(ctx, c.Identity, c.Qualifier, c.Value)
		return err
	},
}

// Jobs is the registry of available backfill jobs, in default run order.
func Jobs() []Job {
	return []Job{companyDescriptionJob, personTitleJob, customerDomainJob}
}

// JobByName looks up a single job.
func JobByName(name string) (Job, bool) {
	for _, j := range Jobs() {
		if j.Name == name {
			return j, true
		}
	}
	return Job{}, false
}

// Run executes the given jobs. An error aborts the run; everything already
// written stays (no batch spans a transaction).
func (r *Reconciler) Run(ctx context.Context, jobs []Job, opts Options) ([]JobReport, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	reports := make([]JobReport, 0, len(jobs))
	for _, job := range jobs {
		report, err := r.runJob(ctx, job, opts)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (r *Reconciler) runJob(ctx context.Context, job Job, opts Options) (JobReport, error) {
	report := JobReport{Job: job.Name, DryRun: opts.DryRun}
	claimed := map[string]struct{}{}

	for _, src := range job.sources {
		sr, err := r.drainSource(ctx, job, src, opts, claimed)
		if err != nil {
			return report, err
		}
		report.Sources = append(report.Sources, sr)
		report.Candidates += sr.Candidates
		report.Written += sr.Written
		report.Skipped += sr.Skipped
	}

	zap.L().Info("backfill: job complete",
		zap.String("job", job.Name),
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("candidates", report.Candidates),
		zap.Int("written", report.Written),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func (r *Reconciler) drainSource(ctx context.Context, job Job, src source, opts Options, claimed map[string]struct{}) (SourceReport, error) {
	report := SourceReport{Source: src.name}
	cursor := ""

	for batch := 0; opts.MaxBatches == 0 || batch < opts.MaxBatches; batch++ {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "backfill: run canceled")
		}

		candidates, err := r.fetch(ctx, src, opts.BatchSize, cursor)
		if err != nil {
			return report, err
		}
		if len(candidates) == 0 {
			break
		}
		cursor = src.cursorKey(candidates[len(candidates)-1])
		report.Candidates += len(candidates)

		for _, c := range candidates {
			key := src.cursorKey(c)
			if _, dup := claimed[key]; dup {
				report.Skipped++
				continue
			}
			claimed[key] = struct{}{}
			if opts.DryRun {
				report.Written++
				continue
			}
			if err := job.apply(ctx, r.core, c); err != nil {
				return report, eris.Wrapf(err, "backfill: %s: apply %s", job.Name, c.Identity)
			}
			report.Written++
		}
	}
	return report, nil
}

func (r *Reconciler) fetch(ctx context.Context, src source, limit int, cursor string) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, src.query, limit, cursor)
	if err != nil {
		return nil, eris.Wrapf(err, "backfill: select %s", src.name)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Identity, &c.Qualifier, &c.Value); err != nil {
			return nil, eris.Wrapf(err, "backfill: scan %s", src.name)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "backfill: read %s", src.name)
	}
	return out, nil
}
