// Package pipeline is the shared ingest orchestrator. Every provider entry
// point runs the same staged flow: normalize, capture raw, write the
// extracted tier, crosswalk-match free-text attributes, and merge into the
// canonical tier. Tier writes are not atomic as a group; the backfill
// reconciler repairs anything a crash leaves behind.
package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/canonical"
	"github.com/sells-group/lead-warehouse/internal/crosswalk"
	"github.com/sells-group/lead-warehouse/internal/extract"
	"github.com/sells-group/lead-warehouse/internal/model"
)

// TierStore is the raw and extracted tier surface the pipeline writes.
type TierStore interface {
	CaptureRaw(ctx context.Context, raw model.RawPayload) error
	InsertExtracted(ctx context.Context, records []model.ExtractedRecord) (int, []model.ItemFailure, error)
}

// Canonicalizer is the core-tier surface the pipeline merges into.
type Canonicalizer interface {
	UpsertCompany(ctx context.Context, domain string, f model.Company) (*model.Company, error)
	UpsertPerson(ctx context.Context, profileURL string, f model.Person) (*model.Person, error)
	UpsertCustomerEdge(ctx context.Context, e model.CustomerEdge) error
	UpsertCompetitorEdge(ctx context.Context, e model.CompetitorEdge) error
	UpsertChampionEdge(ctx context.Context, e model.ChampionEdge) error
	UpsertInvestorEdge(ctx context.Context, e model.InvestorEdge) error
}

// Matcher resolves free-text attributes against the reference tier.
type Matcher interface {
	Match(ctx context.Context, category, value string) (crosswalk.Result, error)
}

// Result is the tagged outcome of one ingest. A false Success plus Error
// covers every failure mode; nothing below this boundary panics outward.
type Result struct {
	Success   bool                `json:"success"`
	RawID     string              `json:"raw_id,omitempty"`
	Extracted int                 `json:"extracted"`
	Upserted  int                 `json:"upserted"`
	Failures  []model.ItemFailure `json:"failures,omitempty"`
	Error     string              `json:"error,omitempty"`
}

// Pipeline wires the stages together.
type Pipeline struct {
	store    TierStore
	registry *extract.Registry
	matcher  Matcher
	core     Canonicalizer
}

// New creates a Pipeline. matcher may be nil in contexts that skip crosswalk
// resolution.
func New(store TierStore, registry *extract.Registry, matcher Matcher, core Canonicalizer) *Pipeline {
	return &Pipeline{store: store, registry: registry, matcher: matcher, core: core}
}

// Ingest runs the full staged flow for one inbound payload.
//
// Normalization runs before the raw capture so a payload missing its required
// identity is rejected with no partial state. Everything after the raw
// capture is best-effort: extraction and canonical failures surface in the
// Result but never unwind the tiers already written.
func (p *Pipeline) Ingest(ctx context.Context, provider, slug string, body []byte, identityHint string) Result {
	kind, ok := model.KindForSlug(slug)
	if !ok {
		return fail("unknown workflow slug: " + slug)
	}

	normalizer, err := p.registry.ForKind(kind)
	if err != nil {
		return fail(err.Error())
	}

	raw := model.NewRawPayload(provider, slug, kind, body, identityHint)

	records, failures, err := normalizer.Normalize(raw)
	if err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			// Rejected before any write.
			return fail(verr.Error())
		}
		return fail(err.Error())
	}

	if err := p.store.CaptureRaw(ctx, raw); err != nil {
		return fail(err.Error())
	}

	inserted, insertFailures, err := p.store.InsertExtracted(ctx, records)
	failures = append(failures, insertFailures...)
	if err != nil {
		return Result{RawID: raw.ID, Failures: failures, Error: err.Error()}
	}

	upserted := p.merge(ctx, records, &failures)

	zap.L().Info("pipeline: ingest complete",
		zap.String("provider", provider),
		zap.String("slug", slug),
		zap.String("raw_id", raw.ID),
		zap.Int("extracted", inserted),
		zap.Int("upserted", upserted),
		zap.Int("failures", len(failures)),
	)

	return Result{
		Success:   true,
		RawID:     raw.ID,
		Extracted: inserted,
		Upserted:  upserted,
		Failures:  failures,
	}
}

// Replay re-runs extraction and canonical merge over an already-captured
// payload. The raw tier is untouched; replace-set semantics in the extracted
// tier make the re-run converge instead of duplicating.
func (p *Pipeline) Replay(ctx context.Context, raw model.RawPayload) Result {
	normalizer, err := p.registry.ForKind(raw.Kind)
	if err != nil {
		return fail(err.Error())
	}

	records, failures, err := normalizer.Normalize(raw)
	if err != nil {
		return fail(err.Error())
	}

	inserted, insertFailures, err := p.store.InsertExtracted(ctx, records)
	failures = append(failures, insertFailures...)
	if err != nil {
		return Result{RawID: raw.ID, Failures: failures, Error: err.Error()}
	}

	upserted := p.merge(ctx, records, &failures)
	return Result{
		Success:   true,
		RawID:     raw.ID,
		Extracted: inserted,
		Upserted:  upserted,
		Failures:  failures,
	}
}

func fail(msg string) Result {
	return Result{Success: false, Error: msg}
}

// merge routes each extracted record into the canonical tier. Failures are
// isolated per record.
func (p *Pipeline) merge(ctx context.Context, records []model.ExtractedRecord, failures *[]model.ItemFailure) int {
	var upserted int
	for i, rec := range records {
		if err := p.mergeOne(ctx, rec); err != nil {
			zap.L().Warn("pipeline: canonical merge failed",
				zap.String("kind", string(rec.Kind)),
				zap.String("identity", rec.Identity),
				zap.Error(err),
			)
			*failures = append(*failures, model.ItemFailure{Index: i, Reason: err.Error()})
			continue
		}
		upserted++
	}
	return upserted
}

func (p *Pipeline) mergeOne(ctx context.Context, rec model.ExtractedRecord) error {
	switch rec.Kind {
	case model.RecordCompanyFacts:
		p.resolveField(ctx, rec.Fields, "industry", crosswalk.CategoryIndustry)
		p.resolveField(ctx, rec.Fields, "location", crosswalk.CategoryLocation)
		_, err := p.core.UpsertCompany(ctx, rec.Identity, canonical.CompanyFromFields(rec.Fields))
		return err

	case model.RecordBuyerProfile:
		_, err := p.core.UpsertCompany(ctx, rec.Identity, canonical.CompanyFromFields(rec.Fields))
		return err

	case model.RecordPortfolioCo:
		if _, err := p.core.UpsertCompany(ctx, rec.Identity, canonical.CompanyFromFields(rec.Fields)); err != nil {
			return err
		}
		investor, _ := rec.Fields["investor_domain"].(string)
		return p.core.UpsertInvestorEdge(ctx, model.InvestorEdge{
			InvestorDomain:  investor,
			PortfolioDomain: rec.Identity,
			Source:          "vc_portfolio",
		})

	case model.RecordPersonFacts:
		p.resolveField(ctx, rec.Fields, "title", crosswalk.CategoryJobTitle)
		_, err := p.core.UpsertPerson(ctx, rec.Identity, canonical.PersonFromFields(rec.Fields))
		return err

	case model.RecordChampion:
		name, _ := rec.Fields["full_name"].(string)
		companyDomain, _ := rec.Fields["company_domain"].(string)
		caseURL, _ := rec.Fields["case_study_url"].(string)

		if profile, _ := rec.Fields["profile_url"].(string); profile != "" {
			if _, err := p.core.UpsertPerson(ctx, profile, canonical.PersonFromFields(rec.Fields)); err != nil {
				return err
			}
		}
		edge := model.ChampionEdge{FullName: name, CompanyDomain: companyDomain, CaseStudyURL: caseURL}
		if title, _ := rec.Fields["title"].(string); title != "" {
			edge.Title = &title
		}
		if quote, _ := rec.Fields["quote"].(string); quote != "" {
			edge.Quote = &quote
		}
		return p.core.UpsertChampionEdge(ctx, edge)

	case model.RecordCustomerRef:
		name, _ := rec.Fields["customer_name"].(string)
		edge := model.CustomerEdge{OriginDomain: rec.Identity, CustomerName: name, Source: "ingest"}
		if d, _ := rec.Fields["customer_domain"].(string); d != "" {
			edge.CustomerDomain = &d
		}
		return p.core.UpsertCustomerEdge(ctx, edge)

	case model.RecordCompetitorRef:
		compDomain, _ := rec.Fields["competitor_domain"].(string)
		return p.core.UpsertCompetitorEdge(ctx, model.CompetitorEdge{
			OriginDomain:     rec.Identity,
			CompetitorDomain: compDomain,
			Source:           "ingest",
		})

	case model.RecordIntentSignal, model.RecordAdCreative:
		// Extracted-tier only. Registering the identity keeps a canonical
		// shell row present for later backfill joins.
		_, err := p.core.UpsertCompany(ctx, rec.Identity, model.Company{})
		return err

	default:
		zap.L().Warn("pipeline: record kind has no canonical route", zap.String("kind", string(rec.Kind)))
		return nil
	}
}

// resolveField swaps a free-text field for its canonical vocabulary value
// when the crosswalk finds one. NoMatch keeps the raw value: the extracted
// tier already preserves the original, and a raw canonical value beats an
// empty one.
func (p *Pipeline) resolveField(ctx context.Context, fields map[string]any, key, category string) {
	if p.matcher == nil {
		return
	}
	value, _ := fields[key].(string)
	if value == "" {
		return
	}
	res, err := p.matcher.Match(ctx, category, value)
	if err != nil {
		zap.L().Warn("pipeline: crosswalk match failed",
			zap.String("category", category),
			zap.String("value", value),
			zap.Error(err),
		)
		return
	}
	if res.Kind != crosswalk.NoMatch && res.Canonical != "" {
		fields[key] = res.Canonical
	}
}
