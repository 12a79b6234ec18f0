package extract

import (
	"fmt"

	"github.com/sells-group/lead-warehouse/internal/identity"
	"github.com/sells-group/lead-warehouse/internal/model"
)

// firmographicsNormalizer flattens provider company-enrichment payloads into
// one company_facts record.
type firmographicsNormalizer struct{}

func (n *firmographicsNormalizer) Kind() model.PayloadKind { return model.KindFirmographics }

func (n *firmographicsNormalizer) Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error) {
	var p struct {
		Domain        string `json:"domain"`
		Website       string `json:"website"`
		URL           string `json:"url"`
		Name          string `json:"name"`
		Description   string `json:"description"`
		Industry      string `json:"industry"`
		Location      string `json:"location"`
		EmployeeCount int    `json:"employeeCount"`
		LinkedInURL   string `json:"linkedinUrl"`
	}
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}

	domain := identity.NormalizeDomain(firstNonEmpty(p.Domain, p.Website, p.URL, raw.IdentityHint))
	if domain == "" {
		return nil, nil, &model.ValidationError{Field: "domain", Reason: "firmographics payload carries no usable domain"}
	}

	fields := map[string]any{}
	putStr(fields, "name", p.Name)
	putStr(fields, "description", p.Description)
	putStr(fields, "industry", p.Industry)
	putStr(fields, "location", p.Location)
	putStr(fields, "linkedin_url", identity.NormalizeLinkedInURL(p.LinkedInURL))
	if p.EmployeeCount > 0 {
		fields["employee_count"] = p.EmployeeCount
	}

	return []model.ExtractedRecord{{
		Kind:        model.RecordCompanyFacts,
		Identity:    domain,
		Fields:      fields,
		SourceRawID: raw.ID,
	}}, nil, nil
}

// buyerProfileNormalizer flattens the nested buyer-classification shape into
// is_b2b / is_b2c verdict strings, converted to booleans at upsert time.
type buyerProfileNormalizer struct{}

func (n *buyerProfileNormalizer) Kind() model.PayloadKind { return model.KindBuyerProfile }

func (n *buyerProfileNormalizer) Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error) {
	var p struct {
		Domain              string `json:"domain"`
		BuyerClassification struct {
			BusinessBuyers struct {
				IsB2B string `json:"isB2b"`
			} `json:"businessBuyers"`
			ConsumerBuyers struct {
				IsB2C string `json:"isB2c"`
			} `json:"consumerBuyers"`
		} `json:"buyerClassification"`
	}
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}

	domain := identity.NormalizeDomain(firstNonEmpty(p.Domain, raw.IdentityHint))
	if domain == "" {
		return nil, nil, &model.ValidationError{Field: "domain", Reason: "buyer profile payload carries no usable domain"}
	}

	fields := map[string]any{}
	putStr(fields, "is_b2b", p.BuyerClassification.BusinessBuyers.IsB2B)
	putStr(fields, "is_b2c", p.BuyerClassification.ConsumerBuyers.IsB2C)

	return []model.ExtractedRecord{{
		Kind:        model.RecordBuyerProfile,
		Identity:    domain,
		Fields:      fields,
		SourceRawID: raw.ID,
	}}, nil, nil
}

// customerListNormalizer explodes a customers array into one customer_ref
// record per entry.
type customerListNormalizer struct{}

func (n *customerListNormalizer) Kind() model.PayloadKind { return model.KindCustomerList }

func (n *customerListNormalizer) Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error) {
	var p struct {
		Domain    string `json:"domain"`
		Customers []struct {
			Name   string `json:"name"`
			Domain string `json:"domain"`
		} `json:"customers"`
	}
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}

	origin := identity.NormalizeDomain(firstNonEmpty(p.Domain, raw.IdentityHint))
	if origin == "" {
		return nil, nil, &model.ValidationError{Field: "domain", Reason: "customer list payload carries no usable origin domain"}
	}

	var records []model.ExtractedRecord
	var failures []model.ItemFailure
	for i, cust := range p.Customers {
		if cust.Name == "" {
			failures = append(failures, model.ItemFailure{Index: i, Reason: "customer entry has no name"})
			continue
		}
		fields := map[string]any{"customer_name": cust.Name}
		putStr(fields, "customer_domain", identity.NormalizeDomain(cust.Domain))
		records = append(records, model.ExtractedRecord{
			Kind:        model.RecordCustomerRef,
			Identity:    origin,
			Fields:      fields,
			SourceRawID: raw.ID,
		})
	}
	return records, failures, nil
}

// competitorListNormalizer explodes a competitors array into competitor_ref
// records, one per resolvable competitor domain.
type competitorListNormalizer struct{}

func (n *competitorListNormalizer) Kind() model.PayloadKind { return model.KindCompetitorList }

func (n *competitorListNormalizer) Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error) {
	var p struct {
		Domain      string `json:"domain"`
		Competitors []struct {
			Domain string `json:"domain"`
			Name   string `json:"name"`
		} `json:"competitors"`
	}
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}

	origin := identity.NormalizeDomain(firstNonEmpty(p.Domain, raw.IdentityHint))
	if origin == "" {
		return nil, nil, &model.ValidationError{Field: "domain", Reason: "competitor list payload carries no usable origin domain"}
	}

	var records []model.ExtractedRecord
	var failures []model.ItemFailure
	for i, comp := range p.Competitors {
		compDomain := identity.NormalizeDomain(comp.Domain)
		if compDomain == "" {
			failures = append(failures, model.ItemFailure{Index: i, Reason: fmt.Sprintf("competitor %q has no usable domain", comp.Name)})
			continue
		}
		records = append(records, model.ExtractedRecord{
			Kind:     model.RecordCompetitorRef,
			Identity: origin,
			Fields: map[string]any{
				"competitor_domain": compDomain,
			},
			SourceRawID: raw.ID,
		})
	}
	return records, failures, nil
}

// intentSignalNormalizer flattens one intent observation.
type intentSignalNormalizer struct{}

func (n *intentSignalNormalizer) Kind() model.PayloadKind { return model.KindIntentSignal }

func (n *intentSignalNormalizer) Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error) {
	var p struct {
		Domain     string  `json:"domain"`
		Topic      string  `json:"topic"`
		Score      float64 `json:"score"`
		ObservedAt string  `json:"observedAt"`
	}
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}

	domain := identity.NormalizeDomain(firstNonEmpty(p.Domain, raw.IdentityHint))
	if domain == "" {
		return nil, nil, &model.ValidationError{Field: "domain", Reason: "intent signal payload carries no usable domain"}
	}
	if p.Topic == "" {
		return nil, nil, &model.ValidationError{Field: "topic", Reason: "intent signal payload carries no topic"}
	}

	fields := map[string]any{
		"topic": p.Topic,
		"score": p.Score,
	}
	putStr(fields, "observed_at", p.ObservedAt)

	return []model.ExtractedRecord{{
		Kind:        model.RecordIntentSignal,
		Identity:    domain,
		Fields:      fields,
		SourceRawID: raw.ID,
	}}, nil, nil
}

// adCreativeNormalizer explodes an ad-library payload into one ad_creative
// record per ad.
type adCreativeNormalizer struct{}

func (n *adCreativeNormalizer) Kind() model.PayloadKind { return model.KindAdCreative }

func (n *adCreativeNormalizer) Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error) {
	var p struct {
		Domain string `json:"domain"`
		Ads    []struct {
			Headline  string `json:"headline"`
			Body      string `json:"body"`
			Platform  string `json:"platform"`
			FirstSeen string `json:"firstSeen"`
		} `json:"ads"`
	}
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}

	domain := identity.NormalizeDomain(firstNonEmpty(p.Domain, raw.IdentityHint))
	if domain == "" {
		return nil, nil, &model.ValidationError{Field: "domain", Reason: "ad payload carries no usable domain"}
	}

	var records []model.ExtractedRecord
	var failures []model.ItemFailure
	for i, ad := range p.Ads {
		if ad.Headline == "" && ad.Body == "" {
			failures = append(failures, model.ItemFailure{Index: i, Reason: "ad entry has no content"})
			continue
		}
		fields := map[string]any{}
		putStr(fields, "headline", ad.Headline)
		putStr(fields, "body", ad.Body)
		putStr(fields, "platform", ad.Platform)
		putStr(fields, "first_seen", ad.FirstSeen)
		records = append(records, model.ExtractedRecord{
			Kind:        model.RecordAdCreative,
			Identity:    domain,
			Fields:      fields,
			SourceRawID: raw.ID,
		})
	}
	return records, failures, nil
}

// vcPortfolioNormalizer explodes a VC portfolio page into one record per
// portfolio company, keyed by the portfolio company's own domain.
type vcPortfolioNormalizer struct{}

func (n *vcPortfolioNormalizer) Kind() model.PayloadKind { return model.KindVCPortfolio }

func (n *vcPortfolioNormalizer) Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error) {
	var p struct {
		InvestorDomain string `json:"investorDomain"`
		Companies      []struct {
			Domain          string `json:"domain"`
			Name            string `json:"name"`
			LongDescription string `json:"longDescription"`
		} `json:"companies"`
	}
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}

	investor := identity.NormalizeDomain(firstNonEmpty(p.InvestorDomain, raw.IdentityHint))
	if investor == "" {
		return nil, nil, &model.ValidationError{Field: "investorDomain", Reason: "portfolio payload carries no usable investor domain"}
	}

	var records []model.ExtractedRecord
	var failures []model.ItemFailure
	for i, co := range p.Companies {
		domain := identity.NormalizeDomain(co.Domain)
		if domain == "" {
			failures = append(failures, model.ItemFailure{Index: i, Reason: fmt.Sprintf("portfolio company %q has no usable domain", co.Name)})
			continue
		}
		fields := map[string]any{"investor_domain": investor}
		putStr(fields, "name", co.Name)
		putStr(fields, "long_description", co.LongDescription)
		records = append(records, model.ExtractedRecord{
			Kind:        model.RecordPortfolioCo,
			Identity:    domain,
			Fields:      fields,
			SourceRawID: raw.ID,
		})
	}
	return records, failures, nil
}

func putStr(fields map[string]any, key, val string) {
	if val != "" {
		fields[key] = val
	}
}
