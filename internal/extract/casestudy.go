package extract

import (
	"github.com/sells-group/lead-warehouse/internal/identity"
	"github.com/sells-group/lead-warehouse/internal/model"
)

// caseStudyNormalizer handles scraped vendor case studies: one customer_ref
// record for the featured customer plus one champion record per quoted person.
// Champion records carry the case study URL as their replace set, so
// re-scraping a case study replaces its prior champion list instead of
// appending to it.
type caseStudyNormalizer struct{}

func (n *caseStudyNormalizer) Kind() model.PayloadKind { return model.KindCaseStudy }

func (n *caseStudyNormalizer) Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error) {
	var p struct {
		CaseStudyURL string `json:"caseStudyUrl"`
		URL          string `json:"url"`
		VendorDomain string `json:"vendorDomain"`
		Customer     struct {
			Name   string `json:"name"`
			Domain string `json:"domain"`
		} `json:"customer"`
		Champions []struct {
			Name        string `json:"name"`
			Title       string `json:"title"`
			LinkedInURL string `json:"linkedinUrl"`
			Quote       string `json:"quote"`
		} `json:"champions"`
	}
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}

	caseURL := firstNonEmpty(p.CaseStudyURL, p.URL)
	if caseURL == "" {
		return nil, nil, &model.ValidationError{Field: "caseStudyUrl", Reason: "case study payload carries no URL"}
	}
	vendor := identity.NormalizeDomain(firstNonEmpty(p.VendorDomain, raw.IdentityHint))
	if vendor == "" {
		return nil, nil, &model.ValidationError{Field: "vendorDomain", Reason: "case study payload carries no usable vendor domain"}
	}

	var records []model.ExtractedRecord

	if p.Customer.Name != "" {
		fields := map[string]any{
			"customer_name":  p.Customer.Name,
			"case_study_url": caseURL,
		}
		putStr(fields, "customer_domain", identity.NormalizeDomain(p.Customer.Domain))
		records = append(records, model.ExtractedRecord{
			Kind:        model.RecordCustomerRef,
			Identity:    vendor,
			Fields:      fields,
			SourceRawID: raw.ID,
		})
	}

	var failures []model.ItemFailure
	for i, ch := range p.Champions {
		if ch.Name == "" {
			failures = append(failures, model.ItemFailure{Index: i, Reason: "champion entry has no name"})
			continue
		}
		champIdentity := identity.NormalizeLinkedInURL(ch.LinkedInURL)
		fields := map[string]any{
			"full_name":      ch.Name,
			"company_domain": vendor,
			"case_study_url": caseURL,
		}
		putStr(fields, "title", ch.Title)
		putStr(fields, "quote", ch.Quote)
		putStr(fields, "profile_url", champIdentity)
		if champIdentity == "" {
			// Champions without a profile are still edges, keyed by name.
			champIdentity = ch.Name
		}
		records = append(records, model.ExtractedRecord{
			Kind:        model.RecordChampion,
			Identity:    champIdentity,
			Fields:      fields,
			ReplaceSet:  caseURL,
			SourceRawID: raw.ID,
		})
	}

	return records, failures, nil
}
