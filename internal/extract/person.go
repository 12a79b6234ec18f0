package extract

import (
	"github.com/sells-group/lead-warehouse/internal/identity"
	"github.com/sells-group/lead-warehouse/internal/model"
)

// personNormalizer flattens person-enrichment payloads. Identity is the
// normalized LinkedIn profile URL; a payload with only an email is still
// usable for email-keyed storage but cannot join the people table.
type personNormalizer struct{}

func (n *personNormalizer) Kind() model.PayloadKind { return model.KindPerson }

func (n *personNormalizer) Normalize(raw model.RawPayload) ([]model.ExtractedRecord, []model.ItemFailure, error) {
	var p struct {
		ProfileURL    string `json:"profileUrl"`
		LinkedInURL   string `json:"linkedinUrl"`
		FullName      string `json:"fullName"`
		Email         string `json:"email"`
		Title         string `json:"title"`
		Seniority     string `json:"seniority"`
		CompanyDomain string `json:"companyDomain"`
		Location      string `json:"location"`
	}
	if err := decode(raw, &p); err != nil {
		return nil, nil, err
	}

	profile := identity.NormalizeLinkedInURL(firstNonEmpty(p.ProfileURL, p.LinkedInURL, raw.IdentityHint))
	if profile == "" {
		return nil, nil, &model.ValidationError{Field: "profileUrl", Reason: "person payload carries no usable profile URL"}
	}

	fields := map[string]any{}
	putStr(fields, "full_name", p.FullName)
	putStr(fields, "email", identity.NormalizeEmail(p.Email))
	putStr(fields, "title", p.Title)
	putStr(fields, "seniority", p.Seniority)
	putStr(fields, "company_domain", identity.NormalizeDomain(p.CompanyDomain))
	putStr(fields, "location", p.Location)

	return []model.ExtractedRecord{{
		Kind:        model.RecordPersonFacts,
		Identity:    profile,
		Fields:      fields,
		SourceRawID: raw.ID,
	}}, nil, nil
}
