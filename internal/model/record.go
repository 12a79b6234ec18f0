package model

import "fmt"

// RecordKind identifies the extracted-tier table a record lands in.
type RecordKind string

const (
	RecordCompanyFacts  RecordKind = "company_facts"
	RecordBuyerProfile  RecordKind = "buyer_profile"
	RecordChampion      RecordKind = "champion"
	RecordCustomerRef   RecordKind = "customer_ref"
	RecordCompetitorRef RecordKind = "competitor_ref"
	RecordIntentSignal  RecordKind = "intent_signal"
	RecordAdCreative    RecordKind = "ad_creative"
	RecordPortfolioCo   RecordKind = "portfolio_company"
	RecordPersonFacts   RecordKind = "person_facts"
)

// ExtractedRecord is one flattened, identity-tagged row derived from exactly
// one raw payload. Records are insert-only except for the replace-set flows
// (see ReplaceSet).
type ExtractedRecord struct {
	Kind        RecordKind     `json:"kind"`
	Identity    string         `json:"identity"` // normalized domain, profile URL, or email
	Fields      map[string]any `json:"fields"`
	SourceRawID string         `json:"source_raw_id"`

	// ReplaceSet, when non-empty, names the scope key whose previously
	// extracted rows of this Kind are deleted before this batch inserts
	// (e.g. a case_study_url whose champion list is re-scraped).
	ReplaceSet string `json:"replace_set,omitempty"`
}

// ItemFailure records one element of an exploded array that failed to
// normalize. Siblings proceed; the aggregate is returned to the caller.
type ItemFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (f ItemFailure) String() string {
	return fmt.Sprintf("item %d: %s", f.Index, f.Reason)
}
