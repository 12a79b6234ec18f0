// Package model defines the data types shared across the warehouse tiers:
// raw captures, extracted records, canonical entities, and relationship edges.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PayloadKind identifies the shape of an inbound payload. The set is closed:
// workflow slugs resolve through KindForSlug at capture time and unknown slugs
// are rejected before any write.
type PayloadKind string

const (
	KindFirmographics  PayloadKind = "firmographics"
	KindBuyerProfile   PayloadKind = "buyer_profile"
	KindCaseStudy      PayloadKind = "case_study"
	KindCustomerList   PayloadKind = "customer_list"
	KindCompetitorList PayloadKind = "competitor_list"
	KindIntentSignal   PayloadKind = "intent_signal"
	KindAdCreative     PayloadKind = "ad_creative"
	KindVCPortfolio    PayloadKind = "vc_portfolio"
	KindPerson         PayloadKind = "person"
)

// slugKinds maps inbound workflow slugs to payload kinds. Built once; never
// mutated at request time. Several slugs alias the same kind because upstream
// orchestration renamed workflows without changing payload shapes.
var slugKinds = map[string]PayloadKind{
	"company-firmographics": KindFirmographics,
	"company-enrich":        KindFirmographics,
	"buyer-classification":  KindBuyerProfile,
	"case-study-scrape":     KindCaseStudy,
	"customer-references":   KindCustomerList,
	"competitor-discovery":  KindCompetitorList,
	"intent-signal":         KindIntentSignal,
	"ad-library":            KindAdCreative,
	"vc-portfolio":          KindVCPortfolio,
	"person-enrich":         KindPerson,
}

// KindForSlug resolves a workflow slug to its payload kind.
func KindForSlug(slug string) (PayloadKind, bool) {
	k, ok := slugKinds[slug]
	return k, ok
}

// Slugs returns the accepted workflow slugs, for route registration.
func Slugs() []string {
	out := make([]string, 0, len(slugKinds))
	for s := range slugKinds {
		out = append(out, s)
	}
	return out
}

// RawPayload is one captured inbound call. Immutable and append-only; retained
// indefinitely for audit and replay.
type RawPayload struct {
	ID           string          `json:"id" db:"id"`
	Provider     string          `json:"provider" db:"provider"`
	WorkflowSlug string          `json:"workflow_slug" db:"workflow_slug"`
	Kind         PayloadKind     `json:"kind" db:"kind"`
	CapturedAt   time.Time       `json:"captured_at" db:"captured_at"`
	Payload      json.RawMessage `json:"payload" db:"payload"`
	IdentityHint string          `json:"identity_hint" db:"identity_hint"`
	PayloadSHA   string          `json:"payload_sha" db:"payload_sha"`
}

// PayloadSHA returns the hex SHA-256 of a payload body. Stored with each raw
// capture so retried ingestion of the same body is attributable at query time.
func PayloadSHA(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// NewRawPayload assembles a capture-ready RawPayload. The ID is assigned here
// so extraction can reference it before the row is persisted; nothing is
// written until the store captures it.
func NewRawPayload(provider, slug string, kind PayloadKind, body []byte, identityHint string) RawPayload {
	return RawPayload{
		ID:           uuid.NewString(),
		Provider:     provider,
		WorkflowSlug: slug,
		Kind:         kind,
		CapturedAt:   time.Now().UTC(),
		Payload:      body,
		IdentityHint: identityHint,
		PayloadSHA:   PayloadSHA(body),
	}
}
