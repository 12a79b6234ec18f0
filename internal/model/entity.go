package model

import "time"

// Company is the canonical current-truth row for one normalized domain.
// Pointer fields distinguish "absent from this update" from a real value;
// absent fields never erase stored ones (populate-only merge).
type Company struct {
	ID            int64      `json:"id" db:"id"`
	Domain        string     `json:"domain" db:"domain"`
	Name          *string    `json:"name,omitempty" db:"name"`
	LinkedInURL   *string    `json:"linkedin_url,omitempty" db:"linkedin_url"`
	Description   *string    `json:"description,omitempty" db:"description"`
	Industry      *string    `json:"industry,omitempty" db:"industry"`
	Location      *string    `json:"location,omitempty" db:"location"`
	EmployeeCount *int       `json:"employee_count,omitempty" db:"employee_count"`
	IsB2B         *bool      `json:"is_b2b,omitempty" db:"is_b2b"`
	IsB2C         *bool      `json:"is_b2c,omitempty" db:"is_b2c"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	EnrichedAt    *time.Time `json:"enriched_at,omitempty" db:"enriched_at"`
}

// Person is the canonical row for one normalized LinkedIn profile URL.
type Person struct {
	ID            int64     `json:"id" db:"id"`
	ProfileURL    string    `json:"profile_url" db:"profile_url"`
	FullName      *string   `json:"full_name,omitempty" db:"full_name"`
	Email         *string   `json:"email,omitempty" db:"email"`
	Title         *string   `json:"title,omitempty" db:"title"`
	Seniority     *string   `json:"seniority,omitempty" db:"seniority"`
	CompanyDomain *string   `json:"company_domain,omitempty" db:"company_domain"`
	Location      *string   `json:"location,omitempty" db:"location"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CustomerEdge links a vendor to a named customer. Deduplicated on
// (origin_domain, customer_name). CustomerDomain follows first-resolution-wins:
// set once when empty, never overwritten.
type CustomerEdge struct {
	OriginDomain   string  `json:"origin_domain" db:"origin_domain"`
	CustomerName   string  `json:"customer_name" db:"customer_name"`
	CustomerDomain *string `json:"customer_domain,omitempty" db:"customer_domain"`
	Source         string  `json:"source" db:"source"`
}

// CompetitorEdge links two companies as competitors. Deduplicated on
// (origin_domain, competitor_domain).
type CompetitorEdge struct {
	OriginDomain     string `json:"origin_domain" db:"origin_domain"`
	CompetitorDomain string `json:"competitor_domain" db:"competitor_domain"`
	Source           string `json:"source" db:"source"`
}

// ChampionEdge links a quoted person to a vendor through a case study.
// Deduplicated on (full_name, company_domain, case_study_url).
type ChampionEdge struct {
	FullName      string  `json:"full_name" db:"full_name"`
	CompanyDomain string  `json:"company_domain" db:"company_domain"`
	CaseStudyURL  string  `json:"case_study_url" db:"case_study_url"`
	Title         *string `json:"title,omitempty" db:"title"`
	Quote         *string `json:"quote,omitempty" db:"quote"`
}

// InvestorEdge links a VC to a portfolio company. Deduplicated on
// (investor_domain, portfolio_domain).
type InvestorEdge struct {
	InvestorDomain  string `json:"investor_domain" db:"investor_domain"`
	PortfolioDomain string `json:"portfolio_domain" db:"portfolio_domain"`
	Source          string `json:"source" db:"source"`
}

// CrosswalkEntry maps one raw free-text value to a canonical vocabulary term
// within a category. Read-only from the matcher's perspective.
type CrosswalkEntry struct {
	Category       string `json:"category" db:"category"`
	RawValue       string `json:"raw_value" db:"raw_value"`
	CanonicalValue string `json:"canonical_value" db:"canonical_value"`
	Source         string `json:"source" db:"source"`
}
