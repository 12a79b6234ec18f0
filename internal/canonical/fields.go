package canonical

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-warehouse/internal/model"
)

// CompanyFromFields maps extracted field values onto a company delta. Only
// keys present in the map produce non-nil pointers, preserving the
// populate-only contract downstream.
func CompanyFromFields(fields map[string]any) model.Company {
	var c model.Company
	for key, v := range fields {
		if v == nil {
			continue
		}
		applyCompanyField(&c, key, v)
	}
	return c
}

func applyCompanyField(c *model.Company, key string, v any) {
	s, _ := v.(string)

	switch key {
	case "name", "company_name":
		setStr(&c.Name, s)
	case "linkedin_url":
		setStr(&c.LinkedInURL, s)
	case "description", "company_description", "long_description":
		setStr(&c.Description, s)
	case "industry":
		setStr(&c.Industry, s)
	case "location":
		setStr(&c.Location, s)
	case "employee_count":
		if n := toInt(v); n > 0 {
			c.EmployeeCount = &n
		}
	case "is_b2b":
		if b, ok := toBool(v); ok {
			c.IsB2B = &b
		}
	case "is_b2c":
		if b, ok := toBool(v); ok {
			c.IsB2C = &b
		}
	case "domain":
		// Identity key, carried separately.
	default:
		zap.L().Debug("canonical: unmapped company field", zap.String("key", key))
	}
}

// PersonFromFields maps extracted field values onto a person delta.
func PersonFromFields(fields map[string]any) model.Person {
	var p model.Person
	for key, v := range fields {
		if v == nil {
			continue
		}
		s, _ := v.(string)
		switch key {
		case "full_name", "name":
			setStr(&p.FullName, s)
		case "email":
			setStr(&p.Email, s)
		case "title", "job_title":
			setStr(&p.Title, s)
		case "seniority":
			setStr(&p.Seniority, s)
		case "company_domain":
			setStr(&p.CompanyDomain, s)
		case "location":
			setStr(&p.Location, s)
		case "profile_url":
			// Identity key, carried separately.
		default:
			zap.L().Debug("canonical: unmapped person field", zap.String("key", key))
		}
	}
	return p
}

func setStr(dst **string, s string) {
	if s != "" {
		*dst = &s
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case float32:
		return int(n)
	default:
		return 0
	}
}

// toBool accepts real booleans and the YES/NO strings several providers send.
func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToUpper(strings.TrimSpace(b)) {
		case "YES", "TRUE", "Y":
			return true, true
		case "NO", "FALSE", "N":
			return false, true
		}
	}
	return false, false
}
