// Package identity canonicalizes the attributes used as conflict keys for
// canonical entities: company domains, LinkedIn profile URLs, and emails.
// All functions are pure, total, and idempotent; unusable input yields "".
package identity

import (
	"strings"
)

// NormalizeDomain reduces a URL or bare hostname to its canonical domain form:
// no scheme, no path or query, no leading "www.", lowercase, no trailing
// separators. Returns "" when nothing resembling a hostname remains.
func NormalizeDomain(raw string) string {
	d := strings.TrimSpace(raw)
	if d == "" {
		return ""
	}
	d = strings.ToLower(d)
	if i := strings.Index(d, "://"); i >= 0 {
		d = d[i+3:]
	}
	// Drop userinfo, path, query, and fragment.
	if i := strings.IndexAny(d, "/?#"); i >= 0 {
		d = d[:i]
	}
	if i := strings.LastIndex(d, "@"); i >= 0 {
		d = d[i+1:]
	}
	if i := strings.Index(d, ":"); i >= 0 {
		d = d[:i]
	}
	for strings.HasPrefix(d, "www.") {
		d = d[len("www."):]
	}
	d = strings.Trim(d, "./")
	if d == "" || !strings.Contains(d, ".") {
		return ""
	}
	return d
}

// NormalizeLinkedInURL canonicalizes a LinkedIn profile or company URL to the
// form "linkedin.com/<kind>/<slug>". Regional hosts (uk.linkedin.com) collapse
// to the bare domain. Returns "" for anything that is not a linkedin.com URL.
func NormalizeLinkedInURL(raw string) string {
	s := strings.TrimSpace(strings.ToLower(raw))
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	host, path, _ := strings.Cut(s, "/")
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	if host != "linkedin.com" && !strings.HasSuffix(host, ".linkedin.com") {
		return ""
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return ""
	}
	return "linkedin.com/" + path
}

// NormalizeEmail lowercases and trims an email address. Returns "" when the
// input does not contain a local part and a domain.
func NormalizeEmail(raw string) string {
	e := strings.ToLower(strings.TrimSpace(raw))
	local, domain, ok := strings.Cut(e, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return ""
	}
	return e
}
