package upstream

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"matchsync/internal/domain/profile"

	"golang.org/x/net/publicsuffix"
)

const DefaultIndustry = "Technology"

// SyncPayload is the body of POST /update-user/.
type SyncPayload struct {
	UserID   string   `json:"user_id"`
	Industry string   `json:"industry"`
	Domains  []string `json:"domains"`
	Details  any      `json:"details"`
	Links    []string `json:"links"`
}

// BuildPayload derives the upstream payload from a stored profile.
func BuildPayload(p profile.Profile) (SyncPayload, error) {
	userID := strings.TrimSpace(p.DisplayID)
	if userID == "" {
		return SyncPayload{}, fmt.Errorf("%w: user_id must be a non-empty string", profile.ErrValidation)
	}

	industry := p.JobPreferences.PreferredIndustry
	if industry == "" {
		industry = DefaultIndustry
	}

	p.Normalize()
	links := make([]string, 0, len(p.JobPreferences.CompanyCareerPageURLs))
	domains := make([]string, 0, len(p.JobPreferences.CompanyCareerPageURLs))
	for _, raw := range p.JobPreferences.CompanyCareerPageURLs {
		links = append(links, raw)
		domains = append(domains, RegistrableHost(raw))
	}

	return SyncPayload{
		UserID:   userID,
		Industry: industry,
		Domains:  domains,
		Details:  p,
		Links:    links,
	}, nil
}

// CoercePayload builds a SyncPayload from loosely typed request fields:
// non-arrays become empty arrays, a non-object details becomes {}, and a
// missing industry defaults to DefaultIndustry.
func CoercePayload(userID string, industry, domains, details, links any) SyncPayload {
	out := SyncPayload{
		UserID:   userID,
		Industry: DefaultIndustry,
		Domains:  stringSlice(domains),
		Details:  map[string]any{},
		Links:    stringSlice(links),
	}
	switch v := industry.(type) {
	case string:
		if v != "" {
			out.Industry = v
		}
	case nil:
	default:
		out.Industry = fmt.Sprint(v)
	}
	if obj, ok := details.(map[string]any); ok {
		out.Details = obj
	}
	return out
}

// RegistrableHost returns the registrable domain (eTLD+1) of a career page
// URL, e.g. "https://www.google.com/careers" -> "google.com". Hosts without a
// public suffix fall back to the hostname minus a leading "www."; strings
// that do not parse as absolute URLs are returned unchanged.
func RegistrableHost(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Hostname() == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())
	if net.ParseIP(host) != nil {
		return host
	}
	// Unlisted TLDs (localhost, intranet names) match only the implicit "*" rule.
	if suffix, icann := publicsuffix.PublicSuffix(host); !icann && !strings.Contains(suffix, ".") {
		return strings.TrimPrefix(host, "www.")
	}
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return etld1
	}
	return strings.TrimPrefix(host, "www.")
}

func stringSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return append([]string{}, vv...)
	case []any:
		out := make([]string, 0, len(vv))
		for _, it := range vv {
			if s, ok := it.(string); ok {
				out = append(out, s)
			} else if it != nil {
				out = append(out, fmt.Sprint(it))
			}
		}
		return out
	default:
		return []string{}
	}
}
