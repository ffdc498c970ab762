package interest

import (
	"strings"

	"matchsync/internal/domain/profile"
)

var defaultDomains = []string{"Technology", "Business", "General"}

type industryRule struct {
	markers []string
	tags    []string
}

// Evaluated in order; the first matching rule wins. Markers are case-sensitive.
var industryRules = []industryRule{
	{markers: []string{"Technology", "IT"}, tags: []string{"Technology", "Software", "IT Services"}},
	{markers: []string{"Finance"}, tags: []string{"Finance", "Banking", "Investment"}},
	{markers: []string{"Healthcare"}, tags: []string{"Healthcare", "Medical", "Pharmaceutical"}},
}

var otherIndustryTags = []string{"General", "Business", "Consulting"}

type skillRule struct {
	keywords []string
	tag      string
}

var skillRules = []skillRule{
	{keywords: []string{"javascript", "vue", "react"}, tag: "Technology"},
	{keywords: []string{"python", "data"}, tag: "Data Science"},
	{keywords: []string{"design", "ui"}, tag: "Design"},
}

// Infer derives domain tags from the industry preference and skills of p.
// The result is never empty and is only meant to stand in for authoritative
// domain data from the matching service.
func Infer(p profile.Profile) []string {
	out := make([]string, 0, 6)
	seen := make(map[string]struct{}, 6)
	add := func(tags ...string) {
		for _, t := range tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	if industry := p.JobPreferences.PreferredIndustry; industry != "" {
		add(industryTags(industry)...)
	}

	for _, skill := range p.Skills {
		s := strings.ToLower(skill)
		for _, r := range skillRules {
			if containsAny(s, r.keywords) {
				add(r.tag)
			}
		}
	}

	if len(out) == 0 {
		add(defaultDomains...)
	}
	return out
}

func industryTags(industry string) []string {
	for _, r := range industryRules {
		if containsAny(industry, r.markers) {
			return r.tags
		}
	}
	return otherIndustryTags
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
