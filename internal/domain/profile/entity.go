package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Identity is the authenticated user as issued by the auth provider.
type Identity struct {
	UID   string
	Email string
}

type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

type JobPreferences struct {
	PreferredIndustry     string   `json:"preferredIndustry"`
	MinSalary             float64  `json:"minSalary"`
	MaxSalary             float64  `json:"maxSalary"`
	CompanyCareerPageURLs []string `json:"companyCareerPageUrls"`
}

// Profile is the stored document keyed by Identity.UID.
type Profile struct {
	PersonalInfo   PersonalInfo   `json:"personalInfo"`
	Skills         []string       `json:"skills"`
	Experience     []any          `json:"experience"`
	Education      []any          `json:"education"`
	Projects       []any          `json:"projects"`
	JobPreferences JobPreferences `json:"jobPreferences"`
	DisplayID      string         `json:"displayId,omitempty"`
	Domain         []string       `json:"domain,omitempty"`
}

// NewSkeleton returns the empty profile written on first login.
func NewSkeleton(email string) Profile {
	return Profile{
		PersonalInfo: PersonalInfo{Email: strings.TrimSpace(email)},
		Skills:       []string{},
		Experience:   []any{},
		Education:    []any{},
		Projects:     []any{},
		JobPreferences: JobPreferences{
			CompanyCareerPageURLs: []string{},
		},
	}
}

// Normalize replaces nil collections with empty ones so the document always
// serializes with arrays.
func (p *Profile) Normalize() {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []any{}
	}
	if p.Education == nil {
		p.Education = []any{}
	}
	if p.Projects == nil {
		p.Projects = []any{}
	}
	if p.JobPreferences.CompanyCareerPageURLs == nil {
		p.JobPreferences.CompanyCareerPageURLs = []string{}
	}
}

// CheckPatch reports ErrValidation when a top-level merge of patch would
// leave a document that no longer decodes into a Profile.
func CheckPatch(patch map[string]any) error {
	b, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var p Profile
	if err := json.Unmarshal(b, &p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return fmt.Errorf("%w: field %s must be %s", ErrValidation, typeErr.Field, typeErr.Type)
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// DetailDomains reads the domain list of a matching service user detail
// message. A non-empty "domain" wins over "domains"; a bare string is
// wrapped. Blank and repeated entries are dropped.
func DetailDomains(msg map[string]any) []string {
	if d := domainStrings(msg["domain"]); len(d) > 0 {
		return d
	}
	return domainStrings(msg["domains"])
}

func domainStrings(v any) []string {
	var in []string
	switch t := v.(type) {
	case string:
		in = []string{t}
	case []string:
		in = t
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				in = append(in, s)
			}
		}
	}

	out := []string{}
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
