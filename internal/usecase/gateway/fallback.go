package gateway

import "strings"

type JobDetails struct {
	Details JobDetail `json:"details"`
}

type JobDetail struct {
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
}

type MatchBreakdown struct {
	OverallMatch    int `json:"overall_match"`
	SkillsMatch     int `json:"skills_match"`
	ExperienceMatch int `json:"experience_match"`
}

// FallbackJob is the shape of the canned jobs served while the matching
// service is unreachable.
type FallbackJob struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Company     string          `json:"company"`
	Location    string          `json:"location"`
	Salary      string          `json:"salary"`
	Description string          `json:"description"`
	MatchScore  int             `json:"match_score"`
	JobDetails  *JobDetails     `json:"job_details,omitempty"`
	MatchResult *MatchBreakdown `json:"match_result,omitempty"`
}

type FallbackStatistics struct {
	MatchedJobsCount     int     `json:"matched_jobs_count"`
	RecommendedJobsCount int     `json:"recommended_jobs_count"`
	TotalApplications    int     `json:"total_applications"`
	AverageMatchScore    float64 `json:"average_match_score"`
}

func fallbackMatches() []FallbackJob {
	return []FallbackJob{
		{
			ID:          1,
			Title:       "Software Engineer",
			Company:     "Tech Corp",
			Location:    "Remote",
			Salary:      "$80,000 - $120,000",
			Description: "Full-stack development role with modern technologies",
			MatchScore:  85,
			JobDetails:  &JobDetails{Details: JobDetail{Title: "Software Engineer", CompanyName: "Tech Corp", Location: "Remote"}},
			MatchResult: &MatchBreakdown{OverallMatch: 85, SkillsMatch: 90, ExperienceMatch: 80},
		},
		{
			ID:          2,
			Title:       "Frontend Developer",
			Company:     "Startup Inc",
			Location:    "San Francisco, CA",
			Salary:      "$90,000 - $130,000",
			Description: "React/Vue.js development for innovative startup",
			MatchScore:  78,
			JobDetails:  &JobDetails{Details: JobDetail{Title: "Frontend Developer", CompanyName: "Startup Inc", Location: "San Francisco, CA"}},
			MatchResult: &MatchBreakdown{OverallMatch: 78, SkillsMatch: 85, ExperienceMatch: 70},
		},
		{
			ID:          3,
			Title:       "Data Scientist",
			Company:     "Analytics Pro",
			Location:    "New York, NY",
			Salary:      "$100,000 - $140,000",
			Description: "Machine learning and data analysis role",
			MatchScore:  82,
			JobDetails:  &JobDetails{Details: JobDetail{Title: "Data Scientist", CompanyName: "Analytics Pro", Location: "New York, NY"}},
			MatchResult: &MatchBreakdown{OverallMatch: 82, SkillsMatch: 88, ExperienceMatch: 75},
		},
	}
}

func fallbackRecommended() []FallbackJob {
	return []FallbackJob{
		{
			ID:          3,
			Title:       "Senior Developer",
			Company:     "Enterprise Solutions",
			Location:    "New York, NY",
			Salary:      "$120,000 - $160,000",
			Description: "Senior role with leadership opportunities",
			MatchScore:  92,
		},
	}
}

func fallbackStatistics() map[string]any {
	return map[string]any{
		"message": FallbackStatistics{
			MatchedJobsCount:     15,
			RecommendedJobsCount: 8,
			TotalApplications:    3,
			AverageMatchScore:    78.5,
		},
	}
}

func fallbackUser(displayID string) map[string]any {
	return map[string]any{
		"message": map[string]any{
			"user_id":    displayID,
			"name":       "User",
			"email":      displayID + "@example.com",
			"location":   "Unknown",
			"skills":     []string{},
			"experience": []any{},
			"domains":    []string{},
			"jobPreferences": map[string]any{
				"preferredIndustry": "Technology",
				"preferredLocation": "Remote",
				"salaryRange":       "50000-80000",
			},
		},
		"status": "fallback",
	}
}

var domainRoleKeywords = []struct {
	domains []string
	roles   []string
}{
	{domains: []string{"technology", "software"}, roles: []string{"engineer", "developer", "software"}},
	{domains: []string{"data"}, roles: []string{"data", "scientist", "analyst"}},
}

// FilterByDomain keeps the jobs whose title matches the role keywords of
// domain. An empty or "all" domain, or one with no known keywords, keeps
// every job.
func FilterByDomain(jobs []FallbackJob, domain string) []FallbackJob {
	d := strings.ToLower(strings.TrimSpace(domain))
	if d == "" || d == "all" {
		return jobs
	}

	var roles []string
	for _, rule := range domainRoleKeywords {
		if containsAny(d, rule.domains) {
			roles = rule.roles
			break
		}
	}
	if roles == nil {
		return jobs
	}

	out := make([]FallbackJob, 0, len(jobs))
	for _, j := range jobs {
		if containsAny(strings.ToLower(j.Title), roles) {
			out = append(out, j)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
