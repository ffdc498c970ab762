package upstream

import (
	"testing"

	"matchsync/internal/domain/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPayload_CareerPageDomains(t *testing.T) {
	p := profile.NewSkeleton("jane@example.com")
	p.DisplayID = "jane"
	p.JobPreferences.CompanyCareerPageURLs = []string{"https://www.google.com/careers"}

	got, err := BuildPayload(p)
	require.NoError(t, err)

	assert.Equal(t, "jane", got.UserID)
	assert.Equal(t, "Technology", got.Industry)
	assert.Equal(t, []string{"google.com"}, got.Domains)
	assert.Equal(t, []string{"https://www.google.com/careers"}, got.Links)
	details, ok := got.Details.(profile.Profile)
	require.True(t, ok)
	assert.Equal(t, "jane", details.DisplayID)
}

func TestBuildPayload_RequiresDisplayID(t *testing.T) {
	_, err := BuildPayload(profile.NewSkeleton("x@example.com"))
	require.ErrorIs(t, err, profile.ErrValidation)
}

func TestBuildPayload_NilCollectionsBecomeEmpty(t *testing.T) {
	got, err := BuildPayload(profile.Profile{DisplayID: "x", JobPreferences: profile.JobPreferences{PreferredIndustry: "Finance"}})
	require.NoError(t, err)
	assert.Equal(t, "Finance", got.Industry)
	assert.NotNil(t, got.Domains)
	assert.NotNil(t, got.Links)
	assert.Empty(t, got.Domains)
}

func TestRegistrableHost(t *testing.T) {
	tests := map[string]string{
		"https://www.google.com/careers":     "google.com",
		"https://careers.microsoft.com/jobs": "microsoft.com",
		"https://jobs.example.co.uk/":        "example.co.uk",
		"http://www.localhost:8080/jobs":     "localhost",
		"http://10.0.0.5/careers":            "10.0.0.5",
		"not a url":                          "not a url",
		"google.com/careers":                 "google.com/careers",
	}
	for in, want := range tests {
		assert.Equal(t, want, RegistrableHost(in), in)
	}
}

func TestCoercePayload(t *testing.T) {
	got := CoercePayload("u1", nil, "not-an-array", "not-an-object", []any{"https://a.example", 7, nil})
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Technology", got.Industry)
	assert.Equal(t, []string{}, got.Domains)
	assert.Equal(t, map[string]any{}, got.Details)
	assert.Equal(t, []string{"https://a.example", "7"}, got.Links)

	got = CoercePayload("u2", "Finance", []any{"a.com"}, map[string]any{"k": "v"}, nil)
	assert.Equal(t, "Finance", got.Industry)
	assert.Equal(t, []string{"a.com"}, got.Domains)
	assert.Equal(t, map[string]any{"k": "v"}, got.Details)
	assert.Equal(t, []string{}, got.Links)
}
