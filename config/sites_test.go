package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/datewatch/models"
)

func TestDefaultSites_Valid(t *testing.T) {
	reg, err := NewRegistry(DefaultSites())
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	site, ok := reg.Lookup("icelagoon.is")
	require.True(t, ok)
	assert.True(t, site.RequiresInteraction)
	assert.Equal(t, "Book now", site.InteractionTrigger)
}

func TestRegistry_IsImmutable(t *testing.T) {
	sites := DefaultSites()
	reg, err := NewRegistry(sites)
	require.NoError(t, err)

	sites[0].TargetDates[0] = "99"
	got := reg.Sites()
	got[0].Name = "mutated"
	got[0].TargetDates[1] = "98"

	again := reg.Sites()
	assert.Equal(t, "www.icelagoon.com", again[0].Name)
	assert.Equal(t, "19", again[0].TargetDates[0])
	assert.Equal(t, "20", again[0].TargetDates[1])
}

func TestRegistry_Validate(t *testing.T) {
	valid := models.SiteConfig{Name: "a", URL: "https://a.example/", TargetDates: []string{"20"}}

	tests := []struct {
		name  string
		sites []models.SiteConfig
	}{
		{"empty", nil},
		{"no name", []models.SiteConfig{{URL: "https://a.example/", TargetDates: []string{"1"}}}},
		{"duplicate", []models.SiteConfig{valid, valid}},
		{"relative url", []models.SiteConfig{{Name: "a", URL: "/tours", TargetDates: []string{"1"}}}},
		{"no dates", []models.SiteConfig{{Name: "a", URL: "https://a.example/"}}},
		{"interaction without trigger", []models.SiteConfig{{
			Name: "a", URL: "https://a.example/", TargetDates: []string{"1"}, RequiresInteraction: true,
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.sites)
			require.Error(t, err)
			assert.Equal(t, models.ErrCodeInvalidConfig, models.CodeOf(err))
		})
	}
}

func TestLoadSites_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	content := `sites:
  - name: "first"
    url: "https://first.example/tour"
    target_dates: ["19", "20"]
  - name: "second"
    url: "https://second.example/"
    target_dates: ["20"]
    requires_interaction: true
    interaction_trigger: "Book now"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)

	sites := reg.Sites()
	require.Len(t, sites, 2)
	assert.Equal(t, "first", sites[0].Name)
	assert.Equal(t, []string{"19", "20"}, sites[0].TargetDates)
	assert.False(t, sites[0].RequiresInteraction)
	assert.Equal(t, "Book now", sites[1].InteractionTrigger)
}

func TestLoadSites_Errors(t *testing.T) {
	_, err := LoadSites(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sites: [unterminated"), 0o600))
	_, err = LoadSites(path)
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeInvalidConfig, models.CodeOf(err))
}

func TestLoadRegistry_DefaultWhenUnset(t *testing.T) {
	reg, err := LoadRegistry("")
	require.NoError(t, err)
	assert.Equal(t, len(DefaultSites()), reg.Len())
}
