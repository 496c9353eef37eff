package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/use-agent/datewatch/models"
	"gopkg.in/yaml.v3"
)

// Registry is the immutable, ordered list of monitored sites.
type Registry struct {
	sites []models.SiteConfig
}

// NewRegistry copies sites into a registry and validates it.
func NewRegistry(sites []models.SiteConfig) (*Registry, error) {
	r := &Registry{sites: make([]models.SiteConfig, len(sites))}
	for i, s := range sites {
		r.sites[i] = s.Clone()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Sites returns a copy of the registry in order.
func (r *Registry) Sites() []models.SiteConfig {
	out := make([]models.SiteConfig, len(r.sites))
	for i, s := range r.sites {
		out[i] = s.Clone()
	}
	return out
}

// Len returns the number of sites.
func (r *Registry) Len() int { return len(r.sites) }

// Lookup finds a site by name.
func (r *Registry) Lookup(name string) (models.SiteConfig, bool) {
	for _, s := range r.sites {
		if s.Name == name {
			return s.Clone(), true
		}
	}
	return models.SiteConfig{}, false
}

// Validate rejects registries a poll cycle could not run against.
func (r *Registry) Validate() error {
	if len(r.sites) == 0 {
		return models.NewMonitorError(models.ErrCodeInvalidConfig, "", "registry has no sites", nil)
	}
	seen := make(map[string]struct{}, len(r.sites))
	for i, s := range r.sites {
		if s.Name == "" {
			return models.NewMonitorError(models.ErrCodeInvalidConfig, "",
				fmt.Sprintf("site %d has no name", i), nil)
		}
		if _, dup := seen[s.Name]; dup {
			return models.NewMonitorError(models.ErrCodeInvalidConfig, s.Name, "duplicate site name", nil)
		}
		seen[s.Name] = struct{}{}

		u, err := url.Parse(s.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return models.NewMonitorError(models.ErrCodeInvalidConfig, s.Name,
				fmt.Sprintf("invalid url %q", s.URL), err)
		}
		if len(s.TargetDates) == 0 {
			return models.NewMonitorError(models.ErrCodeInvalidConfig, s.Name, "no target dates", nil)
		}
		if s.RequiresInteraction && s.InteractionTrigger == "" {
			return models.NewMonitorError(models.ErrCodeInvalidConfig, s.Name,
				"requires_interaction set without interaction_trigger", nil)
		}
	}
	return nil
}

// sitesFile is the YAML layout of a registry file.
type sitesFile struct {
	Sites []models.SiteConfig `yaml:"sites"`
}

// LoadSites parses a YAML registry file.
func LoadSites(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, models.NewMonitorError(models.ErrCodeInvalidConfig, "", "failed to parse sites file", err)
	}

	return NewRegistry(f.Sites)
}

// LoadRegistry returns the file registry when path is set, else the built-in one.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(DefaultSites())
	}
	return LoadSites(path)
}

// DefaultSites is the built-in registry.
func DefaultSites() []models.SiteConfig {
	return []models.SiteConfig{
		{
			Name:        "www.icelagoon.com",
			URL:         "https://www.icelagoon.com/adventure-tour/",
			TargetDates: []string{"19", "20", "21", "16", "17", "18", "22", "23", "24", "25"},
		},
		{
			Name:                "icelagoon.is",
			URL:                 "https://icelagoon.is/tours/",
			TargetDates:         []string{"19", "20", "21", "22"},
			RequiresInteraction: true,
			InteractionTrigger:  "Book now",
		},
	}
}
