package models

// SiteConfig describes one monitored booking page.
type SiteConfig struct {
	// Name identifies the site in logs and notifications. Unique within a registry.
	Name string `yaml:"name" json:"name"`

	// URL is the booking page to render.
	URL string `yaml:"url" json:"url"`

	// TargetDates are the calendar day labels to look for, in priority order.
	TargetDates []string `yaml:"target_dates" json:"target_dates"`

	// RequiresInteraction is set when the calendar only becomes queryable
	// after a trigger control (e.g. a "Book now" button) has been clicked.
	RequiresInteraction bool `yaml:"requires_interaction" json:"requires_interaction"`

	// InteractionTrigger is the visible text of the trigger control.
	// Matched as a case-sensitive substring.
	InteractionTrigger string `yaml:"interaction_trigger,omitempty" json:"interaction_trigger,omitempty"`
}

// Clone returns a deep copy so callers can never mutate a registry entry.
func (s SiteConfig) Clone() SiteConfig {
	c := s
	c.TargetDates = append([]string(nil), s.TargetDates...)
	return c
}
