package domain

import (
	"fmt"
	"strings"
)

const (
	// DefaultThreshold is the fuzzy-match acceptance score used when a
	// ruleset does not override it.
	DefaultThreshold = 80

	// DefaultFilenamePattern names category outputs when a ruleset does
	// not configure its own pattern.
	DefaultFilenamePattern = "{org}_{category}.pdf"
)

// Category is one classification bucket: an output name plus the
// keywords that identify it.
type Category struct {
	Name     string   `yaml:"name" json:"name"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Ruleset is the classification contract for one organization. The
// category order is the match priority order and must be preserved from
// configuration.
type Ruleset struct {
	Organization    string     `yaml:"organization" json:"organization"`
	Categories      []Category `yaml:"categories" json:"categories"`
	Threshold       int        `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	FilenamePattern string     `yaml:"filename_pattern,omitempty" json:"filename_pattern,omitempty"`
}

// Hospital identifies the institution producing the batches. Its fields
// feed the {nit} and {prefix} filename placeholders.
type Hospital struct {
	NIT    string
	Prefix string
}

func (r Ruleset) Validate() error {
	if strings.TrimSpace(r.Organization) == "" {
		return fmt.Errorf("ruleset without organization name")
	}
	if len(r.Categories) == 0 {
		return fmt.Errorf("ruleset %q has no categories", r.Organization)
	}
	seen := make(map[string]bool, len(r.Categories))
	for _, cat := range r.Categories {
		name := strings.ToUpper(strings.TrimSpace(cat.Name))
		if name == "" {
			return fmt.Errorf("ruleset %q has a category without a name", r.Organization)
		}
		if seen[name] {
			return fmt.Errorf("ruleset %q declares category %q twice", r.Organization, cat.Name)
		}
		seen[name] = true
		if len(cat.Keywords) == 0 {
			return fmt.Errorf("category %q of ruleset %q has no keywords", cat.Name, r.Organization)
		}
		for _, kw := range cat.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("category %q of ruleset %q has an empty keyword", cat.Name, r.Organization)
			}
		}
	}
	if r.Threshold < 0 || r.Threshold > 100 {
		return fmt.Errorf("ruleset %q threshold %d outside [0,100]", r.Organization, r.Threshold)
	}
	if p := r.FilenamePattern; p != "" && !strings.Contains(p, "{category}") {
		return fmt.Errorf("ruleset %q filename pattern %q lacks the {category} placeholder", r.Organization, p)
	}
	return nil
}

// ThresholdOrDefault resolves the acceptance threshold for this ruleset.
// A zero ruleset threshold means "use the configured default".
func (r Ruleset) ThresholdOrDefault(def int) int {
	if r.Threshold > 0 {
		return r.Threshold
	}
	if def > 0 && def <= 100 {
		return def
	}
	return DefaultThreshold
}
