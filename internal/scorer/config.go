// Package scorer ranks raw contact records so deduplication keeps the most
// complete one.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/elit-parking/campaign-cli/internal/config"
)

// DefaultScorerConfig returns the default signal weights.
func DefaultScorerConfig() config.ScorerConfig {
	return config.ScorerConfig{
		EmailBonus:      10,
		CleanNameBonus:  5,
		StructuredBonus: 3,
		LengthPenalty:   5,
		MinNameLength:   3,
		MaxNameLength:   50,

		// Substrings that show up when operators annotate the name field.
		ParasiticWords: []string{
			"doit", "lavage", "impoli", "route", "gardee", "effectuer", "portail",
		},
	}
}

// ValidateConfig checks that a ScorerConfig is internally consistent.
func ValidateConfig(c config.ScorerConfig) error {
	var errs []string

	bonuses := map[string]int{
		"email_bonus":      c.EmailBonus,
		"clean_name_bonus": c.CleanNameBonus,
		"structured_bonus": c.StructuredBonus,
		"length_penalty":   c.LengthPenalty,
	}
	for name, v := range bonuses {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if c.MinNameLength < 0 {
		errs = append(errs, "min_name_length must be >= 0")
	}
	if c.MaxNameLength > 0 && c.MaxNameLength < c.MinNameLength {
		errs = append(errs, "max_name_length must be >= min_name_length")
	}

	for _, w := range c.ParasiticWords {
		if strings.TrimSpace(w) == "" {
			errs = append(errs, "parasitic_words must not contain blank entries")
			break
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
