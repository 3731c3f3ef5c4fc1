package scorer

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/elit-parking/campaign-cli/internal/config"
	"github.com/elit-parking/campaign-cli/internal/model"
)

var structuredName = regexp.MustCompile(`^[A-Z][a-z]+ [A-Z]+`)

// QualityScorer assigns raw contacts a comparable integer score. Only the
// relative order of scores is meaningful.
type QualityScorer struct {
	cfg       config.ScorerConfig
	parasitic []string
}

// NewQualityScorer creates a QualityScorer with the given weights.
func NewQualityScorer(cfg config.ScorerConfig) *QualityScorer {
	parasitic := make([]string, 0, len(cfg.ParasiticWords))
	for _, w := range cfg.ParasiticWords {
		parasitic = append(parasitic, strings.ToLower(w))
	}
	return &QualityScorer{cfg: cfg, parasitic: parasitic}
}

// Score computes the score from the raw, uncleaned name and email.
func (s *QualityScorer) Score(c model.RawContact) int {
	score := 0

	if strings.TrimSpace(c.Email) != "" {
		score += s.cfg.EmailBonus
	}

	if !s.hasParasitic(c.Name) {
		score += s.cfg.CleanNameBonus
	}

	if structuredName.MatchString(c.Name) {
		score += s.cfg.StructuredBonus
	}

	n := utf8.RuneCountInString(c.Name)
	if n < s.cfg.MinNameLength || (s.cfg.MaxNameLength > 0 && n > s.cfg.MaxNameLength) {
		score -= s.cfg.LengthPenalty
	}

	return score
}

func (s *QualityScorer) hasParasitic(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range s.parasitic {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
