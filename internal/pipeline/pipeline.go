// Package pipeline turns raw contact rows into a cleaned, deduplicated
// contact set ready for group assignment.
package pipeline

import (
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elit-parking/campaign-cli/internal/model"
	"github.com/elit-parking/campaign-cli/internal/normalize"
	"github.com/elit-parking/campaign-cli/internal/scorer"
)

// ErrEmptyInput is returned when Process is given no records.
var ErrEmptyInput = eris.New("pipeline: empty input")

// Scorer rates a raw contact; higher scores win deduplication.
type Scorer interface {
	Score(c model.RawContact) int
}

// Options controls Process.
type Options struct {
	// DomesticOnly drops phones outside CountryPrefix.
	DomesticOnly  bool
	CountryPrefix string
	// Scorer defaults to a QualityScorer with default weights.
	Scorer Scorer
}

// Stats describes what Process kept and dropped.
type Stats struct {
	InitialCount          int     `json:"initial_count"`
	InvalidPhonesRemoved  int     `json:"invalid_phones_removed"`
	DuplicatesRemoved     int     `json:"duplicates_removed"`
	InvalidNamesRemoved   int     `json:"invalid_names_removed"`
	ForeignNumbersRemoved int     `json:"foreign_numbers_removed"`
	FinalCount            int     `json:"final_count"`
	ReductionPercentage   float64 `json:"reduction_percentage"`
	HasEmailCount         int     `json:"has_email_count"`
	EmailPercentage       float64 `json:"email_percentage"`
	HasFirstNameCount     int     `json:"has_first_name_count"`
	FirstNamePercentage   float64 `json:"first_name_percentage"`
}

// scored carries a record through the stages; score never leaves the package.
type scored struct {
	raw       model.RawContact
	phone     string
	name      string
	firstName string
	score     int
}

// Process cleans raw in a fixed stage order: normalize phones, score on the
// raw fields, keep the best record per phone, clean names, derive first
// names, then drop foreign numbers when DomesticOnly is set. Scoring and
// dedup run before name cleaning so the score sees the raw name.
func Process(raw []model.RawContact, opts Options) ([]model.CleanContact, *Stats, error) {
	if len(raw) == 0 {
		return nil, nil, ErrEmptyInput
	}

	sc := opts.Scorer
	if sc == nil {
		sc = scorer.NewQualityScorer(scorer.DefaultScorerConfig())
	}
	prefix := opts.CountryPrefix
	if prefix == "" {
		prefix = normalize.DefaultCountryPrefix
	}

	log := zap.L().With(zap.Int("initial_count", len(raw)))
	stats := &Stats{InitialCount: len(raw)}

	// Phones.
	recs := make([]scored, 0, len(raw))
	for _, r := range raw {
		phone, ok := normalize.Phone(r.Phone)
		if !ok {
			stats.InvalidPhonesRemoved++
			continue
		}
		recs = append(recs, scored{raw: r, phone: phone})
	}

	// Scores, on the raw fields.
	for i := range recs {
		recs[i].score = sc.Score(recs[i].raw)
	}

	// Best record per phone; ties keep input order.
	slices.SortStableFunc(recs, func(a, b scored) int {
		return b.score - a.score
	})
	seen := make(map[string]struct{}, len(recs))
	deduped := recs[:0]
	for _, r := range recs {
		if _, dup := seen[r.phone]; dup {
			stats.DuplicatesRemoved++
			continue
		}
		seen[r.phone] = struct{}{}
		deduped = append(deduped, r)
	}
	recs = deduped

	// Names.
	named := recs[:0]
	for _, r := range recs {
		name, ok := normalize.Name(r.raw.Name)
		if !ok {
			stats.InvalidNamesRemoved++
			continue
		}
		r.name = name
		named = append(named, r)
	}
	recs = named

	// First names.
	for i := range recs {
		recs[i].firstName, _ = normalize.FirstName(recs[i].name)
	}

	// Country.
	if opts.DomesticOnly {
		domestic := recs[:0]
		for _, r := range recs {
			if !normalize.IsDomestic(r.phone, prefix) {
				stats.ForeignNumbersRemoved++
				continue
			}
			domestic = append(domestic, r)
		}
		recs = domestic
	}

	out := make([]model.CleanContact, len(recs))
	for i, r := range recs {
		out[i] = model.CleanContact{
			Phone:     r.phone,
			Name:      r.name,
			Email:     r.raw.Email,
			FirstName: r.firstName,
		}
	}

	fillSummary(stats, out)

	log.Info("pipeline: contacts cleaned",
		zap.Int("invalid_phones_removed", stats.InvalidPhonesRemoved),
		zap.Int("duplicates_removed", stats.DuplicatesRemoved),
		zap.Int("invalid_names_removed", stats.InvalidNamesRemoved),
		zap.Int("foreign_numbers_removed", stats.ForeignNumbersRemoved),
		zap.Int("final_count", stats.FinalCount),
		zap.Float64("reduction_percentage", stats.ReductionPercentage),
	)
	return out, stats, nil
}

func fillSummary(stats *Stats, out []model.CleanContact) {
	stats.FinalCount = len(out)
	stats.ReductionPercentage = float64(stats.InitialCount-stats.FinalCount) / float64(stats.InitialCount) * 100

	for _, c := range out {
		if c.HasEmail() {
			stats.HasEmailCount++
		}
		if c.HasFirstName() {
			stats.HasFirstNameCount++
		}
	}
	if stats.FinalCount > 0 {
		stats.EmailPercentage = float64(stats.HasEmailCount) / float64(stats.FinalCount) * 100
		stats.FirstNamePercentage = float64(stats.HasFirstNameCount) / float64(stats.FinalCount) * 100
	}
}
