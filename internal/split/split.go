// Package split assigns cleaned contacts to A/B test groups.
package split

import (
	"math/rand/v2"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elit-parking/campaign-cli/internal/model"
)

// DefaultSeed makes assignments reproducible across runs.
const DefaultSeed uint64 = 42

// DefaultGroups are the campaign's template groups.
var DefaultGroups = []string{"A", "B", "C"}

// ErrGroupNotFound is returned by Extract for a label no contact carries.
var ErrGroupNotFound = eris.New("split: group not found")

// GroupStats describes one group of an assignment.
type GroupStats struct {
	Count             int     `json:"count" yaml:"count"`
	Percentage        float64 `json:"percentage" yaml:"percentage"`
	HasEmailCount     int     `json:"has_email_count" yaml:"has_email_count"`
	EmailPercentage   float64 `json:"email_percentage" yaml:"email_percentage"`
	HasFirstNameCount int     `json:"has_first_name_count" yaml:"has_first_name_count"`
}

// Split returns a copy of contacts with TestGroup drawn uniformly, with
// replacement, from groups. The same contacts, groups and seed always give
// the same labels. Groups are expected, not guaranteed, to be equal in size.
func Split(contacts []model.CleanContact, groups []string, seed uint64) ([]model.CleanContact, error) {
	if len(groups) == 0 {
		return nil, eris.New("split: no groups given")
	}

	rng := rand.New(rand.NewPCG(seed, seed))
	out := make([]model.CleanContact, len(contacts))
	counts := make(map[string]int, len(groups))
	for i, c := range contacts {
		c.TestGroup = groups[rng.IntN(len(groups))]
		counts[c.TestGroup]++
		out[i] = c
	}

	fields := []zap.Field{zap.Int("contacts", len(out)), zap.Uint64("seed", seed)}
	for _, g := range groups {
		fields = append(fields, zap.Int("group_"+g, counts[g]))
	}
	zap.L().Info("split: groups assigned", fields...)

	return out, nil
}

// Statistics summarizes each group present in contacts. Every contact must
// already carry a group.
func Statistics(contacts []model.CleanContact) (map[string]GroupStats, error) {
	stats := make(map[string]GroupStats)
	for i, c := range contacts {
		if c.TestGroup == "" {
			return nil, eris.Errorf("split: contact %d has no group", i)
		}
		s := stats[c.TestGroup]
		s.Count++
		if c.HasEmail() {
			s.HasEmailCount++
		}
		if c.HasFirstName() {
			s.HasFirstNameCount++
		}
		stats[c.TestGroup] = s
	}

	for g, s := range stats {
		s.Percentage = float64(s.Count) / float64(len(contacts)) * 100
		s.EmailPercentage = float64(s.HasEmailCount) / float64(s.Count) * 100
		stats[g] = s
	}
	return stats, nil
}

// Extract returns the contacts labelled with group, in input order.
func Extract(contacts []model.CleanContact, group string) ([]model.CleanContact, error) {
	var out []model.CleanContact
	for _, c := range contacts {
		if c.TestGroup == group {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, eris.Wrapf(ErrGroupNotFound, "split: extract group %q", group)
	}
	return out, nil
}

// Groups returns the distinct labels in contacts, sorted.
func Groups(contacts []model.CleanContact) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range contacts {
		if c.TestGroup != "" && !seen[c.TestGroup] {
			seen[c.TestGroup] = true
			out = append(out, c.TestGroup)
		}
	}
	slices.Sort(out)
	return out
}
