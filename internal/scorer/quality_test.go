package scorer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elit-parking/campaign-cli/internal/model"
)

func TestQualityScorer_Score(t *testing.T) {
	t.Parallel()

	s := NewQualityScorer(DefaultScorerConfig())

	tests := []struct {
		name    string
		contact model.RawContact
		want    int
	}{
		{"complete structured", model.RawContact{Name: "Jean Dupont", Email: "j@x.com"}, 18},
		{"structured without email", model.RawContact{Name: "Jean DUPONT P123"}, 8},
		{"blank email ignored", model.RawContact{Name: "Jean DUPONT", Email: "   "}, 8},
		{"parasitic debt note", model.RawContact{Name: "Marie nous doit 50€"}, 0},
		{"parasitic uppercase", model.RawContact{Name: "LAVAGE Jean"}, 0},
		{"empty name", model.RawContact{}, 0},
		{"short name with email", model.RawContact{Name: "Jo", Email: "jo@x.com"}, 10},
		{"overlong name", model.RawContact{Name: strings.Repeat("a", 51)}, 0},
		{"fifty characters", model.RawContact{Name: strings.Repeat("a", 50)}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, s.Score(tt.contact))
		})
	}
}

func TestQualityScorer_EmailOutranksCleanName(t *testing.T) {
	t.Parallel()

	s := NewQualityScorer(DefaultScorerConfig())
	withEmail := s.Score(model.RawContact{Name: "Jean Dupont", Email: "j@x.com"})
	withoutEmail := s.Score(model.RawContact{Name: "Jean DUPONT"})
	assert.Greater(t, withEmail, withoutEmail)
}

func TestQualityScorer_CustomWeights(t *testing.T) {
	t.Parallel()

	cfg := DefaultScorerConfig()
	cfg.EmailBonus = 1
	cfg.ParasiticWords = []string{"VIP"}
	s := NewQualityScorer(cfg)

	assert.Equal(t, 1+3, s.Score(model.RawContact{Name: "Jean DUPONT vip", Email: "j@x.com"}))
	assert.Equal(t, 5+3, s.Score(model.RawContact{Name: "Jean DUPONT lavage"}))
}
