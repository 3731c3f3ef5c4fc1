package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"clean", "Jean Dupont", "Jean Dupont", true},
		{"trimmed", "  Jean Dupont  ", "Jean Dupont", true},
		{"parenthetical", "Jean Dupont (VIP)", "Jean Dupont", true},
		{"inner parenthetical", "Jean (client) Dupont", "Jean Dupont", true},
		{"debt notice", "Marie Curie nous doit 50€ depuis mars", "Marie Curie", true},
		{"short debt notice", "Marie Curie doit 20€", "Marie Curie", true},
		{"spot code", "Jean DUPONT P123", "Jean DUPONT", true},
		{"spot code lowercase", "Jean DUPONT p42 allee B", "Jean DUPONT", true},
		{"facility note", "Paul Martin LAVAGE complet", "Paul Martin", true},
		{"facility note mixed case", "Paul Martin Portail bleu", "Paul Martin", true},
		{"key kept", "Paul Martin clef gardee", "Paul Martin", true},
		{"collapsed whitespace", "Jean    Pierre\tDupont", "Jean Pierre Dupont", true},
		{"accented", "Élodie Durand", "Élodie Durand", true},
		{"non-breaking spaces", "Jean\u00a0\u00a0DUPONT\u00a0doit 30€ reste", "Jean DUPONT", true},
		{"non-breaking parenthetical", "Jean\u00a0(VIP)\u00a0Dupont", "Jean Dupont", true},
		{"narrow no-break space spot code", "Jean DUPONT\u202fP12", "Jean DUPONT", true},
		{"single letter", "J", "", false},
		{"only parenthetical", "(inconnu)", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Name(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		full   string
		want   string
		wantOK bool
	}{
		{"given then surname", "Jean DUPONT", "Jean", true},
		{"given then capitalized surname", "Jean Dupont", "Jean", true},
		{"hyphenated given falls back", "Jean-Pierre MARTIN", "Jean-pierre", true},
		{"accented given", "Hélène ROUX", "Hélène", true},
		{"surname then given", "DUPONT Jean", "Jean", true},
		{"non-breaking given then surname", "Jean\u00a0DUPONT", "Jean", true},
		{"non-breaking surname then given", "DUPONT\u00a0Jean", "Jean", true},
		{"honorific", "Mme dupont", "Dupont", true},
		{"honorific dotted", "M. durand", "Durand", true},
		{"honorific alone", "Monsieur", "Monsieur", true},
		{"lowercase single", "jean", "Jean", true},
		{"uppercase single", "DUPONT", "Dupont", true},
		{"lowercase pair", "jean dupont", "Jean", true},
		{"blank", "  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := FirstName(tt.full)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapitalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Élise", Capitalize("éLISE"))
	assert.Equal(t, "Jean-pierre", Capitalize("jean-PIERRE"))
	assert.Equal(t, "", Capitalize(""))
}
