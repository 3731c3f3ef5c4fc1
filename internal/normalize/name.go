package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Whitespace classes include Unicode separators such as U+00A0, which
// spreadsheet exports use between name parts.
var (
	parentheticalPattern = regexp.MustCompile(`[\s\p{Z}]*\([^)]*\)`)
	whitespacePattern    = regexp.MustCompile(`[\s\p{Z}]+`)

	// Trailing annotations operators typed into the name field: unpaid
	// balances, parking spot codes and facility notes.
	junkPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)[\s\p{Z}]+(nous doit|doit)[\s\p{Z}]+\d+€.*$`),
		regexp.MustCompile(`(?i)[\s\p{Z}]+P\d+.*$`),
		regexp.MustCompile(`(?i)[\s\p{Z}]+(ROUTE|LAVAGE|INTE|BAC|portail|clef gardee).*$`),
	}

	givenThenSurname = regexp.MustCompile(`^([A-Z][a-zéèêëàâäôöûüçñ-]+)[\s\p{Z}]+[A-Z]`)
	surnameThenGiven = regexp.MustCompile(`^[A-Z]+[\s\p{Z}]+([A-Z][a-zéèêëàâäôöûüçñ-]+)`)
)

// honorifics are skipped when picking a first name from the leading token.
var honorifics = map[string]bool{
	"M.":       true,
	"Mme":      true,
	"Madame":   true,
	"Monsieur": true,
	"Dr":       true,
	"Mr":       true,
}

// Name strips parenthetical asides and trailing junk annotations from raw
// and collapses whitespace. Names shorter than two characters are rejected.
func Name(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	name = parentheticalPattern.ReplaceAllString(name, "")
	for _, p := range junkPatterns {
		name = p.ReplaceAllString(name, "")
	}
	name = strings.TrimSpace(whitespacePattern.ReplaceAllString(name, " "))

	if utf8.RuneCountInString(name) < 2 {
		return "", false
	}
	return name, true
}

// FirstName derives a given name from a cleaned full name. It recognizes
// "Given SURNAME" and "SURNAME Given" layouts, and otherwise falls back to
// the first token that is not an honorific, capitalized.
func FirstName(full string) (string, bool) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", false
	}

	if m := givenThenSurname.FindStringSubmatch(full); m != nil {
		return m[1], true
	}
	if m := surnameThenGiven.FindStringSubmatch(full); m != nil {
		return m[1], true
	}

	words := strings.Fields(full)
	first := words[0]
	if honorifics[first] && len(words) > 1 {
		first = words[1]
	}
	return Capitalize(first), true
}

// Capitalize upper-cases the first letter of s and lower-cases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.French).String(s[:size]) + cases.Lower(language.French).String(s[size:])
}
