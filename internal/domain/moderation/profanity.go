package moderation

import (
	"strings"
	"unicode"
)

// badWords is the screened vocabulary. Entries are stored already
// normalized (lowercase, no diacritics).
var badWords = []string{
	"weon", "weona", "weones", "weonas", "hueon", "hueona",
	"ql", "qla", "culiao", "culiada", "ctm", "conchetumare", "conchesumadre",
	"maricon", "maricona", "puta", "puto", "mierda", "imbecil",
	"estupido", "idiota", "perkin", "sapoperro",
}

// IsProfane reports whether the input contains a screened word.
// Comparison is case- and diacritic-insensitive and tokenized on
// non-alphanumeric runes, so "Weón!" matches "weon" but "aquella" does not
// match "ql".
func IsProfane(input string) bool {
	if input == "" {
		return false
	}
	for _, token := range tokenize(input) {
		for _, w := range badWords {
			if token == w {
				return true
			}
		}
	}
	return false
}

// tokenize lowercases, strips diacritics, and splits on anything that is not
// a letter or digit.
func tokenize(s string) []string {
	normalized := strings.Map(stripDiacritic, strings.ToLower(s))
	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// stripDiacritic maps common Spanish accented runes to their base letter.
func stripDiacritic(r rune) rune {
	switch r {
	case 'á', 'à', 'ä', 'â':
		return 'a'
	case 'é', 'è', 'ë', 'ê':
		return 'e'
	case 'í', 'ì', 'ï', 'î':
		return 'i'
	case 'ó', 'ò', 'ö', 'ô':
		return 'o'
	case 'ú', 'ù', 'ü', 'û':
		return 'u'
	default:
		return r
	}
}
