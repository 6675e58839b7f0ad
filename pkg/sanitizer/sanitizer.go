// Package sanitizer normalizes free-text input before validation and
// persistence, so that lookups and uniqueness checks are not defeated by
// stray whitespace or casing.
package sanitizer

import "strings"

type normalizer func(string) string

// Pipeline applies its normalizers left to right.
type Pipeline []normalizer

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func upper(s string) string {
	return strings.ToUpper(s)
}

func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
		}
	}
	return strings.Join(words, " ")
}

// NormalizeName tidies hotel display names.
func NormalizeName(name string) string {
	return Pipeline{trim, collapseSpaces}.Apply(name)
}

// NormalizeCity canonicalizes city names to title case so "lisbon" and
// "Lisbon " index identically.
func NormalizeCity(city string) string {
	return Pipeline{trim, collapseSpaces, title}.Apply(city)
}

// NormalizeRoomNumber upper-cases room designators ("12b" -> "12B") and
// strips whitespace; the unique (hotel, number) index depends on this.
func NormalizeRoomNumber(number string) string {
	return Pipeline{trim, upper}.Apply(number)
}

// NormalizeID trims identifier-like fields (request ids, user ids) without
// touching case, since callers may use case-sensitive keys.
func NormalizeID(id string) string {
	return trim(id)
}
