package textnorm

import (
	"strings"
	"unicode"
)

// minSharedTokenLen is the length a shared word must exceed before two
// differing titles are treated as the same programme.
const minSharedTokenLen = 3

// Normalize keeps ASCII letters (lowercased) and digits. Runs of whitespace
// and ':' collapse to a single space; every other rune is dropped.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		switch {
		case r == ':' || unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
			b.WriteRune(r)
			lastSpace = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastSpace = false
		}
	}
	return b.String()
}

// Tokens splits a normalized title on single spaces. Empty tokens produced by
// leading or trailing spaces are kept so callers see the raw split.
func Tokens(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}

// SimilarTitles reports whether two display titles refer to the same
// programme: either their normalized forms are equal or they share at least
// one word longer than three characters.
func SimilarTitles(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return SharesToken(na, nb)
}

// SharesToken reports whether two normalized titles have a common word longer
// than three characters.
func SharesToken(na, nb string) bool {
	left := Tokens(na)
	if len(left) == 0 {
		return false
	}
	words := make(map[string]struct{}, len(left))
	for _, w := range left {
		if len(w) > minSharedTokenLen {
			words[w] = struct{}{}
		}
	}
	for _, w := range Tokens(nb) {
		if _, ok := words[w]; ok {
			return true
		}
	}
	return false
}
