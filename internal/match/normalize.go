package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Normalize prepares a setting or privilege name for fuzzy comparison:
// camelCase is split, case is folded and separators are removed, so
// "manageSecurity", "manage_security" and "MANAGE-SECURITY" compare equal.
func Normalize(s string) string {
	return stripSeparators(cases.Fold().String(strings.Join(Tokenize(s), "")))
}

// Tokenize splits a name at separators and camelCase boundaries.
func Tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
	)

	runes := []rune(s)
	for i, r := range runes {
		if isSeparator(r) {
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}

			continue
		}

		if i > 0 && startsToken(runes, i) && current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == '.' || r == ':' || r == '/' || unicode.IsSpace(r)
}

// startsToken reports a lower-to-upper transition or the end of an acronym
// ("HTTPProxy" splits before 'P').
func startsToken(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if isSeparator(r) {
			return -1
		}

		return r
	}, s)
}
