package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Fold lower-cases and trims value. Interior whitespace runs are collapsed to
// a single space so that entries typed with stray double spaces still match
// the host's rendering.
func Fold(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	// cases.Caser is stateful; one per call keeps Fold safe for concurrent use.
	lowered := cases.Lower(language.Und).String(trimmed)
	return collapseSpaces(lowered)
}

// Clean trims value and collapses interior whitespace without changing case.
// Used for display text such as the "Manual Entry" artist placeholder.
func Clean(value string) string {
	return collapseSpaces(strings.TrimSpace(value))
}

func collapseSpaces(value string) string {
	if !strings.ContainsFunc(value, unicode.IsSpace) {
		return value
	}
	return strings.Join(strings.FieldsFunc(value, unicode.IsSpace), " ")
}
