// Package pricing normalizes upstream price strings and ranks catalog
// products. Both functions are pure; the generator calls them once per
// node and persists the results.
package pricing

import (
	"strconv"
	"strings"
)

// FormatBRL normalizes an upstream price string to Brazilian currency
// form, "1.234,56". ok is false for empty input. Upstream sends plain
// integers ("1990"), dotted decimals ("1234.56"), and pre-localized
// values ("1.234,56"); anything unparseable comes back unchanged so the
// raw value still reaches the operator.
func FormatBRL(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}

	var normalized string
	switch {
	case allDigits(text):
		normalized = text
	case strings.Contains(text, ",") && strings.Contains(text, "."):
		normalized = strings.ReplaceAll(strings.ReplaceAll(text, ".", ""), ",", ".")
	default:
		normalized = strings.ReplaceAll(text, ",", ".")
	}

	amount, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return text, true
	}

	fixed := strconv.FormatFloat(amount, 'f', 2, 64)
	intPart, decPart, _ := strings.Cut(fixed, ".")
	return groupThousands(intPart) + "," + decPart, true
}

// FormatBRLPtr is FormatBRL lifted over optional values.
func FormatBRLPtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	out, ok := FormatBRL(*raw)
	if !ok {
		return nil
	}
	return &out
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var chunks []string
	for len(s) > 0 {
		cut := len(s) - 3
		if cut < 0 {
			cut = 0
		}
		chunks = append([]string{s[cut:]}, chunks...)
		s = s[:cut]
	}
	return strings.Join(chunks, ".")
}
