package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// FormatNormalizer cleans catalog text and price cells.
type FormatNormalizer struct {
	spacePattern  *regexp.Regexp
	numberPattern *regexp.Regexp
}

// NewFormatNormalizer creates a new format normalizer
func NewFormatNormalizer() *FormatNormalizer {
	return &FormatNormalizer{
		spacePattern:  regexp.MustCompile(`\s+`),
		numberPattern: regexp.MustCompile(`[^0-9.,\-]`),
	}
}

var defaultNormalizer = NewFormatNormalizer()

// NormalizeKey lower-cases a key and collapses inner whitespace.
func NormalizeKey(value string) string {
	return defaultNormalizer.NormalizeText(value)
}

// NormalizeText lower-cases, trims and collapses whitespace.
func (fn *FormatNormalizer) NormalizeText(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	return fn.spacePattern.ReplaceAllString(normalized, " ")
}

// CleanText trims and collapses whitespace but keeps the original case.
func (fn *FormatNormalizer) CleanText(value string) string {
	return fn.spacePattern.ReplaceAllString(strings.TrimSpace(value), " ")
}

// ParsePrice reads prices like "Rp 1.500.000", "1,250.50" or "2500000".
// Unparseable values yield 0.
func (fn *FormatNormalizer) ParsePrice(value string) float64 {
	raw := fn.numberPattern.ReplaceAllString(value, "")
	raw = strings.Trim(raw, ".,")
	if raw == "" {
		return 0
	}

	dots := strings.Count(raw, ".")
	commas := strings.Count(raw, ",")
	switch {
	case dots > 0 && commas > 0:
		// the separator that comes last is the decimal one
		if strings.LastIndex(raw, ",") > strings.LastIndex(raw, ".") {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.ReplaceAll(raw, ",", ".")
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case dots > 1 || (dots == 1 && groupedThousands(raw, '.')):
		raw = strings.ReplaceAll(raw, ".", "")
	case commas > 1 || (commas == 1 && groupedThousands(raw, ',')):
		raw = strings.ReplaceAll(raw, ",", "")
	case commas == 1:
		raw = strings.ReplaceAll(raw, ",", ".")
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return f
}

// groupedThousands reports whether the single separator is followed by exactly three digits.
func groupedThousands(raw string, sep byte) bool {
	idx := strings.IndexByte(raw, sep)
	return idx > 0 && len(raw)-idx-1 == 3
}
