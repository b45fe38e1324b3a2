// Package textutil holds the pure text transforms shared by every
// extractor: entity decoding, markup stripping, locale-aware price parsing
// and description trimming.
package textutil

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Package-level compiled regex patterns for performance
var (
	numericEntityRegex = regexp.MustCompile(`&#(\d+);`)
	scriptBlockRegex   = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	styleBlockRegex    = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	tagRegex           = regexp.MustCompile(`<[^>]+>`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
	thousandsRegex     = regexp.MustCompile(`^\d{1,3}[.,]\d{3}$`)
	decimalCommaRegex  = regexp.MustCompile(`,\d{2}$`)
	sentenceSplitRegex = regexp.MustCompile(`[.!?]+`)
)

// DecodeNumericEntities replaces numeric HTML character references
// (&#229; -> å) with their decoded rune. A nil-ish (empty) input returns
// the empty string, never panics, so callers can chain into TrimSpace.
func DecodeNumericEntities(s string) string {
	if s == "" {
		return ""
	}
	return numericEntityRegex.ReplaceAllStringFunc(s, func(m string) string {
		digits := m[2 : len(m)-1]
		code, err := strconv.Atoi(digits)
		if err != nil {
			return m
		}
		return string(rune(code))
	})
}

// StripMarkup removes script and style blocks first (their content must not
// leak into the stripped text), then all remaining tags, then collapses
// whitespace runs to single spaces.
func StripMarkup(raw string) string {
	s := scriptBlockRegex.ReplaceAllString(raw, " ")
	s = styleBlockRegex.ReplaceAllString(s, " ")
	s = tagRegex.ReplaceAllString(s, " ")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseLocalizedPrice parses a Swedish-market price string, disambiguating
// thousand separators from decimal separators:
//
//	"14 990"    -> 14990
//	"14.990"    -> 14990 (period as thousands)
//	"14,990"    -> 14990 (comma as thousands)
//	"14990,50"  -> 14990.50 (comma as decimal)
//	"1.234,56"  -> 1234.56 (both present: period thousands, comma decimal)
//
// Returns nil when no finite number can be extracted.
func ParseLocalizedPrice(raw string) *float64 {
	str := strings.TrimSpace(raw)
	keep := strings.Builder{}
	for _, r := range str {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			keep.WriteRune(r)
		}
	}
	str = keep.String()
	if str == "" {
		return nil
	}

	switch {
	case strings.Contains(str, ".") && strings.Contains(str, ","):
		str = strings.ReplaceAll(str, ".", "")
		str = strings.ReplaceAll(str, ",", ".")
	case thousandsRegex.MatchString(str):
		str = strings.ReplaceAll(str, ".", "")
		str = strings.ReplaceAll(str, ",", "")
	case decimalCommaRegex.MatchString(str):
		str = strings.Replace(str, ",", ".", 1)
	default:
		str = strings.ReplaceAll(str, ",", "")
	}

	// Remaining extra dots are thousands separators: 1.234.567 -> 1234567
	if parts := strings.Split(str, "."); len(parts) > 2 {
		str = strings.Join(parts, "")
	}

	num, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsInf(num, 0) || math.IsNaN(num) {
		return nil
	}
	return &num
}

// SplitSentences splits text on sentence-ending punctuation and discards
// empty fragments.
func SplitSentences(text string) []string {
	parts := sentenceSplitRegex.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TruncateAtSentence bounds text to maxLen characters, preferring to cut at
// sentence boundaries and appending an ellipsis when a hard cut was needed.
func TruncateAtSentence(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	sentences := SplitSentences(text)
	var b strings.Builder
	for _, s := range sentences {
		if b.Len()+len(s)+2 > maxLen {
			break
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(s + ".")
	}
	if b.Len() > 0 {
		return b.String()
	}
	// The hard cut must land on a rune boundary or multibyte letters
	// (å/ä/ö) straddling maxLen produce invalid UTF-8.
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return strings.TrimSpace(text[:cut]) + "..."
}

// ShortDescription filters the description's sentences for condition/quality
// keywords and keeps the top maxKeyword matching ones, falling back to the
// first two sentences when nothing matches.
func ShortDescription(description string, keywords []string, maxKeyword int) string {
	sentences := SplitSentences(description)
	relevant := make([]string, 0, maxKeyword)
	for _, sent := range sentences {
		lower := strings.ToLower(sent)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				relevant = append(relevant, sent)
				break
			}
		}
		if len(relevant) == maxKeyword {
			break
		}
	}
	if len(relevant) == 0 {
		if len(sentences) > 2 {
			sentences = sentences[:2]
		}
		relevant = sentences
	}
	return strings.TrimSpace(strings.Join(relevant, ". "))
}

// Median returns the statistical median of values, or nil for an empty set.
// The input slice is not modified.
func Median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	var m float64
	if len(sorted)%2 == 0 {
		m = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		m = sorted[mid]
	}
	return &m
}
