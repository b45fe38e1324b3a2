// Package pricefind enumerates and ranks numeric-plus-currency occurrences
// in a block of page HTML. Each per-source extractor configures a Scorer
// with its own keyword bonuses and main-panel markers; the scorer itself is
// a pure function of its input.
package pricefind

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/textutil"
)

// KeywordBonus adds (or, when negative, subtracts) score when the keyword
// occurs in a candidate's stripped, lowercased context window.
type KeywordBonus struct {
	Keyword string
	Bonus   float64
}

// Options configures a Scorer. Zero values fall back to the auction-page
// defaults the scorer was originally tuned for.
type Options struct {
	// Pattern must capture the digit group in submatch 1. Defaults to a
	// "digits kr" suffix pattern.
	Pattern *regexp.Regexp
	// Window is the number of characters of context captured on each side
	// of a match. Defaults to 400.
	Window int
	// Bonuses are keyword score adjustments applied per candidate.
	Bonuses []KeywordBonus
	// MainMarkers identify the page's primary price panel. Any candidate
	// whose context contains one is preferred over the pure-score winner.
	MainMarkers []string
	// MinValue and MaxValue discard implausible candidates when non-zero.
	MinValue float64
	MaxValue float64
	// ValueScore, when set, adds a magnitude-dependent adjustment on top of
	// the keyword bonuses. Secondhand sources use it to favour small amounts.
	ValueScore func(value float64) float64
}

// Scorer finds and ranks price candidates in HTML fragments.
type Scorer struct {
	pattern     *regexp.Regexp
	window      int
	bonuses     []KeywordBonus
	mainMarkers []string
	minValue    float64
	maxValue    float64
	valueScore  func(float64) float64
}

var defaultPattern = regexp.MustCompile(`(?i)(\d[\d\s]{0,10})\s*kr\b`)

// New creates a Scorer from opts, applying defaults for unset fields.
func New(opts Options) *Scorer {
	pattern := opts.Pattern
	if pattern == nil {
		pattern = defaultPattern
	}
	window := opts.Window
	if window <= 0 {
		window = 400
	}
	return &Scorer{
		pattern:     pattern,
		window:      window,
		bonuses:     opts.Bonuses,
		mainMarkers: lowerAll(opts.MainMarkers),
		minValue:    opts.MinValue,
		maxValue:    opts.MaxValue,
		valueScore:  opts.ValueScore,
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Find returns every candidate in the fragment, sorted by score descending
// with ties broken toward larger values. An empty slice means no price was
// found; that is an ordinary outcome, not an error.
func (s *Scorer) Find(fragment string) []domain.PriceCandidate {
	matches := s.pattern.FindAllStringSubmatchIndex(fragment, -1)
	candidates := make([]domain.PriceCandidate, 0, len(matches))

	for _, m := range matches {
		raw := fragment[m[0]:m[1]]
		digits := strings.Join(strings.Fields(fragment[m[2]:m[3]]), "")
		value := textutil.ParseLocalizedPrice(digits)
		if value == nil {
			continue
		}
		if s.minValue > 0 && *value < s.minValue {
			continue
		}
		if s.maxValue > 0 && *value > s.maxValue {
			continue
		}

		start := m[0] - s.window
		if start < 0 {
			start = 0
		}
		end := m[0] + s.window
		if end > len(fragment) {
			end = len(fragment)
		}
		// Keywords include class names and test ids, so bonus matching runs
		// against the raw HTML window. The stored context is stripped for
		// human-readable output.
		rawCtx := strings.ToLower(fragment[start:end])
		context := textutil.StripMarkup(textutil.DecodeNumericEntities(fragment[start:end]))

		score := 0.0
		for _, b := range s.bonuses {
			if strings.Contains(rawCtx, strings.ToLower(b.Keyword)) {
				score += b.Bonus
			}
		}
		if s.valueScore != nil {
			score += s.valueScore(*value)
		}
		// prefer larger numbers slightly
		score += math.Log10(math.Max(1, *value))

		candidates = append(candidates, domain.PriceCandidate{
			Raw:     strings.TrimSpace(raw),
			Value:   *value,
			Index:   m[0],
			Context: context,
			Score:   score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Value > candidates[j].Value
	})
	return candidates
}

// Best returns the selected candidate and the full ranked list. The top
// scorer wins unless another candidate sits in the page's main price panel;
// real pages can score a carousel/decoy price above the primary one, so a
// main-marker hit overrides the pure-score ordering.
func (s *Scorer) Best(fragment string) (*domain.PriceCandidate, []domain.PriceCandidate) {
	candidates := s.Find(fragment)
	if len(candidates) == 0 {
		return nil, candidates
	}

	for i := range candidates {
		// Recompute the raw window; markers are usually attribute values
		// that the stored stripped context no longer contains.
		start := candidates[i].Index - s.window
		if start < 0 {
			start = 0
		}
		end := candidates[i].Index + s.window
		if end > len(fragment) {
			end = len(fragment)
		}
		rawCtx := strings.ToLower(fragment[start:end])
		for _, marker := range s.mainMarkers {
			if strings.Contains(rawCtx, marker) {
				return &candidates[i], candidates
			}
		}
	}
	return &candidates[0], candidates
}

// Median returns the statistical median over all candidate values,
// including unselected ones, or nil when there are none.
func Median(candidates []domain.PriceCandidate) *float64 {
	if len(candidates) == 0 {
		return nil
	}
	values := make([]float64, len(candidates))
	for i, c := range candidates {
		values[i] = c.Value
	}
	return textutil.Median(values)
}
