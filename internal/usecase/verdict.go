package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/prixy/backend/internal/domain"
)

var (
	fairRangeRegex = regexp.MustCompile(`(\d[\d\s]*)(?:\s*-\s*(\d[\d\s]*))?\s*kr`)
	modelYearRegex = regexp.MustCompile(`\b202[3-5]\b`)

	// Phrases in the oracle's reasoning that signal it was guessing about a
	// model too new to have market history.
	uncertaintyMarkers = []string{
		"ny modell", "nyligen lanserad", "nyligen släppt", "osäker", "osäkert",
		"begränsad prishistorik", "ingen prishistorik", "unreleased",
	}
)

// predecessorReference maps brand-new TV model tiers to the street price of
// the previous generation. Deliberately narrow: only tiers with a known
// predecessor belong here.
var predecessorReference = []struct {
	token       string
	predecessor string
	price       float64
}{
	{"C5", "LG OLED C4", 15000},
	{"G5", "LG OLED G4", 22000},
	{"QN90D", "Samsung QN90C", 14000},
	{"S95D", "Samsung S95C", 20000},
}

// parseFairRange reads the oracle's estimated fair price, either
// "18000-20000kr" or a single "18000kr". Digit groups may contain spaces.
func parseFairRange(s string) (float64, float64, bool) {
	m := fairRangeRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	low, err := strconv.ParseFloat(strings.ReplaceAll(m[1], " ", ""), 64)
	if err != nil || low <= 0 {
		return 0, 0, false
	}
	high := low
	if m[2] != "" {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], " ", ""), 64); err == nil && v >= low {
			high = v
		}
	}
	return low, high, true
}

// ApplyOverrides runs the deterministic corrections on top of the oracle
// verdict: the hard floor/ceiling rules, fake-discount flagging, and the
// predecessor-band heuristic for unreleased models.
func ApplyOverrides(analyzed *domain.AnalyzedProduct) {
	if analyzed == nil || analyzed.AIAnalysis == nil {
		return
	}
	analysis := analyzed.AIAnalysis

	fairMin, fairMax, haveRange := parseFairRange(analysis.EstimatedFairPrice)
	if !haveRange {
		applyPredecessorBand(analyzed)
		return
	}
	if analyzed.PriceValue == nil {
		return
	}
	price := *analyzed.PriceValue

	if price < fairMin {
		analysis.Verdict = domain.VerdictKap
		analysis.Reasoning += fmt.Sprintf(
			" Priset %.0f kr ligger under det uppskattade marknadsvärdet (%.0f-%.0f kr).",
			price, fairMin, fairMax)
	} else if price <= fairMax && analysis.Verdict == domain.VerdictKap {
		analysis.Verdict = domain.VerdictRimligt
		analysis.Reasoning += fmt.Sprintf(
			" Priset %.0f kr ligger inom det uppskattade marknadsvärdet (%.0f-%.0f kr) och är därmed rimligt snarare än ett kap.",
			price, fairMin, fairMax)
	}

	flagFakeSale(analyzed, price, fairMin, fairMax)
}

func flagFakeSale(analyzed *domain.AnalyzedProduct, price, fairMin, fairMax float64) {
	if analyzed.ResolvedPreviousPrice == nil {
		return
	}
	prev := *analyzed.ResolvedPreviousPrice

	// Stricter rule for current model years: a price inside the fair band
	// paired with an inflated "previous price" is almost always the
	// manufacturer list price, never actually charged.
	if prev > fairMax*1.25 &&
		price >= fairMin*0.9 && price <= fairMax*1.1 &&
		modelYearRegex.MatchString(titleAndDescription(analyzed)) {
		analyzed.FakeSaleFlag = true
		analyzed.FakeSaleWarning = fmt.Sprintf(
			"Tidigare pris %.0f kr är sannolikt ett rekommenderat listpris som aldrig tagits ut. Nuvarande pris %.0f kr motsvarar marknadsvärdet, inte en rea.",
			prev, price)
		return
	}

	if prev <= fairMax*1.2 {
		return
	}
	analyzed.FakeSaleFlag = true
	switch {
	case price < fairMin:
		analyzed.FakeSaleWarning = fmt.Sprintf(
			"Tidigare pris %.0f kr ser uppblåst ut jämfört med marknadsvärdet, men nuvarande pris %.0f kr är ändå ett bra pris.",
			prev, price)
	case price <= fairMax*1.05:
		analyzed.FakeSaleWarning = fmt.Sprintf(
			"Möjlig bluff-rea: tidigare pris %.0f kr ligger långt över marknadsvärdet. Nuvarande pris %.0f kr är dock rimligt.",
			prev, price)
	default:
		analyzed.FakeSaleWarning = fmt.Sprintf(
			"Möjlig bluff-rea: tidigare pris %.0f kr ligger långt över marknadsvärdet, och även nuvarande pris %.0f kr är högt.",
			prev, price)
	}
}

// applyPredecessorBand infers a fair band for brand-new models from the
// previous generation's street price when the oracle could not produce a
// range itself.
func applyPredecessorBand(analyzed *domain.AnalyzedProduct) {
	analysis := analyzed.AIAnalysis
	reasoning := strings.ToLower(analysis.Reasoning)

	uncertain := false
	for _, marker := range uncertaintyMarkers {
		if strings.Contains(reasoning, marker) {
			uncertain = true
			break
		}
	}
	if !uncertain {
		return
	}

	title := strings.ToUpper(titleAndDescription(analyzed))
	for _, ref := range predecessorReference {
		if !strings.Contains(title, ref.token) {
			continue
		}
		low := ref.price * 0.85
		high := ref.price * 1.25
		analyzed.IsNewUnreleasedProduct = true
		analysis.EstimatedFairPrice = fmt.Sprintf("%.0f-%.0fkr", low, high)
		analysis.Reasoning += fmt.Sprintf(
			" Referensband härlett från föregående generation (%s, ca %.0f kr).",
			ref.predecessor, ref.price)
		return
	}
}

func titleAndDescription(analyzed *domain.AnalyzedProduct) string {
	var parts []string
	if analyzed.PageTitle != nil {
		parts = append(parts, *analyzed.PageTitle)
	}
	if analyzed.Description != nil {
		parts = append(parts, *analyzed.Description)
	}
	return strings.Join(parts, " ")
}
