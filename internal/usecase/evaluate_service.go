package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/prixy/backend/internal/domain"
)

// Heuristic verdict labels. These are looser than the oracle's and signal
// that no AI was involved.
const (
	EvalVerdictUnknown   = "okänd"
	EvalVerdictSuperDeal = "superbra deal"
	EvalVerdictGoodDeal  = "bra deal"
	EvalVerdictNormal    = "normalpris"
	EvalVerdictRipOff    = "röverpris"
)

var (
	goodConditionKeywords = []string{"ny", "oanvänd", "nyskick", "mint", "oöppnad"}
	badConditionKeywords  = []string{"sliten", "skadat", "defekt", "repor", "rensad"}
)

// EvaluateService gives a fair-price verdict from partial listing data
// using plain heuristics, with no oracle involved.
type EvaluateService struct{}

// NewEvaluateService creates an evaluate service
func NewEvaluateService() *EvaluateService {
	return &EvaluateService{}
}

// Evaluate scores the listing. A missing price yields the "okänd" verdict
// rather than an error.
func (s *EvaluateService) Evaluate(req domain.EvaluateRequest) domain.EvaluateResult {
	result := domain.EvaluateResult{
		Source:   req.URL,
		Title:    req.Title,
		ImageURL: req.ImageURL,
	}

	if req.PriceValue == nil || math.IsNaN(*req.PriceValue) {
		result.Verdict = EvalVerdictUnknown
		result.Confidence = 0.3
		result.Explanation = "Inget giltigt pris hittades i annonsen, kan inte ge en bedömning."
		return result
	}
	price := *req.PriceValue
	result.PriceValue = req.PriceValue

	desc := ""
	if req.Description != nil {
		desc = strings.ToLower(*req.Description)
	}
	goodCondition := containsAny(desc, goodConditionKeywords)
	badCondition := containsAny(desc, badConditionKeywords)

	conditionFactor := 1.0
	if goodCondition {
		conditionFactor += 0.15
	}
	if badCondition {
		conditionFactor -= 0.25
	}

	// Positive means cheap, negative means expensive.
	priceScore := 0.0
	if req.ComparableMedian != nil && *req.ComparableMedian > 0 {
		ratio := price / *req.ComparableMedian
		switch {
		case ratio < 0.8:
			priceScore = 1
		case ratio < 0.95:
			priceScore = 0.5
		case ratio <= 1.05:
			priceScore = 0
		case ratio < 1.2:
			priceScore = -0.5
		default:
			priceScore = -1
		}
	} else {
		switch {
		case price <= 1000:
			priceScore = 1
		case price <= 5000:
			priceScore = 0
		default:
			priceScore = -1
		}
	}

	total := priceScore*0.75 + (conditionFactor-1)*0.5

	verdict := EvalVerdictNormal
	switch {
	case total >= 1.0:
		verdict = EvalVerdictSuperDeal
	case total >= 0.4:
		verdict = EvalVerdictGoodDeal
	case total <= -0.6:
		verdict = EvalVerdictRipOff
	}
	result.Verdict = verdict

	confidence := math.Min(0.95, 0.45+math.Abs(total)*0.5)
	if req.PriceConfidence != nil && *req.PriceConfidence > 0 {
		confidence = math.Min(0.98, confidence*0.6+*req.PriceConfidence*0.4)
	}
	result.Confidence = math.Round(confidence*100) / 100

	switch verdict {
	case EvalVerdictSuperDeal, EvalVerdictGoodDeal:
		indicator := "ingen tydlig indikator"
		if goodCondition {
			indicator = "bra skick"
		}
		result.Explanation = fmt.Sprintf(
			"Pris: %.0f kr verkar lågt jämfört med jämförbara annonser. Beskrivningen indikerar %s.",
			price, indicator)
	case EvalVerdictRipOff:
		indicator := "ingen uppenbar nedsättning"
		if badCondition {
			indicator = "problem/skador"
		}
		result.Explanation = fmt.Sprintf(
			"Pris: %.0f kr ligger i den högre delen. Beskrivningen visar %s.",
			price, indicator)
	default:
		indicator := "ingen tydlig skillnad"
		if goodCondition {
			indicator = "bra skick"
		} else if badCondition {
			indicator = "sämre skick"
		}
		result.Explanation = fmt.Sprintf(
			"Pris: %.0f kr verkar rimligt utifrån annonsens information. Beskrivningen indikerar %s.",
			price, indicator)
	}
	return result
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
