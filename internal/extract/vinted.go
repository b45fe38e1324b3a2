package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/pricefind"
	"github.com/prixy/backend/internal/textutil"
)

// Vinted extracts secondhand fashion listings. Prices are small and the
// page is full of fee/insurance amounts, so the candidate search is limited
// to a window right after the listing heading and biased toward low values.
type Vinted struct {
	scorer *pricefind.Scorer
}

var vintedCutMarkers = []string{
	"Andra annonser från",
	"Liknande annonser",
	"Liknande produkter",
	"Upptäck fler fynd",
	"Mer från",
	"Du kanske också gillar",
	`data-testid="other-items"`,
	`data-testid="item-list"`,
	`data-testid="feed-grid"`,
	`aria-label="Liknande annonser"`,
	`aria-label="Andra annonser"`,
	`aria-label="Liknande produkter"`,
	`aria-label="Upptäck fler fynd"`,
	`aria-label="Mer från"`,
	`aria-label="Du kanske också gillar"`,
	"<article",
}

var (
	h1Regex              = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	h1TextRegex          = regexp.MustCompile(`(?i)<h1[^>]*>([^<]+)</h1>`)
	vintedPricePattern   = regexp.MustCompile(`(?i)(?:[^0-9]|^)([0-9]{1,3}(?:[\s,][0-9]{1,2})?)\s*(kr)\b`)
	vintedDescDivRegex   = regexp.MustCompile(`(?is)<div[^>]*data-testid=["']description["'][^>]*>(.*?)</div>`)
	vintedDescClassRegex = regexp.MustCompile(`(?i)class=["'][^"']*description[^"']*["'][^>]*>([^<]{20,})<`)
	vintedItemDescRegex  = regexp.MustCompile(`(?i)data-testid=["']item-description["'][^>]*>([^<]{20,})`)
	vintedKeywordPRegex  = regexp.MustCompile(`(?i)<p[^>]*>([^<]{30,}(?:leksak|bok|spel|condition|skick|pack|fresh|set)[^<]{10,})<`)
	vintedBrandRegex     = regexp.MustCompile(`(?i)Varumärke[^<]*<[^>]*>([^<]+)<`)
	vintedSkickRegex     = regexp.MustCompile(`(?i)Skick[^<]*<[^>]*>([^<]+)<`)
	vintedCondRegex      = regexp.MustCompile(`(?i)<span[^>]*data-testid=["']item-conditions["'][^>]*>([^<]+)</span>`)
	webpURLRegex         = regexp.MustCompile(`https?:[^"'\s>]+\.webp`)
	vintedRawJunkRegex   = regexp.MustCompile(`(?i)(inkl(uderar)?|avgift|proposition|försäkran|leverans|prisgaranti|value_proposition|cta_url|title:)[^0-9]*`)
	vintedRawKeepRegex   = regexp.MustCompile(`(?i)[^0-9.,kr\s]`)
	vintedRawTrimRegex   = regexp.MustCompile(`(?i)^[^0-9]+|[^0-9kr]+$`)
)

var vintedBadBlockWords = []string{
	"proposition", "försäkran", "avgift", "valuta", "trygg", "prisgaranti",
	"system", "artikelpris", "value_proposition", "cta_url", "title:",
	"lägger regelbundet", "skickar snabbt", "medlem fick betyget",
	"uppladdare", "köparskydd",
}

func NewVinted() *Vinted {
	return &Vinted{
		scorer: pricefind.New(pricefind.Options{
			Pattern: vintedPricePattern,
			Window:  200,
			Bonuses: []pricefind.KeywordBonus{
				{Keyword: "köp nu", Bonus: 100},
				{Keyword: "pris", Bonus: 60},
				{Keyword: "köparskydd", Bonus: -50},
				{Keyword: "leverans", Bonus: -30},
				{Keyword: "avgift", Bonus: -100},
			},
			ValueScore: func(v float64) float64 {
				score := 0.0
				if v < 1000 {
					score += 50
				}
				if v < 500 {
					score += 30
				}
				if v < 100 {
					score += 20
				}
				if v > 2000 {
					score -= 100
				}
				if v > 1000 {
					score -= 50
				}
				return score
			},
		}),
	}
}

func (v *Vinted) Extract(_ context.Context, html, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url}

	// Drop the related-listings tail; the 1000-byte floor avoids cutting
	// inside the head where the same markers can appear in preloaded data.
	mainHTML := html
	for _, marker := range vintedCutMarkers {
		if idx := strings.Index(mainHTML, marker); idx > 1000 {
			mainHTML = mainHTML[:idx]
			break
		}
	}

	if m := h1TextRegex.FindStringSubmatch(html); m != nil {
		if t := strings.TrimSpace(textutil.DecodeNumericEntities(m[1])); t != "" {
			res.PageTitle = &t
		}
	}

	if product, ok := ProductLD(html); ok {
		if price := OfferPrice(product); price != nil && *price > 0 {
			res.PriceValue = price
			res.PriceRaw = domain.Str(fmt.Sprintf("%g kr", *price))
			res.PriceContext = domain.Str("(från JSON-LD)")
			res.PriceConfidence = domain.Num(0.95)
		}
	}

	if res.PriceValue == nil {
		for _, re := range []*regexp.Regexp{
			regexp.MustCompile(`(?i)data-testid=["']item-price["'][^>]*>([^<]*\d+[^<]*kr)`),
			regexp.MustCompile(`(?i)data-testid=["']price["'][^>]*>([^<]*\d+[^<]*kr)`),
			regexp.MustCompile(`(?i)class=["'][^"']*price[^"']*["'][^>]*>([^<]*\d+[^<]*kr)`),
		} {
			m := re.FindStringSubmatch(mainHTML)
			if m == nil {
				continue
			}
			if num := textutil.ParseLocalizedPrice(m[1]); num != nil && *num > 0 {
				res.PriceValue = num
				res.PriceRaw = domain.Str(fmt.Sprintf("%g kr", *num))
				res.PriceContext = domain.Str("(från data-testid)")
				res.PriceConfidence = domain.Num(0.9)
				break
			}
		}
	}

	if res.PriceValue == nil {
		if loc := h1Regex.FindStringIndex(mainHTML); loc != nil {
			end := loc[0] + 500
			if end > len(mainHTML) {
				end = len(mainHTML)
			}
			selected, candidates := v.scorer.Best(mainHTML[loc[0]:end])
			res.AltCandidates = candidates
			if selected != nil && selected.Value > 0 && selected.Value < 100000 {
				res.PriceRaw = domain.Str(vintedCleanRaw(selected.Raw))
				res.PriceValue = domain.Num(selected.Value)
				res.PriceContext = domain.Str(selected.Context)
				conf := selected.Score / 200
				if conf < 0 {
					conf = 0
				}
				if conf > 1 {
					conf = 1
				}
				res.PriceConfidence = domain.Num(conf)
			}
		}
	}
	if res.PriceValue == nil {
		res.PriceConfidence = domain.Num(0)
	}

	res.Description = vintedDescription(html, mainHTML)
	if res.Description != nil {
		if short := textutil.ShortDescription(*res.Description, traderaShortKeywords, 3); short != "" {
			res.DescriptionShort = &short
		}
	}

	res.ImageURL = productImage(html)
	if res.ImageURL == nil {
		if m := webpURLRegex.FindString(html); m != "" {
			res.ImageURL = &m
		}
	}

	if m := vintedCondRegex.FindStringSubmatch(html); m != nil {
		res.Condition = strings.ToLower(strings.TrimSpace(textutil.DecodeNumericEntities(m[1])))
	}

	res.PriceResolved = true
	return res
}

// vintedCleanRaw scrubs fee and buyer-protection labels that leak into the
// matched price text.
func vintedCleanRaw(raw string) string {
	s := textutil.StripMarkup(raw)
	s = vintedRawKeepRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(strings.Join(strings.Fields(s), " "))
	s = vintedRawJunkRegex.ReplaceAllString(s, "")
	return vintedRawTrimRegex.ReplaceAllString(s, "")
}

func vintedDescription(html, mainHTML string) *string {
	if product, ok := ProductLD(html); ok {
		if d := LDString(product, "description"); d != nil && len(*d) > 10 {
			return d
		}
	}

	if m := vintedDescDivRegex.FindStringSubmatch(mainHTML); m != nil {
		d := strings.TrimSpace(textutil.DecodeNumericEntities(textutil.StripMarkup(m[1])))
		if d != "" {
			return &d
		}
	}

	for _, re := range []*regexp.Regexp{vintedDescClassRegex, vintedItemDescRegex, vintedKeywordPRegex} {
		if m := re.FindStringSubmatch(mainHTML); m != nil {
			d := strings.TrimSpace(textutil.DecodeNumericEntities(m[1]))
			if len(d) >= 20 {
				return &d
			}
		}
	}

	// Sentence-sized text blocks after the heading, skipping seller/system
	// boilerplate.
	afterH1 := mainHTML
	if loc := h1Regex.FindStringIndex(mainHTML); loc != nil {
		afterH1 = mainHTML[loc[1]:]
	}
	for _, block := range strings.FieldsFunc(textutil.StripMarkup(afterH1), func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		block = strings.TrimSpace(block)
		if len(block) <= 15 {
			continue
		}
		lower := strings.ToLower(block)
		bad := false
		for _, bw := range vintedBadBlockWords {
			if strings.Contains(lower, bw) {
				bad = true
				break
			}
		}
		if !bad {
			d := textutil.DecodeNumericEntities(block)
			return &d
		}
	}

	// Last resort: assemble brand/condition details.
	var details []string
	if m := vintedBrandRegex.FindStringSubmatch(mainHTML); m != nil && strings.TrimSpace(m[1]) != "" {
		details = append(details, "Varumärke: "+strings.TrimSpace(m[1]))
	}
	if m := vintedSkickRegex.FindStringSubmatch(mainHTML); m != nil && strings.TrimSpace(m[1]) != "" {
		details = append(details, "Skick: "+strings.TrimSpace(m[1]))
	}
	if len(details) > 0 {
		d := strings.Join(details, ", ")
		return &d
	}
	return nil
}
