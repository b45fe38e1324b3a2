package extract

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/pricefind"
	"github.com/prixy/backend/internal/textutil"
)

// Tradera extracts auction listings. The interesting price is usually the
// leading bid rendered in the page body; structured data often carries the
// starting price instead, so HTML candidates can override it.
type Tradera struct {
	scorer *pricefind.Scorer
}

var traderaCutMarkers = []string{
	"Mer från samma kategori",
	"Köp mer och spara på frakten",
	"Liknande annonser",
}

var traderaMainMarkers = []string{
	"bid-details-button",
	"visa bud",
	"lägg bud",
	"läggbud",
	`id="price"`,
	"amount mb-0",
	"bid-details",
	"buyer-protection",
}

func NewTradera() *Tradera {
	return &Tradera{
		scorer: pricefind.New(pricefind.Options{
			Window: 400,
			Bonuses: []pricefind.KeywordBonus{
				{Keyword: "ledande bud", Bonus: 200},
				{Keyword: "utropspris", Bonus: 150},
				{Keyword: "utgångspris", Bonus: 150},
				{Keyword: "startbud", Bonus: 120},
				{Keyword: "startpris", Bonus: 120},
				{Keyword: "bud", Bonus: 30},
				{Keyword: `data-sentry-component="pricelabel"`, Bonus: 50},
				{Keyword: `id="price"`, Bonus: 50},
				{Keyword: "price-label", Bonus: 50},
				{Keyword: "pricelabel", Bonus: 50},
				{Keyword: `data-testid="bids-label"`, Bonus: 40},
				{Keyword: "bids-label", Bonus: 40},
				{Keyword: "animateonvaluechange", Bonus: 40},
				{Keyword: "buyer-protection", Bonus: 20},
				{Keyword: "köparskydd", Bonus: 20},
				{Keyword: "bid-details", Bonus: 180},
				{Keyword: "visa bud", Bonus: 180},
				{Keyword: "lägg bud", Bonus: 180},
				{Keyword: "cardpricesection", Bonus: -500},
				{Keyword: "common-item-card", Bonus: -500},
				{Keyword: "carousel", Bonus: -500},
			},
			MainMarkers: traderaMainMarkers,
		}),
	}
}

var traderaShortKeywords = []string{
	"skick", "defekt", "service", "repor", "skadat", "sliten", "ny",
	"nyskick", "mint", "oöppnad", "originalförpackning", "problem",
}

func (t *Tradera) Extract(_ context.Context, html, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url}

	// The head repeats the starting price, so candidates come from the body
	// only, with the related-listings tail cut off.
	bodyHTML := html
	if headEnd := strings.Index(html, "</head>"); headEnd != -1 {
		bodyHTML = html[headEnd:]
	}
	mainHTML := bodyHTML
	for _, marker := range traderaCutMarkers {
		if idx := strings.Index(mainHTML, marker); idx != -1 {
			mainHTML = mainHTML[:idx]
			break
		}
	}

	res.PageTitle = PageTitle(html)
	res.OGTitle = MetaContent(html, "og:title")

	// Structured price first: JSON-LD offers, then price meta tags.
	structuredFrom := ""
	if product, ok := ProductLD(html); ok {
		if price := OfferPrice(product); price != nil {
			res.PriceValue = price
			res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *price))
			structuredFrom = "(från JSON-LD)"
		}
	}
	if res.PriceValue == nil {
		if meta := MetaContent(html, "price", "product:price:amount"); meta != nil {
			if num := textutil.ParseLocalizedPrice(*meta); num != nil {
				res.PriceValue = num
				res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
				structuredFrom = "(från meta)"
			}
		}
	}
	if structuredFrom != "" {
		res.PriceContext = domain.Str(structuredFrom)
	}

	selected, candidates := t.scorer.Best(mainHTML)
	res.AltCandidates = candidates

	if selected != nil {
		ctxLower := strings.ToLower(selected.Context)
		strongKeyword := strings.Contains(ctxLower, "ledande bud") ||
			strings.Contains(ctxLower, "utropspris") ||
			strings.Contains(ctxLower, "utgångspris")

		if res.PriceValue == nil || selected.Score >= 50 || strongKeyword {
			res.PriceValue = domain.Num(selected.Value)
			res.PriceRaw = domain.Str(selected.Raw)
			if structuredFrom == "" {
				res.PriceContext = domain.Str("(från HTML-kandidat)")
			}
		} else if res.PriceValue != nil && selected.Value > *res.PriceValue*3 {
			// Structured data sometimes holds an unrelated small amount while
			// the visible bid is far larger.
			prevRaw := ""
			if res.PriceRaw != nil {
				prevRaw = *res.PriceRaw
			}
			res.PriceContext = domain.Str(fmt.Sprintf(
				"(override från HTML-kandidat, tidigare strukturerat pris var %s)", prevRaw))
			res.PriceValue = domain.Num(selected.Value)
			res.PriceRaw = domain.Str(selected.Raw)
		}
		if res.PriceContext == nil {
			res.PriceContext = domain.Str(selected.Context)
		}

		conf := math.Min(1, math.Max(0, selected.Score)/300)
		res.PriceConfidence = domain.Num(math.Round(conf*100) / 100)
	} else if res.PriceValue != nil {
		res.PriceConfidence = domain.Num(0.35)
	}

	res.ComparableMedian = pricefind.Median(candidates)

	if desc := traderaDescription(mainHTML); desc != "" {
		res.Description = domain.Str(desc)
		if short := textutil.ShortDescription(desc, traderaShortKeywords, 3); short != "" {
			res.DescriptionShort = domain.Str(short)
		}
	}

	res.ImageURL = productImage(html)

	res.PriceResolved = true
	return res
}

func traderaDescription(mainHTML string) string {
	descStart := strings.Index(mainHTML, "Beskrivning")
	if descStart == -1 {
		return ""
	}
	slice := mainHTML[descStart:]
	for _, marker := range []string{"Objektnr", "Publicerad", "Köp mer och spara"} {
		if idx := strings.Index(slice, marker); idx != -1 {
			slice = slice[:idx]
		}
	}
	cleaned := textutil.DecodeNumericEntities(textutil.StripMarkup(slice))
	cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, "Beskrivning"))
	return cleaned
}

// productImage prefers the JSON-LD image over og:image.
func productImage(html string) *string {
	for _, block := range JSONLDBlocks(html) {
		if img := LDString(block, "image"); img != nil {
			return img
		}
	}
	return MetaContent(html, "og:image")
}
