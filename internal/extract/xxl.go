package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/textutil"
)

// XXL extracts sport-retail product pages. Only new goods are sold, so the
// condition is fixed.
type XXL struct{}

func NewXXL() *XXL { return &XXL{} }

var xxlDescMarkers = []string{"Produktbeskrivning", "Produktinformation", "Om produkten"}
var xxlStopWords = []string{"Specifikationer", "Detaljer", "Material", "Storlek", "Färg", "Leverans"}
var xxlShortKeywords = []string{"skick", "material", "design", "funktion", "kvalitet", "komfort"}

func (x *XXL) Extract(_ context.Context, html, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "ny"}

	res.PreviousPrice, res.CampaignInfo = campaignSignals(html, true)
	res.PageTitle = PageTitle(html)
	res.OGTitle = MetaContent(html, "og:title")

	if product, ok := ProductLD(html); ok {
		price := OfferPrice(product)
		if price == nil {
			price = LDNumber(product, "price")
		}
		if price != nil && *price > 0 {
			res.PriceValue = price
			res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *price))
			res.PriceContext = domain.Str("(från JSON-LD)")
			res.PriceConfidence = domain.Num(0.85)
		}
	}
	if res.PriceValue == nil {
		if meta := MetaContent(html, "og:price:amount", "product:price:amount", "price"); meta != nil {
			if num := textutil.ParseLocalizedPrice(*meta); num != nil && *num > 0 {
				res.PriceValue = num
				res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
				res.PriceContext = domain.Str("(från meta)")
				res.PriceConfidence = domain.Num(0.8)
			}
		}
	}

	description := ""
	if product, ok := ProductLD(html); ok {
		if d := LDString(product, "description"); d != nil && len(*d) > 50 {
			description = strings.TrimSpace(strings.ReplaceAll(*d, `\n`, "\n"))
		}
	}
	if len(description) < 20 {
		description = xxlMarkerDescription(html)
	}

	var descPtr *string
	if description != "" {
		descPtr = &description
	}
	descPtr = appendCampaign(descPtr, res.CampaignInfo)
	if descPtr != nil {
		capped := capLongDescription(*descPtr, 800)
		res.Description = &capped
		if short := textutil.ShortDescription(capped, xxlShortKeywords, 2); short != "" {
			res.DescriptionShort = &short
		}
	}

	res.ImageURL = productImage(html)

	res.PriceResolved = true
	return res
}

func xxlMarkerDescription(html string) string {
	body := html
	if i := strings.Index(html, "<body"); i != -1 {
		body = html[i:]
	}
	for _, marker := range xxlDescMarkers {
		idx := strings.Index(body, marker)
		if idx == -1 {
			continue
		}
		end := idx + 2000
		if end > len(body) {
			end = len(body)
		}
		cleaned := strings.TrimSpace(strings.TrimPrefix(textutil.StripMarkup(body[idx:end]), marker))
		for _, stop := range xxlStopWords {
			if si := strings.Index(cleaned, stop); si > 30 {
				cleaned = strings.TrimSpace(cleaned[:si])
				break
			}
		}
		// Styling junk leaking through means we grabbed a CSS blob, not text.
		if len(cleaned) > 50 &&
			!strings.Contains(cleaned, "css-") &&
			!strings.Contains(cleaned, "display:") &&
			!strings.Contains(cleaned, "webkit") {
			return cleaned
		}
	}
	return ""
}

// capLongDescription first tries to shorten by keeping the leading sentences,
// then hard-cuts with an ellipsis if still over the limit.
func capLongDescription(description string, maxLen int) string {
	if len(description) <= maxLen {
		return description
	}
	sentences := textutil.SplitSentences(description)
	if len(sentences) > 5 {
		sentences = sentences[:5]
	}
	description = strings.TrimSpace(strings.Join(sentences, ". ")) + "."
	if len(description) > maxLen {
		description = strings.TrimSpace(description[:maxLen]) + "..."
	}
	return description
}
