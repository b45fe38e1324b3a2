package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/textutil"
)

// Elgiganten extracts consumer-electronics product pages, including outlet
// pages which hide the price in a videoly integration div.
type Elgiganten struct{}

func NewElgiganten() *Elgiganten { return &Elgiganten{} }

var videolyPriceRegex = regexp.MustCompile(`(?i)<div[^>]+id=["']videoly-product-price["'][^>]*>(\d+)</div>`)

var elgigantenStopMarkers = []string{
	"Teknisk specifikation", "Läs mer om produkten", "Specifikationer", "Leverans", "Hämta i butik",
}

var elgigantenShortKeywords = []string{
	"perfekt", "4k", "oled", "hdr", "smart", "upplösning", "teknik", "kvalitet",
}

func (e *Elgiganten) Extract(_ context.Context, html, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "ny"}

	res.PreviousPrice, res.CampaignInfo = campaignSignals(html, false)
	res.PageTitle = PageTitle(html)
	res.OGTitle = MetaContent(html, "og:title")

	if m := videolyPriceRegex.FindStringSubmatch(html); m != nil {
		if num := textutil.ParseLocalizedPrice(m[1]); num != nil && *num > 0 {
			res.PriceValue = num
			res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
			res.PriceContext = domain.Str("(från Videoly data - outlet)")
			res.PriceConfidence = domain.Num(0.9)
		}
	}
	if res.PriceValue == nil {
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

	body := html
	if i := strings.Index(html, "<body"); i != -1 {
		body = html[i:]
	}

	description := elgigantenKortOm(body)
	if len(description) < 20 {
		description = firstMeaningfulParagraph(body)
	}
	if len(description) < 20 {
		end := 6000
		if end > len(body) {
			end = len(body)
		}
		sentences := textutil.SplitSentences(textutil.StripMarkup(body[:end]))
		kept := make([]string, 0, 2)
		for _, s := range sentences {
			if len(s) > 30 {
				kept = append(kept, s)
			}
			if len(kept) == 2 {
				break
			}
		}
		description = strings.TrimSpace(strings.Join(kept, ". "))
	}

	var descPtr *string
	if description != "" {
		descPtr = &description
	}
	descPtr = appendCampaign(descPtr, res.CampaignInfo)
	if descPtr != nil {
		capped := *descPtr
		if len(capped) > 500 {
			capped = strings.TrimSpace(capped[:500]) + "..."
		}
		res.Description = &capped
		if short := textutil.ShortDescription(capped, elgigantenShortKeywords, 2); short != "" {
			res.DescriptionShort = &short
		}
	}

	res.ImageURL = productImage(html)

	res.PriceResolved = true
	return res
}

// elgigantenKortOm pulls the "Kort om produkten" blurb, stopping before the
// spec/delivery sections.
func elgigantenKortOm(body string) string {
	idx := strings.Index(body, "Kort om produkten")
	if idx == -1 {
		return ""
	}
	end := idx + 2000
	if end > len(body) {
		end = len(body)
	}
	cleaned := strings.TrimSpace(strings.TrimPrefix(textutil.StripMarkup(body[idx:end]), "Kort om produkten"))
	for _, marker := range elgigantenStopMarkers {
		if si := strings.Index(cleaned, marker); si > 30 {
			cleaned = strings.TrimSpace(cleaned[:si])
			break
		}
	}
	return cleaned
}

// firstMeaningfulParagraph scans the leading paragraphs for real product
// text, skipping cookie and menu boilerplate.
func firstMeaningfulParagraph(body string) string {
	end := 8000
	if end > len(body) {
		end = len(body)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body[:end]))
	if err != nil {
		return ""
	}
	found := ""
	doc.Find("p").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if i >= 5 {
			return false
		}
		text := strings.TrimSpace(textutil.DecodeNumericEntities(sel.Text()))
		lower := strings.ToLower(text)
		if len(text) > 50 && !strings.Contains(lower, "cookie") && !strings.Contains(lower, "meny") {
			found = text
			return false
		}
		return true
	})
	return found
}
