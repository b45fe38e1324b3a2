package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/textutil"
)

// Generic is the universal fallback extractor: structural heuristics only,
// no site knowledge. It is selected whenever the router has no specific
// match for the host.
type Generic struct{}

func NewGeneric() *Generic { return &Generic{} }

var (
	genericPriceRegex = regexp.MustCompile(`(?i)(pris|price)[^0-9]{0,20}(\d[\d\s.,]+)`)
	genericPrevRegexs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(ordinarie|ord\.?\s*pris)[^\d]{0,20}(\d[\d\s.,]+)`),
		regexp.MustCompile(`(?i)(tidigare|före|förr)[^\d]{0,20}(\d[\d\s.,]+)`),
		regexp.MustCompile(`(?i)(rek(?:ommenderat)?\.?\s*pris)[^\d]{0,20}(\d[\d\s.,]+)`),
	}
	deepImageRegex = regexp.MustCompile(`(?i)https[^"' ]+\.(?:jpg|jpeg|png|webp)`)
)

func (g *Generic) Extract(_ context.Context, html, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "okänd"}

	// Collapsing whitespace lets the label regexes cross formatting
	// linebreaks.
	cleaned := strings.Join(strings.Fields(html), " ")

	var ldPrice, ldPrev *float64
	var ldTitle, ldDesc, ldBrand *string
	var ldImage *string
	if product, ok := ProductLD(html); ok {
		ldTitle = LDString(product, "name")
		ldDesc = LDString(product, "description")
		ldBrand = LDString(product, "brand")
		ldImage = LDString(product, "image")
		ldPrice = OfferPrice(product)
		ldPrev = OfferHighPrice(product)
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(html))

	ogTitle := MetaContent(html, "og:title")
	ogDesc := MetaContent(html, "og:description")
	ogImage := MetaContent(html, "og:image")
	metaDesc := MetaContent(html, "description")

	price := ldPrice
	confidence := 0.8
	context := "(från JSON-LD)"
	if price == nil {
		if m := genericPriceRegex.FindStringSubmatch(cleaned); m != nil {
			price = textutil.ParseLocalizedPrice(m[2])
			confidence = 0.4
			context = "(pris-etikett i HTML)"
		}
	}
	if price != nil {
		res.PriceValue = price
		res.PriceRaw = domain.Str(fmt.Sprintf("%g kr", *price))
		res.PriceConfidence = domain.Num(confidence)
		res.PriceContext = domain.Str(context)
	}

	previous := ldPrev
	if previous == nil {
		for _, re := range genericPrevRegexs {
			if m := re.FindStringSubmatch(cleaned); m != nil {
				previous = textutil.ParseLocalizedPrice(m[2])
				break
			}
		}
	}
	res.PreviousPrice = previous

	title := ldTitle
	if title == nil {
		title = ogTitle
	}
	if title == nil {
		title = PageTitle(html)
	}
	res.PageTitle = title
	res.OGTitle = ogTitle
	res.Brand = ldBrand

	desc := metaDesc
	if desc == nil {
		desc = ldDesc
	}
	if desc == nil {
		desc = ogDesc
	}
	if desc != nil {
		d := strings.TrimSpace(textutil.DecodeNumericEntities(*desc))
		if d != "" {
			res.Description = &d
			short := textutil.TruncateAtSentence(d, 300)
			if short != "" {
				res.DescriptionShort = &short
			}
		}
	}

	img := ldImage
	if img == nil {
		img = ogImage
	}
	if img == nil {
		img = deepScanImage(cleaned)
	}
	if img == nil && docErr == nil {
		img = firstImageAttr(doc)
	}
	if img != nil {
		abs := AbsolutizeURL(url, *img)
		res.ImageURL = &abs
	}

	// The price search ran to completion; a nil price is a finding, not a
	// failure.
	res.PriceResolved = true
	return res
}

// deepScanImage picks the longest product-looking image URL in the page,
// skipping chrome assets. Longer URLs tend to be CDN paths with size
// variants, which is what product images look like.
func deepScanImage(cleaned string) *string {
	matches := deepImageRegex.FindAllString(cleaned, -1)
	kept := matches[:0]
	for _, u := range matches {
		if strings.Contains(u, "logo") || strings.Contains(u, "icon") ||
			strings.Contains(u, "placeholder") || strings.Contains(u, "social") {
			continue
		}
		kept = append(kept, u)
	}
	if len(kept) == 0 {
		return nil
	}
	sort.SliceStable(kept, func(i, j int) bool { return len(kept[i]) > len(kept[j]) })
	return &kept[0]
}

// firstImageAttr falls back to the first img/lazy-load attribute in
// document order.
func firstImageAttr(doc *goquery.Document) *string {
	var found *string
	doc.Find("img[src], [data-src], [data-image], [data-srcset]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src", "data-image"} {
			if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
				v = strings.TrimSpace(v)
				found = &v
				return false
			}
		}
		if v, ok := sel.Attr("data-srcset"); ok && strings.TrimSpace(v) != "" {
			first := strings.TrimSpace(strings.Split(v, ",")[0])
			first = strings.Split(first, " ")[0]
			if first != "" {
				found = &first
				return false
			}
		}
		return true
	})
	return found
}
