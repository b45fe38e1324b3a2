package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/textutil"
)

// Inet extracts computer-retail product pages. The site carries clean
// JSON-LD, so everything else is a thin fallback layer.
type Inet struct{}

func NewInet() *Inet { return &Inet{} }

var (
	siteSuffixRegex    = regexp.MustCompile(`\s*\|\s*.*$`)
	inetKrRegex        = regexp.MustCompile(`(?i)(\d[\d\s]*)\s*kr`)
	inetJSONPriceRegex = regexp.MustCompile(`(?i)"price":\s*"?(\d+)"?`)
	inetDataPriceRegex = regexp.MustCompile(`(?i)data-price=["'](\d+)["']`)
)

func (i *Inet) Extract(_ context.Context, html, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "ny"}

	if product, ok := ProductLD(html); ok {
		res.PageTitle = LDString(product, "name")
		if price := OfferPrice(product); price != nil {
			res.PriceValue = price
			res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *price))
			res.PriceContext = domain.Str("(från JSON-LD)")
			res.PriceConfidence = domain.Num(0.9)
		}
		res.Description = LDString(product, "description")
		res.ImageURL = LDString(product, "image")
	}

	if res.PageTitle == nil {
		title := MetaContent(html, "og:title")
		if title == nil {
			title = PageTitle(html)
		}
		if title != nil {
			trimmed := strings.TrimSpace(siteSuffixRegex.ReplaceAllString(*title, ""))
			if trimmed != "" {
				res.PageTitle = &trimmed
			}
		}
	}

	if res.PriceValue == nil {
		for _, re := range []*regexp.Regexp{inetKrRegex, inetJSONPriceRegex, inetDataPriceRegex} {
			m := re.FindStringSubmatch(html)
			if m == nil {
				continue
			}
			if num := textutil.ParseLocalizedPrice(m[1]); num != nil && *num > 0 {
				res.PriceValue = num
				res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
				res.PriceContext = domain.Str("(HTML pattern)")
				res.PriceConfidence = domain.Num(0.5)
				break
			}
		}
	}

	if res.Description == nil {
		desc := MetaContent(html, "og:description")
		if desc == nil {
			desc = MetaContent(html, "description")
		}
		res.Description = desc
	}
	if res.Description != nil {
		if short := textutil.TruncateAtSentence(*res.Description, 300); short != "" {
			res.DescriptionShort = &short
		}
	}

	if res.ImageURL == nil {
		res.ImageURL = MetaContent(html, "og:image")
	}

	res.PriceResolved = true
	return res
}
