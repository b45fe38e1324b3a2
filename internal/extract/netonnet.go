package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/textutil"
)

// NetOnNet extracts product pages built on a Next.js hydration payload; the
// __NEXT_DATA__ blob is by far the most reliable source when present.
type NetOnNet struct{}

func NewNetOnNet() *NetOnNet { return &NetOnNet{} }

var (
	nextDataRegex       = regexp.MustCompile(`(?s)<script[^>]+id="__NEXT_DATA__"[^>]*>(.*?)</script>`)
	lowestPriceRegex    = regexp.MustCompile(`(?is)lowestPrice[^>]*>(.*?)</span>`)
	netonnetPriceRegex  = regexp.MustCompile(`(?i)(\d[\d\s]{2,7})\s*kr`)
	labeledPrevRegex    = regexp.MustCompile(`(?i)(tidigare|ord\.?pris|rek\.?pris)[^\d]{0,20}(\d[\d\s]+)`)
	netonnetImageOrigin = "https://www.netonnet.se"
)

func (n *NetOnNet) Extract(_ context.Context, html, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "ny"}

	if m := nextDataRegex.FindStringSubmatch(html); m != nil {
		n.fromNextData(m[1], &res)
	}

	// An HTML "lowest price" badge above the current price marks a campaign.
	if res.PriceValue != nil {
		if m := lowestPriceRegex.FindStringSubmatch(html); m != nil {
			if lowest := textutil.ParseLocalizedPrice(DigitsOnly(m[1])); lowest != nil && *lowest > *res.PriceValue {
				res.PreviousPrice = lowest
				res.CampaignInfo = domain.Str(fmt.Sprintf(
					"Tidigare pris %.0f kr – spara %.0f kr", *lowest, *lowest-*res.PriceValue))
			}
		}
	}

	if res.PriceValue == nil {
		if product, ok := ProductLD(html); ok {
			if price := OfferPrice(product); price != nil {
				res.PriceValue = price
				res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *price))
				res.PriceContext = domain.Str("(JSON-LD)")
				res.PriceConfidence = domain.Num(0.85)
			}
			if prev := OfferHighPrice(product); prev != nil {
				current := 0.0
				if res.PriceValue != nil {
					current = *res.PriceValue
				}
				if *prev > current {
					res.PreviousPrice = prev
					res.CampaignInfo = domain.Str(fmt.Sprintf(
						"Tidigare pris %.0f kr – spara %.0f kr", *prev, *prev-current))
				}
			}
			if res.Description == nil {
				if d := LDString(product, "description"); d != nil {
					cleaned := textutil.StripMarkup(*d)
					if len(cleaned) > 500 {
						cleaned = cleaned[:500]
					}
					res.Description = domain.Str(cleaned)
				}
			}
		}
	}

	if res.PageTitle == nil {
		res.PageTitle = PageTitle(html)
	}
	if res.ImageURL == nil {
		res.ImageURL = MetaContent(html, "og:image")
	}

	if res.PriceValue == nil {
		if m := netonnetPriceRegex.FindStringSubmatch(html); m != nil {
			if num := textutil.ParseLocalizedPrice(m[1]); num != nil {
				res.PriceValue = num
				res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
				res.PriceContext = domain.Str("(HTML pattern fallback)")
				res.PriceConfidence = domain.Num(0.5)
			}
		}
	}

	if res.PreviousPrice == nil && res.PriceValue != nil {
		if m := labeledPrevRegex.FindStringSubmatch(html); m != nil {
			if prev := textutil.ParseLocalizedPrice(m[2]); prev != nil && *prev > *res.PriceValue {
				res.PreviousPrice = prev
				res.CampaignInfo = domain.Str(fmt.Sprintf(
					"Tidigare pris %.0f kr – spara %.0f kr", *prev, *prev-*res.PriceValue))
			}
		}
	}

	res.PriceResolved = true
	return res
}

func (n *NetOnNet) fromNextData(raw string, res *domain.ScrapeResult) {
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return
	}
	pageProps, ok := dig(payload, "props", "pageProps").(map[string]interface{})
	if !ok {
		return
	}
	product, ok := pageProps["product"].(map[string]interface{})
	if !ok {
		product, ok = pageProps["data"].(map[string]interface{})
	}
	if !ok {
		return
	}

	if title := anyToString(product["name"]); title != nil {
		res.PageTitle = title
	} else if title := anyToString(product["title"]); title != nil {
		res.PageTitle = title
	}

	price, context := digNumber(product, "price", "current", "value"), "(NetOnNet __NEXT_DATA__ price.current.value)"
	if price == nil {
		price, context = digNumber(product, "price", "value"), "(NetOnNet __NEXT_DATA__ price.value)"
	}
	if price != nil && *price > 0 {
		res.PriceValue = price
		res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *price))
		res.PriceContext = domain.Str(context)
		res.PriceConfidence = domain.Num(0.95)
	}

	prev := digNumber(product, "price", "previous", "value")
	if prev == nil {
		prev = digNumber(product, "price", "oldPrice")
	}
	if prev == nil {
		prev = digNumber(product, "oldPrice", "value")
	}
	if prev != nil && res.PriceValue != nil && *prev > *res.PriceValue {
		res.PreviousPrice = prev
		res.CampaignInfo = domain.Str(fmt.Sprintf(
			"Tidigare pris %.0f kr – spara %.0f kr", *prev, *prev-*res.PriceValue))
	}

	for _, key := range []string{"shortDescription", "description", "longDescription"} {
		if d := anyToString(product[key]); d != nil {
			cleaned := textutil.StripMarkup(*d)
			if len(cleaned) > 500 {
				cleaned = cleaned[:500] + "..."
			}
			res.Description = domain.Str(cleaned)
			break
		}
	}

	var img *string
	if imgs, ok := product["images"].([]interface{}); ok && len(imgs) > 0 {
		if obj, ok := imgs[0].(map[string]interface{}); ok {
			img = anyToString(obj["url"])
		} else {
			img = anyToString(imgs[0])
		}
	}
	if img == nil {
		img = anyToString(product["mainImage"])
	}
	if img != nil {
		u := *img
		if !strings.HasPrefix(u, "http") {
			u = netonnetImageOrigin + u
		}
		res.ImageURL = &u
	}
}

// dig walks nested maps by key, returning nil when any hop is missing.
func dig(m map[string]interface{}, path ...string) interface{} {
	var cur interface{} = m
	for _, key := range path {
		node, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur, ok = node[key]
		if !ok {
			return nil
		}
	}
	return cur
}

func digNumber(m map[string]interface{}, path ...string) *float64 {
	return anyToNumber(dig(m, path...))
}
