// Package webhallenapi reads product data from the Webhallen product API.
// The API reports prices in öre; everything leaving this package is in
// whole kronor.
package webhallenapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/extract"
	"github.com/prixy/backend/internal/textutil"
)

// Client fetches products by id, with a plain HTML scrape as fallback when
// every API endpoint fails.
type Client struct {
	httpClient *http.Client
	endpoints  []string
	fetcher    domain.PageFetcher
}

var defaultEndpoints = []string{
	"https://www.webhallen.com/api/product/%s",
	"https://api.webhallen.com/product/%s",
	"https://www.webhallen.com/se/api/product/%s",
}

// NewClient creates a Webhallen client. The fetcher is used only for the
// HTML fallback path and may be nil to disable it.
func NewClient(timeout time.Duration, fetcher domain.PageFetcher) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoints:  defaultEndpoints,
		fetcher:    fetcher,
	}
}

var (
	webhallenIDRegex     = regexp.MustCompile(`/product/(\d+)-`)
	outOfStockRegex      = regexp.MustCompile(`(?i)(?:ej\s+tillgänglig|inte\s+tillgänglig|out\s+of\s+stock)`)
	webhallenSuffixRegex = regexp.MustCompile(`(?i)\s*[|-]\s*Webhallen.*$`)
	webhallenPrevRegex   = regexp.MustCompile(`(?i)(?:tidigare|before|ordinarie|rek\.?\s*pris)[^0-9]{0,50}(\d{1,7})`)
	faqLineRegex         = regexp.MustCompile(`(?i)(?:observera att|tappa inte bort|instruktioner|vanliga frågor|hur vet jag|webblagret)`)
	specLineRegex        = regexp.MustCompile(`(?i)(?:tv|skärm|upplösning|fps|smart|qled|oled|4k|144|hz|tum|inch|streaming|processor|minne)`)
)

var descriptionFields = []string{
	"description", "metaDescription", "shortDescription", "summary",
	"spec", "specifications", "descriptionProvider",
}

var imageFields = []string{
	"images", "image", "mainImage", "primaryImage", "productImages", "gallery", "media",
}

// Extract satisfies domain.Extractor; html is ignored in the API path.
func (c *Client) Extract(ctx context.Context, _ string, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "ny"}

	m := webhallenIDRegex.FindStringSubmatch(url)
	if m == nil {
		res.Error = domain.ErrNoProductID.Error()
		return res
	}

	if payload := c.fetchFromAPI(ctx, m[1], url); payload != nil {
		if api := c.fromAPI(payload, url); api.PriceValue != nil {
			return api
		}
	}

	if c.fetcher == nil {
		res.Error = fmt.Sprintf("%v: all API endpoints failed", domain.ErrVendorAPI)
		return res
	}
	return c.fromHTML(ctx, url)
}

func (c *Client) fetchFromAPI(ctx context.Context, productID, pageURL string) map[string]interface{} {
	for _, endpoint := range c.endpoints {
		reqURL := fmt.Sprintf(endpoint, productID)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			continue
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Referer", pageURL)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			continue
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			continue
		}
		var payload map[string]interface{}
		if err := json.Unmarshal(body, &payload); err != nil {
			continue
		}
		return payload
	}
	return nil
}

func (c *Client) fromAPI(payload map[string]interface{}, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "ny"}
	product, ok := payload["product"].(map[string]interface{})
	if !ok {
		return res
	}

	// Current price: campaign price when present, else regular price.
	// Both arrive in öre.
	current := oreToKronor(digValue(product, "price", "price"))
	priceType, _ := dig(product, "price", "type").(string)
	regular := oreToKronor(digValue(product, "regularPrice", "price"))

	if current == nil {
		current = regular
		regular = nil
	}
	if current != nil {
		res.PriceValue = current
		res.PriceRaw = domain.Str(formatKronor(*current) + " kr")
		res.PriceContext = domain.Str("(från Webhallen API)")
		res.PriceConfidence = domain.Num(0.95)
	}

	if priceType == "campaign" && regular != nil && current != nil && *regular > *current {
		res.PreviousPrice = regular
		info := fmt.Sprintf("Kampanjpris! Ordinarie pris: %s kr, spara %s kr",
			formatKronor(*regular), formatKronor(*regular-*current))
		if endAt, _ := dig(product, "price", "endAt").(string); endAt != "" {
			if t, err := time.Parse(time.RFC3339, endAt); err == nil {
				info += fmt.Sprintf(" (kampanjen slutar %s)", t.Format("2006-01-02"))
			}
		}
		res.CampaignInfo = &info
	}

	title, _ := product["name"].(string)
	if title == "" {
		title, _ = product["mainTitle"].(string)
	}
	if title != "" {
		res.PageTitle = &title
	}

	if desc := apiDescription(product); desc != "" {
		trimmed := trimForAnalysis(desc)
		res.Description = &trimmed
		if short := textutil.TruncateAtSentence(trimmed, 200); short != "" {
			res.DescriptionShort = &short
		}
	}

	if img := apiImage(product); img != "" {
		img = absolutizeWebhallen(img)
		res.ImageURL = &img
	}

	res.PriceResolved = true
	return res
}

// fromHTML is the degraded path: fetch the page and use structured markup
// only. Out-of-stock pages get an explicit unavailable record.
func (c *Client) fromHTML(ctx context.Context, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "ny"}

	html, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	if outOfStockRegex.MatchString(html) {
		res.PageTitle = domain.Str("Produkt ej tillgänglig")
		res.PriceRaw = domain.Str("Ej tillgängligt")
		res.PriceContext = domain.Str("(produkten är ej tillgänglig)")
		res.PriceConfidence = domain.Num(0.9)
		res.Description = domain.Str("Denna produkt är för närvarande inte tillgänglig för köp.")
		res.PriceResolved = true
		return res
	}

	if t := extract.PageTitle(html); t != nil {
		cleaned := strings.TrimSpace(webhallenSuffixRegex.ReplaceAllString(*t, ""))
		if cleaned != "" {
			res.PageTitle = &cleaned
		}
	}
	res.OGTitle = extract.MetaContent(html, "og:title")

	if product, ok := extract.ProductLD(html); ok {
		if price := extract.OfferPrice(product); price != nil {
			res.PriceValue = price
			res.PriceRaw = domain.Str(formatKronor(*price) + " kr")
			res.PriceContext = domain.Str("(från JSON-LD offers)")
			res.PriceConfidence = domain.Num(0.95)
		}
		if res.Description == nil {
			if d := extract.LDString(product, "description"); d != nil && len(*d) > 20 {
				res.Description = domain.Str(strings.TrimSpace(textutil.StripMarkup(*d)))
			}
		}
	}
	if res.PriceValue == nil {
		if meta := extract.MetaContent(html, "product:price:amount", "price"); meta != nil {
			if num := textutil.ParseLocalizedPrice(*meta); num != nil && *num > 0 {
				res.PriceValue = num
				res.PriceRaw = domain.Str(formatKronor(*num) + " kr")
				res.PriceContext = domain.Str("(från meta tag)")
				res.PriceConfidence = domain.Num(0.8)
			}
		}
	}

	if res.Description == nil {
		if d := extract.MetaContent(html, "description", "og:description"); d != nil {
			res.Description = domain.Str(strings.TrimSpace(*d))
		}
	}
	res.ImageURL = extract.MetaContent(html, "og:image")

	if res.PriceValue != nil {
		if m := webhallenPrevRegex.FindStringSubmatch(html); m != nil {
			if prev := textutil.ParseLocalizedPrice(m[1]); prev != nil && *prev > *res.PriceValue {
				res.PreviousPrice = prev
				res.CampaignInfo = domain.Str(fmt.Sprintf(
					"Ordinariepris: %s kr, spara %s kr",
					formatKronor(*prev), formatKronor(*prev-*res.PriceValue)))
			}
		}
	}

	res.PriceResolved = true
	return res
}

func formatKronor(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func oreToKronor(v *float64) *float64 {
	if v == nil {
		return nil
	}
	kronor := *v / 100
	return &kronor
}

func dig(m map[string]interface{}, path ...string) interface{} {
	var cur interface{} = m
	for _, key := range path {
		node, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = node[key]
	}
	return cur
}

// digValue tolerates both JSON numbers and numeric strings, which the API
// mixes freely.
func digValue(m map[string]interface{}, path ...string) *float64 {
	switch v := dig(m, path...).(type) {
	case float64:
		return &v
	case string:
		return textutil.ParseLocalizedPrice(extract.DigitsOnly(v))
	}
	return nil
}

func apiDescription(product map[string]interface{}) string {
	for _, field := range descriptionFields {
		if s, ok := product[field].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(textutil.StripMarkup(s))
		}
	}
	if data, ok := product["data"].(map[string]interface{}); ok {
		for key, v := range data {
			if strings.Contains(strings.ToLower(key), "desc") {
				if s, ok := v.(string); ok && s != "" {
					return strings.TrimSpace(textutil.StripMarkup(s))
				}
			}
		}
	}
	// Assemble something usable from the name and category tree.
	name, _ := product["name"].(string)
	if name == "" {
		return ""
	}
	desc := name
	if manufacturer, ok := product["manufacturer"].(string); ok && manufacturer != "" {
		desc += " från " + manufacturer
	}
	if tree, ok := product["categoryTree"].([]interface{}); ok && len(tree) > 0 {
		if leaf, ok := tree[len(tree)-1].(map[string]interface{}); ok {
			if cat, ok := leaf["name"].(string); ok && cat != "" {
				desc += " i kategorin " + cat
			}
		}
	}
	return desc + "."
}

// trimForAnalysis keeps the spec-bearing sentences and drops FAQ and
// delivery boilerplate, bounding the text handed to the analysis stage.
func trimForAnalysis(description string) string {
	if len(description) <= 300 {
		return description
	}
	var kept strings.Builder
	for _, line := range textutil.SplitSentences(description) {
		if faqLineRegex.MatchString(line) {
			break
		}
		if specLineRegex.MatchString(line) && kept.Len() < 250 {
			kept.WriteString(strings.TrimSpace(line) + ". ")
		}
	}
	if s := strings.TrimSpace(kept.String()); s != "" {
		return s
	}
	return strings.TrimSpace(description[:300]) + "..."
}

func apiImage(product map[string]interface{}) string {
	for _, field := range imageFields {
		v, ok := product[field]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case []interface{}:
			for _, item := range t {
				if s := imageFromValue(item); s != "" {
					return s
				}
			}
		case map[string]interface{}:
			if s := imageFromValue(t); s != "" {
				return s
			}
		}
	}
	return ""
}

func imageFromValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]interface{}:
		for _, key := range []string{"url", "src", "href", "large", "medium", "small", "original"} {
			if s, ok := t[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func absolutizeWebhallen(img string) string {
	switch {
	case strings.HasPrefix(img, "http"):
		return img
	case strings.HasPrefix(img, "//"):
		return "https:" + img
	case strings.HasPrefix(img, "/"):
		return "https://www.webhallen.com" + img
	default:
		return "https://www.webhallen.com/" + img
	}
}
