// Package sellpyapi reads secondhand listings from Sellpy's backend. The
// primary path is the Parse GraphQL endpoint the product page itself uses;
// the Algolia search index serves as fallback when GraphQL is unavailable.
package sellpyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/prixy/backend/internal/domain"
)

const (
	DefaultGraphQLURL = "https://sellpy-parse-prod.herokuapp.com/graphql?_=buyerPDPQuery"
	DefaultAlgoliaURL = "https://m6wnfr0lvi-dsn.algolia.net"

	parseApplicationID   = "3ebgwo1hPV0sk74fnWBTSW3RIxgw3b2ZAxM6qmCj"
	algoliaApplicationID = "M6WNFR0LVI"
	algoliaAPIKey        = "313e09c3b00b6e2da5dbe382cd1c8f4b"
	algoliaIndex         = "prod_marketItem_se_saleStartedAt_desc"
)

var sellpyItemIDRegex = regexp.MustCompile(`/item/([^?&]+)`)

var qualityKeywords = []string{"läder", "metall", "justerbar", "original", "vintage", "designer"}

const buyerPDPQuery = `query buyerPDPQuery($itemId: ID!, $locale: String!) {
  item: getPdpItem(itemId: $itemId) {
    objectId
    headline
    localizedMetadata(locale: $locale)
    images { value }
    metadata
    pricing { amount currency }
    isForSale
    condition
    defects
    description
    brand
    type
    size
    color
    material
    model
  }
}`

// Client fetches listings by the item id embedded in product URLs.
type Client struct {
	httpClient *http.Client
	graphqlURL string
	algoliaURL string
}

// NewClient creates a Sellpy client. Empty URLs fall back to production
// endpoints; a zero timeout falls back to 10s.
func NewClient(graphqlURL, algoliaURL string, timeout time.Duration) *Client {
	if graphqlURL == "" {
		graphqlURL = DefaultGraphQLURL
	}
	if algoliaURL == "" {
		algoliaURL = DefaultAlgoliaURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		graphqlURL: graphqlURL,
		algoliaURL: strings.TrimRight(algoliaURL, "/"),
	}
}

// Extract satisfies domain.Extractor; html is ignored, the backend APIs are
// the source of truth for these listings.
func (c *Client) Extract(ctx context.Context, _ string, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "begagnad"}

	m := sellpyItemIDRegex.FindStringSubmatch(url)
	if m == nil {
		res.Error = domain.ErrNoProductID.Error()
		return res
	}
	itemID := m[1]

	if item, err := c.fetchGraphQL(ctx, itemID); err == nil && item != nil {
		c.fillFromGraphQL(&res, item)
		if res.PriceValue != nil {
			res.PriceResolved = true
			return res
		}
	}

	hit, err := c.fetchAlgolia(ctx, itemID)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	c.fillFromAlgolia(&res, hit)
	res.PriceResolved = true
	return res
}

func (c *Client) fetchGraphQL(ctx context.Context, itemID string) (map[string]interface{}, error) {
	payload := map[string]interface{}{
		"operationName": "buyerPDPQuery",
		"query":         buyerPDPQuery,
		"variables":     map[string]string{"itemId": itemID, "locale": "sv"},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Origin", "https://www.sellpy.se")
	req.Header.Set("Referer", "https://www.sellpy.se/")
	req.Header.Set("x-parse-application-id", parseApplicationID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVendorAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: graphql status %d", domain.ErrVendorAPI, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrVendorAPI, err)
	}

	var envelope struct {
		Data struct {
			Item map[string]interface{} `json:"item"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVendorAPI, err)
	}
	return envelope.Data.Item, nil
}

func (c *Client) fillFromGraphQL(res *domain.ScrapeResult, item map[string]interface{}) {
	meta, _ := item["localizedMetadata"].(map[string]interface{})
	if meta == nil {
		meta, _ = item["metadata"].(map[string]interface{})
	}

	brand := metaOrItem(meta, item, "brand")
	itemType := metaOrItem(meta, item, "type")
	model := metaOrItem(meta, item, "model")
	size := metaOrItem(meta, item, "size")
	condition := metaOrItem(meta, item, "condition")

	// Concise structured description: only the factors that move a
	// secondhand valuation.
	var b strings.Builder
	b.WriteString(strings.TrimSpace(strings.Join(nonEmpty(brand, itemType, model), " ")))
	b.WriteString(".")
	if size != "" {
		fmt.Fprintf(&b, " Storlek: %s.", size)
	}
	if condition != "" {
		fmt.Fprintf(&b, " Skick: %s.", condition)
		res.Condition = strings.ToLower(condition)
	}
	if defects := stringList(item["defects"]); len(defects) > 0 {
		fmt.Fprintf(&b, " Defekter: %s.", strings.Join(defects, ", "))
	}
	if material := stringList(metaOrItemAny(meta, item, "material")); len(material) > 0 {
		fmt.Fprintf(&b, " Material: %s.", strings.Join(material, ", "))
	}
	if desc := strings.TrimSpace(b.String()); desc != "." {
		res.Description = &desc
	}

	title, _ := item["headline"].(string)
	if title == "" {
		title = strings.TrimSpace(strings.Join(nonEmpty(brand, itemType, model), " "))
	}
	if title != "" {
		res.PageTitle = &title
	}
	if brand != "" {
		res.Brand = &brand
	}

	if pricing, ok := item["pricing"].(map[string]interface{}); ok {
		if amount, ok := pricing["amount"].(float64); ok && amount > 0 {
			currency, _ := pricing["currency"].(string)
			if currency == "" {
				currency = "SEK"
			}
			res.PriceValue = domain.Num(amount)
			res.PriceRaw = domain.Str(fmt.Sprintf("%.0f %s", amount, currency))
			res.PriceContext = domain.Str("(från Sellpy API)")
			res.PriceConfidence = domain.Num(0.95)
		}
	}

	if images, ok := item["images"].([]interface{}); ok && len(images) > 0 {
		if img, ok := images[0].(map[string]interface{}); ok {
			if v, ok := img["value"].(string); ok && v != "" {
				res.ImageURL = &v
			}
		}
	}
}

type algoliaHit struct {
	ObjectID string `json:"objectID"`
	Metadata struct {
		Brand     string   `json:"brand"`
		Type      string   `json:"type"`
		Size      string   `json:"size"`
		Condition string   `json:"condition"`
		Color     []string `json:"color"`
		Material  []string `json:"material"`
		Defects   []struct {
			Type string `json:"type"`
		} `json:"defects"`
		Measurement struct {
			WidthInCm  float64 `json:"widthInCm"`
			HeightInCm float64 `json:"heightInCm"`
		} `json:"measurement"`
	} `json:"metadata"`
	Images   []string `json:"images"`
	Sizes    []string `json:"sizes"`
	Keywords []string `json:"keywords"`
	Pricing  struct {
		Amount   float64 `json:"amount"`
		Currency string  `json:"currency"`
	} `json:"pricing"`
	// price_SE carries the amount in öre, unlike pricing.
	PriceSE struct {
		Amount float64 `json:"amount"`
	} `json:"price_SE"`
}

func (c *Client) fetchAlgolia(ctx context.Context, itemID string) (*algoliaHit, error) {
	reqURL := fmt.Sprintf("%s/1/indexes/%s/query", c.algoliaURL, algoliaIndex)
	body, _ := json.Marshal(map[string]interface{}{
		"query":       "",
		"filters":     fmt.Sprintf("objectID:%q", itemID),
		"hitsPerPage": 1,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-algolia-application-id", algoliaApplicationID)
	req.Header.Set("x-algolia-api-key", algoliaAPIKey)
	req.Header.Set("Origin", "https://sellpy.se")
	req.Header.Set("Referer", "https://sellpy.se/")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVendorAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: algolia status %d", domain.ErrVendorAPI, resp.StatusCode)
	}

	var search struct {
		Hits []algoliaHit `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVendorAPI, err)
	}
	if len(search.Hits) == 0 {
		return nil, fmt.Errorf("%w: product not found", domain.ErrVendorAPI)
	}
	return &search.Hits[0], nil
}

func (c *Client) fillFromAlgolia(res *domain.ScrapeResult, hit *algoliaHit) {
	meta := hit.Metadata

	var titleParts []string
	if meta.Brand != "" {
		titleParts = append(titleParts, meta.Brand)
	}
	if meta.Type != "" {
		titleParts = append(titleParts, meta.Type)
	}
	if meta.Size != "" {
		titleParts = append(titleParts, "Storlek "+meta.Size)
	}
	if len(meta.Color) > 0 {
		titleParts = append(titleParts, strings.Join(meta.Color, ", "))
	}
	if len(titleParts) > 0 {
		res.PageTitle = domain.Str(strings.Join(titleParts, " - "))
	}
	if meta.Brand != "" {
		res.Brand = &meta.Brand
	}

	amount := hit.Pricing.Amount
	currency := hit.Pricing.Currency
	if amount == 0 && hit.PriceSE.Amount > 0 {
		amount = hit.PriceSE.Amount / 100
		currency = "SEK"
	}
	if amount > 0 {
		if currency == "" {
			currency = "SEK"
		}
		res.PriceValue = domain.Num(amount)
		res.PriceRaw = domain.Str(fmt.Sprintf("%.0f %s", amount, currency))
		res.PriceContext = domain.Str("(från Sellpy Algolia-index)")
		res.PriceConfidence = domain.Num(0.9)
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(strings.Join(nonEmpty(meta.Brand, meta.Type), " ")))
	b.WriteString(".")
	if meta.Condition != "" {
		fmt.Fprintf(&b, " Skick: %s.", meta.Condition)
		res.Condition = strings.ToLower(meta.Condition)
	}
	switch {
	case meta.Size != "":
		fmt.Fprintf(&b, " Storlek: %s.", meta.Size)
	case len(hit.Sizes) > 0 && hit.Sizes[0] != "NO SIZE":
		fmt.Fprintf(&b, " Storlek: %s.", hit.Sizes[0])
	}
	if len(meta.Defects) > 0 {
		var defects []string
		for _, d := range meta.Defects {
			defects = append(defects, d.Type)
		}
		fmt.Fprintf(&b, " Defekter: %s.", strings.Join(defects, ", "))
	}
	if len(meta.Color) > 0 {
		fmt.Fprintf(&b, " Färg: %s.", strings.Join(meta.Color, ", "))
	}
	if meta.Measurement.WidthInCm > 0 && meta.Measurement.HeightInCm > 0 {
		fmt.Fprintf(&b, " Mått: %gx%gcm.", meta.Measurement.WidthInCm, meta.Measurement.HeightInCm)
	}
	if len(meta.Material) > 0 {
		fmt.Fprintf(&b, " Material: %s.", strings.Join(meta.Material, ", "))
	}
	if details := qualityDetails(hit.Keywords); len(details) > 0 {
		fmt.Fprintf(&b, " Detaljer: %s.", strings.Join(details, ", "))
	}
	if desc := strings.TrimSpace(b.String()); desc != "." {
		res.Description = &desc
	}

	if len(hit.Images) > 0 && hit.Images[0] != "" {
		res.ImageURL = &hit.Images[0]
	}
}

// qualityDetails keeps at most three keywords that signal build quality or
// provenance.
func qualityDetails(keywords []string) []string {
	var details []string
	for _, k := range keywords {
		for _, q := range qualityKeywords {
			if strings.Contains(k, q) {
				details = append(details, k)
				break
			}
		}
		if len(details) == 3 {
			break
		}
	}
	return details
}

func metaOrItem(meta, item map[string]interface{}, key string) string {
	if s, ok := metaOrItemAny(meta, item, key).(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func metaOrItemAny(meta, item map[string]interface{}, key string) interface{} {
	if meta != nil {
		if v, ok := meta[key]; ok && v != nil {
			return v
		}
	}
	return item[key]
}

func stringList(v interface{}) []string {
	var out []string
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			switch e := item.(type) {
			case string:
				if e != "" {
					out = append(out, e)
				}
			case map[string]interface{}:
				if s, ok := e["type"].(string); ok && s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
