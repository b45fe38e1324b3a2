// Package powerapi reads product data from the Power retail API instead of
// scraping HTML. The API reports prices in whole kronor.
package powerapi

import (
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

const DefaultBaseURL = "https://www.power.se"

// Client fetches products by the numeric id embedded in product URLs.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a Power API client. A zero timeout falls back to 10s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

var (
	powerProductIDRegex = regexp.MustCompile(`/p-(\d+)/`)
	lowestPriceRegex    = regexp.MustCompile(`(?i)tidigare\s*l[äa]gsta\s*pris[^\d]{0,20}(\d{2,6})`)
	campaignPeriodRegex = regexp.MustCompile(`(?i)kampanj(?:en)?\s*g[äa]ller[^\d]{0,20}([\d/-]+\s*-\s*[\d/-]+)`)
)

// Fields the API has been seen using for the pre-campaign price, in
// preference order.
var previousPriceFields = []string{
	"previousPrice", "oldPrice", "originalPrice", "recommendedPrice",
	"beforePrice", "priceBefore", "pricePrevious",
}

type product struct {
	Title               string  `json:"title"`
	ProductName         string  `json:"productName"`
	Price               float64 `json:"price"`
	SalesArguments      string  `json:"salesArguments"`
	ProductDescription  string  `json:"productDescription"`
	LongDescription     string  `json:"longDescription"`
	MarketingText       string  `json:"marketingText"`
	AdditionalInfo      string  `json:"additionalInfo"`

	ProductImage struct {
		BasePath string `json:"basePath"`
		Variants []struct {
			Filename string `json:"filename"`
		} `json:"variants"`
		BaseImages []struct {
			Filename string `json:"filename"`
		} `json:"baseImages"`
	} `json:"productImage"`
}

// Extract satisfies domain.Extractor. The html argument is unused; the
// vendor API is the page.
func (c *Client) Extract(ctx context.Context, _ string, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url, Condition: "ny"}

	m := powerProductIDRegex.FindStringSubmatch(url)
	if m == nil {
		res.Error = domain.ErrNoProductID.Error()
		return res
	}

	raw, err := c.fetchProduct(ctx, m[1])
	if err != nil {
		res.Error = err.Error()
		return res
	}

	var p product
	if err := json.Unmarshal(raw, &p); err != nil {
		res.Error = fmt.Sprintf("%v: %v", domain.ErrVendorAPI, err)
		return res
	}
	var generic map[string]interface{}
	_ = json.Unmarshal(raw, &generic)

	title := p.Title
	if title == "" {
		title = p.ProductName
	}
	if title != "" {
		res.PageTitle = &title
		res.OGTitle = &title
	}

	if p.Price > 0 {
		res.PriceValue = domain.Num(p.Price)
		res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", p.Price))
		res.PriceContext = domain.Str("(från Power.se API)")
		res.PriceConfidence = domain.Num(1.0)
	}

	for _, field := range previousPriceFields {
		if v, ok := generic[field].(float64); ok && v > 0 {
			res.PreviousPrice = domain.Num(v)
			break
		}
	}

	description := buildDescription(p)
	if description != "" {
		res.Description = &description
		firstLine := strings.TrimSpace(strings.SplitN(description, "\n", 2)[0])
		if firstLine != "" {
			res.DescriptionShort = &firstLine
		}
	}

	if img := c.imageURL(p); img != "" {
		res.ImageURL = &img
	}

	res.PriceResolved = true
	return res
}

func (c *Client) fetchProduct(ctx context.Context, productID string) (json.RawMessage, error) {
	reqURL := fmt.Sprintf("%s/api/v2/products?ids=%s&allowWebStatus8=true", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "sv-SE,sv;q=0.9")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVendorAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrVendorAPI, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", domain.ErrVendorAPI, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVendorAPI, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no product data in response", domain.ErrVendorAPI)
	}
	return items[0], nil
}

// buildDescription assembles the sales pitch plus any campaign-price
// disclosures mined from the marketing text fields.
func buildDescription(p product) string {
	var extra []string
	for _, field := range []string{
		p.SalesArguments, p.ProductDescription, p.LongDescription, p.MarketingText, p.AdditionalInfo,
	} {
		if field == "" {
			continue
		}
		if m := lowestPriceRegex.FindStringSubmatch(field); m != nil {
			extra = append(extra, fmt.Sprintf("Tidigare lägsta pris: %s kr", m[1]))
		}
		if m := campaignPeriodRegex.FindStringSubmatch(field); m != nil {
			extra = append(extra, "Kampanjperiod: "+strings.TrimSpace(m[1]))
		}
	}

	description := strings.TrimSpace(p.SalesArguments)
	if description == "" {
		description = strings.TrimSpace(p.ProductDescription)
	}
	if len(extra) > 0 {
		if description != "" {
			description += "\n"
		}
		description += strings.Join(extra, " | ")
	}
	return description
}

func (c *Client) imageURL(p product) string {
	base := p.ProductImage.BasePath
	if base == "" {
		return ""
	}
	if len(p.ProductImage.Variants) > 0 && p.ProductImage.Variants[0].Filename != "" {
		return fmt.Sprintf("https://media.power-cdn.net%s/%s", base, p.ProductImage.Variants[0].Filename)
	}
	if len(p.ProductImage.BaseImages) > 0 && p.ProductImage.BaseImages[0].Filename != "" {
		return fmt.Sprintf("https://media.power-cdn.net%s/%s", base, p.ProductImage.BaseImages[0].Filename)
	}
	return ""
}
