package webhallenapi

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherFunc func(ctx context.Context, url string) (string, error)

func (f fetcherFunc) Fetch(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

func newMockedClient(t *testing.T, fetcher fetcherFunc) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	c := NewClient(5*time.Second, fetcher)
	c.httpClient.Transport = transport
	return c, transport
}

func TestExtractFromAPI(t *testing.T) {
	c, transport := newMockedClient(t, nil)
	transport.RegisterResponder("GET", "https://www.webhallen.com/api/product/362621",
		httpmock.NewStringResponder(200, `{
			"product": {
				"name": "ASUS ROG Strix G16",
				"price": {"price": "149000", "type": "campaign", "endAt": "2024-06-30T21:59:59Z"},
				"regularPrice": {"price": "199000"},
				"description": "Gaming-laptop med 16 tums skärm.",
				"images": [{"url": "/images/product/362621.png"}]
			}
		}`))

	res := c.Extract(context.Background(), "", "https://www.webhallen.com/se/product/362621-asus-rog-strix-g16")

	assert.Empty(t, res.Error)
	require.NotNil(t, res.PriceValue)
	assert.Equal(t, 1490.0, *res.PriceValue)
	require.NotNil(t, res.PreviousPrice)
	assert.Equal(t, 1990.0, *res.PreviousPrice)
	require.NotNil(t, res.PriceConfidence)
	assert.Equal(t, 0.95, *res.PriceConfidence)
	assert.Equal(t, "ny", res.Condition)
	require.NotNil(t, res.PageTitle)
	assert.Equal(t, "ASUS ROG Strix G16", *res.PageTitle)
	require.NotNil(t, res.CampaignInfo)
	assert.Contains(t, *res.CampaignInfo, "Ordinarie pris: 1990 kr")
	assert.Contains(t, *res.CampaignInfo, "spara 500 kr")
	assert.Contains(t, *res.CampaignInfo, "kampanjen slutar 2024-06-30")
	require.NotNil(t, res.Description)
	assert.Equal(t, "Gaming-laptop med 16 tums skärm.", *res.Description)
	require.NotNil(t, res.ImageURL)
	assert.Equal(t, "https://www.webhallen.com/images/product/362621.png", *res.ImageURL)
}

func TestExtractRegularPriceOnly(t *testing.T) {
	c, transport := newMockedClient(t, nil)
	transport.RegisterResponder("GET", "https://www.webhallen.com/api/product/1000",
		httpmock.NewStringResponder(200, `{
			"product": {
				"name": "Logitech MX Master 3S",
				"regularPrice": {"price": 99900}
			}
		}`))

	res := c.Extract(context.Background(), "", "https://www.webhallen.com/se/product/1000-logitech-mx-master")

	require.NotNil(t, res.PriceValue)
	assert.Equal(t, 999.0, *res.PriceValue)
	assert.Nil(t, res.PreviousPrice)
	assert.Nil(t, res.CampaignInfo)
}

func TestExtractEndpointFallback(t *testing.T) {
	c, transport := newMockedClient(t, nil)
	transport.RegisterResponder("GET", "https://www.webhallen.com/api/product/55",
		httpmock.NewStringResponder(503, "maintenance"))
	transport.RegisterResponder("GET", "https://api.webhallen.com/product/55",
		httpmock.NewStringResponder(200, `{
			"product": {"name": "Kingston Fury 32GB", "price": {"price": 129000}}
		}`))

	res := c.Extract(context.Background(), "", "https://www.webhallen.com/se/product/55-kingston-fury")

	assert.Empty(t, res.Error)
	require.NotNil(t, res.PriceValue)
	assert.Equal(t, 1290.0, *res.PriceValue)
}

func TestExtractNoProductID(t *testing.T) {
	c, _ := newMockedClient(t, nil)
	res := c.Extract(context.Background(), "", "https://www.webhallen.com/se/campaign/rea")
	assert.Contains(t, res.Error, "product ID")
	assert.Nil(t, res.PriceValue)
}

func TestExtractAllEndpointsFailNoFetcher(t *testing.T) {
	c, _ := newMockedClient(t, nil)
	res := c.Extract(context.Background(), "", "https://www.webhallen.com/se/product/77-grafikkort")
	assert.Contains(t, res.Error, "all API endpoints failed")
}

func TestExtractHTMLFallbackOutOfStock(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context, url string) (string, error) {
		return `<html><title>Produkt - Webhallen</title><body>Produkten är tyvärr inte tillgänglig längre.</body></html>`, nil
	})
	c, _ := newMockedClient(t, fetcher)

	res := c.Extract(context.Background(), "", "https://www.webhallen.com/se/product/88-utgangen-produkt")

	assert.Empty(t, res.Error)
	require.NotNil(t, res.PageTitle)
	assert.Equal(t, "Produkt ej tillgänglig", *res.PageTitle)
	require.NotNil(t, res.PriceRaw)
	assert.Equal(t, "Ej tillgängligt", *res.PriceRaw)
	assert.Nil(t, res.PriceValue)
	require.NotNil(t, res.PriceConfidence)
	assert.Equal(t, 0.9, *res.PriceConfidence)
}

func TestExtractHTMLFallbackJSONLD(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context, url string) (string, error) {
		return `<html><head>
			<title>Corsair K70 RGB | Webhallen</title>
			<script type="application/ld+json">
			{"@type": "Product", "name": "Corsair K70 RGB", "offers": {"price": "1790"}}
			</script>
		</head><body>Mekaniskt tangentbord.</body></html>`, nil
	})
	c, _ := newMockedClient(t, fetcher)

	res := c.Extract(context.Background(), "", "https://www.webhallen.com/se/product/99-corsair-k70")

	assert.Empty(t, res.Error)
	require.NotNil(t, res.PriceValue)
	assert.Equal(t, 1790.0, *res.PriceValue)
	require.NotNil(t, res.PageTitle)
	assert.Equal(t, "Corsair K70 RGB", *res.PageTitle)
}
