package sellpyapi

import (
	"context"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const algoliaQueryURL = DefaultAlgoliaURL + "/1/indexes/" + algoliaIndex + "/query"

func newMockedClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	c := NewClient("", "", 5*time.Second)
	c.httpClient.Transport = transport
	return c, transport
}

func TestExtractViaGraphQL(t *testing.T) {
	c, transport := newMockedClient(t)
	transport.RegisterResponder("POST", DefaultGraphQLURL,
		httpmock.NewStringResponder(200, `{"data": {"item": {
			"objectId": "DRexnxa5FE",
			"headline": "Acne Studios ullkappa",
			"localizedMetadata": {
				"brand": "Acne Studios",
				"type": "Kappa",
				"size": "M",
				"condition": "Mycket bra",
				"material": ["Ull"]
			},
			"defects": [{"type": "Liten fläck", "id": "d1"}],
			"pricing": {"amount": 850, "currency": "SEK"},
			"images": [{"value": "https://images.sellpy.com/DRexnxa5FE.jpg"}]
		}}}`))

	res := c.Extract(context.Background(), "", "https://www.sellpy.se/item/DRexnxa5FE?utm_source=x")

	assert.Empty(t, res.Error)
	require.NotNil(t, res.PriceValue)
	assert.Equal(t, 850.0, *res.PriceValue)
	require.NotNil(t, res.PriceRaw)
	assert.Equal(t, "850 SEK", *res.PriceRaw)
	assert.Equal(t, "mycket bra", res.Condition)
	require.NotNil(t, res.PageTitle)
	assert.Equal(t, "Acne Studios ullkappa", *res.PageTitle)
	require.NotNil(t, res.Brand)
	assert.Equal(t, "Acne Studios", *res.Brand)
	require.NotNil(t, res.Description)
	assert.Equal(t,
		"Acne Studios Kappa. Storlek: M. Skick: Mycket bra. Defekter: Liten fläck. Material: Ull.",
		*res.Description)
	require.NotNil(t, res.ImageURL)
	assert.Equal(t, "https://images.sellpy.com/DRexnxa5FE.jpg", *res.ImageURL)
}

func TestExtractAlgoliaFallback(t *testing.T) {
	c, transport := newMockedClient(t)
	transport.RegisterResponder("POST", DefaultGraphQLURL,
		httpmock.NewStringResponder(502, "bad gateway"))
	transport.RegisterResponder("POST", algoliaQueryURL,
		httpmock.NewStringResponder(200, `{"hits": [{
			"objectID": "abc123",
			"metadata": {
				"brand": "Fjällräven",
				"type": "Ryggsäck",
				"condition": "Bra",
				"color": ["Grön"],
				"measurement": {"widthInCm": 27, "heightInCm": 38}
			},
			"keywords": ["läderdetaljer", "justerbara axelremmar", "vattentät"],
			"images": ["https://images.sellpy.com/abc123.jpg"],
			"price_SE": {"amount": 39500}
		}]}`))

	res := c.Extract(context.Background(), "", "https://www.sellpy.se/item/abc123")

	assert.Empty(t, res.Error)
	require.NotNil(t, res.PriceValue)
	assert.Equal(t, 395.0, *res.PriceValue)
	assert.Equal(t, "bra", res.Condition)
	require.NotNil(t, res.PageTitle)
	assert.Equal(t, "Fjällräven - Ryggsäck - Grön", *res.PageTitle)
	require.NotNil(t, res.Description)
	assert.Contains(t, *res.Description, "Fjällräven Ryggsäck.")
	assert.Contains(t, *res.Description, "Färg: Grön.")
	assert.Contains(t, *res.Description, "Mått: 27x38cm.")
	assert.Contains(t, *res.Description, "Detaljer: läderdetaljer, justerbara axelremmar.")
}

func TestExtractNoItemID(t *testing.T) {
	c, _ := newMockedClient(t)
	res := c.Extract(context.Background(), "", "https://www.sellpy.se/search?query=kappa")
	assert.Contains(t, res.Error, "product ID")
	assert.Nil(t, res.PriceValue)
	assert.Equal(t, "begagnad", res.Condition)
}

func TestExtractNotFound(t *testing.T) {
	c, transport := newMockedClient(t)
	transport.RegisterResponder("POST", DefaultGraphQLURL,
		httpmock.NewStringResponder(500, "error"))
	transport.RegisterResponder("POST", algoliaQueryURL,
		httpmock.NewStringResponder(200, `{"hits": []}`))

	res := c.Extract(context.Background(), "", "https://www.sellpy.se/item/missing1")
	assert.Contains(t, res.Error, "not found")
	assert.Nil(t, res.PriceValue)
}
