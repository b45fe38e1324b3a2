package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prixy/backend/internal/domain"
)

func newMockedClient(t *testing.T, apiKey string) (*Client, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	c := NewClient("", apiKey, "", 5*time.Second)
	c.httpClient.Transport = transport
	return c, transport
}

func TestAnalyzeUnconfigured(t *testing.T) {
	c, _ := newMockedClient(t, "")
	assert.False(t, c.Configured())

	_, err := c.Analyze(context.Background(), domain.ProductData{Title: "LG OLED C4"})
	assert.True(t, errors.Is(err, domain.ErrOracleUnconfigured))
}

func TestAnalyzeParsesWrappedJSON(t *testing.T) {
	c, transport := newMockedClient(t, "sk-test")
	transport.RegisterResponder("POST", DefaultBaseURL+"/v1/messages",
		httpmock.NewStringResponder(200, `{"content": [{"type": "text", "text":
			"Här är min bedömning:\n{\"verdict\": \"kap\", \"confidence\": 0.9, \"reasoning\": \"Långt under marknadsvärdet\", \"estimatedFairPrice\": \"15000-18000kr\", \"priceCategory\": \"billigt\"}\nHoppas det hjälper."}]}`))

	analysis, err := c.Analyze(context.Background(), domain.ProductData{
		Title: "LG OLED C4 65",
		Price: "11990 kr",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictKap, analysis.Verdict)
	assert.Equal(t, 0.9, analysis.Confidence)
	assert.Equal(t, "15000-18000kr", analysis.EstimatedFairPrice)
	assert.Equal(t, "billigt", analysis.PriceCategory)
}

func TestAnalyzeSafeDefaultOnGarbage(t *testing.T) {
	c, transport := newMockedClient(t, "sk-test")
	transport.RegisterResponder("POST", DefaultBaseURL+"/v1/messages",
		httpmock.NewStringResponder(200, `{"content": [{"type": "text", "text": "Jag kan tyvärr inte bedöma detta."}]}`))

	analysis, err := c.Analyze(context.Background(), domain.ProductData{Title: "Okänd pryl"})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictOklart, analysis.Verdict)
	assert.Equal(t, 0.0, analysis.Confidence)
	assert.Equal(t, "normalt", analysis.PriceCategory)
}

func TestAnalyzeSafeDefaultOnServerError(t *testing.T) {
	c, transport := newMockedClient(t, "sk-test")
	transport.RegisterResponder("POST", DefaultBaseURL+"/v1/messages",
		httpmock.NewStringResponder(529, "overloaded"))

	analysis, err := c.Analyze(context.Background(), domain.ProductData{Title: "Soundbar"})
	require.NoError(t, err)
	assert.Equal(t, domain.VerdictOklart, analysis.Verdict)
}

func TestBuildPromptConditionInference(t *testing.T) {
	tests := []struct {
		name      string
		condition string
		want      string
	}{
		{"explicit new", "ny", "Produkten är troligen: ny."},
		{"unopened", "oöppnad förpackning", "Produkten är troligen: ny."},
		{"empty defaults to used", "", "Produkten är troligen: begagnad."},
		{"worn", "slitet skick", "Produkten är troligen: begagnad."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompt := buildPrompt(domain.ProductData{Title: "X", Price: "100 kr", Condition: tt.condition})
			assert.Contains(t, prompt, tt.want)
		})
	}
}

func TestBuildPromptIncludesFields(t *testing.T) {
	prompt := buildPrompt(domain.ProductData{
		Title:         "Samsung QN90D",
		Price:         "14990 kr",
		Description:   "Neo QLED 4K.",
		Brand:         "Samsung",
		OriginalPrice: "24990 kr",
	})
	assert.Contains(t, prompt, "TITEL: Samsung QN90D")
	assert.Contains(t, prompt, "PRIS: 14990 kr")
	assert.Contains(t, prompt, "BESKRIVNING: Neo QLED 4K.")
	assert.Contains(t, prompt, "MÄRKE: Samsung")
	assert.Contains(t, prompt, "TIDIGARE PRIS: 24990 kr")
}
