// Package oracle asks an external LLM for a fair-price verdict. Transport
// and parse failures never propagate; callers always get a usable analysis.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/prixy/backend/internal/domain"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-haiku-20241022"

	apiVersion = "2023-06-01"
	maxTokens  = 500
)

var (
	jsonBlockRegex = regexp.MustCompile(`(?s)\{.*\}`)
	newishRegex    = regexp.MustCompile(`(?i)ny|o?anv[aä]nd|o?öppnad|mint`)
)

// Client talks to the messages API of an Anthropic-compatible endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
}

// NewClient creates an oracle client. An empty apiKey yields an
// unconfigured client; Analyze then fails fast with ErrOracleUnconfigured.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

// Configured reports whether an API credential is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Analyze satisfies domain.OracleClient. Any failure after the credential
// check returns the safe default verdict instead of an error.
func (c *Client) Analyze(ctx context.Context, product domain.ProductData) (*domain.ProductAnalysis, error) {
	if !c.Configured() {
		return nil, domain.ErrOracleUnconfigured
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}

	text, err := c.complete(ctx, buildPrompt(product))
	if err != nil {
		log.Printf("[ORACLE] request failed: %v", err)
		return safeDefault(), nil
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		log.Printf("[ORACLE] unparseable response: %v", err)
		return safeDefault(), nil
	}
	return analysis, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"model":      c.model,
		"max_tokens": maxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading body: %v", domain.ErrOracleFailure, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrOracleFailure, resp.StatusCode)
	}

	var envelope struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrOracleFailure, err)
	}
	for _, block := range envelope.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("%w: no text content in response", domain.ErrOracleFailure)
}

// parseAnalysis pulls the first JSON object out of the model's reply. The
// model is asked for bare JSON but often wraps it in prose.
func parseAnalysis(text string) (*domain.ProductAnalysis, error) {
	block := jsonBlockRegex.FindString(text)
	if block == "" {
		return nil, fmt.Errorf("no JSON object in reply")
	}
	var analysis domain.ProductAnalysis
	if err := json.Unmarshal([]byte(block), &analysis); err != nil {
		return nil, err
	}
	if analysis.Verdict == "" {
		analysis.Verdict = domain.VerdictOklart
	}
	if analysis.PriceCategory == "" {
		analysis.PriceCategory = "normalt"
	}
	return &analysis, nil
}

func safeDefault() *domain.ProductAnalysis {
	return &domain.ProductAnalysis{
		Verdict:       domain.VerdictOklart,
		Confidence:    0,
		Reasoning:     "Kunde inte analysera produkten på grund av tekniskt fel",
		PriceCategory: "normalt",
	}
}

func buildPrompt(data domain.ProductData) string {
	productType := "begagnad"
	if data.Condition != "" && newishRegex.MatchString(data.Condition) {
		productType = "ny"
	}

	var b strings.Builder
	b.WriteString(`Du är Prixy, en AI som gör prisbedömningar med fokus på marknadsvärde, produktkategori, skick, modellår, generationer, specifikationer och historiska priser.

===== STEG 1 - FASTSTÄLL PRODUKTENS MARKNADSVÄRDE =====
Analysera:
- Produktkategori (t.ex. TV, samlarkort, verktyg, kläder, retrospel)
- Skick (ny, som ny, begagnad i bra skick, slitet, defekt)
- Modellår (t.ex. 2023, 2024, 2025)
- Modellserie-historik (t.ex. LG OLED C1 -> C2 -> C3 -> C4 -> C5)
- Nuvarande marknadspris för jämförbara produkter
- Tidigare generationers verkliga prisfall
- Data från beskrivning + produktnamn

Beräkna ett "realistiskt marknadsvärde"-intervall (rimligt prisintervall).

===== STEG 2 - HANTERA FEJKADE REOR SÄRSKILT FÖR NYA PRODUKTER =====
Regler för bluff-reor:
1. Om produktens modellår är 2024 eller 2025 OCH "tidigare pris" endast kommer från butiken, anta att det är rekommenderat introduktionspris, inte verkligt marknadspris.
2. Om tidigare pris är mer än 40% över ditt beräknade marknadsvärde, markera "Fejkad rea".
3. Om produkten är helt ny modell (t.ex. C5 2025, QN90D 2024):
   - använd föregående modells marknadspris som referens.
   - ignorera butikers listpris helt.
4. Om "tidigare pris" är exakt samma hos flera butiker är det listpris, behandla som potentiellt falskt.

===== STEG 3 - BESTÄM PRISKATEGORI =====
Bedömningen ska ENDAST baseras på:
- Ditt marknadsvärdesintervall
- Produktens skick
- Jämförelse mot angivet pris

Regler:
- Kap: Om priset ligger minst 25% under ditt rimliga intervall.
- Rimligt: Om priset ligger inom ditt intervall (plus/minus 10%).
- Överpris: Om priset ligger mer än 15% över ditt intervall.
- Fejkad rea: Om tidigare pris är bluff enligt steg 2, även om nupriset är rimligt.

===== STEG 4 - SKAPA SLUTRAPPORT =====
Svara i strukturen:
{
  "verdict": "kap|rimligt|överpris|fejkad rea|oklart",
  "confidence": 0.85,
  "reasoning": "Kort förklaring på svenska varför",
  "estimatedFairPrice": "18000-20000kr",
  "priceCategory": "billigt|normalt|dyrt"
}

Produktdata:
`)
	fmt.Fprintf(&b, "TITEL: %s\n", data.Title)
	fmt.Fprintf(&b, "PRIS: %s\n", data.Price)
	if data.Description != "" {
		fmt.Fprintf(&b, "BESKRIVNING: %s\n", data.Description)
	}
	if data.Condition != "" {
		fmt.Fprintf(&b, "SKICK: %s\n", data.Condition)
	}
	if data.Brand != "" {
		fmt.Fprintf(&b, "MÄRKE: %s\n", data.Brand)
	}
	if data.OriginalPrice != "" {
		fmt.Fprintf(&b, "TIDIGARE PRIS: %s\n", data.OriginalPrice)
	}
	fmt.Fprintf(&b, "\nProdukten är troligen: %s.\n", productType)
	b.WriteString("\nUndvik att överdriva. Var exakt och marknadsbaserad.\n")
	return b.String()
}
