package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/extract"
	"github.com/prixy/backend/internal/infrastructure/cache"
)

// Secondhand marketplaces never carry manufacturer list prices, so the
// previous-price mining step is skipped for them.
var secondhandHosts = []string{"tradera.com", "blocket.se", "sellpy.se", "vinted.se"}

// prevPriceMineRegex finds a labeled previous/recommended price in free
// text, as backup when no extractor populated the field.
var prevPriceMineRegex = regexp.MustCompile(
	`(?i)(?:ord\.?pris|tidigare|was|previous|före|förr|rek\.?pris|rekommenderat pris)[^\d]{0,30}(\d[\d\s,.]+)`)

var digitsOnlyRegex = regexp.MustCompile(`[^\d]`)

// AnalysisServiceConfig holds configuration for the analysis service
type AnalysisServiceConfig struct {
	CacheTTL time.Duration
}

// AnalysisService runs the full pipeline: fetch the page, pick an
// extractor, degrade failed extractions, then attach the oracle verdict and
// deterministic overrides.
type AnalysisService struct {
	fetcher  domain.PageFetcher
	router   *extract.Router
	oracle   domain.OracleClient
	cache    domain.CacheRepository
	cacheTTL time.Duration
}

// NewAnalysisService creates an analysis service with dependencies
func NewAnalysisService(
	fetcher domain.PageFetcher,
	router *extract.Router,
	oracle domain.OracleClient,
	cacheRepo domain.CacheRepository,
	config AnalysisServiceConfig,
) *AnalysisService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}
	return &AnalysisService{
		fetcher:  fetcher,
		router:   router,
		oracle:   oracle,
		cache:    cacheRepo,
		cacheTTL: cacheTTL,
	}
}

// Analyze produces the analyzed product record for a product URL.
// Flow: validate -> check cache -> fetch -> extract -> fallback -> oracle ->
// overrides -> cache -> return. Degraded results are normal return values,
// not errors.
func (s *AnalysisService) Analyze(ctx context.Context, rawURL string) (*domain.AnalyzedProduct, error) {
	if !validProductURL(rawURL) {
		return nil, domain.ErrInvalidRequest
	}

	cacheKey := cache.Key(rawURL)
	if cached := s.getFromCache(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	route := s.router.Resolve(rawURL)

	var html string
	if route.NeedsPage {
		fetched, err := s.fetcher.Fetch(ctx, rawURL)
		if err != nil {
			log.Printf("[ANALYZE] page fetch failed for %s: %v", rawURL, err)
			analyzed := &domain.AnalyzedProduct{ScrapeResult: DegradeForFetch(rawURL, err)}
			return analyzed, nil
		}
		html = fetched
	}

	scraped := Degrade(s.safeExtract(ctx, route.Extractor, html, rawURL))

	analyzed := s.addAnalysis(ctx, rawURL, scraped)

	if err := s.cache.Set(ctx, cacheKey, analyzed, s.cacheTTL); err != nil {
		log.Printf("[ANALYZE] cache set failed: %v", err)
	}
	return analyzed, nil
}

// safeExtract converts extractor panics into an error-carrying record, so
// one malformed page cannot take down the request.
func (s *AnalysisService) safeExtract(
	ctx context.Context,
	extractor domain.Extractor,
	html, rawURL string,
) (result domain.ScrapeResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ANALYZE] extractor panic for %s: %v", rawURL, r)
			result = domain.ScrapeResult{
				SourceURL: rawURL,
				Error:     fmt.Sprintf("extractor failure: %v", r),
			}
		}
	}()
	return extractor.Extract(ctx, html, rawURL)
}

// addAnalysis resolves the previous price, consults the oracle when one is
// configured, and applies the deterministic override rules.
func (s *AnalysisService) addAnalysis(ctx context.Context, rawURL string, scraped domain.ScrapeResult) *domain.AnalyzedProduct {
	analyzed := &domain.AnalyzedProduct{
		ScrapeResult:          scraped,
		ResolvedPreviousPrice: resolvePreviousPrice(rawURL, scraped),
	}

	if s.oracle == nil || !s.oracle.Configured() {
		log.Printf("[ANALYZE] no oracle credential configured, skipping analysis")
		return analyzed
	}

	analysis, err := s.oracle.Analyze(ctx, buildProductData(analyzed))
	if err != nil {
		if !errors.Is(err, domain.ErrOracleUnconfigured) {
			log.Printf("[ANALYZE] oracle error: %v", err)
		}
		return analyzed
	}

	analyzed.AIAnalysis = analysis
	ApplyOverrides(analyzed)
	return analyzed
}

// resolvePreviousPrice prefers the extractor's previous price and otherwise
// mines the description, except on secondhand marketplaces.
func resolvePreviousPrice(rawURL string, scraped domain.ScrapeResult) *float64 {
	if scraped.PreviousPrice != nil {
		return scraped.PreviousPrice
	}
	if isSecondhandSite(rawURL) || scraped.Description == nil {
		return nil
	}

	m := prevPriceMineRegex.FindStringSubmatch(*scraped.Description)
	if m == nil {
		return nil
	}
	cleaned := digitsOnlyRegex.ReplaceAllString(m[1], "")
	var value float64
	if _, err := fmt.Sscanf(cleaned, "%f", &value); err != nil || value <= 0 {
		return nil
	}
	return &value
}

func buildProductData(analyzed *domain.AnalyzedProduct) domain.ProductData {
	data := domain.ProductData{
		Title:     "Okänd produkt",
		Price:     "0",
		Condition: analyzed.Condition,
	}
	if analyzed.PageTitle != nil && *analyzed.PageTitle != "" {
		data.Title = *analyzed.PageTitle
	}
	switch {
	case analyzed.PriceRaw != nil && *analyzed.PriceRaw != "":
		data.Price = *analyzed.PriceRaw
	case analyzed.PriceValue != nil:
		data.Price = fmt.Sprintf("%.0f", *analyzed.PriceValue)
	}
	if analyzed.Description != nil {
		data.Description = *analyzed.Description
	}
	if analyzed.Brand != nil {
		data.Brand = *analyzed.Brand
	}
	if analyzed.ResolvedPreviousPrice != nil {
		data.OriginalPrice = fmt.Sprintf("%.0f kr", *analyzed.ResolvedPreviousPrice)
	}
	return data
}

func isSecondhandSite(rawURL string) bool {
	for _, host := range secondhandHosts {
		if strings.Contains(rawURL, host) {
			return true
		}
	}
	return false
}

func validProductURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// getFromCache returns a previously analyzed product, or nil on any miss or
// decode problem.
func (s *AnalysisService) getFromCache(ctx context.Context, key string) *domain.AnalyzedProduct {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}

	// Cached values come back as generic JSON structures
	raw, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	var analyzed domain.AnalyzedProduct
	if err := json.Unmarshal(raw, &analyzed); err != nil {
		return nil
	}
	if analyzed.SourceURL == "" {
		return nil
	}
	return &analyzed
}
