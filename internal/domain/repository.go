package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for the optional short-lived cache.
// Correctness must never depend on cache hits; the no-op implementation is
// a valid production choice.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PageFetcher retrieves raw product-page HTML. A non-2xx upstream status is
// reported as an error wrapping ErrPageFetch, never as a panic.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor converts a fetched page (or, for API-backed sources, the URL
// alone) into a canonical record. Extractors represent absent data as nil
// fields and reserve the Error field for truly failed extractions.
type Extractor interface {
	Extract(ctx context.Context, html string, url string) ScrapeResult
}

// OracleClient is the external LLM collaborator providing a fair-price
// verdict. Implementations must absorb transport and parse failures and
// return a safe default analysis instead of propagating them.
type OracleClient interface {
	Analyze(ctx context.Context, product ProductData) (*ProductAnalysis, error)
	Configured() bool
}
