package domain

// Verdict values produced by the oracle and the override rules.
const (
	VerdictKap      = "kap"
	VerdictRimligt  = "rimligt"
	VerdictOverpris = "överpris"
	VerdictOklart   = "oklart"
)

// ProductAnalysis is the oracle's fair-price judgment. It may be mutated by
// the deterministic override rules before it reaches the caller.
type ProductAnalysis struct {
	Verdict            string  `json:"verdict"`
	Confidence         float64 `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
	EstimatedFairPrice string  `json:"estimatedFairPrice,omitempty"`
	PriceCategory      string  `json:"priceCategory"`
}

// ProductData is the input handed to the oracle: the canonical record
// flattened into the fields the prompt embeds.
type ProductData struct {
	Title         string
	Price         string
	Description   string
	Condition     string
	Brand         string
	OriginalPrice string
}

// AnalyzedProduct is the canonical record merged with the oracle verdict
// and the deterministic fake-sale assessment. AIAnalysis is nil when no
// oracle credential is configured.
type AnalyzedProduct struct {
	ScrapeResult
	AIAnalysis             *ProductAnalysis `json:"aiAnalysis"`
	ResolvedPreviousPrice  *float64         `json:"previousPrice"`
	FakeSaleFlag           bool             `json:"fakeSaleFlag,omitempty"`
	FakeSaleWarning        string           `json:"fakeSaleWarning,omitempty"`
	IsNewUnreleasedProduct bool             `json:"isNewUnreleasedProduct,omitempty"`
}

// EvaluateRequest carries partial product data for the heuristic,
// oracle-free verdict endpoint.
type EvaluateRequest struct {
	Title            *string  `json:"title"`
	Description      *string  `json:"description"`
	PriceValue       *float64 `json:"priceValue"`
	PriceConfidence  *float64 `json:"priceConfidence"`
	ComparableMedian *float64 `json:"comparable_median"`
	URL              *string  `json:"url"`
	ImageURL         *string  `json:"imageUrl"`
}

// EvaluateResult is the heuristic verdict for partial data.
type EvaluateResult struct {
	Verdict     string   `json:"verdict"`
	Confidence  float64  `json:"confidence"`
	Explanation string   `json:"explanation"`
	Source      *string  `json:"source"`
	PriceValue  *float64 `json:"priceValue"`
	Title       *string  `json:"title"`
	ImageURL    *string  `json:"imageUrl"`
}
