package domain

// ScrapeResult is the canonical product record every extractor produces.
// Every field except SourceURL is independently optional; extractors must
// never assume another field is populated when computing their own.
type ScrapeResult struct {
	SourceURL        string           `json:"sourceUrl"`
	PageTitle        *string          `json:"pageTitle"`
	OGTitle          *string          `json:"ogTitle"`
	PriceRaw         *string          `json:"priceRaw"`
	PriceValue       *float64         `json:"priceValue"`
	PriceContext     *string          `json:"priceContext"`
	PriceConfidence  *float64         `json:"priceConfidence"`
	PreviousPrice    *float64         `json:"previousPrice"`
	CampaignInfo     *string          `json:"campaignInfo"`
	Condition        string           `json:"condition,omitempty"`
	Brand            *string          `json:"brand,omitempty"`
	Description      *string          `json:"description"`
	DescriptionShort *string          `json:"description_short"`
	ComparableMedian *float64         `json:"comparable_median"`
	ImageURL         *string          `json:"imageUrl"`
	AltCandidates    []PriceCandidate `json:"altCandidates,omitempty"`
	Error            string           `json:"error,omitempty"`

	// PriceResolved records that the extractor actually completed its price
	// search, even when the outcome was "no price found" (nil PriceValue).
	// A result with PriceResolved false never went through a full extraction
	// pass and is treated as a failure by the fallback layer.
	PriceResolved bool `json:"-"`
}

// PriceCandidate is one numeric-plus-currency occurrence found in page text,
// scored by surrounding keyword context. Candidates live only for the
// duration of a single extraction call; the full list is kept on
// ScrapeResult.AltCandidates for auditing and stripped before the oracle.
type PriceCandidate struct {
	Raw     string  `json:"raw"`
	Value   float64 `json:"value"`
	Index   int     `json:"-"`
	Context string  `json:"context"`
	Score   float64 `json:"score"`
}

// Str returns a pointer to s, for populating optional record fields.
func Str(s string) *string { return &s }

// Num returns a pointer to f, for populating optional record fields.
func Num(f float64) *float64 { return &f }

// StrOrNil returns nil for the empty string, a pointer otherwise.
func StrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
