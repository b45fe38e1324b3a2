package usecase

import (
	"fmt"

	"github.com/prixy/backend/internal/domain"
)

// Placeholder values for the canned unavailable record. Everything the
// analysis stage touches is populated, so it needs no special-casing for
// failed extractions.
const (
	degradedTitle       = "Kunde inte hämta produkt"
	degradedPriceRaw    = "Ej tillgängligt"
	degradedDescription = "Produkten kunde inte hämtas. Sidan blockerar automatiserad hämtning eller är otillgänglig."
	degradedCondition   = "okänd"
)

// Degrade guarantees the minimal record shape. A result that carries an
// error, or that never completed its price search, is replaced wholesale by
// the unavailable record; only sourceUrl and the error string survive.
// Healthy results pass through unchanged.
func Degrade(result domain.ScrapeResult) domain.ScrapeResult {
	if result.Error == "" && result.PriceResolved {
		return result
	}
	return unavailableRecord(result.SourceURL, result.Error)
}

// DegradeForFetch produces the unavailable record for a page that could not
// be fetched at all, with the underlying failure embedded in the error.
func DegradeForFetch(url string, err error) domain.ScrapeResult {
	msg := "Kunde inte hämta sidan"
	if err != nil {
		msg = fmt.Sprintf("Kunde inte hämta sidan (%v)", err)
	}
	return unavailableRecord(url, msg)
}

func unavailableRecord(url, errMsg string) domain.ScrapeResult {
	return domain.ScrapeResult{
		SourceURL:     url,
		PageTitle:     domain.Str(degradedTitle),
		PriceRaw:      domain.Str(degradedPriceRaw),
		Description:   domain.Str(degradedDescription),
		Condition:     degradedCondition,
		Error:         errMsg,
		PriceResolved: true,
	}
}
