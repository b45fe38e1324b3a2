package extract

import (
	"fmt"
	"regexp"

	"github.com/prixy/backend/internal/textutil"
)

var (
	struckPriceRegex = regexp.MustCompile(`(?i)<(?:del|s|span[^>]*class=["'][^"']*strike[^"']*["'])[^>]*>(\d{2,6})[^<]*</(?:del|s|span)>`)
	prevPriceRegex   = regexp.MustCompile(`(?i)Tidigare\s*pris[^\d]{0,10}(\d{2,6})[\s ]*(?:[kK][rR]|:-)?`)
	saveRegex        = regexp.MustCompile(`(?i)SPARA\s*(\d{2,6})`)
)

// campaignSignals mines the retail-chain discount markers out of raw HTML:
// a struck-through old price (when includeStruck), a labeled "Tidigare pris"
// (which wins over the struck one), and a SPARA campaign banner. Returns the
// previous price and a human-readable campaign summary, either may be nil.
func campaignSignals(html string, includeStruck bool) (*float64, *string) {
	var previous *float64
	campaign := ""

	if includeStruck {
		if m := struckPriceRegex.FindStringSubmatch(html); m != nil {
			previous = textutil.ParseLocalizedPrice(m[1])
			campaign = fmt.Sprintf("Tidigare pris: %s kr (överstruket)", m[1])
		}
	}
	if m := prevPriceRegex.FindStringSubmatch(html); m != nil {
		previous = textutil.ParseLocalizedPrice(m[1])
		campaign = fmt.Sprintf("Tidigare pris: %s kr", m[1])
	}
	if m := saveRegex.FindStringSubmatch(html); m != nil {
		saveText := fmt.Sprintf("Kampanj: SPARA %s kr", m[1])
		if campaign != "" {
			campaign = campaign + " | " + saveText
		} else {
			campaign = saveText
		}
	}

	var campaignPtr *string
	if campaign != "" {
		campaignPtr = &campaign
	}
	return previous, campaignPtr
}

// appendCampaign folds the campaign summary into the description the way the
// retail extractors present it.
func appendCampaign(description *string, campaign *string) *string {
	if campaign == nil {
		return description
	}
	if description == nil || *description == "" {
		return campaign
	}
	combined := *description + "\n" + *campaign
	return &combined
}
