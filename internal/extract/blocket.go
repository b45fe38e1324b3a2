package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/textutil"
)

// Blocket extracts classified listings. The price and vehicle attributes sit
// in embedded key/value JSON fragments; the 500 kr floor filters out fee
// amounts that use the same field name.
type Blocket struct{}

func NewBlocket() *Blocket { return &Blocket{} }

var (
	blocketPriceKVRegex  = regexp.MustCompile(`\{"key"\s*:\s*"price"\s*,\s*"value"\s*:\s*\["?(\d{3,})"?\]`)
	blocketPriceRegex    = regexp.MustCompile(`"price"\s*:\s*(\d{3,})[,\s}]`)
	blocketHydrationRe   = regexp.MustCompile(`window\.__staticRouterHydrationData\s*=\s*JSON\.parse\("(.+?)"\);`)
	blocketDescJSONRegex = regexp.MustCompile(`"description"\s*:\s*"([^"\\]*(?:\\.[^"\\]*)*)"`)
	blocketExpandRegex   = regexp.MustCompile(`(?s)data-testid="expandable-section"[^>]*>.*?<div[^>]*class="[^"]*whitespace-pre-wrap[^"]*"[^>]*>(.*?)</div>`)
	blocketCondRegex     = regexp.MustCompile(`\{"id"\s*:\s*"condition"\s*,\s*"label"\s*:\s*"Skick"\s*,\s*"value"\s*:\s*"([^"]+)"`)
	blocketYearRegex     = regexp.MustCompile(`\{"key"\s*:\s*"year"\s*,\s*"value"\s*:\s*\["?(\d{4})"?\]`)
	blocketMileageRegex  = regexp.MustCompile(`\{"key"\s*:\s*"mileage"\s*,\s*"value"\s*:\s*\["?(\d+)"?\]`)
	blocketMakeRegex     = regexp.MustCompile(`\{"key"\s*:\s*"make_text"\s*,\s*"value"\s*:\s*\["([^"]+)"\]`)
	blocketModelRegex    = regexp.MustCompile(`\{"key"\s*:\s*"model_text"\s*,\s*"value"\s*:\s*\["([^"]+)"\]`)
	blocketFuelRegex     = regexp.MustCompile(`\{"key"\s*:\s*"fuel"\s*,\s*"value"\s*:\s*\["?(\d+)"?\]`)
	blocketRegNrRegex    = regexp.MustCompile(`\{"key"\s*:\s*"registration_number"\s*,\s*"value"\s*:\s*\["([^"]+)"\]`)
	blocketImagesRegex   = regexp.MustCompile(`"images"\s*:\s*\[\s*\{\s*"uri"\s*:\s*"([^"]+)"`)
	blocketDescDivRegex  = regexp.MustCompile(`(?i)<div[^>]*class="[^"]*description[^"]*"[^>]*>([^<]+)`)
	blocketAdDescRegex   = regexp.MustCompile(`(?i)<p[^>]*class="[^"]*ad-description[^"]*"[^>]*>([^<]+)`)
)

var blocketFuelTypes = map[string]string{
	"1": "Bensin", "2": "Diesel", "3": "Hybrid", "4": "El",
	"5": "Etanol", "6": "Biogas", "7": "Gasol",
}

var blocketShortKeywords = []string{"skick", "mil", "reg", "service", "defekt", "original", "modifierad"}

func (b *Blocket) Extract(_ context.Context, html, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url}

	res.PageTitle = PageTitle(html)
	res.OGTitle = MetaContent(html, "og:title")

	if m := blocketPriceKVRegex.FindStringSubmatch(html); m != nil {
		if num := textutil.ParseLocalizedPrice(m[1]); num != nil && *num > 500 {
			res.PriceValue = num
			res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
			res.PriceContext = domain.Str("(från JSON-data)")
			res.PriceConfidence = domain.Num(0.9)
		}
	}
	if res.PriceValue == nil {
		if m := blocketPriceRegex.FindStringSubmatch(html); m != nil {
			if num := textutil.ParseLocalizedPrice(m[1]); num != nil && *num > 500 {
				res.PriceValue = num
				res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
				res.PriceContext = domain.Str("(från JSON-data)")
				res.PriceConfidence = domain.Num(0.9)
			}
		}
	}
	if res.PriceValue == nil {
		if meta := MetaContent(html, "price", "product:price:amount"); meta != nil {
			if num := textutil.ParseLocalizedPrice(*meta); num != nil && *num > 0 {
				res.PriceValue = num
				res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
				res.PriceContext = domain.Str("(från meta)")
				res.PriceConfidence = domain.Num(0.8)
			}
		}
	}

	description, conditionFromJSON := blocketDescription(html)
	structured := blocketStructuredData(html, conditionFromJSON)

	if len(structured) > 0 {
		joined := strings.Join(structured, ", ") + "."
		if description != "" {
			description = joined + " " + description
		} else {
			description = joined
		}
	}

	// A truncated hydration description sometimes has the full text further
	// down in the body.
	if strings.HasSuffix(description, "...") {
		body := html
		if i := strings.Index(html, "<body"); i != -1 {
			end := i + 15000
			if end > len(html) {
				end = len(html)
			}
			body = html[i:end]
		}
		for _, re := range []*regexp.Regexp{blocketDescDivRegex, blocketAdDescRegex} {
			if m := re.FindStringSubmatch(body); m != nil && len(m[1]) > len(description) {
				full := strings.TrimSpace(textutil.DecodeNumericEntities(textutil.StripMarkup(m[1])))
				prefix := ""
				if len(structured) > 0 {
					prefix = strings.Join(structured, ", ") + ". "
				}
				description = prefix + full
				break
			}
		}
	}

	if description != "" {
		capped := capLongDescription(description, 800)
		res.Description = &capped
		if short := textutil.ShortDescription(capped, blocketShortKeywords, 2); short != "" {
			res.DescriptionShort = &short
		}
	}

	res.ImageURL = MetaContent(html, "og:image")
	if res.ImageURL == nil {
		if m := blocketImagesRegex.FindStringSubmatch(html); m != nil {
			res.ImageURL = domain.Str(m[1])
		}
	}

	res.PriceResolved = true
	return res
}

// blocketDescription digs the listing text out of the router hydration blob,
// then falls back through raw JSON fields, the expandable section and
// og/meta descriptions. Also reports the condition found in the hydration
// extras, if any.
func blocketDescription(html string) (string, string) {
	description := ""
	condition := ""

	if m := blocketHydrationRe.FindStringSubmatch(html); m != nil {
		unescaped := strings.ReplaceAll(m[1], `\"`, `"`)
		unescaped = strings.ReplaceAll(unescaped, `\\`, `\`)
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(unescaped), &data); err == nil {
			if item, ok := dig(data, "loaderData", "item-recommerce", "itemData").(map[string]interface{}); ok {
				if d := anyToString(item["description"]); d != nil {
					description = strings.Join(strings.Fields(strings.ReplaceAll(*d, `\n`, " ")), " ")
				}
				if extras, ok := item["extras"].([]interface{}); ok {
					for _, e := range extras {
						extra, ok := e.(map[string]interface{})
						if !ok {
							continue
						}
						if id, _ := extra["id"].(string); id == "condition" {
							if v := anyToString(extra["value"]); v != nil {
								condition = *v
							}
						}
					}
				}
			}
		}
	}

	if len(description) < 50 {
		if m := blocketDescJSONRegex.FindStringSubmatch(html); m != nil {
			var decoded string
			if err := json.Unmarshal([]byte(`"`+m[1]+`"`), &decoded); err != nil {
				decoded = m[1]
			}
			decoded = strings.ReplaceAll(decoded, `\n`, " ")
			description = strings.Join(strings.Fields(decoded), " ")
		}
	}
	if len(description) < 100 {
		if m := blocketExpandRegex.FindStringSubmatch(html); m != nil {
			description = strings.TrimSpace(textutil.StripMarkup(m[1]))
		}
	}
	if len(description) < 20 {
		if og := MetaContent(html, "og:description"); og != nil {
			description = strings.TrimSpace(*og)
		}
	}
	if len(description) < 20 {
		if meta := MetaContent(html, "description"); meta != nil {
			description = strings.TrimSpace(*meta)
		}
	}
	return description, condition
}

// blocketStructuredData assembles the vehicle attribute summary prepended to
// the description.
func blocketStructuredData(html, conditionFromJSON string) []string {
	var structured []string

	if conditionFromJSON != "" {
		structured = append(structured, "Skick: "+conditionFromJSON)
	} else if m := blocketCondRegex.FindStringSubmatch(html); m != nil {
		structured = append(structured, "Skick: "+m[1])
	}
	if m := blocketYearRegex.FindStringSubmatch(html); m != nil {
		structured = append(structured, "Årsmodell: "+m[1])
	}
	if m := blocketMileageRegex.FindStringSubmatch(html); m != nil {
		structured = append(structured, "Miltal: "+m[1]+" mil")
	}
	makeM := blocketMakeRegex.FindStringSubmatch(html)
	modelM := blocketModelRegex.FindStringSubmatch(html)
	if makeM != nil && modelM != nil {
		structured = append(structured, makeM[1]+" "+modelM[1])
	}
	if m := blocketFuelRegex.FindStringSubmatch(html); m != nil {
		if name, ok := blocketFuelTypes[m[1]]; ok {
			structured = append(structured, name)
		} else {
			structured = append(structured, "Drivmedel: "+m[1])
		}
	}
	if m := blocketRegNrRegex.FindStringSubmatch(html); m != nil {
		structured = append(structured, "Reg.nr: "+m[1])
	}
	return structured
}
