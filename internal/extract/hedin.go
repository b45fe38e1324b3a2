package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/textutil"
)

// Hedin extracts dealership car listings. Prices are large, so anything at
// or below 1000 kr is treated as a non-price (monthly fees, accessories).
type Hedin struct{}

func NewHedin() *Hedin { return &Hedin{} }

var (
	hedinVisiblePriceRegex = regexp.MustCompile(`<span[^>]*>(?:<span[^>]*></span>\s*<!--\s*-->)?(\d+(?:\s\d{3})*)\s*kr`)
	hedinJSONPriceRegex    = regexp.MustCompile(`"car_price_text"\s*:\s*"(\d+(?:\s\d{3})*)\s*kr"`)
	hedinRichTextRegex     = regexp.MustCompile(`(?s)class="SampleRichText_sample-rte[^"]*"[^>]*><div>(.*?)</div>`)
)

// Overview panel pairs and Teknisk data list rows, matched against the
// site's utility-class markup.
var hedinOverviewSpecs = []struct {
	label string
	re    *regexp.Regexp
}{
	{"Kaross", regexp.MustCompile(`<span class="text-text-secondary">Kaross</span></div><span class="font-semibold">([^<]+)</span>`)},
	{"Årsmodell", regexp.MustCompile(`<span class="text-text-secondary">Årsmodell</span></div><span class="font-semibold">([^<]+)</span>`)},
	{"Drivmedel", regexp.MustCompile(`<span class="text-text-secondary">Drivmedel</span></div><span class="font-semibold">([^<]+)</span>`)},
	{"Miltal", regexp.MustCompile(`<span class="text-text-secondary">Miltal</span></div><span class="font-semibold">([^<]+)</span>`)},
	{"Växellåda", regexp.MustCompile(`<span class="text-text-secondary">Växellåda</span></div><span class="font-semibold">([^<]+)</span>`)},
	{"0-100", regexp.MustCompile(`<span class="text-text-secondary">0-100</span></div><span class="font-semibold">([^<]+)</span>`)},
	{"Färg", regexp.MustCompile(`<li class="items-between flex w-full justify-between">Färg<span class="font-semibold">([^<]+)</span>`)},
	{"Skick", regexp.MustCompile(`<li class="items-between flex w-full justify-between">Skick<span class="font-semibold">([^<]+)</span>`)},
	{"Drivning", regexp.MustCompile(`<li class="items-between flex w-full justify-between">Drivning<span class="font-semibold">([^<]+)</span>`)},
	{"CO2", regexp.MustCompile(`<li class="items-between flex w-full justify-between">Co2-utsläpp \(WLTP\)<span class="font-semibold">([^<]+)</span>`)},
	{"Förbrukning", regexp.MustCompile(`<li class="items-between flex w-full justify-between">Bränsleförbrukning: Blandad \(WLTP\)<span class="font-semibold">([^<]+)</span>`)},
}

func (h *Hedin) Extract(_ context.Context, html, url string) domain.ScrapeResult {
	res := domain.ScrapeResult{SourceURL: url}

	res.PageTitle = PageTitle(html)
	res.OGTitle = MetaContent(html, "og:title")

	if m := hedinVisiblePriceRegex.FindStringSubmatch(html); m != nil {
		if num := textutil.ParseLocalizedPrice(m[1]); num != nil && *num > 1000 {
			res.PriceValue = num
			res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
			res.PriceContext = domain.Str("(från synligt pris)")
			res.PriceConfidence = domain.Num(0.95)
		}
	}
	if res.PriceValue == nil {
		if m := hedinJSONPriceRegex.FindStringSubmatch(html); m != nil {
			if num := textutil.ParseLocalizedPrice(m[1]); num != nil && *num > 1000 {
				res.PriceValue = num
				res.PriceRaw = domain.Str(fmt.Sprintf("%.0f kr", *num))
				res.PriceContext = domain.Str("(från JSON-data)")
				res.PriceConfidence = domain.Num(0.9)
			}
		}
	}

	var specs []string
	for _, spec := range hedinOverviewSpecs {
		if m := spec.re.FindStringSubmatch(html); m != nil {
			specs = append(specs, spec.label+": "+m[1])
		}
	}

	description := ""
	if m := hedinRichTextRegex.FindStringSubmatch(html); m != nil {
		description = strings.TrimSpace(textutil.StripMarkup(m[1]))
	}
	if len(description) < 20 {
		if og := MetaContent(html, "og:description"); og != nil {
			description = strings.TrimSpace(*og)
		}
	}
	if len(specs) > 0 {
		specsPart := strings.Join(specs, ", ") + "."
		if description != "" {
			description = specsPart + " " + description
		} else {
			description = specsPart
		}
	}

	if description != "" {
		if len(description) > 800 {
			description = strings.TrimSpace(description[:800]) + "..."
		}
		res.Description = &description

		sentences := textutil.SplitSentences(description)
		if len(sentences) > 2 {
			sentences = sentences[:2]
		}
		short := strings.Join(sentences, ". ")
		if short != "" {
			if !strings.HasSuffix(short, ".") {
				short += "."
			}
			res.DescriptionShort = &short
		}
	}

	res.ImageURL = MetaContent(html, "og:image")

	res.PriceResolved = true
	return res
}
