// Package extract holds the per-source page extractors and the router that
// selects one from a URL. Extractors are total functions over arbitrary
// HTML; missing data comes back as nil fields, never as a panic.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/prixy/backend/internal/textutil"
)

var (
	titleRegex    = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	jsonLDRegex   = regexp.MustCompile(`(?is)<script[^>]*type=["']application/ld\+json["'][^>]*>(.*?)</script>`)
	metaTagRegex  = regexp.MustCompile(`(?i)<meta[^>]+>`)
	metaKeyRegex  = regexp.MustCompile(`(?i)(?:property|name|itemprop)=["']([^"']+)["']`)
	metaValRegex  = regexp.MustCompile(`(?i)content=["']([^"']*)["']`)
	digitsRegex   = regexp.MustCompile(`[^0-9]`)
	protoRelRegex = regexp.MustCompile(`^//`)
)

// PageTitle returns the decoded <title> text, or nil.
func PageTitle(html string) *string {
	m := titleRegex.FindStringSubmatch(html)
	if m == nil {
		return nil
	}
	t := strings.TrimSpace(textutil.DecodeNumericEntities(m[1]))
	if t == "" {
		return nil
	}
	return &t
}

// MetaContent returns the content attribute of the first meta tag whose
// property, name or itemprop attribute equals one of keys.
func MetaContent(html string, keys ...string) *string {
	for _, tag := range metaTagRegex.FindAllString(html, -1) {
		km := metaKeyRegex.FindStringSubmatch(tag)
		if km == nil {
			continue
		}
		match := false
		for _, k := range keys {
			if strings.EqualFold(km[1], k) {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		vm := metaValRegex.FindStringSubmatch(tag)
		if vm == nil || strings.TrimSpace(vm[1]) == "" {
			continue
		}
		v := strings.TrimSpace(textutil.DecodeNumericEntities(vm[1]))
		return &v
	}
	return nil
}

// JSONLDBlocks decodes every application/ld+json script on the page into
// generic maps, flattening top-level arrays and @graph containers.
// Malformed blocks are skipped.
func JSONLDBlocks(html string) []map[string]interface{} {
	var out []map[string]interface{}
	for _, m := range jsonLDRegex.FindAllStringSubmatch(html, -1) {
		var parsed interface{}
		if err := json.Unmarshal([]byte(m[1]), &parsed); err != nil {
			continue
		}
		out = append(out, flattenLD(parsed)...)
	}
	return out
}

func flattenLD(v interface{}) []map[string]interface{} {
	var out []map[string]interface{}
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			out = append(out, flattenLD(item)...)
		}
	case map[string]interface{}:
		out = append(out, t)
		if graph, ok := t["@graph"]; ok {
			out = append(out, flattenLD(graph)...)
		}
	}
	return out
}

// ProductLD returns the first JSON-LD block whose @type is (or contains)
// Product.
func ProductLD(html string) (map[string]interface{}, bool) {
	for _, block := range JSONLDBlocks(html) {
		switch t := block["@type"].(type) {
		case string:
			if strings.EqualFold(t, "Product") {
				return block, true
			}
		case []interface{}:
			for _, item := range t {
				if s, ok := item.(string); ok && strings.EqualFold(s, "Product") {
					return block, true
				}
			}
		}
	}
	return nil, false
}

// LDString reads a string-valued key from a decoded JSON-LD map, tolerating
// single-element arrays and {name: ...} objects (brand is commonly either).
func LDString(m map[string]interface{}, key string) *string {
	v, ok := m[key]
	if !ok {
		return nil
	}
	return anyToString(v)
}

func anyToString(v interface{}) *string {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		return &s
	case []interface{}:
		if len(t) > 0 {
			return anyToString(t[0])
		}
	case map[string]interface{}:
		if name, ok := t["name"]; ok {
			return anyToString(name)
		}
	}
	return nil
}

// LDNumber reads a numeric key, accepting JSON numbers and localized
// numeric strings.
func LDNumber(m map[string]interface{}, key string) *float64 {
	v, ok := m[key]
	if !ok {
		return nil
	}
	return anyToNumber(v)
}

func anyToNumber(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		return textutil.ParseLocalizedPrice(t)
	case []interface{}:
		if len(t) > 0 {
			return anyToNumber(t[0])
		}
	}
	return nil
}

// OfferPrice digs the offer price out of a Product block: offers can be an
// object or array, and the price may sit under price, lowPrice or a nested
// priceSpecification.
func OfferPrice(product map[string]interface{}) *float64 {
	offers, ok := product["offers"]
	if !ok {
		offers = product["marketplace_offer"]
	}
	for _, offer := range flattenLD(offers) {
		for _, key := range []string{"price", "lowPrice"} {
			if n := LDNumber(offer, key); n != nil {
				return n
			}
		}
		if spec, ok := offer["priceSpecification"].(map[string]interface{}); ok {
			if n := LDNumber(spec, "price"); n != nil {
				return n
			}
		}
	}
	return nil
}

// OfferHighPrice returns the offers' highPrice when present, used by several
// sources as the pre-campaign price.
func OfferHighPrice(product map[string]interface{}) *float64 {
	for _, offer := range flattenLD(product["offers"]) {
		if n := LDNumber(offer, "highPrice"); n != nil {
			return n
		}
	}
	return nil
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	return digitsRegex.ReplaceAllString(s, "")
}

// AbsolutizeURL resolves a possibly relative href against the page URL's
// scheme and host.
func AbsolutizeURL(pageURL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if protoRelRegex.MatchString(ref) {
		return "https:" + ref
	}
	origin := pageURL
	if i := strings.Index(origin, "://"); i != -1 {
		if j := strings.Index(origin[i+3:], "/"); j != -1 {
			origin = origin[:i+3+j]
		}
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return origin + ref
}
