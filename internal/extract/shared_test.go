package extract

import "testing"

func TestPageTitle(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
		ok   bool
	}{
		{"plain title", "<html><head><title>LG OLED C4</title></head></html>", "LG OLED C4", true},
		{"numeric entities", "<title>Fj&#228;llr&#228;ven V&#228;ska</title>", "Fjällräven Väska", true},
		{"whitespace only", "<title>   </title>", "", false},
		{"missing", "<html><body></body></html>", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PageTitle(tt.html)
			if tt.ok != (got != nil) {
				t.Fatalf("PageTitle() = %v, want ok=%v", got, tt.ok)
			}
			if got != nil && *got != tt.want {
				t.Errorf("PageTitle() = %q, want %q", *got, tt.want)
			}
		})
	}
}

func TestMetaContent(t *testing.T) {
	html := `<meta property="og:title" content="Produkt A">` +
		`<meta name="description" content="">` +
		`<meta name="description" content="Beskrivning B">` +
		`<meta itemprop="price" content="199">`

	if got := MetaContent(html, "og:title"); got == nil || *got != "Produkt A" {
		t.Errorf("og:title = %v, want Produkt A", got)
	}
	// The first description tag is empty and must be skipped.
	if got := MetaContent(html, "description"); got == nil || *got != "Beskrivning B" {
		t.Errorf("description = %v, want Beskrivning B", got)
	}
	if got := MetaContent(html, "price"); got == nil || *got != "199" {
		t.Errorf("itemprop price = %v, want 199", got)
	}
	if got := MetaContent(html, "saknas"); got != nil {
		t.Errorf("missing key = %q, want nil", *got)
	}
}

func TestProductLD(t *testing.T) {
	direct := `<script type="application/ld+json">{"@type":"Product","name":"Stol"}</script>`
	if p, ok := ProductLD(direct); !ok || LDString(p, "name") == nil || *LDString(p, "name") != "Stol" {
		t.Errorf("direct product block not found: %v", p)
	}

	graph := `<script type="application/ld+json">{"@context":"https://schema.org",` +
		`"@graph":[{"@type":"WebSite","name":"Butik"},{"@type":"Product","name":"Bord"}]}</script>`
	if p, ok := ProductLD(graph); !ok || *LDString(p, "name") != "Bord" {
		t.Errorf("@graph product block not found: %v", p)
	}

	typeArray := `<script type="application/ld+json">{"@type":["Product","Thing"],"name":"Lampa"}</script>`
	if p, ok := ProductLD(typeArray); !ok || *LDString(p, "name") != "Lampa" {
		t.Errorf("type-array product block not found: %v", p)
	}

	malformed := `<script type="application/ld+json">{"@type":"Product","na</script>`
	if _, ok := ProductLD(malformed); ok {
		t.Errorf("malformed block should be skipped")
	}

	if _, ok := ProductLD("<html><body></body></html>"); ok {
		t.Errorf("page without JSON-LD should report no product")
	}
}

func TestOfferPrice(t *testing.T) {
	tests := []struct {
		name    string
		product map[string]interface{}
		want    float64
		ok      bool
	}{
		{"number price", map[string]interface{}{"offers": map[string]interface{}{"price": 1299.0}}, 1299, true},
		{"localized string price", map[string]interface{}{"offers": map[string]interface{}{"price": "1 299"}}, 1299, true},
		{"offer array lowPrice", map[string]interface{}{"offers": []interface{}{map[string]interface{}{"lowPrice": 899.0}}}, 899, true},
		{"price specification", map[string]interface{}{"offers": map[string]interface{}{"priceSpecification": map[string]interface{}{"price": 450.0}}}, 450, true},
		{"marketplace offer", map[string]interface{}{"marketplace_offer": map[string]interface{}{"price": 250.0}}, 250, true},
		{"no offers", map[string]interface{}{"name": "Stol"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OfferPrice(tt.product)
			if tt.ok != (got != nil) {
				t.Fatalf("OfferPrice() = %v, want ok=%v", got, tt.ok)
			}
			if got != nil && *got != tt.want {
				t.Errorf("OfferPrice() = %v, want %v", *got, tt.want)
			}
		})
	}
}

func TestOfferHighPrice(t *testing.T) {
	product := map[string]interface{}{
		"offers": map[string]interface{}{"price": 1299.0, "highPrice": 1599.0},
	}
	if got := OfferHighPrice(product); got == nil || *got != 1599 {
		t.Errorf("OfferHighPrice() = %v, want 1599", got)
	}
	if got := OfferHighPrice(map[string]interface{}{}); got != nil {
		t.Errorf("OfferHighPrice() = %v, want nil", *got)
	}
}

func TestAbsolutizeURL(t *testing.T) {
	tests := []struct {
		name    string
		pageURL string
		ref     string
		want    string
	}{
		{"absolute passthrough", "https://www.example.se/produkt/1", "https://cdn.example.se/a.jpg", "https://cdn.example.se/a.jpg"},
		{"protocol relative", "https://www.example.se/produkt/1", "//cdn.example.se/a.jpg", "https://cdn.example.se/a.jpg"},
		{"root relative", "https://www.example.se/produkt/1", "/bilder/a.jpg", "https://www.example.se/bilder/a.jpg"},
		{"bare relative", "https://www.example.se/produkt/1", "bilder/a.jpg", "https://www.example.se/bilder/a.jpg"},
		{"origin without path", "https://www.example.se", "/a.jpg", "https://www.example.se/a.jpg"},
		{"empty ref", "https://www.example.se/produkt/1", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AbsolutizeURL(tt.pageURL, tt.ref); got != tt.want {
				t.Errorf("AbsolutizeURL(%q, %q) = %q, want %q", tt.pageURL, tt.ref, got, tt.want)
			}
		})
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("12 500 kr"); got != "12500" {
		t.Errorf("DigitsOnly = %q, want 12500", got)
	}
	if got := DigitsOnly("inga siffror"); got != "" {
		t.Errorf("DigitsOnly = %q, want empty", got)
	}
}
