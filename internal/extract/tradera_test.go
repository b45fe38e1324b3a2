package extract

import (
	"context"
	"strings"
	"testing"
)

func TestTraderaLeadingBidOverridesStructured(t *testing.T) {
	// The JSON-LD offer carries the starting price; the visible leading bid
	// in the body must win.
	html := `<html><head><title>LG OLED C4 65 tum | Tradera</title>
<script type="application/ld+json">{"@type":"Product","name":"LG OLED C4 65 tum","image":"https://img.tradera.net/tv.jpg","offers":{"@type":"Offer","price":"9999"}}</script>
</head><body>
<h1>LG OLED C4 65 tum</h1>
<section id="price">Ledande bud <span class="amount mb-0">12 500 kr</span></section>
<div>Frakt 99 kr</div>
<h2>Beskrivning</h2><p>Fin TV i nyskick. Säljs pga flytt.</p>
<div>Objektnr 123456789</div>
</body></html>`

	res := NewTradera().Extract(context.Background(), html, "https://www.tradera.com/item/340736/1")

	if res.PriceValue == nil || *res.PriceValue != 12500 {
		t.Fatalf("PriceValue = %v, want 12500", res.PriceValue)
	}
	if res.PriceRaw == nil || *res.PriceRaw != "12 500 kr" {
		t.Errorf("PriceRaw = %v, want 12 500 kr", res.PriceRaw)
	}
	if !res.PriceResolved {
		t.Errorf("PriceResolved = false, want true")
	}
	if res.PriceContext == nil || *res.PriceContext != "(från JSON-LD)" {
		t.Errorf("PriceContext = %v, want structured origin retained", res.PriceContext)
	}
	if res.PriceConfidence == nil || *res.PriceConfidence != 0.95 {
		t.Errorf("PriceConfidence = %v, want 0.95", res.PriceConfidence)
	}
	if res.ComparableMedian == nil || *res.ComparableMedian != 6299.5 {
		t.Errorf("ComparableMedian = %v, want 6299.5", res.ComparableMedian)
	}
	if res.PageTitle == nil || *res.PageTitle != "LG OLED C4 65 tum | Tradera" {
		t.Errorf("PageTitle = %v", res.PageTitle)
	}
	if res.Description == nil || !strings.Contains(*res.Description, "nyskick") {
		t.Errorf("Description = %v, want listing text", res.Description)
	}
	if res.Description != nil && strings.Contains(*res.Description, "Objektnr") {
		t.Errorf("Description = %q, want cut before Objektnr", *res.Description)
	}
	if res.ImageURL == nil || *res.ImageURL != "https://img.tradera.net/tv.jpg" {
		t.Errorf("ImageURL = %v", res.ImageURL)
	}
}

func TestTraderaStructuredOnly(t *testing.T) {
	html := `<html><head><title>Avslutad auktion | Tradera</title>
<script type="application/ld+json">{"@type":"Product","name":"Vas","offers":{"@type":"Offer","price":"9999"}}</script>
</head><body><p>Auktionen är avslutad.</p></body></html>`

	res := NewTradera().Extract(context.Background(), html, "https://www.tradera.com/item/1")

	if res.PriceValue == nil || *res.PriceValue != 9999 {
		t.Fatalf("PriceValue = %v, want 9999", res.PriceValue)
	}
	if res.PriceRaw == nil || *res.PriceRaw != "9999 kr" {
		t.Errorf("PriceRaw = %v, want 9999 kr", res.PriceRaw)
	}
	// No body candidate to corroborate: confidence stays low.
	if res.PriceConfidence == nil || *res.PriceConfidence != 0.35 {
		t.Errorf("PriceConfidence = %v, want 0.35", res.PriceConfidence)
	}
	if res.PriceContext == nil || *res.PriceContext != "(från JSON-LD)" {
		t.Errorf("PriceContext = %v", res.PriceContext)
	}
}

func TestTraderaIgnoresRelatedListings(t *testing.T) {
	html := `<html><head><title>Lampa | Tradera</title></head><body>
<section id="price">Ledande bud <span>450 kr</span></section>
<h2>Mer från samma kategori</h2>
<div>Liknande lampa 2 000 kr</div>
</body></html>`

	res := NewTradera().Extract(context.Background(), html, "https://www.tradera.com/item/2")

	if res.PriceValue == nil || *res.PriceValue != 450 {
		t.Fatalf("PriceValue = %v, want 450", res.PriceValue)
	}
	if len(res.AltCandidates) != 1 {
		t.Errorf("AltCandidates = %d entries, want 1 (related listings cut)", len(res.AltCandidates))
	}
}
