package usecase

import (
	"math"
	"strings"
	"testing"

	"github.com/prixy/backend/internal/domain"
)

func TestEvaluateNoPrice(t *testing.T) {
	s := NewEvaluateService()

	result := s.Evaluate(domain.EvaluateRequest{
		Title: domain.Str("Okänd annons"),
	})

	if result.Verdict != EvalVerdictUnknown {
		t.Errorf("Verdict = %q, want %q", result.Verdict, EvalVerdictUnknown)
	}
	if result.Confidence != 0.3 {
		t.Errorf("Confidence = %v, want 0.3", result.Confidence)
	}
	if !strings.Contains(result.Explanation, "Inget giltigt pris") {
		t.Errorf("Explanation = %q", result.Explanation)
	}
}

func TestEvaluateVerdicts(t *testing.T) {
	s := NewEvaluateService()

	tests := []struct {
		name        string
		req         domain.EvaluateRequest
		wantVerdict string
	}{
		{
			name: "cheap vs median with good condition",
			req: domain.EvaluateRequest{
				PriceValue:       domain.Num(700),
				ComparableMedian: domain.Num(1000),
				Description:      domain.Str("Helt oanvänd, kvar i kartong"),
			},
			wantVerdict: EvalVerdictGoodDeal,
		},
		{
			name: "expensive vs median with damage",
			req: domain.EvaluateRequest{
				PriceValue:       domain.Num(1500),
				ComparableMedian: domain.Num(1000),
				Description:      domain.Str("Har repor och är sliten"),
			},
			wantVerdict: EvalVerdictRipOff,
		},
		{
			name: "near median is normal",
			req: domain.EvaluateRequest{
				PriceValue:       domain.Num(1020),
				ComparableMedian: domain.Num(1000),
			},
			wantVerdict: EvalVerdictNormal,
		},
		{
			name: "fixed buckets cheap",
			req: domain.EvaluateRequest{
				PriceValue: domain.Num(800),
			},
			wantVerdict: EvalVerdictGoodDeal,
		},
		{
			name: "fixed buckets mid",
			req: domain.EvaluateRequest{
				PriceValue: domain.Num(3000),
			},
			wantVerdict: EvalVerdictNormal,
		},
		{
			name: "fixed buckets expensive",
			req: domain.EvaluateRequest{
				PriceValue: domain.Num(9000),
			},
			wantVerdict: EvalVerdictRipOff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Evaluate(tt.req)
			if result.Verdict != tt.wantVerdict {
				t.Errorf("Verdict = %q, want %q", result.Verdict, tt.wantVerdict)
			}
			if result.Explanation == "" {
				t.Errorf("Explanation is empty")
			}
		})
	}
}

func TestEvaluateConfidenceBlend(t *testing.T) {
	s := NewEvaluateService()

	// Neutral score: total 0 -> base confidence 0.45
	plain := s.Evaluate(domain.EvaluateRequest{
		PriceValue:       domain.Num(1000),
		ComparableMedian: domain.Num(1000),
	})
	if plain.Confidence != 0.45 {
		t.Errorf("Confidence = %v, want 0.45", plain.Confidence)
	}

	// Blending in extraction certainty: 0.45*0.6 + 0.9*0.4 = 0.63
	blended := s.Evaluate(domain.EvaluateRequest{
		PriceValue:       domain.Num(1000),
		ComparableMedian: domain.Num(1000),
		PriceConfidence:  domain.Num(0.9),
	})
	if math.Abs(blended.Confidence-0.63) > 1e-9 {
		t.Errorf("Confidence = %v, want 0.63", blended.Confidence)
	}
}

func TestEvaluateEchoesIdentityFields(t *testing.T) {
	s := NewEvaluateService()

	result := s.Evaluate(domain.EvaluateRequest{
		Title:      domain.Str("Cykel"),
		PriceValue: domain.Num(2000),
		URL:        domain.Str("https://www.blocket.se/annons/1"),
		ImageURL:   domain.Str("https://images.blocket.se/1.jpg"),
	})

	if result.Title == nil || *result.Title != "Cykel" {
		t.Errorf("Title = %v", result.Title)
	}
	if result.Source == nil || *result.Source != "https://www.blocket.se/annons/1" {
		t.Errorf("Source = %v", result.Source)
	}
	if result.ImageURL == nil || *result.ImageURL != "https://images.blocket.se/1.jpg" {
		t.Errorf("ImageURL = %v", result.ImageURL)
	}
	if result.PriceValue == nil || *result.PriceValue != 2000 {
		t.Errorf("PriceValue = %v", result.PriceValue)
	}
}
