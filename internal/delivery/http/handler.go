package http

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/metrics"
	"github.com/prixy/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analysis *usecase.AnalysisService
	evaluate *usecase.EvaluateService
	metrics  *metrics.Metrics
}

// NewHandler creates a new HTTP handler. Metrics may be nil.
func NewHandler(analysis *usecase.AnalysisService, evaluate *usecase.EvaluateService, m *metrics.Metrics) *Handler {
	return &Handler{
		analysis: analysis,
		evaluate: evaluate,
		metrics:  m,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "prixy-backend",
		"version": "1.0.0",
	})
}

type analyzeRequest struct {
	URL string `json:"url"`
}

// Analyze scrapes a product page and returns the enriched result. Scrape
// failures still produce a 200 with a degraded result body; only invalid
// input and unexpected internal failures map to error statuses.
func (h *Handler) Analyze(c *gin.Context) {
	start := time.Now()

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		h.metrics.IncAnalyze("invalid")
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	analyzed, err := h.analysis.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			h.metrics.IncAnalyze("invalid")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product URL"})
			return
		}
		h.metrics.IncAnalyze("error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}

	if analyzed.Error != "" {
		h.metrics.IncAnalyze("degraded")
		h.metrics.IncScrapeError(hostOf(req.URL))
	} else {
		h.metrics.IncAnalyze("ok")
	}
	if analyzed.AIAnalysis != nil {
		h.metrics.IncOracleCall("ok")
	} else {
		h.metrics.IncOracleCall("skipped")
	}
	h.metrics.ObserveAnalyzeDuration(time.Since(start))

	c.JSON(http.StatusOK, analyzed)
}

// Evaluate runs the heuristic fair-price check on caller-supplied data.
// It never fails on content: missing prices yield an "okänd" verdict.
func (h *Handler) Evaluate(c *gin.Context) {
	var req domain.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.metrics.IncEvaluate()
	c.JSON(http.StatusOK, h.evaluate.Evaluate(req))
}

// hostOf extracts the hostname for metric labels.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Hostname()
}
