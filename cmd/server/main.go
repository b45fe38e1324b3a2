package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/prixy/backend/config"
	httpDelivery "github.com/prixy/backend/internal/delivery/http"
	"github.com/prixy/backend/internal/domain"
	"github.com/prixy/backend/internal/extract"
	"github.com/prixy/backend/internal/infrastructure/cache"
	"github.com/prixy/backend/internal/infrastructure/fetch"
	"github.com/prixy/backend/internal/infrastructure/oracle"
	"github.com/prixy/backend/internal/infrastructure/powerapi"
	"github.com/prixy/backend/internal/infrastructure/sellpyapi"
	"github.com/prixy/backend/internal/infrastructure/webhallenapi"
	"github.com/prixy/backend/internal/metrics"
	"github.com/prixy/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Server.LogFile != "" {
		log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Server.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}))
	}

	log.Printf("Starting Prixy Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s", cfg.Cache.Type)

	// Initialize infrastructure dependencies
	var cacheRepo domain.CacheRepository
	switch cfg.Cache.Type {
	case "memory":
		cacheRepo = cache.NewMemoryCache()
	case "lru":
		cacheRepo = cache.NewLRUCache(cfg.Cache.LRUSize, cfg.Cache.TTL)
	default:
		cacheRepo = cache.NewNoopCache()
	}
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	fetcher := fetch.NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)

	oracleClient := oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.APIKey, cfg.Oracle.Model, cfg.Oracle.Timeout)
	if cfg.Oracle.APIKey != "" {
		log.Printf("Oracle configured: %s (model: %s)", cfg.Oracle.BaseURL, cfg.Oracle.Model)
	} else {
		log.Printf("WARNING: no oracle API key configured, results will carry no AI analysis")
	}

	router := buildExtractorRouter(fetcher)

	// Initialize usecase layer
	analysisService := usecase.NewAnalysisService(
		fetcher,
		router,
		oracleClient,
		cacheRepo,
		usecase.AnalysisServiceConfig{CacheTTL: cfg.Cache.TTL},
	)
	evaluateService := usecase.NewEvaluateService()

	m := metrics.New()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(analysisService, evaluateService, m)

	// Setup router
	ginRouter := httpDelivery.SetupRouter(cfg, handler, m)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := ginRouter.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildExtractorRouter registers all site extractors. HTML-based sites need
// a fetched page; API-backed sites talk to vendor endpoints themselves.
func buildExtractorRouter(fetcher domain.PageFetcher) *extract.Router {
	router := extract.NewRouter(extract.NewGeneric())

	router.Register("netonnet.se", extract.NewNetOnNet(), true)
	router.Register("tradera.com", extract.NewTradera(), true)
	router.Register("xxl.se", extract.NewXXL(), true)
	router.Register("elgiganten.se", extract.NewElgiganten(), true)
	router.Register("blocket.se", extract.NewBlocket(), true)
	router.Register("hedinautomotive.se", extract.NewHedin(), true)
	router.Register("inet.se", extract.NewInet(), true)
	router.Register("vinted.se", extract.NewVinted(), true)

	apiTimeout := 10 * time.Second
	router.Register("power.se", powerapi.NewClient(powerapi.DefaultBaseURL, apiTimeout), false)
	router.Register("sellpy.se", sellpyapi.NewClient(sellpyapi.DefaultGraphQLURL, sellpyapi.DefaultAlgoliaURL, apiTimeout), false)
	router.Register("webhallen.com", webhallenapi.NewClient(apiTimeout, fetcher), false)

	return router
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
