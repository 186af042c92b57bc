package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/owningthelook/backend/config"
	httpDelivery "github.com/owningthelook/backend/internal/delivery/http"
	"github.com/owningthelook/backend/internal/domain"
	"github.com/owningthelook/backend/internal/infrastructure/affiliate"
	"github.com/owningthelook/backend/internal/infrastructure/observability"
	"github.com/owningthelook/backend/internal/infrastructure/raster"
	"github.com/owningthelook/backend/internal/infrastructure/session"
	"github.com/owningthelook/backend/internal/infrastructure/vision"
	"github.com/owningthelook/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Owning The Look Backend v%s", httpDelivery.Version)
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// The search endpoint always forwards in-process; adapters may go
	// through a remote proxy instead.
	forwarder := affiliate.NewForwarder(credentials(cfg.Providers), cfg.Providers.Timeout)
	var fetcher domain.ProviderFetcher = forwarder
	if cfg.Providers.ProxyURL != "" {
		fetcher = affiliate.NewProxyClient(cfg.Providers.ProxyURL, cfg.Providers.Timeout)
		log.Printf("Provider searches go through proxy: %s", cfg.Providers.ProxyURL)
	}
	for _, network := range affiliate.Networks {
		log.Printf("Provider %s configured: %v", network, forwarder.Configured(network))
	}

	// Avoid handing typed-nil metrics to the services
	var (
		searchObserver   domain.SearchObserver
		analysisObserver domain.AnalysisObserver
		proxyObserver    httpDelivery.ProxyObserver
		metricsHandler   http.Handler
	)
	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics()
		searchObserver, analysisObserver, proxyObserver = metrics, metrics, metrics
		metricsHandler = metrics.Handler()
		log.Printf("Metrics enabled at /metrics")
	}

	// Initialize usecase layer
	aggregator := usecase.NewProductAggregator(
		affiliate.NewAdapters(fetcher),
		searchObserver,
		usecase.AggregatorConfig{
			PriceTiebreak: cfg.Aggregator.PriceTiebreak,
			Debug:         cfg.Server.Environment == "development",
		},
	)

	classifier, err := newClassifier(cfg.Vision)
	if err != nil {
		log.Fatalf("Failed to create vision classifier: %v", err)
	}
	analysisService := usecase.NewAnalysisService(classifier, cfg.Vision.Backend, analysisObserver)

	cropper := raster.NewCropper(cfg.Crop.OutputFormat, cfg.Crop.Quality)
	log.Printf("Crop output: %s (quality %d)", cropper.Format(), cfg.Crop.Quality)

	sessions := session.NewMemoryStore[*usecase.Session](cfg.Session.TTL, time.Minute)
	defer sessions.Close()
	log.Printf("Session TTL: %s", cfg.Session.TTL)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(httpDelivery.Services{
		Analyzer: analysisService,
		Matcher:  aggregator,
		Proxy:    forwarder,
		Cropper:  cropper,
		Sessions: sessions,
		Metrics:  proxyObserver,
	})

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, metricsHandler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func credentials(p config.ProvidersConfig) affiliate.Credentials {
	return affiliate.Credentials{
		AwinAPIToken:         p.Awin.APIToken,
		AwinPublisherID:      p.Awin.PublisherID,
		AwinBaseURL:          p.Awin.BaseURL,
		SkimlinksAPIKey:      p.Skimlinks.APIKey,
		SkimlinksPublisherID: p.Skimlinks.PublisherID,
		SkimlinksBaseURL:     p.Skimlinks.BaseURL,
		RakutenAccessToken:   p.Rakuten.AccessToken,
		RakutenBaseURL:       p.Rakuten.BaseURL,
		AmazonSearchURL:      p.Amazon.SearchURL,
	}
}

func newClassifier(cfg config.VisionConfig) (domain.VisionClassifier, error) {
	switch cfg.Backend {
	case "ollama":
		log.Printf("Vision backend: ollama at %s (model %s)", cfg.BaseURL, cfg.Model)
		classifier, err := vision.NewOllamaClassifier(cfg.BaseURL, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return classifier, nil
	default:
		if cfg.APIKey != "" {
			log.Printf("Vision backend: %s (model %s, key: %s...)", cfg.BaseURL, cfg.Model, cfg.APIKey[:min(4, len(cfg.APIKey))])
		} else {
			log.Printf("WARNING: Vision backend: %s (key: NOT CONFIGURED - analysis will fail!)", cfg.BaseURL)
		}
		return vision.NewOpenAIClassifier(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
