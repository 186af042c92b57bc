package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Vision     VisionConfig
	Providers  ProvidersConfig
	Aggregator AggregatorConfig
	Crop       CropConfig
	Session    SessionConfig
	Metrics    MetricsConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// VisionConfig selects and configures the garment classifier backend
type VisionConfig struct {
	Backend string        `mapstructure:"backend"` // "openai" or "ollama"
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ProvidersConfig holds the affiliate network credentials.
// A network with missing credentials contributes zero results.
type ProvidersConfig struct {
	ProxyURL  string          `mapstructure:"proxy_url"` // empty: forward in-process
	Timeout   time.Duration   `mapstructure:"timeout"`
	Awin      AwinConfig      `mapstructure:"awin"`
	Skimlinks SkimlinksConfig `mapstructure:"skimlinks"`
	Rakuten   RakutenConfig   `mapstructure:"rakuten"`
	Amazon    AmazonConfig    `mapstructure:"amazon"`
}

// AwinConfig holds Awin product search credentials
type AwinConfig struct {
	APIToken    string `mapstructure:"api_token"`
	PublisherID string `mapstructure:"publisher_id"`
	BaseURL     string `mapstructure:"base_url"`
}

// SkimlinksConfig holds Skimlinks product search credentials
type SkimlinksConfig struct {
	APIKey      string `mapstructure:"api_key"`
	PublisherID string `mapstructure:"publisher_id"`
	BaseURL     string `mapstructure:"base_url"`
}

// RakutenConfig holds Rakuten product search credentials
type RakutenConfig struct {
	AccessToken string `mapstructure:"access_token"`
	BaseURL     string `mapstructure:"base_url"`
}

// AmazonConfig points at the Amazon search bridge
type AmazonConfig struct {
	SearchURL string `mapstructure:"search_url"`
}

// AggregatorConfig tunes result ordering
type AggregatorConfig struct {
	PriceTiebreak bool `mapstructure:"price_tiebreak"`
}

// CropConfig controls the encoding of cropped images
type CropConfig struct {
	OutputFormat string `mapstructure:"output_format"` // "jpeg" or "webp"
	Quality      int    `mapstructure:"quality"`
}

// SessionConfig controls flow sessions
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// MetricsConfig toggles the prometheus endpoint
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/owningthelook/")

	// Environment variable settings: providers.awin.api_token -> OTL_PROVIDERS_AWIN_API_TOKEN
	v.SetEnvPrefix("OTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	applyBackendDefaults(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load()
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values.
// Every key needs a default so that AutomaticEnv can bind it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Vision defaults: Gemini through its OpenAI-compatible endpoint
	v.SetDefault("vision.backend", "openai")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.base_url", "") // see applyBackendDefaults
	v.SetDefault("vision.model", "gemini-2.5-flash")
	v.SetDefault("vision.timeout", "60s")

	// Provider defaults
	v.SetDefault("providers.proxy_url", "")
	v.SetDefault("providers.timeout", "15s")
	v.SetDefault("providers.awin.api_token", "")
	v.SetDefault("providers.awin.publisher_id", "")
	v.SetDefault("providers.awin.base_url", "https://api.awin.com")
	v.SetDefault("providers.skimlinks.api_key", "")
	v.SetDefault("providers.skimlinks.publisher_id", "")
	v.SetDefault("providers.skimlinks.base_url", "https://api-search.skimlinks.com")
	v.SetDefault("providers.rakuten.access_token", "")
	v.SetDefault("providers.rakuten.base_url", "https://api.rakutenmarketing.com")
	v.SetDefault("providers.amazon.search_url", "")

	v.SetDefault("aggregator.price_tiebreak", false)

	// Crop defaults
	v.SetDefault("crop.output_format", "jpeg")
	v.SetDefault("crop.quality", 95)

	v.SetDefault("session.ttl", "30m")
	v.SetDefault("metrics.enabled", true)
}

// Vision base URLs used when OTL_VISION_BASE_URL is unset
const (
	DefaultOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
	DefaultOllamaBaseURL = "http://localhost:11434"
)

// applyBackendDefaults fills in the base URL that matches the vision backend
func applyBackendDefaults(config *Config) {
	if config.Vision.BaseURL != "" {
		return
	}
	switch config.Vision.Backend {
	case "ollama":
		config.Vision.BaseURL = DefaultOllamaBaseURL
	case "openai":
		config.Vision.BaseURL = DefaultOpenAIBaseURL
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Vision.Backend != "openai" && config.Vision.Backend != "ollama" {
		return fmt.Errorf("vision backend must be 'openai' or 'ollama', got: %s", config.Vision.Backend)
	}

	if config.Crop.OutputFormat != "jpeg" && config.Crop.OutputFormat != "webp" {
		return fmt.Errorf("crop output format must be 'jpeg' or 'webp', got: %s", config.Crop.OutputFormat)
	}

	if config.Crop.Quality < 1 || config.Crop.Quality > 100 {
		return fmt.Errorf("crop quality must be between 1 and 100, got: %d", config.Crop.Quality)
	}

	if config.Session.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got: %s", config.Session.TTL)
	}

	return nil
}
