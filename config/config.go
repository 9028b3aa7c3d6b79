package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Vision    VisionConfig
	Catalog   CatalogConfig
	Detection DetectionConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// VisionConfig holds recognition-service API configuration
type VisionConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// CatalogConfig locates the ingredient catalog document
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// DetectionConfig holds the tunable detection heuristics. The gap values
// and mode weights historically lived as magic constants; they are plain
// parameters here so they can be validated against a labeled corpus.
type DetectionConfig struct {
	// ScoreGap is the top-two label score gap separating single- from
	// multi-ingredient images
	ScoreGap float64 `mapstructure:"score_gap"`
	// CategoryGap is the score lead needed to suppress a same-category label
	CategoryGap float64 `mapstructure:"category_gap"`
	// WebEntityThreshold is the minimum kept web-entity score
	WebEntityThreshold float64 `mapstructure:"web_entity_threshold"`
	// TextModeWeight scales text-mode confidence against the region score
	TextModeWeight float64 `mapstructure:"text_mode_weight"`
	// LabelModeScore is the fixed per-crop confidence for label-mode output
	LabelModeScore float64 `mapstructure:"label_mode_score"`
	// MaxResults caps the simple per-mode result lists
	MaxResults         int  `mapstructure:"max_results"`
	EnableDebugLogging bool `mapstructure:"enable_debug_logging"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/cheflens/")

	// Environment variable settings
	v.SetEnvPrefix("CHEFLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Vision defaults. The empty api_key default keeps the key visible to
	// Unmarshal when it is supplied via environment only.
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.base_url", "https://vision.googleapis.com")

	// Catalog defaults
	v.SetDefault("catalog.path", "./configs/catalog.json")

	// Detection defaults
	v.SetDefault("detection.score_gap", 0.05)
	v.SetDefault("detection.category_gap", 0.09)
	v.SetDefault("detection.web_entity_threshold", 0.5)
	v.SetDefault("detection.text_mode_weight", 0.9)
	v.SetDefault("detection.label_mode_score", 0.8)
	v.SetDefault("detection.max_results", 5)
	v.SetDefault("detection.enable_debug_logging", false)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Vision.APIKey == "" {
		return fmt.Errorf("vision API key is required (set CHEFLENS_VISION_API_KEY)")
	}

	if config.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required (set CHEFLENS_CATALOG_PATH)")
	}

	if config.Detection.ScoreGap <= 0 || config.Detection.ScoreGap >= 1 {
		return fmt.Errorf("detection score_gap must be in (0,1), got: %v", config.Detection.ScoreGap)
	}
	if config.Detection.CategoryGap <= 0 || config.Detection.CategoryGap >= 1 {
		return fmt.Errorf("detection category_gap must be in (0,1), got: %v", config.Detection.CategoryGap)
	}
	if config.Detection.TextModeWeight <= 0 || config.Detection.TextModeWeight > 1 {
		return fmt.Errorf("detection text_mode_weight must be in (0,1], got: %v", config.Detection.TextModeWeight)
	}
	if config.Detection.LabelModeScore <= 0 || config.Detection.LabelModeScore > 1 {
		return fmt.Errorf("detection label_mode_score must be in (0,1], got: %v", config.Detection.LabelModeScore)
	}

	return nil
}
