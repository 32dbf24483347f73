package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	OCR        OCRConfig
	Preprocess PreprocessConfig
	Catalog    CatalogConfig
	Receipt    ReceiptConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Breaker    BreakerConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string        `mapstructure:"port"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// OCRConfig holds Tesseract settings
type OCRConfig struct {
	Language       string `mapstructure:"language"`
	TessdataPrefix string `mapstructure:"tessdata_prefix"`
	PageSegMode    int    `mapstructure:"page_seg_mode"`
}

// PreprocessConfig holds image cleanup parameters
type PreprocessConfig struct {
	ClipLimit       float64 `mapstructure:"clip_limit"`
	TileGrid        int     `mapstructure:"tile_grid"`
	BlockSize       int     `mapstructure:"block_size"`
	ThresholdC      float64 `mapstructure:"threshold_c"`
	DenoiseStrength float64 `mapstructure:"denoise_strength"`
	MinWidth        int     `mapstructure:"min_width"`
	MaxPixels       int     `mapstructure:"max_pixels"`
}

// CatalogConfig locates the food catalog document
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// ReceiptConfig tunes line filtering. Empty keyword lists keep the locale defaults.
type ReceiptConfig struct {
	Locale          string   `mapstructure:"locale"`
	MinNameLength   int      `mapstructure:"min_name_length"`
	MaxParallel     int      `mapstructure:"max_parallel"`
	SkipKeywords    []string `mapstructure:"skip_keywords"`
	NonFoodKeywords []string `mapstructure:"non_food_keywords"`
	FoodIndicators  []string `mapstructure:"food_indicators"`
}

// CacheConfig holds result cache configuration
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	TTL        time.Duration `mapstructure:"ttl"`
	MaxEntries int           `mapstructure:"max_entries"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
	Burst int `mapstructure:"burst"`
}

// BreakerConfig holds OCR circuit breaker configuration
type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MinRequests  uint32        `mapstructure:"min_requests"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	OpenTimeout  time.Duration `mapstructure:"open_timeout"`
}

var supportedLocales = []string{"en", "it"}

// Load loads configuration from environment variables and the default config file locations
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from path, or from the default locations when path is empty
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/pantrylens/")
	}

	v.SetEnvPrefix("PANTRYLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The config file is optional unless one was named explicitly
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	if err := validate(&config); err != nil {
		return nil, eris.Wrap(err, "config: invalid")
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.request_timeout", "60s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.tessdata_prefix", "")
	v.SetDefault("ocr.page_seg_mode", 6)

	v.SetDefault("preprocess.clip_limit", 2.0)
	v.SetDefault("preprocess.tile_grid", 8)
	v.SetDefault("preprocess.block_size", 11)
	v.SetDefault("preprocess.threshold_c", 2.0)
	v.SetDefault("preprocess.denoise_strength", 3.0)
	v.SetDefault("preprocess.min_width", 0)
	v.SetDefault("preprocess.max_pixels", 40_000_000)

	v.SetDefault("catalog.path", "data/catalog.yaml")

	v.SetDefault("receipt.locale", "en")
	v.SetDefault("receipt.min_name_length", 3)
	v.SetDefault("receipt.max_parallel", 4)
	v.SetDefault("receipt.skip_keywords", []string{})
	v.SetDefault("receipt.non_food_keywords", []string{})
	v.SetDefault("receipt.food_indicators", []string{})

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.max_entries", 1000)

	v.SetDefault("ratelimit.per_ip", 30)
	v.SetDefault("ratelimit.burst", 5)

	v.SetDefault("breaker.enabled", true)
	v.SetDefault("breaker.min_requests", 5)
	v.SetDefault("breaker.failure_ratio", 0.6)
	v.SetDefault("breaker.open_timeout", "30s")
}

// validate validates the configuration
func validate(config *Config) error {
	locale := strings.ToLower(config.Receipt.Locale)
	known := false
	for _, l := range supportedLocales {
		known = known || l == locale
	}
	if !known {
		return fmt.Errorf("receipt locale must be one of %v, got: %s", supportedLocales, config.Receipt.Locale)
	}

	if config.Catalog.Path == "" {
		return fmt.Errorf("catalog path is required (set PANTRYLENS_CATALOG_PATH)")
	}

	if config.Preprocess.ClipLimit <= 0 {
		return fmt.Errorf("preprocess clip limit must be positive, got: %v", config.Preprocess.ClipLimit)
	}
	if config.Preprocess.TileGrid <= 0 {
		return fmt.Errorf("preprocess tile grid must be positive, got: %d", config.Preprocess.TileGrid)
	}
	if config.Preprocess.BlockSize < 3 || config.Preprocess.BlockSize%2 == 0 {
		return fmt.Errorf("preprocess block size must be odd and at least 3, got: %d", config.Preprocess.BlockSize)
	}
	if config.Preprocess.DenoiseStrength < 0 {
		return fmt.Errorf("preprocess denoise strength must not be negative, got: %v", config.Preprocess.DenoiseStrength)
	}
	if config.Preprocess.MaxPixels <= 0 {
		return fmt.Errorf("preprocess max pixels must be positive, got: %d", config.Preprocess.MaxPixels)
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	if config.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server max upload bytes must be positive, got: %d", config.Server.MaxUploadBytes)
	}

	if config.Breaker.FailureRatio < 0 || config.Breaker.FailureRatio > 1 {
		return fmt.Errorf("breaker failure ratio must be between 0 and 1, got: %v", config.Breaker.FailureRatio)
	}

	return nil
}

// NewLogger builds a zap logger: console output for local work, JSON otherwise
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "config: build logger")
	}
	return logger, nil
}

// InitLogger builds the logger and installs it as the zap global
func InitLogger(cfg LogConfig) (*zap.Logger, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
