// Package config loads application configuration and wires the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Cities    CitiesConfig    `yaml:"cities" mapstructure:"cities"`
	Import    ImportConfig    `yaml:"import" mapstructure:"import"`
	Overpass  OverpassConfig  `yaml:"overpass" mapstructure:"overpass"`
	Census    CensusConfig    `yaml:"census" mapstructure:"census"`
	Ranking   RankingConfig   `yaml:"ranking" mapstructure:"ranking"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// CitiesConfig locates the strongly-typed city registry file.
type CitiesConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ImportConfig configures the boundary import orchestrator.
type ImportConfig struct {
	StalenessDays int    `yaml:"staleness_days" mapstructure:"staleness_days"`
	TimeoutSecs   int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	ShapefileDir  string `yaml:"shapefile_dir" mapstructure:"shapefile_dir"`
}

// Staleness returns the freshness window as a duration.
func (c ImportConfig) Staleness() time.Duration {
	return time.Duration(c.StalenessDays) * 24 * time.Hour
}

// OverpassConfig configures the points-of-interest provider.
type OverpassConfig struct {
	URL            string  `yaml:"url" mapstructure:"url"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	MaxRetries     int     `yaml:"max_retries" mapstructure:"max_retries"`
	MaxConcurrency int     `yaml:"max_concurrency" mapstructure:"max_concurrency"`
}

// CensusConfig configures the TIGERweb and ACS population endpoints.
type CensusConfig struct {
	TigerURL    string `yaml:"tiger_url" mapstructure:"tiger_url"`
	ACSURL      string `yaml:"acs_url" mapstructure:"acs_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// RankingConfig configures leaderboard construction.
type RankingConfig struct {
	TopN int `yaml:"top_n" mapstructure:"top_n"`
}

// AnthropicConfig holds the Claude settings for description generation.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the read API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRIPHEATMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Secrets default to empty so env-only values survive Unmarshal.
	v.SetDefault("store.database_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("cities.path", "cities.yaml")
	v.SetDefault("import.staleness_days", 90)
	v.SetDefault("import.timeout_secs", 60)
	v.SetDefault("import.shapefile_dir", "/tmp/neighborhoods")
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 25)
	v.SetDefault("overpass.requests_per_sec", 1)
	v.SetDefault("overpass.max_retries", 3)
	v.SetDefault("overpass.max_concurrency", 4)
	v.SetDefault("census.tiger_url", "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/tigerWMS_Current/MapServer")
	v.SetDefault("census.acs_url", "https://api.census.gov/data/2023/acs/acs5")
	v.SetDefault("census.timeout_secs", 60)
	v.SetDefault("ranking.top_n", 30)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
