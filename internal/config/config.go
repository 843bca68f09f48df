package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Dedup       DedupConfig       `yaml:"dedup" mapstructure:"dedup"`
	CrossSource CrossSourceConfig `yaml:"cross_source" mapstructure:"cross_source"`
	Freshness   FreshnessConfig   `yaml:"freshness" mapstructure:"freshness"`
	Cleanup     CleanupConfig     `yaml:"cleanup" mapstructure:"cleanup"`
	Feedback    FeedbackConfig    `yaml:"feedback" mapstructure:"feedback"`
	Filters     FiltersConfig     `yaml:"filters" mapstructure:"filters"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Path        string `yaml:"path" mapstructure:"path"`
}

// DedupConfig configures similarity thresholds for the dedup engine.
type DedupConfig struct {
	DuplicateThreshold     float64 `yaml:"duplicate_threshold" mapstructure:"duplicate_threshold"`
	NearDuplicateThreshold float64 `yaml:"near_duplicate_threshold" mapstructure:"near_duplicate_threshold"`
}

// CrossSourceConfig configures cross-source corroboration.
type CrossSourceConfig struct {
	AgreementThreshold float64 `yaml:"agreement_threshold" mapstructure:"agreement_threshold"`
	MinSources         int     `yaml:"min_sources" mapstructure:"min_sources"`
}

// FreshnessConfig configures the exponential relevance decay.
type FreshnessConfig struct {
	HalfLifeDays float64 `yaml:"half_life_days" mapstructure:"half_life_days"`
	Floor        float64 `yaml:"floor" mapstructure:"floor"`
}

// CleanupConfig configures the cleanup orchestrator.
type CleanupConfig struct {
	AutoRemove          bool    `yaml:"auto_remove" mapstructure:"auto_remove"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	IncludeCrossSource  bool    `yaml:"include_cross_source" mapstructure:"include_cross_source"`
}

// FeedbackConfig configures the feedback log.
type FeedbackConfig struct {
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

// FiltersConfig configures the rule-based content filters.
type FiltersConfig struct {
	RulesPath string `yaml:"rules_path" mapstructure:"rules_path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int     `yaml:"port" mapstructure:"port"`
	RPS  float64 `yaml:"rps" mapstructure:"rps"`
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
	v.SetEnvPrefix("CURATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "curation.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rps", 10.0)
	v.SetDefault("dedup.duplicate_threshold", 0.85)
	v.SetDefault("dedup.near_duplicate_threshold", 0.65)
	v.SetDefault("cross_source.agreement_threshold", 0.6)
	v.SetDefault("cross_source.min_sources", 2)
	v.SetDefault("freshness.half_life_days", 180.0)
	v.SetDefault("freshness.floor", 10.0)
	v.SetDefault("cleanup.auto_remove", false)
	v.SetDefault("cleanup.confidence_threshold", 0.8)
	v.SetDefault("cleanup.include_cross_source", false)
	v.SetDefault("feedback.max_entries", 1000)

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
