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
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts" mapstructure:"artifacts"`
	Sizing     SizingConfig     `yaml:"sizing" mapstructure:"sizing"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
}

// ClassifierConfig bounds the calls made to infer missing driver ratings.
type ClassifierConfig struct {
	TimeoutSecs         int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Concurrency         int     `yaml:"concurrency" mapstructure:"concurrency"`
	MaxAttempts         int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	RequestsPerSecond   float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst               int     `yaml:"burst" mapstructure:"burst"`
	BreakerThreshold    int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// ArtifactsConfig points at the trained regression model and its scalers.
// An empty MultiplierTable means the embedded COCOMO II table.
type ArtifactsConfig struct {
	ModelPath       string `yaml:"model_path" mapstructure:"model_path"`
	ScalerXPath     string `yaml:"scaler_x_path" mapstructure:"scaler_x_path"`
	ScalerYPath     string `yaml:"scaler_y_path" mapstructure:"scaler_y_path"`
	MultiplierTable string `yaml:"multiplier_table" mapstructure:"multiplier_table"`
	FeatureWidth    int    `yaml:"feature_width" mapstructure:"feature_width"`
}

// SizingConfig configures function-point to KLOC conversion.
type SizingConfig struct {
	LOCPerFP float64 `yaml:"loc_per_fp" mapstructure:"loc_per_fp"`
}

// StoreConfig configures the project listing database.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	Seed        bool   `yaml:"seed" mapstructure:"seed"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
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
	v.SetEnvPrefix("EFFORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 10)
	v.SetDefault("anthropic.temperature", 0.0)
	v.SetDefault("classifier.timeout_secs", 10)
	v.SetDefault("classifier.concurrency", 4)
	v.SetDefault("classifier.max_attempts", 2)
	v.SetDefault("classifier.requests_per_second", 5.0)
	v.SetDefault("classifier.burst", 2)
	v.SetDefault("classifier.breaker_threshold", 5)
	v.SetDefault("classifier.breaker_cooldown_secs", 30)
	v.SetDefault("artifacts.model_path", "artifacts/model.json")
	v.SetDefault("artifacts.scaler_x_path", "artifacts/scaler_x.json")
	v.SetDefault("artifacts.scaler_y_path", "artifacts/scaler_y.json")
	v.SetDefault("artifacts.multiplier_table", "")
	v.SetDefault("artifacts.feature_width", 15)
	v.SetDefault("sizing.loc_per_fp", 53.0)
	v.SetDefault("store.database_url", "effort.db")
	v.SetDefault("store.seed", true)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

// Validate checks that the settings a command needs are present. mode is
// one of "serve", "estimate" or "drivers".
func (c *Config) Validate(mode string) error {
	var missing []string

	switch mode {
	case "serve", "estimate":
		if c.Artifacts.ModelPath == "" {
			missing = append(missing, "artifacts.model_path")
		}
		if c.Artifacts.FeatureWidth != 0 && c.Artifacts.FeatureWidth < 14 {
			return eris.Errorf("config: artifacts.feature_width must be at least 14, got %d", c.Artifacts.FeatureWidth)
		}
		if c.Sizing.LOCPerFP <= 0 {
			return eris.Errorf("config: sizing.loc_per_fp must be positive, got %v", c.Sizing.LOCPerFP)
		}
		if c.Classifier.Concurrency < 0 {
			return eris.Errorf("config: classifier.concurrency must not be negative, got %d", c.Classifier.Concurrency)
		}
		if mode == "serve" {
			if c.Store.DatabaseURL == "" {
				missing = append(missing, "store.database_url")
			}
			if c.Server.Port <= 0 {
				return eris.Errorf("config: server.port must be positive, got %d", c.Server.Port)
			}
		}
	case "drivers":
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.Errorf("config: missing required fields for %s: %s", mode, strings.Join(missing, ", "))
	}
	return nil
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
