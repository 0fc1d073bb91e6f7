// Package config provides configuration loading and validation for the redblack CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/redblack/internal/rbtree"
)

// Sentinel validation errors.
var (
	ErrInvalidIndent    = errors.New("render indent must be positive")
	ErrInvalidThreshold = errors.New("hibernation threshold must not be negative")
	ErrInvalidLogLevel  = errors.New("invalid log level")
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// Log formats.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	configName = "redblack"
	envPrefix  = "REDBLACK"
)

// Config holds all configuration for the redblack CLI.
type Config struct {
	Tree      TreeConfig      `mapstructure:"tree" yaml:"tree"`
	Render    RenderConfig    `mapstructure:"render" yaml:"render"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// TreeConfig holds tree behavior configuration.
type TreeConfig struct {
	DeleteMode           string `mapstructure:"delete_mode" yaml:"delete_mode"`
	HibernationThreshold int    `mapstructure:"hibernation_threshold" yaml:"hibernation_threshold"`
}

// RenderConfig holds rendering configuration.
type RenderConfig struct {
	Indent int `mapstructure:"indent" yaml:"indent"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TelemetryConfig holds OpenTelemetry and Prometheus configuration.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
	MetricsAddr  string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure" yaml:"otlp_insecure"`
}

// LoadConfig loads configuration from file and environment variables.
// An empty configPath searches the working directory, ./config and
// $HOME/.config/redblack for redblack.yaml.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("$HOME/.config/redblack")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		Tree: TreeConfig{
			DeleteMode:           DefaultDeleteMode,
			HibernationThreshold: DefaultHibernationThreshold,
		},
		Render: RenderConfig{Indent: DefaultIndent},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: DefaultOTLPEndpoint,
			OTLPInsecure: DefaultOTLPInsecure,
			MetricsAddr:  DefaultMetricsAddr,
		},
	}
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("tree.delete_mode", DefaultDeleteMode)
	viperCfg.SetDefault("tree.hibernation_threshold", DefaultHibernationThreshold)

	viperCfg.SetDefault("render.indent", DefaultIndent)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultOTLPInsecure)
	viperCfg.SetDefault("telemetry.metrics_addr", DefaultMetricsAddr)
}

// Validate checks every field and returns the first problem found.
func (c *Config) Validate() error {
	_, modeErr := rbtree.ParseDeleteMode(c.Tree.DeleteMode)
	if modeErr != nil {
		return modeErr
	}

	if c.Tree.HibernationThreshold < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidThreshold, c.Tree.HibernationThreshold)
	}

	if c.Render.Indent <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIndent, c.Render.Indent)
	}

	_, levelErr := c.Logging.SlogLevel()
	if levelErr != nil {
		return levelErr
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	return nil
}

// DeleteMode returns the parsed tree delete mode, falling back to plain
// deletion when the configured name is invalid.
func (c *Config) DeleteMode() rbtree.DeleteMode {
	mode, err := rbtree.ParseDeleteMode(c.Tree.DeleteMode)
	if err != nil {
		return rbtree.DeletePlain
	}

	return mode
}

// TreeOptions converts the configuration into tree construction options.
func (c *Config) TreeOptions() []rbtree.Option {
	return []rbtree.Option{
		rbtree.WithDeleteMode(c.DeleteMode()),
		rbtree.WithIndent(c.Render.Indent),
	}
}

// SlogLevel parses the configured level name.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(l.Level))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}
