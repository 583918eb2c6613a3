// Package config loads layered runtime configuration.
//
// Precedence, lowest to highest: built-in defaults, config file,
// FSDV_* environment variables, runtime overrides (command-line flags).
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/3leaps/fsdv/pkg/document"
	"github.com/3leaps/fsdv/pkg/source"
	"github.com/3leaps/fsdv/pkg/source/s3"
)

// EnvPrefix prefixes every environment variable, e.g. FSDV_VALIDATE_STRICT.
const EnvPrefix = "FSDV"

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = ".fsdv.yaml"

// ErrInvalidConfig indicates a configuration value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete runtime configuration.
type Config struct {
	Validate ValidateConfig `mapstructure:"validate"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Source   SourceConfig   `mapstructure:"source"`
	Output   OutputConfig   `mapstructure:"output"`
	Logging  LoggingConfig  `mapstructure:"logging"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// ValidateConfig controls schema resolution and comparison.
type ValidateConfig struct {
	// FileType is the declared input format; empty or "auto" infers it.
	FileType string `mapstructure:"file_type"`

	// Schema is the schema file path. Empty looks for a sibling schema.
	Schema string `mapstructure:"schema"`

	// Strict closes objects that do not state additionalProperties.
	Strict bool `mapstructure:"strict"`

	// Coerce reads typed scalars from text for every format, not only XML.
	Coerce bool `mapstructure:"coerce"`
}

// BatchConfig controls multi-input runs.
type BatchConfig struct {
	Concurrency int           `mapstructure:"concurrency"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// Exclude drops files found by glob or directory expansion.
	Exclude []string `mapstructure:"exclude"`

	// IncludeHidden keeps dot-prefixed files during expansion.
	IncludeHidden bool `mapstructure:"include_hidden"`

	// IncludeSchemas keeps *.schema.{json,yaml,yml} files during expansion.
	IncludeSchemas bool `mapstructure:"include_schemas"`
}

// SourceConfig controls how inputs are read.
type SourceConfig struct {
	MaxBytes int64     `mapstructure:"max_bytes"`
	S3       s3.Config `mapstructure:"s3"`
}

// OutputConfig controls result rendering.
type OutputConfig struct {
	// Format is "text" or "jsonl".
	Format string `mapstructure:"format"`

	// Destination is "stdout" or a file path (optionally "file:" prefixed).
	Destination string `mapstructure:"destination"`

	// Quiet suppresses text lines for valid inputs.
	Quiet bool `mapstructure:"quiet"`
}

// LoggingConfig controls diagnostic logging on stderr.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

var (
	configMu  sync.RWMutex
	appConfig *Config
)

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("validate.file_type", "auto")
	v.SetDefault("validate.schema", "")
	v.SetDefault("validate.strict", false)
	v.SetDefault("validate.coerce", false)

	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("batch.rate_limit", 0.0)
	v.SetDefault("batch.timeout", "0s")
	v.SetDefault("batch.exclude", []string{})
	v.SetDefault("batch.include_hidden", false)
	v.SetDefault("batch.include_schemas", false)

	v.SetDefault("source.max_bytes", source.DefaultMaxBytes)
	v.SetDefault("source.s3.region", "")
	v.SetDefault("source.s3.endpoint", "")
	v.SetDefault("source.s3.profile", "")
	v.SetDefault("source.s3.access_key_id", "")
	v.SetDefault("source.s3.secret_access_key", "")
	v.SetDefault("source.s3.force_path_style", false)

	v.SetDefault("output.format", "text")
	v.SetDefault("output.destination", "stdout")
	v.SetDefault("output.quiet", false)

	v.SetDefault("logging.level", "info")
}

// Load builds the configuration from defaults, the first config file found
// in the default locations, the environment and overrides.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	return LoadFile(ctx, "", overrides...)
}

// LoadFile is Load with an explicit config file. The file must exist when
// path is not empty.
func LoadFile(ctx context.Context, path string, overrides ...map[string]any) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		file = findConfigFile()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	for _, o := range overrides {
		applyOverrides(v, "", o)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = file

	if err := cfg.Check(); err != nil {
		return nil, err
	}

	configMu.Lock()
	appConfig = &cfg
	configMu.Unlock()

	return &cfg, nil
}

// GetConfig returns the most recently loaded configuration, or nil.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// Check verifies value ranges and enumerations.
func (c *Config) Check() error {
	if _, err := document.ParseFormat(c.Validate.FileType); err != nil {
		return fmt.Errorf("%w: validate.file_type: %v", ErrInvalidConfig, err)
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("%w: batch.concurrency must be at least 1, got %d", ErrInvalidConfig, c.Batch.Concurrency)
	}
	if c.Batch.RateLimit < 0 {
		return fmt.Errorf("%w: batch.rate_limit must not be negative", ErrInvalidConfig)
	}
	if c.Batch.Timeout < 0 {
		return fmt.Errorf("%w: batch.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Source.MaxBytes <= 0 {
		return fmt.Errorf("%w: source.max_bytes must be positive", ErrInvalidConfig)
	}
	switch c.Output.Format {
	case "text", "jsonl":
	default:
		return fmt.Errorf("%w: output.format must be text or jsonl, got %q", ErrInvalidConfig, c.Output.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be debug, info, warn or error, got %q", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}

// Format returns the declared input format.
func (c *Config) Format() document.Format {
	f, _ := document.ParseFormat(c.Validate.FileType)
	return f
}

// applyOverrides sets nested override maps as dotted keys so they take
// precedence over the environment.
func applyOverrides(v *viper.Viper, prefix string, m map[string]any) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := val.(map[string]any); ok {
			applyOverrides(v, key, nested)
			continue
		}
		v.Set(key, val)
	}
}

// findConfigFile returns the first existing default config file.
func findConfigFile() string {
	for _, p := range SearchPaths() {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// SearchPaths lists the default config file locations in lookup order.
func SearchPaths() []string {
	paths := []string{DefaultFileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "fsdv", "config.yaml"))
	}
	return paths
}
