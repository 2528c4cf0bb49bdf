package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/newthinker/stratlab/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	Data       DataConfig                `mapstructure:"data"`
	Strategies map[string]StrategyConfig `mapstructure:"strategies"`
	Universe   []string                  `mapstructure:"universe" validate:"dive,required"`
	Storage    StorageConfig             `mapstructure:"storage"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port" validate:"min=1,max=65535"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours" validate:"min=0"`
	MaxJobs     int    `mapstructure:"max_jobs" validate:"min=0"`
}

// DataConfig selects where price history comes from.
type DataConfig struct {
	Source  string        `mapstructure:"source" validate:"oneof=yahoo csv"`
	CSVDir  string        `mapstructure:"csv_dir"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
}

// StrategyConfig overrides a strategy's default parameters.
type StrategyConfig struct {
	Params map[string]any `mapstructure:"params"`
}

type StorageConfig struct {
	Archive ArchiveConfig `mapstructure:"archive"`
}

type ArchiveConfig struct {
	Type string   `mapstructure:"type" validate:"oneof=localfs s3"`
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DefaultUniverse is the ticker list offered when none is configured.
var DefaultUniverse = []string{"AAPL", "TSLA", "GOOGL", "MSFT", "BTC-USD", "ETH-USD", "AMZN"}

// Load reads configuration from file on top of Defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v, Defaults())

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.job_ttl_hours", d.Server.JobTTLHours)
	v.SetDefault("server.max_jobs", d.Server.MaxJobs)
	v.SetDefault("data.source", d.Data.Source)
	v.SetDefault("data.csv_dir", d.Data.CSVDir)
	v.SetDefault("data.timeout", d.Data.Timeout)
	v.SetDefault("universe", d.Universe)
	v.SetDefault("storage.archive.type", d.Storage.Archive.Type)
	v.SetDefault("storage.archive.path", d.Storage.Archive.Path)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Data: DataConfig{
			Source:  "yahoo",
			CSVDir:  "data",
			Timeout: 10 * time.Second,
		},
		Universe: append([]string(nil), DefaultUniverse...),
		Storage: StorageConfig{
			Archive: ArchiveConfig{
				Type: "localfs",
				Path: "archive",
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := verrs[0]
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("%s failed %q check, got %v", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	if c.Data.Source == "csv" && c.Data.CSVDir == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("data.csv_dir required when source is csv"))
	}

	switch c.Storage.Archive.Type {
	case "localfs":
		if c.Storage.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.archive.path required when type is localfs"))
		}
	case "s3":
		if c.Storage.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("storage.archive.s3.bucket required when type is s3"))
		}
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path))
	}

	return nil
}

// StrategyDefaults returns the configured parameter overrides keyed by
// strategy name.
func (c *Config) StrategyDefaults() map[string]map[string]any {
	out := make(map[string]map[string]any, len(c.Strategies))
	for name, sc := range c.Strategies {
		if len(sc.Params) > 0 {
			out[name] = sc.Params
		}
	}
	return out
}

// JobTTL returns how long finished jobs are kept.
func (c *Config) JobTTL() time.Duration {
	return time.Duration(c.Server.JobTTLHours) * time.Hour
}
