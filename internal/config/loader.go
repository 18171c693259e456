package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. WAYBACK_MAX_REQUEST_RETRIES.
const EnvPrefix = "WAYBACK"

var validate = validator.New()

type configDTO struct {
	ArchiveEndpoint        string        `mapstructure:"archive_endpoint" validate:"required,url"`
	CheckEndpoint          string        `mapstructure:"check_endpoint" validate:"required,url"`
	MaxRequestRetries      int           `mapstructure:"max_request_retries" validate:"gte=0"`
	ArchiveThresholdDays   int           `mapstructure:"archive_threshold_days" validate:"gte=0"`
	UserAgent              string        `mapstructure:"user_agent" validate:"required"`
	ExcludedDomains        []string      `mapstructure:"excluded_domains"`
	ExcludePatterns        []string      `mapstructure:"exclude_patterns"`
	Concurrency            int           `mapstructure:"concurrency" validate:"gte=1"`
	RequestsPerMinute      int           `mapstructure:"requests_per_minute" validate:"gte=0"`
	Jitter                 time.Duration `mapstructure:"jitter" validate:"gte=0"`
	RandomSeed             int64         `mapstructure:"random_seed"`
	BackoffInitialDuration time.Duration `mapstructure:"backoff_initial" validate:"gte=0"`
	BackoffMultiplier      float64       `mapstructure:"backoff_multiplier" validate:"gte=1"`
	BackoffMaxDuration     time.Duration `mapstructure:"backoff_max" validate:"gte=0"`
	Timeout                time.Duration `mapstructure:"timeout" validate:"gt=0"`
	LogLevel               string        `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error dpanic panic fatal"`
	LogDevelopment         bool          `mapstructure:"log_development"`
	MetricsFile            string        `mapstructure:"metrics_file"`
	ReportFile             string        `mapstructure:"report_file"`
}

func (c *Config) toDTO() configDTO {
	return configDTO{
		ArchiveEndpoint:        c.archiveEndpoint,
		CheckEndpoint:          c.checkEndpoint,
		MaxRequestRetries:      c.maxRequestRetries,
		ArchiveThresholdDays:   c.archiveThresholdDays,
		UserAgent:              c.userAgent,
		ExcludedDomains:        c.excludedDomains,
		ExcludePatterns:        c.excludePatterns,
		Concurrency:            c.concurrency,
		RequestsPerMinute:      c.requestsPerMinute,
		Jitter:                 c.jitter,
		RandomSeed:             c.randomSeed,
		BackoffInitialDuration: c.backoffInitialDuration,
		BackoffMultiplier:      c.backoffMultiplier,
		BackoffMaxDuration:     c.backoffMaxDuration,
		Timeout:                c.timeout,
		LogLevel:               c.logLevel,
		LogDevelopment:         c.logDevelopment,
		MetricsFile:            c.metricsFile,
		ReportFile:             c.reportFile,
	}
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	return WithDefault().
		WithArchiveEndpoint(dto.ArchiveEndpoint).
		WithCheckEndpoint(dto.CheckEndpoint).
		WithMaxRequestRetries(dto.MaxRequestRetries).
		WithArchiveThresholdDays(dto.ArchiveThresholdDays).
		WithUserAgent(dto.UserAgent).
		WithExcludedDomains(dto.ExcludedDomains).
		WithExcludePatterns(dto.ExcludePatterns).
		WithConcurrency(dto.Concurrency).
		WithRequestsPerMinute(dto.RequestsPerMinute).
		WithJitter(dto.Jitter).
		WithRandomSeed(dto.RandomSeed).
		WithBackoffInitialDuration(dto.BackoffInitialDuration).
		WithBackoffMultiplier(dto.BackoffMultiplier).
		WithBackoffMaxDuration(dto.BackoffMaxDuration).
		WithTimeout(dto.Timeout).
		WithLogLevel(dto.LogLevel).
		WithLogDevelopment(dto.LogDevelopment).
		WithMetricsFile(dto.MetricsFile).
		WithReportFile(dto.ReportFile).
		Build()
}

func validateDTO(dto configDTO) error {
	if err := validate.Struct(dto); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			fields := make([]string, 0, len(validationErrs))
			for _, fe := range validationErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	return nil
}

// newViper registers every key with its default so environment overrides
// are visible to Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	d := WithDefault().toDTO()
	v.SetDefault("archive_endpoint", d.ArchiveEndpoint)
	v.SetDefault("check_endpoint", d.CheckEndpoint)
	v.SetDefault("max_request_retries", d.MaxRequestRetries)
	v.SetDefault("archive_threshold_days", d.ArchiveThresholdDays)
	v.SetDefault("user_agent", d.UserAgent)
	v.SetDefault("excluded_domains", d.ExcludedDomains)
	v.SetDefault("exclude_patterns", d.ExcludePatterns)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("requests_per_minute", d.RequestsPerMinute)
	v.SetDefault("jitter", d.Jitter)
	v.SetDefault("random_seed", d.RandomSeed)
	v.SetDefault("backoff_initial", d.BackoffInitialDuration)
	v.SetDefault("backoff_multiplier", d.BackoffMultiplier)
	v.SetDefault("backoff_max", d.BackoffMaxDuration)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_development", d.LogDevelopment)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("report_file", d.ReportFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load builds a Config from defaults, then the file at path (JSON, YAML
// or TOML by extension) when path is not empty, then WAYBACK_ environment
// variables.
func Load(path string) (Config, error) {
	v := newViper()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var parseErr viper.ConfigParseError
			if errors.As(err, &parseErr) {
				return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
			}
			return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
		}
	}

	dto := configDTO{}
	if err := v.Unmarshal(&dto); err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(dto)
}

// WithConfigFile is Load with a mandatory file.
func WithConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, fmt.Errorf("%w: empty path", ErrFileDoesNotExist)
	}
	return Load(path)
}

// LoadDotEnv exports the variables in the given .env files (default
// ".env") into the process environment. Missing files are ignored and
// variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
		}
	}
	return nil
}
