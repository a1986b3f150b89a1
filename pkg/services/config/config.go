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

const (
	DefaultAlmaTimeout       = 30 * time.Second
	DefaultRateLimitInterval = 100 * time.Millisecond
	DefaultAWSRegion         = "us-east-1"
	DefaultTemplate          = "config/credit_card_slip_template.xml"

	ProductionWorkspace = "prod"
)

var ErrMissingRequired = errors.New("missing required configuration")

// Config is read from the environment only.
type Config struct {
	Workspace         string        `mapstructure:"workspace"`
	SentryDSN         string        `mapstructure:"sentry_dsn"`
	AlmaAPIURL        string        `mapstructure:"alma_api_url"`
	AlmaAPIKey        string        `mapstructure:"alma_api_read_key"`
	AlmaTimeout       float64       `mapstructure:"alma_api_timeout"`
	RateLimitInterval time.Duration `mapstructure:"alma_api_rate_limit_interval"`
	SESFromEmail      string        `mapstructure:"ses_send_from_email"`
	SESRecipientEmail string        `mapstructure:"ses_recipient_email"`
	AWSRegion         string        `mapstructure:"aws_region"`
	Template          string        `mapstructure:"ccslips_template"`
}

var requiredKeys = []string{
	"workspace",
	"alma_api_url",
	"alma_api_read_key",
}

var defaults = map[string]any{
	"alma_api_timeout":             DefaultAlmaTimeout.Seconds(),
	"alma_api_rate_limit_interval": DefaultRateLimitInterval,
	"aws_region":                   DefaultAWSRegion,
	"ccslips_template":             DefaultTemplate,
}

var envKeys = []string{
	"workspace",
	"sentry_dsn",
	"alma_api_url",
	"alma_api_read_key",
	"alma_api_timeout",
	"alma_api_rate_limit_interval",
	"ses_send_from_email",
	"ses_recipient_email",
	"aws_region",
	"ccslips_template",
}

// LoadDotEnv loads variables from the given .env files without overriding
// ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range envKeys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	return &cfg, nil
}

// CheckRequired reports every unset required variable in a single error.
func (c *Config) CheckRequired() error {
	values := map[string]string{
		"workspace":         c.Workspace,
		"alma_api_url":      c.AlmaAPIURL,
		"alma_api_read_key": c.AlmaAPIKey,
	}

	var missing []string
	for _, key := range requiredKeys {
		if values[key] == "" {
			missing = append(missing, strings.ToUpper(key))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}
	return nil
}

// Timeout is the Alma request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AlmaTimeout * float64(time.Second))
}

// Recipients splits SES_RECIPIENT_EMAIL on whitespace.
func (c *Config) Recipients() []string {
	return strings.Fields(c.SESRecipientEmail)
}

func (c *Config) IsProduction() bool {
	return c.Workspace == ProductionWorkspace
}
