package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/reportik/reportik/internal/types"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Sentry     SentryConfig
	Billing    BillingConfig
	AI         AIConfig
	Webhook    Webhook
}

type DeploymentConfig struct {
	Mode types.RunMode `validate:"required"`
}

type ServerConfig struct {
	Address string `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type PostgresConfig struct {
	Host                   string
	Port                   int
	User                   string
	Password               string
	DBName                 string
	SSLMode                string
	MaxOpenConns           int `mapstructure:"max_open_conns" default:"10"`
	MaxIdleConns           int `mapstructure:"max_idle_conns" default:"5"`
	ConnMaxLifetimeMinutes int `mapstructure:"conn_max_lifetime_minutes" default:"60"`
	AutoMigrate            bool
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate" default:"1.0"`
}

// BillingConfig holds the payment provider credentials and URLs used by the
// checkout and webhook reconciliation flows
type BillingConfig struct {
	APIURL          string `mapstructure:"api_url" default:"https://api.mercadopago.com"`
	AccessToken     string `mapstructure:"access_token"`
	WebhookSecret   string `mapstructure:"webhook_secret"`
	NotificationURL string `mapstructure:"notification_url"`
	BackURL         string `mapstructure:"back_url"`
	Currency        string `mapstructure:"currency" default:"BRL"`
}

// AIProviderConfig configures one summarization provider. Providers are
// tried in the order they appear in AIConfig.Providers.
type AIProviderConfig struct {
	Name    string `mapstructure:"name"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AIConfig struct {
	Providers []AIProviderConfig `mapstructure:"providers"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	// Load env vars from a .env file if present
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/reportik")

	v.SetEnvPrefix("REPORTIK")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or tests without a config file
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Billing: BillingConfig{
			APIURL:   "https://api.mercadopago.com",
			Currency: "BRL",
		},
		Webhook: Webhook{
			Enabled: true,
			Topic:   "webhooks",
			PubSub:  types.MemoryPubSub,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
