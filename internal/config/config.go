package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/NeonAnubis/afrimail-backend/internal/logger"
	"github.com/NeonAnubis/afrimail-backend/internal/tracing"
)

type AppConfig struct {
	APIPort string `env:"PORT,required" envDefault:"11000"`
	APIKey  string `env:"API_KEY,required"`
}

type DatabaseConfig struct {
	Host            string `env:"AFRIMAIL_POSTGRES_HOST,required"`
	Port            string `env:"AFRIMAIL_POSTGRES_PORT,required"`
	User            string `env:"AFRIMAIL_POSTGRES_USER,required"`
	DBName          string `env:"AFRIMAIL_POSTGRES_DB_NAME,required"`
	Password        string `env:"AFRIMAIL_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"AFRIMAIL_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"AFRIMAIL_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"AFRIMAIL_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"AFRIMAIL_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"AFRIMAIL_POSTGRES_SSL_MODE" envDefault:"require"`
}

// MailcowConfig points at the mailcow admin API. ApiUrl must already include
// the version path segment (e.g. https://mail.example.com/api/v1); the client
// appends resource paths directly.
type MailcowConfig struct {
	ApiUrl         string `env:"MAILCOW_API_URL"`
	ApiKey         string `env:"MAILCOW_API_KEY"`
	TimeoutSeconds int    `env:"MAILCOW_API_TIMEOUT_SECONDS" envDefault:"30"`
}

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *DatabaseConfig
	MailcowConfig  *MailcowConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &DatabaseConfig{},
		MailcowConfig:  &MailcowConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading afrimail config: %v", err)
	}

	if err := config.MailcowConfig.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate fails fast on malformed mailcow settings. A missing ApiUrl is
// allowed (the integration is optional), a broken one is a startup error.
func (c *MailcowConfig) Validate() error {
	if c.ApiUrl == "" {
		return nil
	}

	parsed, err := url.Parse(c.ApiUrl)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("malformed mailcow API URL: %q", c.ApiUrl)
	}
	if !strings.Contains(parsed.Path, "/api/v") {
		return fmt.Errorf("mailcow API URL must include the version segment (e.g. /api/v1): %q", c.ApiUrl)
	}
	if c.ApiKey == "" {
		return fmt.Errorf("mailcow API URL is set but MAILCOW_API_KEY is missing")
	}

	return nil
}
