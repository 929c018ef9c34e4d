package config

import (
	"github.com/spf13/viper"
)

// Config holds the application configuration, loaded from environment
// variables with sensible development defaults.
type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	JWT struct {
		SecretKey string
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	ReferenceRateURL string
	LogLevel         string
	RateLimit        int
	MigrationsPath   string
}

// NewConfig reads the configuration from the environment
func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "banquito_db")
	v.SetDefault("JWT_SECRET_KEY", "change-me-in-production")
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("SMTP_FROM", "noreply@banquito.local")
	v.SetDefault("REFERENCE_RATE_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RATE_LIMIT", 100)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")

	cfg := &Config{}
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetInt("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.DBName = v.GetString("DB_NAME")
	cfg.JWT.SecretKey = v.GetString("JWT_SECRET_KEY")
	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	cfg.SMTP.Port = v.GetInt("SMTP_PORT")
	cfg.SMTP.Username = v.GetString("SMTP_USERNAME")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")
	cfg.ReferenceRateURL = v.GetString("REFERENCE_RATE_URL")
	cfg.LogLevel = v.GetString("LOG_LEVEL")
	cfg.RateLimit = v.GetInt("RATE_LIMIT")
	cfg.MigrationsPath = v.GetString("MIGRATIONS_PATH")

	return cfg, nil
}
