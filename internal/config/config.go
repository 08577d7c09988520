package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"energy-commitments/internal/commitments/infrastructure/marketdata"

	"gopkg.in/yaml.v3"
)

// Config holds service settings.
type Config struct {
	HTTPAddr          string            `yaml:"http_addr"`
	DatabaseURL       string            `yaml:"database_url"`
	Database          DatabaseConfig    `yaml:"database"`
	MarketData        marketdata.Config `yaml:"market_data"`
	MarketDataTimeout time.Duration     `yaml:"market_data_timeout"`
	JWTSecret         string            `yaml:"jwt_secret"`
	CapacitySkipRows  int               `yaml:"capacity_skip_rows"`
}

// DatabaseConfig holds discrete connection settings used when no URL is given.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// LoadConfig reads the environment and overlays the yaml file named by
// COMMITMENTS_CONFIG when present.
func LoadConfig() (Config, error) {
	cfg := Config{
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     getenvIntDefault("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  getenvDefault("DB_SSLMODE", "disable"),
		},
		MarketData: marketdata.Config{
			DispatchURL:       os.Getenv("DISPATCH_API_URL"),
			PriceURL:          os.Getenv("PRICE_API_URL"),
			DispatchDatasetID: os.Getenv("DISPATCH_ENERGY_DATASET_ID"),
			PriceDatasetID:    os.Getenv("PRICE_DATASET_ID"),
		},
		MarketDataTimeout: getenvDuration("MARKET_DATA_TIMEOUT", 30*time.Second),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		CapacitySkipRows:  getenvIntDefault("CAPACITY_SKIP_ROWS", 5),
	}

	if path := os.Getenv("COMMITMENTS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.Database.DSN()
	}
	if cfg.CapacitySkipRows < 0 {
		return cfg, errors.New("config: capacity skip rows must be >= 0")
	}
	return cfg, nil
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	if err := c.MarketData.Validate(); err != nil {
		return err
	}
	if c.MarketDataTimeout <= 0 {
		return errors.New("config: market data timeout must be positive")
	}
	return nil
}

// DSN builds a postgres URL, or returns "" when host or database name is unset.
func (d DatabaseConfig) DSN() string {
	if d.Host == "" || d.Name == "" {
		return ""
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.User != "" {
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
	}
	if d.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(d.SSLMode)
	}
	return u.String()
}

func getenvDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
