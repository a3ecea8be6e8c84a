package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Paystack    PaystackConfig
	Auth        AuthConfig
	Admin       AdminConfig
	AppURL      string
	LogLevel    string
}

type DatabaseConfig struct {
	Driver   string // postgres or memory
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type PaystackConfig struct {
	BaseURL         string
	SecretKey       string
	Timeout         time.Duration
	ReferencePrefix string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type AdminConfig struct {
	APIKeyHash string
}

// ShopConfig configures the terminal shop client
type ShopConfig struct {
	APIURL    string
	Token     string
	CartPath  string
	Timeout   time.Duration
	Namespace string
}

func readEnvFile() error {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Load reads the server configuration
func Load() (*Config, error) {
	if err := readEnvFile(); err != nil {
		return nil, err
	}

	timeout, err := getDurationOrViper("PAYSTACK_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnvOrViper("DB_DRIVER", "postgres")),
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "storefront"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Paystack: PaystackConfig{
			BaseURL:         strings.TrimSuffix(getEnvOrViper("PAYSTACK_BASE_URL", "https://api.paystack.co"), "/"),
			SecretKey:       getEnvOrViper("PAYSTACK_SECRET_KEY", ""),
			Timeout:         timeout,
			ReferencePrefix: getEnvOrViper("REFERENCE_PREFIX", "exousia"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrViper("AUTH_JWT_SECRET", ""),
			Issuer:    getEnvOrViper("AUTH_ISSUER", ""),
		},
		Admin: AdminConfig{
			APIKeyHash: getEnvOrViper("ADMIN_API_KEY_HASH", ""),
		},
		AppURL:   strings.TrimSuffix(getEnvOrViper("APP_URL", "http://localhost:3000"), "/"),
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Paystack.SecretKey == "" {
		return nil, fmt.Errorf("PAYSTACK_SECRET_KEY is required")
	}
	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "memory" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", cfg.Database.Driver)
	}
	if cfg.Environment == "production" && cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("AUTH_JWT_SECRET is required in production")
	}

	return cfg, nil
}

// LoadShop reads the shop client configuration
func LoadShop() (*ShopConfig, error) {
	if err := readEnvFile(); err != nil {
		return nil, err
	}

	timeout, err := getDurationOrViper("SHOP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &ShopConfig{
		APIURL:    strings.TrimSuffix(getEnvOrViper("SHOP_API_URL", "http://localhost:8080"), "/"),
		Token:     getEnvOrViper("SHOP_TOKEN", ""),
		CartPath:  getEnvOrViper("SHOP_CART_PATH", "shop.db"),
		Timeout:   timeout,
		Namespace: getEnvOrViper("SHOP_CART_NAMESPACE", "exousia-cart"),
	}, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}

func getDurationOrViper(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := getEnvOrViper(key, "")
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
