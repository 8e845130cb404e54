package config

import (
	"log"
	"os"

	"github.com/asesorame/asesorame/internal/payment"
	"github.com/asesorame/asesorame/internal/search"
	pkgcfg "github.com/asesorame/asesorame/pkg/config"
	"github.com/joho/godotenv"
)

type Checkout struct {
	AccessToken string
	BaseURL     string
	Currency    string
	SuccessURL  string
	FailureURL  string
	PendingURL  string
}

type Config struct {
	pkgcfg.Config

	CORSOrigins []string
	Search      search.Config
	Checkout    Checkout
}

// LoadConfig reads .env when present and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		Config:      pkgcfg.Load(),
		CORSOrigins: pkgcfg.CSV(pkgcfg.EnvDefault("CORS_ORIGINS", "http://localhost:3000")),
		Search: search.Config{
			URL:      os.Getenv("ES_URL"),
			User:     os.Getenv("ES_USER"),
			Password: os.Getenv("ES_PASSWORD"),
			Index:    pkgcfg.EnvDefault("ES_INDEX", search.DefaultIndex),
		},
		Checkout: Checkout{
			AccessToken: os.Getenv("MP_ACCESS_TOKEN"),
			BaseURL:     pkgcfg.EnvDefault("MP_BASE_URL", payment.DefaultBaseURL),
			Currency:    pkgcfg.EnvDefault("MP_CURRENCY", "CLP"),
			SuccessURL:  pkgcfg.EnvDefault("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
			FailureURL:  pkgcfg.EnvDefault("CHECKOUT_FAILURE_URL", "http://localhost:3000/checkout/failure"),
			PendingURL:  pkgcfg.EnvDefault("CHECKOUT_PENDING_URL", "http://localhost:3000/checkout/pending"),
		},
	}
	return cfg
}

// Validate aborts the process when a required setting is missing.
func (c *Config) Validate() {
	pkgcfg.MustOneOf(c.DBDriver, "DB_DRIVER", "postgres", "mysql", "sqlite")
	pkgcfg.MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	pkgcfg.MustNonEmptyBytes(c.JWTSecret, "JWT_SECRET")
	if c.Checkout.AccessToken == "" {
		log.Printf("Notice: MP_ACCESS_TOKEN is empty, payment links will be rejected upstream")
	}
}
