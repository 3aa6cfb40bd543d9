package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/secrets"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"marketplace-service/internal/models"
	"marketplace-service/internal/pricing"
	"marketplace-service/internal/services"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisURL string

	// Server
	Port        string
	Environment string
	CORSOrigins []string

	// Messaging
	NATSURL string

	// Services
	ApprovalServiceURL string
	StaffServiceURL    string

	// Pagination
	DefaultPageSize int
	MaxPageSize     int

	// Payments
	StripeSecretKey     string
	StripeWebhookSecret string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	// Checkout pricing
	CheckoutTTL           time.Duration
	CheckoutSoftTTL       time.Duration
	DefaultCurrency       string
	ShippingFlatRate      decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxRate               decimal.Decimal
}

func Load() *Config {
	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	defaultPageSize, _ := strconv.Atoi(getEnv("DEFAULT_PAGE_SIZE", "20"))
	maxPageSize, _ := strconv.Atoi(getEnv("MAX_PAGE_SIZE", "100"))

	return &Config{
		// Database - fetch password from GCP Secret Manager if enabled
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: secrets.GetDBPassword(),
		DBName:     getEnv("DB_NAME", "marketplace_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://redis.redis-marketplace.svc.cluster.local:6379/0"),

		// Server
		Port:        getEnv("PORT", "8087"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "")),

		NATSURL: getEnv("NATS_URL", ""),

		// Services
		ApprovalServiceURL: getEnv("APPROVAL_SERVICE_URL", "http://approval-service:8099"),
		StaffServiceURL:    getEnv("STAFF_SERVICE_URL", "http://staff-service:8080"),

		// Pagination
		DefaultPageSize: defaultPageSize,
		MaxPageSize:     maxPageSize,

		// Payments
		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/cart"),

		// Checkout pricing
		CheckoutTTL:           getDuration("CHECKOUT_TTL", 24*time.Hour),
		CheckoutSoftTTL:       getDuration("CHECKOUT_SOFT_TTL", 30*time.Minute),
		DefaultCurrency:       strings.ToLower(getEnv("DEFAULT_CURRENCY", "usd")),
		ShippingFlatRate:      getDecimal("SHIPPING_FLAT_RATE", decimal.Zero),
		FreeShippingThreshold: getDecimal("FREE_SHIPPING_THRESHOLD", decimal.Zero),
		TaxRate:               getDecimal("TAX_RATE", decimal.Zero),
	}
}

// CheckoutConfig returns the settings the checkout service prices and opens sessions with.
func (c *Config) CheckoutConfig() services.CheckoutConfig {
	return services.CheckoutConfig{
		Currency: c.DefaultCurrency,
		TTL:      c.CheckoutTTL,
		SoftTTL:  c.CheckoutSoftTTL,
		Shipping: pricing.ShippingPolicy{
			FlatRate:      c.ShippingFlatRate,
			FreeThreshold: c.FreeShippingThreshold,
		},
		TaxRate:    c.TaxRate,
		SuccessURL: c.CheckoutSuccessURL,
		CancelURL:  c.CheckoutCancelURL,
	}
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode)

	var logLevel logger.LogLevel
	if cfg.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Adds missing columns and indexes, never drops existing ones
	log.Println("Running auto-migrations...")
	if err := db.AutoMigrate(
		&models.Seller{},
		&models.SellerDraft{},
		&models.SavedDraft{},
		&models.ProductIdentity{},
		&models.SellerProduct{},
		&models.ProductVariation{},
		&models.Offer{},
		&models.Cart{},
		&models.Checkout{},
		&models.CheckoutItem{},
		&models.PaymentCustomer{},
	); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "does not exist") && strings.Contains(errStr, "constraint") {
			log.Printf("Note: Migration constraint warning (safe to ignore): %v", err)
		} else {
			return nil, fmt.Errorf("failed to run auto-migrations: %w", err)
		}
	}
	log.Println("Auto-migrations completed successfully")

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("WARNING: invalid %s %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		log.Printf("WARNING: invalid %s %q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
