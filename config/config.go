package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port             string
	Env              string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	RedisURL         string
	KafkaBrokers     string
	KafkaTopic       string

	MercadoPagoAccessToken string
	MercadoPagoBaseURL     string

	ReportPrice decimal.Decimal
	SuccessURL  string

	PaymentRatePerMinute int
	PaymentRateBurst     int

	CRMWebhookURL      string
	TrackingWebhookURL string
	FacebookPixelID    string
	FacebookToken      string
	AnalyzerURL        string

	AdminToken string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	price, err := decimal.NewFromString(getEnv("REPORT_PRICE", "29.90"))
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_PRICE: %w", err)
	}

	cfg := &Config{
		Port:             getEnv("PORT", "3000"),
		Env:              getEnv("ENV", "development"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		KafkaBrokers:     os.Getenv("KAFKA_BROKERS"),
		KafkaTopic:       getEnv("KAFKA_TOPIC", "funnel-events"),

		MercadoPagoAccessToken: os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		MercadoPagoBaseURL:     getEnv("MERCADOPAGO_BASE_URL", ""),

		ReportPrice: price,
		SuccessURL:  getEnv("SUCCESS_URL", "http://localhost:5173/obrigado"),

		PaymentRatePerMinute: getEnvInt("PAYMENT_RATE_PER_MINUTE", 30),
		PaymentRateBurst:     getEnvInt("PAYMENT_RATE_BURST", 10),

		CRMWebhookURL:      os.Getenv("CRM_WEBHOOK_URL"),
		TrackingWebhookURL: os.Getenv("TRACKING_WEBHOOK_URL"),
		FacebookPixelID:    os.Getenv("FACEBOOK_PIXEL_ID"),
		FacebookToken:      os.Getenv("FACEBOOK_ACCESS_TOKEN"),
		AnalyzerURL:        os.Getenv("ANALYZER_URL"),

		AdminToken: os.Getenv("ADMIN_TOKEN"),
	}

	if cfg.MercadoPagoAccessToken == "" {
		return nil, fmt.Errorf("MERCADOPAGO_ACCESS_TOKEN is required")
	}
	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("missing required postgres environment variables")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, val, fallback)
		return fallback
	}
	return n
}
