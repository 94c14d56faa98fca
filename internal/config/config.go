package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Payment modes, as defined by the gateway integration guide.
// 1 = testing (form posts back to the response URL),
// 2 = testing with a nominal 1.00 amount, 3 = production.
const (
	PaymentModeTesting       = 1
	PaymentModeNominalAmount = 2
	PaymentModeProduction    = 3
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string

	IPay88MerchantCode string
	IPay88MerchantKey  string
	IPay88ActionURL    string
	IPay88ResponseURL  string
	IPay88PaymentMode  int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		IPay88MerchantCode: os.Getenv("IPAY88_MERCHANT_CODE"),
		IPay88MerchantKey:  os.Getenv("IPAY88_MERCHANT_KEY"),
		IPay88ActionURL:    os.Getenv("IPAY88_ACTION_URL"),
		IPay88ResponseURL:  os.Getenv("IPAY88_RESPONSE_URL"),
		IPay88PaymentMode:  paymentMode(os.Getenv("IPAY88_PAYMENT_MODE")),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func paymentMode(raw string) int {
	mode, err := strconv.Atoi(raw)
	if err != nil || mode < PaymentModeTesting || mode > PaymentModeProduction {
		// Never fall back to production by accident.
		return PaymentModeTesting
	}
	return mode
}
