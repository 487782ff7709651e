package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort       string `mapstructure:"HTTP_PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	LogMode        string `mapstructure:"LOG_MODE"`

	DBDriver   string `mapstructure:"DB_DRIVER"`
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBPath     string `mapstructure:"DB_PATH"`

	RedisAddr    string `mapstructure:"REDIS_ADDR"`
	AccessSecret string `mapstructure:"ACCESS_SECRET"`

	StripeSecretKey     string        `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string        `mapstructure:"STRIPE_WEBHOOK_SECRET"`
	CheckoutSuccessURL  string        `mapstructure:"CHECKOUT_SUCCESS_URL"`
	CheckoutCancelURL   string        `mapstructure:"CHECKOUT_CANCEL_URL"`
	CheckoutTTL         time.Duration `mapstructure:"CHECKOUT_TTL"`
	CheckoutGrace       time.Duration `mapstructure:"CHECKOUT_GRACE"`
	Currency            string        `mapstructure:"CURRENCY"`

	SendgridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	SenderEmail    string `mapstructure:"SENDER_EMAIL"`
	FrontendURL    string `mapstructure:"FRONTEND_URL"`

	OtelEnabled  bool   `mapstructure:"OTEL_ENABLED"`
	OtelEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

var keys = []string{
	"HTTP_PORT", "ALLOWED_ORIGINS", "LOG_MODE",
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_PATH",
	"REDIS_ADDR", "ACCESS_SECRET",
	"STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "CHECKOUT_SUCCESS_URL", "CHECKOUT_CANCEL_URL",
	"CHECKOUT_TTL", "CHECKOUT_GRACE", "CURRENCY",
	"SENDGRID_API_KEY", "SENDER_EMAIL", "FRONTEND_URL",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
}

func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("HTTP_PORT", ":8080")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_PATH", "enrollment.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("CHECKOUT_TTL", "15m")
	v.SetDefault("CHECKOUT_GRACE", "1m")
	v.SetDefault("CURRENCY", "usd")

	v.AutomaticEnv()

	// Явно биндим, чтобы Viper видел переменные без файла
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}
