package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string
	PublicURL   string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Waitlist configuration
	OfferDuration     time.Duration
	SweepInterval     time.Duration
	JoinRateLimit     int
	JoinRateWindow    time.Duration
	SchedulerPollRate time.Duration

	// Payment configuration
	PlatformFeePercent  float64
	StripePaySecretKey  string
	StripePayWebhookKey string
	StripePayBaseURL    string
	PaystackSecretKey   string
	PaystackBaseURL     string

	// Ticket configuration
	QRSecret string

	// Cleanup configuration
	CleanupInterval time.Duration
	StaleSessionTTL time.Duration

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8090"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Waitlist
		OfferDuration:     getEnvAsDuration("OFFER_DURATION", "30m"),
		SweepInterval:     getEnvAsDuration("SWEEP_INTERVAL", "1m"),
		JoinRateLimit:     getEnvAsInt("JOIN_RATE_LIMIT", 3),
		JoinRateWindow:    getEnvAsDuration("JOIN_RATE_WINDOW", "30m"),
		SchedulerPollRate: getEnvAsDuration("SCHEDULER_POLL_RATE", "1s"),

		// Payments
		PlatformFeePercent:  getEnvAsFloat("PLATFORM_FEE_PERCENT", 1.0),
		StripePaySecretKey:  getEnv("STRIPEPAY_SECRET_KEY", ""),
		StripePayWebhookKey: getEnv("STRIPEPAY_WEBHOOK_KEY", ""),
		StripePayBaseURL:    getEnv("STRIPEPAY_BASE_URL", "https://api.stripepay.example.com"),
		PaystackSecretKey:   getEnv("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:     getEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),

		// Tickets
		QRSecret: getEnv("TICKET_QR_SECRET", "dev-only-secret"),

		// Cleanup
		CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", "1h"),
		StaleSessionTTL: getEnvAsDuration("STALE_SESSION_TTL", "24h"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
