package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName string
	AppEnv      string
	LogLevel    string
	HTTPPort    int

	// RequestTimeout caps end to end handling of one HTTP request.
	RequestTimeout time.Duration

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	PayPalBaseURL  string
	PayPalClientID string
	PayPalSecret   string
	Currency       string
	ReturnURL      string
	CancelURL      string
	GatewayTimeout time.Duration

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	// DownloadTTL bounds the life of signed download URLs.
	DownloadTTL time.Duration

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	MailFrom     string

	// KafkaBrokers empty means the order event stream is disabled.
	KafkaBrokers    []string
	OrderTopic      string
	PublishInterval time.Duration

	ShutdownTimeout time.Duration
}

func Load() Config {
	return Config{
		ServiceName: getEnv("SERVICE_NAME", "storefront"),
		AppEnv:      getEnv("APP_ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "storefront"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		PayPalBaseURL:  getEnv("PAYPAL_BASE_URL", "https://api-m.sandbox.paypal.com"),
		PayPalClientID: getEnv("PAYPAL_CLIENT_ID", ""),
		PayPalSecret:   getEnv("PAYPAL_CLIENT_SECRET", ""),
		Currency:       getEnv("CHECKOUT_CURRENCY", "USD"),
		ReturnURL:      getEnv("CHECKOUT_RETURN_URL", "http://localhost:3000/checkout/success"),
		CancelURL:      getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),
		GatewayTimeout: getEnvDuration("GATEWAY_TIMEOUT", 20*time.Second),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "tracks"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		DownloadTTL: getEnvDuration("DOWNLOAD_LINK_TTL", 10*time.Minute),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUser:     getEnv("SMTP_USER", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@waslerrfields.com"),

		KafkaBrokers:    getEnvCSV("KAFKA_BROKERS"),
		OrderTopic:      getEnv("KAFKA_ORDER_TOPIC", "order.completed"),
		PublishInterval: getEnvDuration("ORDER_PUBLISH_INTERVAL", 5*time.Second),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvCSV(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
