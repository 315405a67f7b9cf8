package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageExternal = "external"
	StorageMemory   = "memory"

	NotifyLocal = "local"
	NotifyRedis = "redis"
	NotifyKafka = "kafka"
)

type Config struct {
	HTTPPort       string
	GRPCHealthPort string
	Storage        string

	MongoURI    string
	MongoDBName string

	DBHost               string
	DBPort               int
	DBUser               string
	DBPassword           string
	DBName               string
	OrdersMigrationsPath string

	ProductsDBPath         string
	ProductsMigrationsPath string

	RedisAddr        string
	RedisPassword    string
	CartCacheEnabled bool
	CartCacheTTL     time.Duration

	NotifyBackend      string
	NotifyRedisChannel string
	KafkaBrokers       []string
	KafkaOrderTopic    string

	JWTSecret string

	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	LogLevel           string
	LogFormat          string
	OTLPEndpoint       string
	CORSAllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		GRPCHealthPort: getEnv("GRPC_HEALTH_PORT", "50051"),
		Storage:        strings.ToLower(getEnv("STORAGE", StorageExternal)),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "icommerce"),

		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnvInt("DB_PORT", 5432),
		DBUser:               getEnv("DB_USER", "postgres"),
		DBPassword:           getEnv("DB_PASSWORD", "postgres"),
		DBName:               getEnv("DB_NAME", "orders"),
		OrdersMigrationsPath: getEnv("ORDERS_MIGRATIONS_PATH", "internal/repository/migrations/orders"),

		ProductsDBPath:         getEnv("PRODUCTS_DB_PATH", "./data/products.db"),
		ProductsMigrationsPath: getEnv("PRODUCTS_MIGRATIONS_PATH", "internal/repository/migrations/products"),

		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		CartCacheEnabled: getEnvBool("CART_CACHE_ENABLED", true),
		CartCacheTTL:     getEnvDuration("CART_CACHE_TTL", 15*time.Minute),

		NotifyBackend:      strings.ToLower(getEnv("NOTIFY_BACKEND", NotifyLocal)),
		NotifyRedisChannel: getEnv("NOTIFY_REDIS_CHANNEL", "orders:events"),
		KafkaBrokers:       getEnvList("KAFKA_BROKERS", "localhost:9092"),
		KafkaOrderTopic:    getEnv("KAFKA_ORDER_TOPIC", "order-events"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: 1 << 20, // 1MB

		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "*"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.Storage {
	case StorageExternal, StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE %q", c.Storage)
	}
	switch c.NotifyBackend {
	case NotifyLocal, NotifyRedis, NotifyKafka:
	default:
		return fmt.Errorf("unknown NOTIFY_BACKEND %q", c.NotifyBackend)
	}
	if c.NotifyBackend == NotifyKafka && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_BROKERS must be set for the kafka notify backend")
	}
	return nil
}

// UsesRedis reports whether any enabled component needs a Redis client.
func (c *Config) UsesRedis() bool {
	return (c.Storage == StorageExternal && c.CartCacheEnabled) || c.NotifyBackend == NotifyRedis
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getEnvList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
