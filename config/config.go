package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Cart         CartConfig
	ProductCache ProductCacheConfig
	Breaker      BreakerConfig
	S3           S3Config
	Scheduler    SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
	LogFormat   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

// CartConfig tunes the cart aggregate.
type CartConfig struct {
	DefaultMaxOrderQuantity int
	LockWait                time.Duration
	ProductLookupTimeout    time.Duration
	MaxSaveRetries          int
}

type ProductCacheConfig struct {
	TTL    time.Duration
	Jitter time.Duration
}

type BreakerConfig struct {
	MaxConsecutiveFailures uint32
	OpenTimeout            time.Duration
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
	PresignExpiry   time.Duration
}

type SchedulerConfig struct {
	CacheWarmSpec string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogFormat:   getEnv("LOG_FORMAT", "console"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "admin"),
			Password: getEnv("DB_PASSWORD", "1234"),
			DBName:   getEnv("DB_NAME", "shopcart"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-secret-key"),
			AccessTokenExpiry: parseDuration(getEnv("JWT_ACCESS_TOKEN_EXPIRY", "15m"), 15*time.Minute),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Cart: CartConfig{
			DefaultMaxOrderQuantity: parseInt(getEnv("CART_DEFAULT_MAX_ORDER_QUANTITY", "10"), 10),
			LockWait:                parseDuration(getEnv("CART_LOCK_WAIT", "2s"), 2*time.Second),
			ProductLookupTimeout:    parseDuration(getEnv("PRODUCT_LOOKUP_TIMEOUT", "500ms"), 500*time.Millisecond),
			MaxSaveRetries:          parseInt(getEnv("CART_MAX_SAVE_RETRIES", "3"), 3),
		},
		ProductCache: ProductCacheConfig{
			TTL:    parseDuration(getEnv("PRODUCT_CACHE_TTL", "10m"), 10*time.Minute),
			Jitter: parseDuration(getEnv("PRODUCT_CACHE_JITTER", "2m"), 2*time.Minute),
		},
		Breaker: BreakerConfig{
			MaxConsecutiveFailures: uint32(parseInt(getEnv("PRODUCT_BREAKER_MAX_FAILURES", "5"), 5)),
			OpenTimeout:            parseDuration(getEnv("PRODUCT_BREAKER_OPEN_TIMEOUT", "30s"), 30*time.Second),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "ap-northeast-2"),
			Bucket:          getEnv("AWS_S3_BUCKET", "shopcart-product-images"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
			PresignExpiry:   parseDuration(getEnv("AWS_S3_PRESIGN_EXPIRY", "1h"), time.Hour),
		},
		Scheduler: SchedulerConfig{
			CacheWarmSpec: getEnv("CACHE_WARM_SPEC", "*/5 * * * *"),
		},
	}

	if config.Cart.DefaultMaxOrderQuantity <= 0 {
		return nil, fmt.Errorf("CART_DEFAULT_MAX_ORDER_QUANTITY must be positive, got %d", config.Cart.DefaultMaxOrderQuantity)
	}
	if config.Cart.MaxSaveRetries < 1 {
		config.Cart.MaxSaveRetries = 1
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
