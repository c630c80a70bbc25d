package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"chronos-go/pkg/logger"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

type Config struct {
	HTTPPort      string
	Env           string
	ServiceName   string
	StorageDriver string
	CORSOrigins   []string
	ShareCacheTTL time.Duration
	RateLimit     RateLimitConfig
	DB            DBConfig
	Auth          AuthConfig
	Yandex        YandexConfig
	NATS          NATSConfig
	Telemetry     TelemetryConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	JWTSecret      string
	Issuer         string
	Audience       string
	TokenTTL       time.Duration
	ClockSkew      time.Duration
	AllowTestToken bool
	SkipAuth       bool
	MockUserID     string
	MockUserEmail  string
	MockUserName   string
	MockUserAvatar string
}

type YandexConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthURL      string
	TokenURL     string
	InfoURL      string
	Timeout      time.Duration
}

type NATSConfig struct {
	URL           string
	SubjectPrefix string
	Encoding      string
}

type TelemetryConfig struct {
	Enabled      bool
	OTLPEndpoint string
	SampleRatio  float64
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		ServiceName:   getEnv("SERVICE_NAME", "chronos"),
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		CORSOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		ShareCacheTTL: getEnvDuration("SHARE_CACHE_TTL", time.Minute),
		RateLimit: RateLimitConfig{
			Enabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
			RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvInt("RATE_LIMIT_BURST", 20),
		},
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "chronos"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			Issuer:         getEnv("JWT_ISSUER", "chronos"),
			Audience:       getEnv("JWT_AUDIENCE", "chronos-web"),
			TokenTTL:       getEnvDuration("JWT_TTL", 24*time.Hour),
			ClockSkew:      getEnvDuration("JWT_CLOCK_SKEW", 30*time.Second),
			AllowTestToken: getEnvBool("AUTH_ALLOW_TEST_TOKEN", false),
			SkipAuth:       getEnvBool("AUTH_SKIP", false),
			MockUserID:     getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserEmail:  getEnv("AUTH_MOCK_USER_EMAIL", ""),
			MockUserName:   getEnv("AUTH_MOCK_USER_NAME", ""),
			MockUserAvatar: getEnv("AUTH_MOCK_USER_AVATAR_URL", ""),
		},
		Yandex: YandexConfig{
			ClientID:     getEnv("YANDEX_CLIENT_ID", ""),
			ClientSecret: getEnv("YANDEX_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("YANDEX_REDIRECT_URL", "http://localhost:8080/api/auth/yandex/callback"),
			AuthURL:      getEnv("YANDEX_AUTH_URL", "https://oauth.yandex.ru/authorize"),
			TokenURL:     getEnv("YANDEX_TOKEN_URL", "https://oauth.yandex.ru/token"),
			InfoURL:      getEnv("YANDEX_INFO_URL", "https://login.yandex.ru/info"),
			Timeout:      getEnvDuration("YANDEX_TIMEOUT", 5*time.Second),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "chronos"),
			Encoding:      strings.ToLower(getEnv("NATS_ENCODING", "json")),
		},
		Telemetry: TelemetryConfig{
			Enabled:      getEnvBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			SampleRatio:  getEnvFloat("OTEL_SAMPLE_RATIO", 1),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch c.NATS.Encoding {
	case "json", "msgpack":
	default:
		return fmt.Errorf("unsupported NATS_ENCODING %q", c.NATS.Encoding)
	}
	if c.Auth.JWTSecret == "" && !c.Auth.SkipAuth {
		return fmt.Errorf("JWT_SECRET is required unless AUTH_SKIP is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
