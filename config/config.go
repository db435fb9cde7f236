package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL       string
	DBConnectTimeout  time.Duration
	DBBootstrapSchema bool
	JWTSecretKey      string
	ServerPort        int
	CORSAllowedOrigin []string

	// Cloudflare R2, архив закрытых фаз. Пустые значения отключают архив.
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string

	MetricsEnabled bool
	ServiceName    string
	OtlpEndpoint   string
	OtlpInsecure   bool
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	timeoutSec, err := intEnv("DB_CONNECT_TIMEOUT_SECONDS", 5)
	if err != nil {
		return nil, err
	}

	bootstrap, err := boolEnv("DB_BOOTSTRAP_SCHEMA", false)
	if err != nil {
		return nil, err
	}
	metricsEnabled, err := boolEnv("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}
	otlpInsecure, err := boolEnv("OTLP_INSECURE", false)
	if err != nil {
		return nil, err
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "tennisclub-league"
	}

	cfg := &Config{
		DatabaseURL:       dbURL,
		DBConnectTimeout:  time.Duration(timeoutSec) * time.Second,
		DBBootstrapSchema: bootstrap,
		JWTSecretKey:      jwtKey,
		ServerPort:        port,
		CORSAllowedOrigin: splitList(os.Getenv("CORS_ALLOWED_ORIGINS"), []string{"*"}),
		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
		MetricsEnabled:    metricsEnabled,
		ServiceName:       serviceName,
		OtlpEndpoint:      os.Getenv("OTLP_ENDPOINT"),
		OtlpInsecure:      otlpInsecure,
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func boolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func splitList(raw string, def []string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
