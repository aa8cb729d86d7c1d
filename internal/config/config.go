package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only meant for local demos. Override JWT_SECRET anywhere else.
const DefaultJWTSecret = "demo-secret-key-for-interns-change-in-production"

type Config struct {
	Env  string
	Port int

	// sessions
	JWTSecret    string
	SessionTTL   time.Duration
	CookieName   string
	CookieSecure bool

	PasswordHasher string

	// credential store
	StoreDriver string
	DBURL       string

	// shared rate limit counters, in-memory when RedisAddr is empty
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	LoginRateLimit  int
	LoginRateWindow time.Duration

	CORSOrigins []string

	OTelEndpoint string
	ServiceName  string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")

	return Config{
		Env:  env,
		Port: getEnvInt("PORT", 8080),

		JWTSecret:    getEnv("JWT_SECRET", DefaultJWTSecret),
		SessionTTL:   time.Duration(getEnvPositiveInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		CookieName:   getEnv("SESSION_COOKIE_NAME", "auth-token"),
		CookieSecure: env == "prod",

		PasswordHasher: getEnv("PASSWORD_HASHER", "sha256"),

		StoreDriver: getEnv("STORE_DRIVER", "memory"),
		DBURL:       buildDBURL(),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 20),
		LoginRateWindow: time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,

		CORSOrigins: getEnvList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("OTEL_SERVICE_NAME", "gatekeeper"),
	}
}

// UsesDefaultSecret reports whether the signing key was left at the demo value.
func (c Config) UsesDefaultSecret() bool {
	return c.JWTSecret == DefaultJWTSecret
}

func buildDBURL() string {
	if v := os.Getenv("DB_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "gatekeeper")
	pass := getEnv("DB_PASSWORD", "gatekeeper")
	name := getEnv("DB_NAME", "gatekeeper")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %s=%q is not a number, using %d\n", key, v, fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	var out []string

	for _, part := range strings.Split(getEnv(key, fallback), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}

// getEnvPositiveInt is getEnvInt for settings where zero or less is never valid.
func getEnvPositiveInt(key string, fallback int) int {
	num := getEnvInt(key, fallback)

	if num <= 0 {
		fmt.Fprintf(os.Stderr, "config: %s=%d must be positive, using %d\n", key, num, fallback)
		return fallback
	}

	return num
}
