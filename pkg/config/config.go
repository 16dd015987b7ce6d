package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	PostgresUrl             string
	MongoURI                string
	MongoDatabase           string
	MetricsPort             string
	JWTSecret               string
	CORSOrigin              string
	RedisAddr               string
	RedisPassword           string
	LogLevel                string
	LogFile                 string
	AdminCheckTimeout       time.Duration
}

// Load reads the environment (and a .env file when present). The datastore
// URL and signing key each accept two variable names.
func Load() (*Config, error) {
	// Missing .env is fine, the environment may already be populated.
	_ = godotenv.Load()

	adminTimeout, err := getEnvDuration("ADMIN_CHECK_TIMEOUT", 3*time.Second)
	if err != nil {
		return nil, fmt.Errorf("parse ADMIN_CHECK_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		PostgresUrl:             getEnvAny([]string{"POSTGRES_CONN_STR", "DATABASE_URL"}, ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "blog"),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
		JWTSecret:               getEnvAny([]string{"JWT_SECRET", "AUTH_SECRET_KEY"}, ""),
		CORSOrigin:              getEnv("CORS_ORIGIN", "*"),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFile:                 getEnv("LOG_FILE", "server.log"),
		AdminCheckTimeout:       adminTimeout,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PostgresUrl == "" {
		return fmt.Errorf("POSTGRES_CONN_STR or DATABASE_URL is required")
	}
	if c.MongoURI == "" {
		return fmt.Errorf("MONGO_URI is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET or AUTH_SECRET_KEY is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %w", err)
	}
	return nil
}

// IsProduction reports whether ENV is set to production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAny returns the first non-empty variable in keys.
func getEnvAny(keys []string, defaultValue string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(v)
}
