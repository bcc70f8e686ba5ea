package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Auth    AuthConfig
	Data    DataConfig
	CORS    CORSConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type AuthConfig struct {
	// TimestampWindow is the maximum allowed skew between a signed
	// request's timestamp and server time.
	TimestampWindow   time.Duration
	AllowLocalClients bool
}

type DataConfig struct {
	Dir       string
	AssetsDir string
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	godotenv.Load()

	window, err := time.ParseDuration(getEnv("AUTH_TIMESTAMP_WINDOW", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TIMESTAMP_WINDOW: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Auth: AuthConfig{
			TimestampWindow:   window,
			AllowLocalClients: getEnvAsBool("ALLOW_LOCAL_CLIENTS", true),
		},
		Data: DataConfig{
			Dir:       getEnv("DATA_DIR", "data"),
			AssetsDir: getEnv("ASSETS_DIR", "data/assets"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,X-Device-Id,X-Api-Key,X-Timestamp,X-Signature"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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
