package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	RabbitMQ RabbitMQConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type RabbitMQConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

// Load reads .env if present and resolves configuration from the
// environment. Missing .env is not an error; real deployments set
// variables directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbPort, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return nil, err
	}
	rmqPort, err := envInt("RABBITMQ_PORT", 5672)
	if err != nil {
		return nil, err
	}

	return &Config{
		Database: DatabaseConfig{
			Host:     envStr("POSTGRES_HOST", "localhost"),
			Port:     dbPort,
			User:     envStr("POSTGRES_USER", "gensavor"),
			Password: envStr("POSTGRES_PASSWORD", "gensavor"),
			Database: envStr("POSTGRES_DB", "gensavor"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     envStr("RABBITMQ_HOST", "localhost"),
			Port:     rmqPort,
			User:     envStr("RABBITMQ_USER", "guest"),
			Password: envStr("RABBITMQ_PASSWORD", "guest"),
		},
	}, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
