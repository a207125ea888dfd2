package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Environment string
	LogLevel    string

	StoreDriver string
	DBDSN       string
	SQLitePath  string

	TelegramToken  string
	TelegramChatID int64

	ReminderCron     string
	ActivityLogLimit int
	ActivityLogLevel string
}

// Load читает .env (если он есть) и переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return FromEnv()
}

// FromEnv собирает конфиг из переменных окружения и проверяет его
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment:      getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", DriverMemory)),
		DBDSN:            os.Getenv("DB_DSN"),
		SQLitePath:       getEnv("SQLITE_PATH", "edubook.db"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		ReminderCron:     getEnv("REMINDER_CRON", "0 8 * * *"),
		ActivityLogLevel: getEnv("ACTIVITY_LOG_LEVEL", "info"),
		ActivityLogLimit: 1000,
	}

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if v := os.Getenv("ACTIVITY_LOG_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("ACTIVITY_LOG_LIMIT must be a positive integer, got %q", v)
		}
		cfg.ActivityLogLimit = limit
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет обязательные поля для выбранного хранилища
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required but not set")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.TelegramChatID != 0 && c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required when TELEGRAM_CHAT_ID is set")
	}

	return nil
}

// NotificationsEnabled включены ли уведомления в Telegram
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
