package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	AppName      string
	DatabaseURL  string // пусто = хранение в памяти
	DefaultStore string
	SeedDemoData bool

	TelegramToken   string
	NotifyChatID    int64
	BaseAdminChatID int64

	HTTPAddr        string
	RefreshInterval time.Duration
	OutboxRetention time.Duration

	AchievementBasePoints           int
	AchievementOverachievementBonus int

	LogLevel logrus.Level
}

var instance *Config
var once sync.Once

// GetConfig загружает конфигурацию один раз за процесс
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Info("No .env file found, using environment only")
		}

		cfg, err := Load()
		if err != nil {
			logrus.Fatalf("invalid configuration: %s", err.Error())
		}
		instance = cfg
	})

	return instance
}

// Load читает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cfg := &Config{
		AppName:      getEnv("APP_NAME", "retail"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		DefaultStore: getEnv("DEFAULT_STORE", "Основной магазин"),
		SeedDemoData: getEnvAsBool("SEED_DEMO_DATA", true),

		TelegramToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		NotifyChatID:    getEnvAsInt("NOTIFY_CHAT_ID", 0),
		BaseAdminChatID: getEnvAsInt("BASE_ADMIN_CHAT_ID", 0),

		HTTPAddr:        getEnv("HTTP_ADDR", ""),
		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", 2*time.Minute),
		OutboxRetention: getEnvAsDuration("OUTBOX_RETENTION", 7*24*time.Hour),

		AchievementBasePoints:           int(getEnvAsInt("ACHIEVEMENT_BASE_POINTS", 10)),
		AchievementOverachievementBonus: int(getEnvAsInt("ACHIEVEMENT_OVERACHIEVEMENT_BONUS", 5)),
	}

	level, err := logrus.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	if strings.TrimSpace(cfg.AppName) == "" {
		return nil, errors.New("APP_NAME must not be empty")
	}
	if cfg.RefreshInterval <= 0 {
		return nil, errors.New("REFRESH_INTERVAL must be positive")
	}
	if cfg.AchievementBasePoints <= 0 {
		return nil, errors.New("ACHIEVEMENT_BASE_POINTS must be positive")
	}
	if cfg.AchievementOverachievementBonus < 0 {
		return nil, errors.New("ACHIEVEMENT_OVERACHIEVEMENT_BONUS must not be negative")
	}

	return cfg, nil
}

// Ключи документов в хранилище
func (c *Config) DataKey() string         { return c.AppName + "-analytics-data" }
func (c *Config) AchievementsKey() string { return c.AppName + "-achievements" }
func (c *Config) OutboxKey() string       { return c.AppName + "-pending-actions" }
func (c *Config) ReportsKey() string      { return c.AppName + "-custom-reports" }

// BotEnabled задан ли токен Telegram
func (c *Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// NotificationsEnabled можно ли отправлять уведомления в чат
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != "" && c.NotifyChatID != 0
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsDuration(name string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(name, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}

	return defaultVal
}
