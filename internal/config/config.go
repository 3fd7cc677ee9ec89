package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port           string
	DBDriver       string
	DBPath         string
	DatabaseURL    string
	JWTSecret      string
	TokenTTL       time.Duration
	CORSOrigins    []string
	MigrationsDir  string
	LogLevel       string
	TelegramToken  string
	TelegramChatID int64
	SummaryMaxRows int
}

// fileConfig mirrors Config in the optional YAML file. Zero values mean "not set".
type fileConfig struct {
	Port           string   `yaml:"port"`
	DBDriver       string   `yaml:"db_driver"`
	DBPath         string   `yaml:"db_path"`
	DatabaseURL    string   `yaml:"database_url"`
	JWTSecret      string   `yaml:"jwt_secret"`
	TokenTTLHours  int      `yaml:"token_ttl_hours"`
	CORSOrigins    []string `yaml:"cors_origins"`
	MigrationsDir  string   `yaml:"migrations_dir"`
	LogLevel       string   `yaml:"log_level"`
	TelegramToken  string   `yaml:"telegram_token"`
	TelegramChatID int64    `yaml:"telegram_chat_id"`
	SummaryMaxRows int      `yaml:"summary_max_rows"`
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (Config, error) {
	cfg := defaults()
	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	if cfg.DBDriver != DriverSQLite && cfg.DBDriver != DriverPostgres {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Port:           "8080",
		DBDriver:       DriverSQLite,
		DBPath:         "./data/dashboard.db",
		JWTSecret:      "change-this-secret",
		TokenTTL:       72 * time.Hour,
		CORSOrigins:    []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		MigrationsDir:  "./migrations",
		LogLevel:       "info",
		SummaryMaxRows: 4,
	}
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.Port, fc.Port)
	setString(&cfg.DBDriver, fc.DBDriver)
	setString(&cfg.DBPath, fc.DBPath)
	setString(&cfg.DatabaseURL, fc.DatabaseURL)
	setString(&cfg.JWTSecret, fc.JWTSecret)
	setString(&cfg.MigrationsDir, fc.MigrationsDir)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.TelegramToken, fc.TelegramToken)
	if fc.TokenTTLHours > 0 {
		cfg.TokenTTL = time.Duration(fc.TokenTTLHours) * time.Hour
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	if fc.TelegramChatID != 0 {
		cfg.TelegramChatID = fc.TelegramChatID
	}
	if fc.SummaryMaxRows > 0 {
		cfg.SummaryMaxRows = fc.SummaryMaxRows
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DBDriver = strings.ToLower(getEnv("DB_DRIVER", cfg.DBDriver))
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = time.Duration(getEnvInt("TOKEN_TTL_HOURS", int(cfg.TokenTTL/time.Hour))) * time.Hour
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.TelegramToken = getEnv("TELEGRAM_TOKEN", cfg.TelegramToken)
	cfg.TelegramChatID = getEnvInt64("TELEGRAM_CHAT_ID", cfg.TelegramChatID)
	cfg.SummaryMaxRows = getEnvInt("SUMMARY_MAX_ROWS", cfg.SummaryMaxRows)
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
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

func getEnvInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
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
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
