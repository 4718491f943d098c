package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type Config struct {
	Port          string
	LogLevel      string
	StorageDir    string
	RemoteTimeout time.Duration
	SessionTTL    time.Duration
	DB            DatabaseConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("TASKS_PORT", "8082"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		StorageDir:    getEnv("STORAGE_DIR", "./data"),
		RemoteTimeout: time.Duration(getEnvInt("REMOTE_TIMEOUT_MS", 3000)) * time.Millisecond,
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_MIN", 60)) * time.Minute,
		DB: DatabaseConfig{
			// Пустой DB_HOST = удалённое хранилище не настроено,
			// сервис работает только с локальным хранилищем
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "tasks_user"),
			Password: getEnv("DB_PASSWORD", "tasks_pass"),
			DBName:   getEnv("DB_NAME", "tasks_db"),
		},
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// Configured сообщает, заданы ли учётные данные удалённого хранилища
func (db *DatabaseConfig) Configured() bool {
	return db.Host != ""
}

func (db *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		db.Host, db.Port, db.User, db.Password, db.DBName)
}
