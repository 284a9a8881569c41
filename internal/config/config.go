// Пакет config — загрузка и валидация конфигурации Results Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Results Module.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Объектное хранилище (S3-совместимое) ---

	// Endpoint S3-совместимого хранилища (например, http://minio:9000)
	S3Endpoint string
	// Регион S3 (для MinIO значение формальное)
	S3Region string
	// Имя bucket для изображений результатов
	S3Bucket string
	// Access key
	S3AccessKey string
	// Secret key
	S3SecretKey string
	// Базовый публичный URL для построения постоянных ссылок на объекты.
	// Если не задан — вычисляется как <S3Endpoint>/<S3Bucket>.
	S3PublicURL string

	// --- JWT (токены админ-панели) ---

	// Секрет для подписи HS256-токенов
	JWTSecret string
	// Время жизни токена
	JWTTTL time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// --- Начальный администратор ---

	// Email начального администратора (опционально, см. AuthService.Bootstrap)
	AdminEmail string
	// Пароль начального администратора
	AdminPassword string

	// --- Загрузка изображений ---

	// Максимальный размер загружаемого изображения в байтах
	MaxUploadSize int64

	// --- topologymetrics ---

	// Имя группы в метриках dephealth
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// RM_PORT — порт HTTP-сервера (по умолчанию 8080)
	cfg.Port, err = getEnvInt("RM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("RM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("RM_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// RM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("RM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("RM_LOG_LEVEL: %w", err)
	}

	// RM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("RM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("RM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- PostgreSQL ---

	// RM_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("RM_DB_HOST")
	if err != nil {
		return nil, err
	}

	// RM_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("RM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("RM_DB_PORT: %w", err)
	}

	// RM_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("RM_DB_NAME")
	if err != nil {
		return nil, err
	}

	// RM_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("RM_DB_USER")
	if err != nil {
		return nil, err
	}

	// RM_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("RM_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// RM_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("RM_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("RM_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Объектное хранилище ---

	// RM_S3_ENDPOINT — обязательный
	cfg.S3Endpoint, err = getEnvRequired("RM_S3_ENDPOINT")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.S3Endpoint = strings.TrimRight(cfg.S3Endpoint, "/")

	// RM_S3_REGION — регион (по умолчанию us-east-1, для MinIO формальность)
	cfg.S3Region = getEnvDefault("RM_S3_REGION", "us-east-1")

	// RM_S3_BUCKET — обязательный
	cfg.S3Bucket, err = getEnvRequired("RM_S3_BUCKET")
	if err != nil {
		return nil, err
	}

	// RM_S3_ACCESS_KEY — обязательный
	cfg.S3AccessKey, err = getEnvRequired("RM_S3_ACCESS_KEY")
	if err != nil {
		return nil, err
	}

	// RM_S3_SECRET_KEY — обязательный
	cfg.S3SecretKey, err = getEnvRequired("RM_S3_SECRET_KEY")
	if err != nil {
		return nil, err
	}

	// RM_S3_PUBLIC_URL — базовый URL постоянных ссылок на объекты
	// (по умолчанию <endpoint>/<bucket>)
	cfg.S3PublicURL = getEnvDefault("RM_S3_PUBLIC_URL",
		fmt.Sprintf("%s/%s", cfg.S3Endpoint, cfg.S3Bucket))
	cfg.S3PublicURL = strings.TrimRight(cfg.S3PublicURL, "/")

	// --- JWT ---

	// RM_JWT_SECRET — обязательный
	cfg.JWTSecret, err = getEnvRequired("RM_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// RM_JWT_TTL — время жизни токена (по умолчанию 24h)
	cfg.JWTTTL, err = getEnvDuration("RM_JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("RM_JWT_TTL: %w", err)
	}

	// RM_JWT_LEEWAY — допустимое отклонение времени (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("RM_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RM_JWT_LEEWAY: %w", err)
	}

	// --- Начальный администратор ---

	// RM_ADMIN_EMAIL / RM_ADMIN_PASSWORD — опциональны; если заданы оба,
	// при старте создаётся администратор (только если таблица пуста)
	cfg.AdminEmail = getEnvDefault("RM_ADMIN_EMAIL", "")
	cfg.AdminPassword = getEnvDefault("RM_ADMIN_PASSWORD", "")
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		return nil, fmt.Errorf("RM_ADMIN_EMAIL и RM_ADMIN_PASSWORD должны быть заданы вместе")
	}

	// --- Загрузка изображений ---

	// RM_MAX_UPLOAD_SIZE — максимальный размер изображения (по умолчанию 10 MiB)
	maxUpload, err := getEnvInt("RM_MAX_UPLOAD_SIZE", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("RM_MAX_UPLOAD_SIZE: %w", err)
	}
	if maxUpload < 1 {
		return nil, fmt.Errorf("RM_MAX_UPLOAD_SIZE: значение %d должно быть положительным", maxUpload)
	}
	cfg.MaxUploadSize = int64(maxUpload)

	// --- topologymetrics ---

	// RM_DEPHEALTH_GROUP — имя группы (по умолчанию resultboard)
	cfg.DephealthGroup = getEnvDefault("RM_DEPHEALTH_GROUP", "resultboard")

	// RM_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("RM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// RM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("RM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("RM_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL (key=value).
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL
// (формат для topologymetrics и других потребителей URL).
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
