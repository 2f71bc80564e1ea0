package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	ServerPort  int    `env:"SERVER_PORT" envDefault:"8080"`

	// Программа жеребьёвки (оракул) с фиксированными аргументами.
	OracleCommand string        `env:"ORACLE_COMMAND" envDefault:"java -jar javafo.jar"`
	OracleTempDir string        `env:"ORACLE_TEMP_DIR"`
	OracleTimeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"30s"`

	// Флаги режимов через пробел, добавляются после выходного файла.
	OracleHeuristicFlags     []string `env:"ORACLE_HEURISTIC_FLAGS" envSeparator:" " envDefault:"-q 10000"`
	OracleDeterministicFlags []string `env:"ORACLE_DETERMINISTIC_FLAGS" envSeparator:" " envDefault:"-w"`

	// Архив входных и выходных файлов оракула (Cloudflare R2). Пустой
	// R2_BUCKET_NAME отключает архивирование.
	R2AccountID       string `env:"R2_ACCOUNT_ID"`
	R2AccessKeyID     string `env:"R2_ACCESS_KEY_ID"`
	R2SecretAccessKey string `env:"R2_SECRET_ACCESS_KEY"`
	R2BucketName      string `env:"R2_BUCKET_NAME"`
	R2PublicBaseURL   string `env:"R2_PUBLIC_BASE_URL"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// ArchiveEnabled сообщает, нужно ли загружать обмены с оракулом.
func (c *Config) ArchiveEnabled() bool {
	return c.R2BucketName != ""
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	// Загружаем .env файл, если он есть. Ошибку не считаем фатальной.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.OracleCommand == "" {
		return errors.New("ORACLE_COMMAND must not be empty")
	}
	if len(c.OracleHeuristicFlags) == 0 || len(c.OracleDeterministicFlags) == 0 {
		return errors.New("ORACLE_HEURISTIC_FLAGS and ORACLE_DETERMINISTIC_FLAGS must not be empty")
	}
	if c.OracleTimeout <= 0 {
		return fmt.Errorf("ORACLE_TIMEOUT must be positive, got %s", c.OracleTimeout)
	}
	return nil
}
