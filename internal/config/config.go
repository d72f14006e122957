package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/basel-ax/gallery/internal/logging"
)

const (
	// DriverSQLite selects the local SQLite history store
	DriverSQLite = "sqlite"
	// DriverPostgres selects the PostgreSQL history store
	DriverPostgres = "postgres"
)

// DBConfig holds PostgreSQL configuration
type DBConfig struct {
	Host            string `validate:"required"`
	Port            int    `validate:"min=1,max=65535"`
	User            string `validate:"required"`
	Password        string `validate:"required"`
	Database        string `validate:"required"`
	SSLMode         string `validate:"omitempty,oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int    `validate:"min=1"`
	MaxIdleConns    int    `validate:"min=0"`
	ConnMaxLifetime time.Duration
}

// OSSConfig holds the object storage settings used to remove image files.
// Cleanup is disabled when Bucket is empty.
type OSSConfig struct {
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	Bucket        string
	PublicBaseURL string `validate:"omitempty,url"`
}

// Enabled reports whether image objects should be removed together with history records
func (c OSSConfig) Enabled() bool {
	return c.Bucket != ""
}

// Config holds all configuration for the application
type Config struct {
	StorageDriver   string         `validate:"oneof=sqlite postgres"`
	SQLitePath      string         `validate:"required_if=StorageDriver sqlite"`
	DB              DBConfig       `validate:"-"`
	OSS             OSSConfig
	DisplayLocale   string         `validate:"required"`
	DisplayLocation *time.Location `validate:"required"`
	WatchSchedule   string         `validate:"required"`
	FetchTimeout    time.Duration  `validate:"gt=0"`
	Log             logging.Config
}

// Load loads the configuration from the environment, reading a .env file when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{
		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverSQLite)),
		SQLitePath:    getEnv("SQLITE_PATH", "data/history.db"),
		DisplayLocale: getEnv("DISPLAY_LOCALE", "en-US"),
		WatchSchedule: getEnv("WATCH_SCHEDULE", "@every 30s"),
		FetchTimeout:  getEnvSeconds("FETCH_TIMEOUT", 10*time.Second),
		OSS: OSSConfig{
			Endpoint:      os.Getenv("OSS_ENDPOINT"),
			Region:        getEnv("OSS_REGION", "us-east-1"),
			AccessKey:     os.Getenv("OSS_ACCESS_KEY"),
			SecretKey:     os.Getenv("OSS_SECRET_KEY"),
			Bucket:        os.Getenv("OSS_BUCKET"),
			PublicBaseURL: os.Getenv("OSS_PUBLIC_BASE_URL"),
		},
		Log: logging.Config{
			Level:    getEnv("LOG_LEVEL", "info"),
			Format:   getEnv("LOG_FORMAT", "text"),
			Output:   getEnv("LOG_OUTPUT", "stderr"),
			FilePath: os.Getenv("LOG_FILE"),
		},
	}

	loc, err := time.LoadLocation(getEnv("DISPLAY_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid DISPLAY_TIMEZONE: %w", err)
	}
	config.DisplayLocation = loc

	// Load database configuration
	config.DB = DBConfig{
		Host:            os.Getenv("DB_HOST"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            os.Getenv("DB_USER"),
		Password:        os.Getenv("DB_PASSWORD"),
		Database:        os.Getenv("DB_NAME"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvSeconds("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration; database settings are only required for the postgres driver
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.StorageDriver == DriverPostgres {
		if err := v.Struct(c.DB); err != nil {
			return fmt.Errorf("invalid database configuration: %w", err)
		}
	}
	if c.OSS.Enabled() && (c.OSS.AccessKey == "" || c.OSS.SecretKey == "") {
		return fmt.Errorf("OSS_ACCESS_KEY and OSS_SECRET_KEY are required when OSS_BUCKET is set")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if i, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return i
	}
	return defaultValue
}

// getEnvSeconds reads a whole number of seconds
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if s, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return time.Duration(s) * time.Second
	}
	return defaultValue
}
