// Package config loads service configuration from an optional config file,
// a .env file and STOREFRONT_* environment variables, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	SourceDatabase = "database"
	SourceFile     = "file"

	ImagesLocal = "local"
	ImagesS3    = "s3"
)

type Config struct {
	Env       string          `mapstructure:"env"`
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Files     FilesConfig     `mapstructure:"files"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Images    ImagesConfig    `mapstructure:"images"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

// DSN builds the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone)
}

type FilesConfig struct {
	BulkPath    string `mapstructure:"bulk_path"`
	BackupDir   string `mapstructure:"backup_dir"`
	ArchivePath string `mapstructure:"archive_path"`
}

type CatalogConfig struct {
	Source       string `mapstructure:"source"`
	DefaultLimit int    `mapstructure:"default_limit"`
	MaxLimit     int    `mapstructure:"max_limit"`
}

type SyncConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type ImagesConfig struct {
	Driver string   `mapstructure:"driver"`
	Root   string   `mapstructure:"root"`
	S3     S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	// PublicURL is stripped from image references to get the object key.
	PublicURL string `mapstructure:"public_url"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	AdminRole string `mapstructure:"admin_role"`
}

type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Endpoint       string `mapstructure:"endpoint"`
	ServiceName    string `mapstructure:"service_name"`
	ServiceVersion string `mapstructure:"service_version"`
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "storefront")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")

	v.SetDefault("files.bulk_path", "data/products.json")
	v.SetDefault("files.backup_dir", "data/backups")
	v.SetDefault("files.archive_path", "data/archive/products.json")

	v.SetDefault("catalog.source", SourceDatabase)
	v.SetDefault("catalog.default_limit", 12)
	v.SetDefault("catalog.max_limit", 100)

	v.SetDefault("sync.timeout", 30*time.Second)

	v.SetDefault("images.driver", ImagesLocal)
	v.SetDefault("images.root", "public")
	v.SetDefault("images.s3.endpoint", "")
	v.SetDefault("images.s3.bucket", "")
	v.SetDefault("images.s3.access_key", "")
	v.SetDefault("images.s3.secret_key", "")
	v.SetDefault("images.s3.region", "us-east-1")
	v.SetDefault("images.s3.public_url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_role", "admin")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "")
	v.SetDefault("telemetry.service_name", "storefront-api")
	v.SetDefault("telemetry.service_version", "1.0.0")
}

// legacyEnv keeps the plain variable names of existing deployments working.
var legacyEnv = map[string]string{
	"env":                       "ENV",
	"server.port":               "PORT",
	"database.host":             "DB_HOST",
	"database.port":             "DB_PORT",
	"database.user":             "DB_USER",
	"database.password":         "DB_PASSWORD",
	"database.name":             "DB_NAME",
	"database.sslmode":          "DB_SSLMODE",
	"auth.jwt_secret":           "JWT_SECRET",
	"images.s3.endpoint":        "S3_ENDPOINT",
	"images.s3.bucket":          "S3_BUCKET",
	"images.s3.access_key":      "S3_ACCESS_KEY",
	"images.s3.secret_key":      "S3_SECRET_KEY",
	"telemetry.enabled":         "OTEL_ENABLED",
	"telemetry.endpoint":        "OTEL_EXPORTER_OTLP_ENDPOINT",
	"telemetry.service_name":    "OTEL_SERVICE_NAME",
	"telemetry.service_version": "OTEL_SERVICE_VERSION",
}

// Load reads configuration. An empty path looks for config.yaml in the
// working directory and carries on without it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range legacyEnv {
		prefixed := "STOREFRONT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Catalog.Source {
	case SourceDatabase, SourceFile:
	default:
		return fmt.Errorf("catalog.source must be %q or %q, got %q", SourceDatabase, SourceFile, c.Catalog.Source)
	}

	if c.Catalog.DefaultLimit < 1 {
		return fmt.Errorf("catalog.default_limit must be positive")
	}
	if c.Catalog.MaxLimit < c.Catalog.DefaultLimit {
		return fmt.Errorf("catalog.max_limit must be at least catalog.default_limit")
	}

	switch c.Images.Driver {
	case ImagesLocal:
	case ImagesS3:
		if c.Images.S3.Bucket == "" || c.Images.S3.AccessKey == "" || c.Images.S3.SecretKey == "" {
			return fmt.Errorf("S3 configuration missing")
		}
	default:
		return fmt.Errorf("images.driver must be %q or %q, got %q", ImagesLocal, ImagesS3, c.Images.Driver)
	}

	if c.Files.BulkPath == "" {
		return fmt.Errorf("files.bulk_path is required")
	}
	if c.Auth.JWTSecret == "" && !c.IsDevelopment() {
		return fmt.Errorf("auth.jwt_secret is required outside development")
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive")
	}
	return nil
}
