package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
	Imports  ImportConfig
	Fanout   FanoutConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SMTPConfig carries raw mail transport settings. Port 0 and an empty Secure
// string mean "not explicitly configured", which the transport selection
// policy distinguishes from explicit values.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	Secure   string
	MailFrom string
}

// StorageConfig controls timetable uploads and preview mail files.
type StorageConfig struct {
	BaseDir         string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	MaxUploadBytes  int64
	PublicBaseURL   string
}

// ImportConfig bounds bulk file parsing.
type ImportConfig struct {
	MaxRows          int
	MaxFileSizeBytes int64
}

// FanoutConfig tunes the derived student-record writer queue.
type FanoutConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.SMTP = SMTPConfig{
		Host:     strings.TrimSpace(v.GetString("SMTP_HOST")),
		Port:     v.GetInt("SMTP_PORT"),
		User:     strings.TrimSpace(v.GetString("SMTP_USER")),
		Pass:     v.GetString("SMTP_PASS"),
		Secure:   strings.ToLower(strings.TrimSpace(v.GetString("SMTP_SECURE"))),
		MailFrom: strings.TrimSpace(v.GetString("MAIL_FROM")),
	}

	maxUpload := v.GetInt64("STORAGE_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Storage = StorageConfig{
		BaseDir:         v.GetString("STORAGE_BASE_DIR"),
		SignedURLSecret: v.GetString("STORAGE_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 24*time.Hour),
		MaxUploadBytes:  maxUpload,
		PublicBaseURL:   strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
	}

	cfg.Imports = ImportConfig{
		MaxRows:          v.GetInt("IMPORT_MAX_ROWS"),
		MaxFileSizeBytes: v.GetInt64("IMPORT_MAX_FILE_SIZE"),
	}

	cfg.Fanout = FanoutConfig{
		Workers:    v.GetInt("FANOUT_WORKERS"),
		BufferSize: v.GetInt("FANOUT_BUFFER_SIZE"),
		MaxRetries: v.GetInt("FANOUT_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("FANOUT_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "od_forms")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	// SMTP_* default to empty: "nothing configured" is a meaningful state
	// for transport selection.
	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 0)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_SECURE", "")
	v.SetDefault("MAIL_FROM", "")

	v.SetDefault("STORAGE_BASE_DIR", "./uploads")
	v.SetDefault("STORAGE_SIGNED_URL_SECRET", "dev_storage_secret")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "24h")
	v.SetDefault("STORAGE_MAX_UPLOAD_BYTES", 10*1024*1024)
	v.SetDefault("PUBLIC_BASE_URL", "")

	v.SetDefault("IMPORT_MAX_ROWS", 2000)
	v.SetDefault("IMPORT_MAX_FILE_SIZE", 5*1024*1024)

	// Derived record writes run at most once unless retries are
	// explicitly enabled.
	v.SetDefault("FANOUT_WORKERS", 1)
	v.SetDefault("FANOUT_BUFFER_SIZE", 32)
	v.SetDefault("FANOUT_MAX_RETRIES", 0)
	v.SetDefault("FANOUT_RETRY_DELAY", "1s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
