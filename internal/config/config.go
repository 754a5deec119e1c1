package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Identity provider (one of JWTSecret or JWKSURL)
	JWTSecret string
	JWKSURL   string

	// Admin
	AdminEmails  string
	AdminUserIDs string

	// Location access gate
	PinGrantTTL    time.Duration
	PinMaxAttempts int
	PinLockoutBase time.Duration
	PinLockoutMax  time.Duration
	LocationsFile  string

	// Media
	StorageType        string
	S3Bucket           string
	S3Prefix           string
	S3Region           string
	S3Endpoint         string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	MediaPublicBaseURL string
	MediaMaxImageBytes int64

	// Server
	Port        string
	CORSOrigins string
	BodyLimit   int
	SentryDSN   string
	AppEnv      string

	// Logging
	LogLevel     string
	LogRetention time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	return &Config{
		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "community_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWKSURL:   getEnv("JWKS_URL", ""),

		AdminEmails:  getEnv("ADMIN_EMAILS", ""),
		AdminUserIDs: getEnv("ADMIN_USER_IDS", ""),

		PinGrantTTL:    parseDuration(getEnv("PIN_GRANT_TTL", "720h"), 720*time.Hour),
		PinMaxAttempts: parseInt(getEnv("PIN_MAX_ATTEMPTS", "5"), 5),
		PinLockoutBase: parseDuration(getEnv("PIN_LOCKOUT_BASE", "30s"), 30*time.Second),
		PinLockoutMax:  parseDuration(getEnv("PIN_LOCKOUT_MAX", "1h"), time.Hour),
		LocationsFile:  getEnv("LOCATIONS_FILE", ""),

		StorageType:        getEnv("STORAGE_TYPE", "s3"),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
		MediaPublicBaseURL: getEnv("MEDIA_PUBLIC_BASE_URL", ""),
		MediaMaxImageBytes: int64(parseInt(getEnv("MEDIA_MAX_IMAGE_BYTES", "10485760"), 10<<20)),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		BodyLimit:   parseInt(getEnv("BODY_LIMIT_BYTES", "110100480"), 105<<20),
		SentryDSN:   getEnv("SENTRY_DSN", ""),
		AppEnv:      getEnv("APP_ENV", "development"),

		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogRetention: parseDuration(getEnv("LOG_RETENTION", "720h"), 720*time.Hour),
	}
}

// Validate reports configuration that would prevent the server from starting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" && c.JWKSURL == "" {
		return fmt.Errorf("JWT_SECRET or JWKS_URL environment variable is required")
	}
	switch c.DBDriver {
	case "postgres":
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD environment variable is required")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.StorageType == "s3" && c.S3Bucket == "" {
		return fmt.Errorf("S3_BUCKET environment variable is required when STORAGE_TYPE=s3")
	}
	if c.AdminEmails == "" && c.AdminUserIDs == "" {
		slog.Warn("no administrators configured; moderation console is unreachable")
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// LocationSeed is one [[locations]] entry of the seed file.
type LocationSeed struct {
	Name string `toml:"name"`
	Slug string `toml:"slug"`
	PIN  string `toml:"pin"`
}

type seedFile struct {
	Locations []LocationSeed `toml:"locations"`
}

// LoadLocationSeeds reads the TOML location seed file.
func LoadLocationSeeds(path string) ([]LocationSeed, error) {
	var f seedFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to read locations file %s: %w", path, err)
	}
	for i, loc := range f.Locations {
		if loc.Slug == "" || loc.PIN == "" {
			return nil, fmt.Errorf("locations file %s: entry %d needs slug and pin", path, i+1)
		}
	}
	return f.Locations, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
