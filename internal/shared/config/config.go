package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const devSecretKey = "change-me-in-production"

// Config holds application configuration.
type Config struct {
	Env                string
	Port               string
	DatabaseURL        string
	CORSAllowOrigin    []string
	ObjectStoreType    string
	StorageRoot        string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	SecretKey          string
	AccessTokenTTL     time.Duration
	MaxUploadBytes     int64
	AllowedExtensions  []string
	OCRProvider        string
	AdminEmail         string
	AdminPassword      string
	LogLevel           string
	LogFile            string
	AuthRatePerMinute  int
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	secret := os.Getenv("APP_SECRET_KEY")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	if secret == "" {
		if env == "production" {
			log.Printf("APP_SECRET_KEY is required in production")
		} else {
			secret = devSecretKey
		}
	}

	return Config{
		Env:                env,
		Port:               getEnv("PORT", "8080"),
		DatabaseURL:        dbURL,
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		StorageRoot:        getEnv("STORAGE_ROOT", "./storage"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		SecretKey:          secret,
		AccessTokenTTL:     time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRES_HOURS", 8)) * time.Hour,
		MaxUploadBytes:     int64(getEnvInt("MAX_CONTENT_LENGTH_MB", 25)) << 20,
		AllowedExtensions:  normalizeExtensions(getEnv("ALLOWED_EXTENSIONS", "pdf,png,jpg,jpeg,tiff,bmp,gif,heic,webp,txt")),
		OCRProvider:        strings.ToLower(strings.TrimSpace(getEnv("OCR_PROVIDER", "stub"))),
		AdminEmail:         strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL"))),
		AdminPassword:      os.Getenv("ADMIN_PASSWORD"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            os.Getenv("LOG_FILE"),
		AuthRatePerMinute:  getEnvInt("AUTH_RATE_PER_MINUTE", 30),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),
	}
}

// UsesMemoryStores reports whether repositories should run in-process.
func (c Config) UsesMemoryStores() bool {
	return c.DatabaseURL == "" && (c.Env == "dev" || c.Env == "local")
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("invalid %s=%q, using %d", key, raw, def)
		return def
	}
	return n
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeExtensions(raw string) []string {
	var out []string
	for _, ext := range splitAndTrim(raw) {
		out = append(out, strings.ToLower(strings.TrimPrefix(ext, ".")))
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
