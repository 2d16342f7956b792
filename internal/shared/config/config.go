package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/docker/go-units"
)

// Config holds application configuration.
type Config struct {
	Port             string
	CORSAllowOrigin  []string
	ObjectStoreType  string
	LocalStoreDir    string
	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	SSEKMSKeyID      string
	MaxUploadBytes   int64
	AnalysisProvider string
	AnalysisTimeout  time.Duration
	DocIntelEndpoint string
	DocIntelAPIKey   string
	DatabaseURL      string
	Env              string
}

const defaultMaxUploadBytes = 10 << 20 // 10MB

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:  normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:        getEnv("AWS_REGION", ""),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Prefix:         getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", ""),
		MaxUploadBytes:   parseSize(getEnv("MAX_UPLOAD_SIZE", "10MB")),
		AnalysisProvider: normalizeAnalysisProvider(getEnv("ANALYSIS_PROVIDER", "none")),
		AnalysisTimeout:  parseTimeout(getEnv("ANALYSIS_TIMEOUT", "30s")),
		DocIntelEndpoint: getEnv("DOCINTEL_ENDPOINT", ""),
		DocIntelAPIKey:   getEnv("DOCINTEL_API_KEY", ""),
		DatabaseURL:      dbURL,
		Env:              env,
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
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

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
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

func normalizeAnalysisProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "docintel":
		return "docintel"
	case "local":
		return "local"
	default:
		return "none"
	}
}

func parseSize(raw string) int64 {
	size, err := units.FromHumanSize(raw)
	if err != nil || size <= 0 {
		log.Printf("MAX_UPLOAD_SIZE invalid (%q), using default", raw)
		return defaultMaxUploadBytes
	}
	return size
}

func parseTimeout(raw string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}
