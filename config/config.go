package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port      string
	MongoURI  string
	DBName    string
	JWTSecret string

	GeminiAPIKey     string
	GeminiTextModel  string
	GeminiImageModel string
	CoverTimeout     time.Duration

	S3Bucket      string
	S3Region      string
	S3AccessKeyID string
	S3SecretKey   string
}

func Load() (*Config, error) {
	coverTimeout := 2 * time.Minute
	if v := getEnv("COVER_TIMEOUT_SECONDS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid COVER_TIMEOUT_SECONDS %q", v)
		}
		coverTimeout = time.Duration(n) * time.Second
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		MongoURI:  getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:    getEnv("MONGODB_DB", "storyforge"),
		JWTSecret: getEnv("JWT_SECRET", ""),

		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiTextModel:  getEnv("GEMINI_TEXT_MODEL", ""),
		GeminiImageModel: getEnv("GEMINI_IMAGE_MODEL", ""),
		CoverTimeout:     coverTimeout,

		S3Bucket:      getEnv("AWS_S3_BUCKET", ""),
		S3Region:      getEnv("AWS_REGION", "us-east-1"),
		S3AccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
