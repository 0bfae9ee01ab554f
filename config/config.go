// Package config provides environment configuration for the server.
package config

import "os"

type Config struct {
	Port         string
	AWSRegion    string
	S3Bucket     string
	OpenAIAPIKey string
	ExpoPushURL  string
	LogLevel     string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:     os.Getenv("S3_BUCKET_NAME"),
		OpenAIAPIKey: os.Getenv("OPENAI_API_KEY"),
		ExpoPushURL:  getEnv("EXPO_PUSH_URL", "https://exp.host/--/api/v2/push/send"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
