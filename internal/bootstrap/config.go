package bootstrap

import "os"

type Config struct {
	ServerAddr string
	LogLevel   string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	SourceLanguage string
	VocabularyName string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	PostHogAPIKey string
	PostHogHost   string
	Environment   string

	StaticDir string
	IndexHTML string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		AWSRegion:          getEnv("AWS_REGION", "eu-west-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),

		SourceLanguage: getEnv("SOURCE_LANGUAGE", "en-US"),
		VocabularyName: getEnv("VOCABULARY_NAME", ""),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),

		PostHogAPIKey: getEnv("POSTHOG_API_KEY", ""),
		PostHogHost:   getEnv("POSTHOG_HOST", "https://eu.posthog.com"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StaticDir: getEnv("STATIC_DIR", "./static"),
		IndexHTML: getEnv("INDEX_HTML", "./static/index.html"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
