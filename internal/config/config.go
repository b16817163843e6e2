package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	UseMemoryQueue bool
	WorkerCount    int
	DatabaseURL    string

	// LLM provider selection: "gemini", "bedrock", or "auto" (gemini with
	// bedrock fallback when both are configured).
	LLMProvider    string
	GeminiAPIKey   string
	GeminiModelID  string
	EmbeddingModel string

	AWSRegion              string
	AWSAccessKeyID         string
	AWSSecretAccessKey     string
	AWSEndpointOverride    string
	BedrockModelID         string
	ConversationQueueURL   string
	ConversationJobsTable  string
	KnowledgeBucket        string
	KnowledgeBucketPrefix  string
	KnowledgeDir           string
	EscalationEmail        string
	EmailProvider          string
	SESFromEmail           string
	SESFromName            string
	SendGridAPIKey         string
	SendGridFromEmail      string
	SendGridFromName       string
	AdminJWTSecret         string
	RedisAddr              string
	RedisPassword          string
	RedisTLS               bool
	MaxUserInputLength     int
	MaxAvailabilityRetries int
	AvailabilityRate       float64
	AvailabilitySeed       int64
	ClinicName             string
	CORSAllowedOrigins     []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		UseMemoryQueue: getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:    getEnvAsInt("WORKER_COUNT", 2),
		DatabaseURL:    getEnv("DATABASE_URL", ""),

		LLMProvider:    strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "auto"))),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		EmbeddingModel: getEnv("EMBEDDING_MODEL_ID", "text-embedding-004"),

		AWSRegion:              getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:         getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:    getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		BedrockModelID:         getEnv("BEDROCK_MODEL_ID", ""),
		ConversationQueueURL:   getEnv("CONVERSATION_QUEUE_URL", ""),
		ConversationJobsTable:  getEnv("CONVERSATION_JOBS_TABLE", "conversation_jobs"),
		KnowledgeBucket:        getEnv("KNOWLEDGE_BUCKET", ""),
		KnowledgeBucketPrefix:  getEnv("KNOWLEDGE_BUCKET_PREFIX", ""),
		KnowledgeDir:           getEnv("KNOWLEDGE_DIR", "data/info-mascotas"),
		EscalationEmail:        getEnv("ESCALATION_EMAIL", ""),
		EmailProvider:          strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "ses"))),
		SESFromEmail:           getEnv("SES_FROM_EMAIL", ""),
		SESFromName:            getEnv("SES_FROM_NAME", "VetCare AI"),
		SendGridAPIKey:         getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:      getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:       getEnv("SENDGRID_FROM_NAME", "VetCare AI"),
		AdminJWTSecret:         getEnv("ADMIN_JWT_SECRET", ""),
		RedisAddr:              getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisTLS:               getEnvAsBool("REDIS_TLS", false),
		MaxUserInputLength:     getEnvAsInt("MAX_USER_INPUT_LENGTH", 1000),
		MaxAvailabilityRetries: getEnvAsInt("MAX_AVAILABILITY_RETRIES", 3),
		AvailabilityRate:       getEnvAsFloat("AVAILABILITY_RATE", 0.8),
		AvailabilitySeed:       int64(getEnvAsInt("AVAILABILITY_SEED", 0)),
		ClinicName:             getEnv("CLINIC_NAME", "VetCare AI"),
		CORSAllowedOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
