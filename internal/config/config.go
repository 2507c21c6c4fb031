package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	UseRedisSess  bool

	// Generation service (Gemini)
	GeminiAPIKey         string
	GeminiModelID        string
	GenMaxRetries        int
	GenBaseDelay         time.Duration
	GenBackoffFactor     int
	GenRequestTimeout    time.Duration
	GenTemperature       float64
	GenMaxOutputTokens   int
	ImageIntentMaxTokens int

	// WhatsApp Graph API
	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppVerifyToken   string
	WhatsAppAppSecret     string
	GraphAPIBase          string

	// Conversation pipeline
	UseMemoryQueue   bool
	WorkerCount      int
	SessionCapacity  int
	SessionTTL       time.Duration
	OrderDedupWindow time.Duration

	// AWS / SQS (durable job queue)
	AWSRegion            string
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	AWSEndpointOverride  string
	ConversationQueueURL string

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// SendGrid owner notifications
	SendGridAPIKey     string
	SendGridFromEmail  string
	SendGridFromName   string
	OwnerEmail         string
	StoreName          string
	AssistantName      string
	NotifyOnOrder      bool
	RecommendationsMax int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		UseRedisSess:  getEnvAsBool("USE_REDIS_SESSIONS", false),

		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:        getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		GenMaxRetries:        getEnvAsInt("GEN_MAX_RETRIES", 3),
		GenBaseDelay:         getEnvAsDuration("GEN_BASE_DELAY", 2*time.Second),
		GenBackoffFactor:     getEnvAsInt("GEN_BACKOFF_FACTOR", 2),
		GenRequestTimeout:    getEnvAsDuration("GEN_REQUEST_TIMEOUT", 45*time.Second),
		GenTemperature:       getEnvAsFloat("GEN_TEMPERATURE", 0.75),
		GenMaxOutputTokens:   getEnvAsInt("GEN_MAX_OUTPUT_TOKENS", 1500),
		ImageIntentMaxTokens: getEnvAsInt("IMAGE_INTENT_MAX_TOKENS", 200),

		WhatsAppToken:         getEnv("WHATSAPP_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		WhatsAppVerifyToken:   getEnv("WHATSAPP_VERIFY_TOKEN", ""),
		WhatsAppAppSecret:     getEnv("WHATSAPP_APP_SECRET", ""),
		GraphAPIBase:          getEnv("GRAPH_API_BASE", ""),

		UseMemoryQueue:   getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:      getEnvAsInt("WORKER_COUNT", 2),
		SessionCapacity:  getEnvAsInt("SESSION_CAPACITY", 15),
		SessionTTL:       getEnvAsDuration("SESSION_TTL", 24*time.Hour),
		OrderDedupWindow: getEnvAsDuration("ORDER_DEDUP_WINDOW", 5*time.Minute),

		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:  getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		ConversationQueueURL: getEnv("CONVERSATION_QUEUE_URL", ""),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		SendGridAPIKey:     getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail:  getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:   getEnv("SENDGRID_FROM_NAME", "VendiBot"),
		OwnerEmail:         getEnv("OWNER_EMAIL", ""),
		StoreName:          getEnv("STORE_NAME", "Licores El Roble"),
		AssistantName:      getEnv("ASSISTANT_NAME", "Lucas"),
		NotifyOnOrder:      getEnvAsBool("NOTIFY_ON_ORDER", true),
		RecommendationsMax: getEnvAsInt("RECOMMENDATIONS_MAX", 3),
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
	if len(out) == 0 {
		return defaultValue
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
