package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	JWTSecret string

	// LLM provider selection: "anthropic" or "ollama"
	LLMProvider     string
	AnthropicAPIKey string
	ClaudeModel     string
	OllamaBaseURL   string
	OllamaModel     string
	LLMMaxTokens    int
	LLMTimeout      time.Duration

	// Cooking session engine
	SessionIdleTimeout   time.Duration
	SessionSweepInterval time.Duration
	RateLimitMax         int
	RateLimitWindow      time.Duration
	PruneMaxMessages     int
	PruneMaxChars        int

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string

	SeedFile string
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return Config{
		Addr: getEnv("ADDR", ":8000"),

		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "souschef"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		LLMProvider:     getEnv("LLM_PROVIDER", "anthropic"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		ClaudeModel:     getEnv("CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434/api"),
		OllamaModel:     getEnv("OLLAMA_MODEL", "llama3:8b"),
		LLMMaxTokens:    getEnvInt("LLM_MAX_TOKENS", 500),
		LLMTimeout:      getEnvDuration("LLM_TIMEOUT", 60*time.Second),

		SessionIdleTimeout:   getEnvDuration("SESSION_IDLE_TIMEOUT", 2*time.Hour),
		SessionSweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		RateLimitMax:         getEnvInt("RATE_LIMIT_MAX", 30),
		RateLimitWindow:      getEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		PruneMaxMessages:     getEnvInt("PRUNE_MAX_MESSAGES", 40),
		PruneMaxChars:        getEnvInt("PRUNE_MAX_CHARS", 24000),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "souschef"),

		SeedFile: getEnv("SEED_FILE", ""),
	}
}

// ModelName resolves the chat model for the configured provider.
func (c Config) ModelName() string {
	if c.LLMProvider == "ollama" {
		return c.OllamaModel
	}
	return c.ClaudeModel
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid int for %s: %q, using %d", key, value, fallback)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration for %s: %q, using %s", key, value, fallback)
		return fallback
	}
	return d
}
