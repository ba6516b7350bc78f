package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Semantics SemanticsConfig
	Storage   StorageConfig
	Auth      AuthConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "gemini" or "ollama"
	LLMModel          string // e.g. "llama3", "gemini-1.5-flash"
	GeminiAPIKey      string
	OpenAIAPIKey      string // Whisper speech-to-text
	SttModel          string
	SttTimeout        time.Duration
	EmbedTimeout      time.Duration
}

// SemanticsConfig carries the tunable thresholds of the clustering and
// search engines.
type SemanticsConfig struct {
	MatchThreshold float64 // minimum mean similarity to join an existing cluster
	MinSimilarity  float64 // floor for non-temporal search results
	RagTrigger     float64 // top score below this bar also runs the RAG answer
	QueryCacheTTL  time.Duration
}

type StorageConfig struct {
	UploadsDir string
}

type AuthConfig struct {
	JWTSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-1.5-flash"),
			GeminiAPIKey:      getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
			SttModel:          getEnv("STT_MODEL", "whisper-1"),
			SttTimeout:        getEnvAsDuration("STT_TIMEOUT", 3*time.Minute),
			EmbedTimeout:      getEnvAsDuration("EMBED_TIMEOUT", 30*time.Second),
		},
		Semantics: SemanticsConfig{
			MatchThreshold: getEnvAsFloat("CLUSTER_MATCH_THRESHOLD", 0.3),
			MinSimilarity:  getEnvAsFloat("SEARCH_MIN_SIMILARITY", 0.3),
			RagTrigger:     getEnvAsFloat("SEARCH_RAG_TRIGGER", 0.5),
			QueryCacheTTL:  getEnvAsDuration("QUERY_CACHE_TTL", 5*time.Minute),
		},
		Storage: StorageConfig{
			UploadsDir: getEnv("UPLOADS_DIR", "./uploads"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
