package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Triage    TriageConfig
	Ticketing TicketingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "ollama" or "azure"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string // "ollama" or "azure-openai"
	LLMModel          string
	AzureEndpoint     string
	AzureAPIKey       string
	AzureAPIVersion   string
	AzureEmbedModel   string
}

type TriageConfig struct {
	TopK                  int
	HistoryLimit          int
	MaxAgentIterations    int
	StateStore            string // "memory" or "redis"
	StateTTLMinutes       int
	AutoEscalateThreshold float64
	AuditTopicName        string
	KbEmbedTopicName      string
}

type TicketingConfig struct {
	IvantiAPIURL string
	NiceAPIURL   string
	NiceSkillId  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			AzureEndpoint:     getEnv("AZURE_OPENAI_ENDPOINT", ""),
			AzureAPIKey:       getEnv("AZURE_OPENAI_API_KEY", ""),
			AzureAPIVersion:   getEnv("AZURE_OPENAI_API_VERSION", "2024-06-01"),
			AzureEmbedModel:   getEnv("AZURE_OPENAI_EMBED_DEPLOYMENT", "text-embedding-3-small"),
		},
		Triage: TriageConfig{
			TopK:                  getEnvAsInt("TRIAGE_KB_TOP_K", 5),
			HistoryLimit:          getEnvAsInt("TRIAGE_HISTORY_LIMIT", 10),
			MaxAgentIterations:    getEnvAsInt("TRIAGE_MAX_AGENT_ITERATIONS", 4),
			StateStore:            getEnv("STATE_STORE", "memory"),
			StateTTLMinutes:       getEnvAsInt("STATE_TTL_MINUTES", 60),
			AutoEscalateThreshold: getEnvAsFloat("AUTO_ESCALATE_CONFIDENCE_THRESHOLD", 0.75),
			AuditTopicName:        getEnv("TRIAGE_AUDIT_TOPIC_NAME", "TRIAGE_AUDIT"),
			KbEmbedTopicName:      getEnv("KB_EMBED_TOPIC_NAME", "EMBED_KB_ARTICLE"),
		},
		Ticketing: TicketingConfig{
			IvantiAPIURL: getEnv("IVANTI_API_URL", ""),
			NiceAPIURL:   getEnv("NICE_API_URL", ""),
			NiceSkillId:  getEnv("NICE_SKILL_ID", "4354630"),
		},
	}
}

// Validate fails fast on settings the orchestrator cannot run without.
// Called once at startup, before any component is constructed.
func (c *Config) Validate() error {
	if c.Database.Connection == "" {
		return fmt.Errorf("DB_CONNECTION_STRING is required")
	}
	if c.App.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Ai.LLMProvider == "azure-openai" {
		if c.Ai.AzureEndpoint == "" || c.Ai.AzureAPIKey == "" {
			return fmt.Errorf("AZURE_OPENAI_ENDPOINT and AZURE_OPENAI_API_KEY are required when LLM_PROVIDER=azure-openai")
		}
	}
	if c.Triage.StateStore != "memory" && c.Triage.StateStore != "redis" {
		return fmt.Errorf("STATE_STORE must be \"memory\" or \"redis\", got %q", c.Triage.StateStore)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
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
