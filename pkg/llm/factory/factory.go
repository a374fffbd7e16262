package factory

import (
	"fmt"

	"itsm-triage-be/pkg/llm"
	"itsm-triage-be/pkg/llm/azureopenai"
	"itsm-triage-be/pkg/llm/ollama"
)

type Config struct {
	Provider string // "ollama" or "azure-openai"
	BaseURL  string
	Model    string
	// Azure only
	APIKey     string
	APIVersion string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case "azure-openai":
		if cfg.BaseURL == "" || cfg.APIKey == "" {
			return nil, fmt.Errorf("azure-openai requires endpoint and api key")
		}
		return azureopenai.NewAzureOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.APIVersion), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
