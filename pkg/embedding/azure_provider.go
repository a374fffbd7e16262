package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AzureProvider implements EmbeddingProvider against an Azure OpenAI
// embedding deployment (e.g. text-embedding-3-small).
type AzureProvider struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
	client     *http.Client
}

func NewAzureProvider(endpoint, apiKey, deployment, apiVersion string) EmbeddingProvider {
	if apiVersion == "" {
		apiVersion = "2024-06-01"
	}
	return &AzureProvider{
		Endpoint:   endpoint,
		APIKey:     apiKey,
		Deployment: deployment,
		APIVersion: apiVersion,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type azureEmbeddingRequest struct {
	Input string `json:"input"`
}

type azureEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *AzureProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	reqBody := azureEmbeddingRequest{Input: text}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/openai/deployments/%s/embeddings?api-version=%s", p.Endpoint, p.Deployment, p.APIVersion)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", p.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("azure embedding error: %s", string(bodyBytes))
	}

	var parsed azureEmbeddingResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return nil, err
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("azure embedding error: %s", parsed.Error.Message)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("azure embedding: empty data")
	}

	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{
			Values: normalizeVector(parsed.Data[0].Embedding),
		},
	}, nil
}
