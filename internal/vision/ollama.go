package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const defaultOllamaModel = "llama3.2-vision"

// OllamaProvider implements the Provider interface for local Ollama vision
// models
type OllamaProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// Ollama API structures
type ollamaRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Images []string `json:"images,omitempty"`
	Format string   `json:"format,omitempty"`
}

type ollamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second // local vision models can be slow
	}

	model := config.Model
	if model == "" {
		model = defaultOllamaModel
	}

	return &OllamaProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable checks if Ollama is running by listing local models
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	url := fmt.Sprintf("%s/api/tags", p.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (request creation): %v\n", err)
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ollama availability check failed (connection to %s): %v\n", p.baseURL, err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// ExtractText extracts all visible text from the ticket image
func (p *OllamaProvider) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	resp, err := p.generate(ctx, ollamaRequest{
		Model:  p.model,
		Prompt: "Extract ALL text visible in this scale ticket image. Preserve the layout and structure.",
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return "", err
	}
	return resp.Response, nil
}

// ExtractStructured asks the model to answer the prompt with a JSON object,
// using Ollama's JSON output format.
func (p *OllamaProvider) ExtractStructured(ctx context.Context, image []byte, mimeType string, prompt string) (map[string]any, error) {
	resp, err := p.generate(ctx, ollamaRequest{
		Model:  p.model,
		Prompt: prompt,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
		Format: "json",
	})
	if err != nil {
		return nil, err
	}

	data, err := parseJSONObject(resp.Response)
	if err != nil {
		return nil, providerError(p.Name(), "parse structured response", err)
	}
	return data, nil
}

// generate makes an HTTP request to the Ollama generate API
func (p *OllamaProvider) generate(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, providerError(p.Name(), "marshal request", err)
	}

	url := fmt.Sprintf("%s/api/generate", p.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, providerError(p.Name(), "create request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, providerError(p.Name(), "execute request", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providerError(p.Name(), "read response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		message := strings.TrimSpace(string(respBody))
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			message = apiErr.Error
		}
		return nil, &ProviderError{
			Provider: p.Name(),
			Status:   httpResp.StatusCode,
			Message:  message,
		}
	}

	var resp ollamaResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, providerError(p.Name(), "unmarshal response", err)
	}

	return &resp, nil
}
