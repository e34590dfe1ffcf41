package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = openai.GPT4o

// OpenAIProvider implements the Provider interface on the OpenAI chat
// completions API with vision input
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	maxTokens := config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	_, err := p.client.ListModels(ctx)
	if err != nil {
		// Log the actual error for debugging (this helps users diagnose API key issues)
		fmt.Fprintf(os.Stderr, "OpenAI API check failed: %v\n", err)
		return false
	}
	return true
}

// ExtractText extracts all visible text from the ticket image
func (p *OpenAIProvider) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	req := p.imageRequest(image, mimeType,
		"Extract ALL text visible in this scale ticket image. Preserve the layout and structure.")

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", providerError(p.Name(), "chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return "", providerError(p.Name(), "no choices in response", nil)
	}
	return resp.Choices[0].Message.Content, nil
}

// ExtractStructured asks the model to answer the prompt with a JSON object,
// enforced through JSON-mode output.
func (p *OpenAIProvider) ExtractStructured(ctx context.Context, image []byte, mimeType string, prompt string) (map[string]any, error) {
	req := p.imageRequest(image, mimeType, prompt)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, providerError(p.Name(), "chat completion", err)
	}
	if len(resp.Choices) == 0 {
		return nil, providerError(p.Name(), "no choices in response", nil)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &data); err != nil {
		return nil, providerError(p.Name(), "parse structured response", err)
	}
	return data, nil
}

// imageRequest builds a chat completion request carrying the inline base64
// image plus a text instruction.
func (p *OpenAIProvider) imageRequest(image []byte, mimeType string, text string) openai.ChatCompletionRequest {
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	return openai.ChatCompletionRequest{
		Model:     p.model,
		MaxTokens: p.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: text,
					},
				},
			},
		},
	}
}
