package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"google.golang.org/genai"

	"github.com/mikeboe/osint-investigator/pkg/metrics"
	"github.com/mikeboe/osint-investigator/pkg/osint"
)

// ModelType names a Gemini model.
type ModelType string

// DefaultModel is the default model to use if none is specified
const DefaultModel ModelType = "gemini-1.5-flash"

// Backend selects the SDK used to reach Gemini.
const (
	BackendGenAI     = "genai"
	BackendLangChain = "langchain"
)

var errEmptyResponse = errors.New("empty response")

// NewCompleter returns the completer for backend.
func NewCompleter(backend string, model ModelType) (osint.Completer, error) {
	if model == "" {
		model = DefaultModel
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendGenAI:
		return NewGenAICompleter(model), nil
	case BackendLangChain:
		return NewLangChainCompleter(model), nil
	default:
		return nil, fmt.Errorf("invalid AI backend: %s", backend)
	}
}

// GenAICompleter calls Gemini through the google genai SDK, keeping one
// client per API key.
type GenAICompleter struct {
	model ModelType

	mu      sync.Mutex
	clients map[string]*genai.Client
}

var _ osint.Completer = (*GenAICompleter)(nil)

func NewGenAICompleter(model ModelType) *GenAICompleter {
	return &GenAICompleter{model: model, clients: make(map[string]*genai.Client)}
}

// Complete requests a JSON response for prompt.
func (c *GenAICompleter) Complete(ctx context.Context, prompt, apiKey string) (string, error) {
	client, err := c.client(ctx, apiKey)
	if err != nil {
		metrics.RecordProvider("ai", metrics.OutcomeError)
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, string(c.model), genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		metrics.RecordProvider("ai", metrics.OutcomeError)
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		metrics.RecordProvider("ai", metrics.OutcomeBadResponse)
		return "", errEmptyResponse
	}
	metrics.RecordProvider("ai", metrics.OutcomeOK)
	return text, nil
}

func (c *GenAICompleter) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[apiKey]; ok {
		return client, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini API client: %w", err)
	}
	c.clients[apiKey] = client
	return client, nil
}

// LangChainCompleter calls Gemini through langchaingo's googleai provider.
type LangChainCompleter struct {
	model ModelType

	mu     sync.Mutex
	models map[string]llms.Model
}

var _ osint.Completer = (*LangChainCompleter)(nil)

func NewLangChainCompleter(model ModelType) *LangChainCompleter {
	return &LangChainCompleter{model: model, models: make(map[string]llms.Model)}
}

// Complete requests a JSON response for prompt.
func (c *LangChainCompleter) Complete(ctx context.Context, prompt, apiKey string) (string, error) {
	llm, err := c.llm(ctx, apiKey)
	if err != nil {
		metrics.RecordProvider("ai", metrics.OutcomeError)
		return "", err
	}

	text, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt, llms.WithJSONMode())
	if err != nil {
		metrics.RecordProvider("ai", metrics.OutcomeError)
		return "", fmt.Errorf("llm generation failed: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		metrics.RecordProvider("ai", metrics.OutcomeBadResponse)
		return "", errEmptyResponse
	}
	metrics.RecordProvider("ai", metrics.OutcomeOK)
	return text, nil
}

func (c *LangChainCompleter) llm(ctx context.Context, apiKey string) (llms.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if llm, ok := c.models[apiKey]; ok {
		return llm, nil
	}
	// See https://ai.google.dev/gemini-api/docs/models/gemini for possible models
	llm, err := googleai.New(ctx, googleai.WithAPIKey(apiKey), googleai.WithDefaultModel(string(c.model)))
	if err != nil {
		return nil, fmt.Errorf("failed to init LLM: %w", err)
	}
	c.models[apiKey] = llm
	return llm, nil
}
