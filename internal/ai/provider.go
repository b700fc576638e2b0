package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lipiai/document-translation-service/internal/models"
)

// Chat roles
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// ErrEmptyResponse is returned when a provider answers without any text
var ErrEmptyResponse = errors.New("empty response from model")

// Message is one entry of a chat request
type Message struct {
	Role    string
	Content string
}

// ChatRequest is sent to a provider for one page
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
}

// Provider is a stateless chat completion client, safe for concurrent use
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// NewProvider creates the provider selected in configuration
func NewProvider(ctx context.Context, cfg models.AIConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "openrouter":
		return NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model)
	case "gemini":
		return NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	case "vertex":
		return NewVertexProvider(ctx, cfg.Vertex.ProjectID, cfg.Vertex.Region, cfg.Vertex.Model)
	case "ollama":
		return NewOllamaProvider(cfg.Ollama.BaseURL, cfg.Ollama.Model)
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
	}
}

// splitMessages separates the system instruction from the user content.
// For providers with a dedicated system field.
func splitMessages(msgs []Message) (system, user string) {
	var sys, usr []string
	for _, m := range msgs {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
		} else {
			usr = append(usr, m.Content)
		}
	}
	return strings.Join(sys, "\n\n"), strings.Join(usr, "\n\n")
}
