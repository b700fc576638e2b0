package ai

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
)

// VertexProvider calls Gemini models hosted on Vertex AI using application
// default credentials.
type VertexProvider struct {
	model  string
	client *genai.Client
}

// NewVertexProvider creates a Vertex AI provider
func NewVertexProvider(ctx context.Context, projectID, region, model string) (*VertexProvider, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("vertex: projectID and region cannot be empty")
	}
	client, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("vertex genai.NewClient: %w", err)
	}
	return &VertexProvider{model: model, client: client}, nil
}

func (p *VertexProvider) Name() string  { return "vertex" }
func (p *VertexProvider) Model() string { return p.model }

// Complete sends one GenerateContent call
func (p *VertexProvider) Complete(ctx context.Context, req ChatRequest) (string, error) {
	name := req.Model
	if name == "" {
		name = p.model
	}
	model := p.client.GenerativeModel(name)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr(req.Temperature),
	}

	system, user := splitMessages(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(user))
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Close releases the underlying client
func (p *VertexProvider) Close() error {
	return p.client.Close()
}
