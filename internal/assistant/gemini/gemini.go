// Package gemini implements the assistant generator on Google's Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"tally/internal/assistant"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// Generator sends one structured-output request per call.
type Generator struct {
	client      *genai.Client
	model       string
	temperature float32
}

var _ assistant.Generator = (*Generator)(nil)

func New(ctx context.Context, apiKey, model string) (*Generator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("missing Gemini API key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	// Low temperature keeps the JSON stable.
	return &Generator{client: client, model: model, temperature: 0.2}, nil
}

// Generate returns the concatenated text parts of the first candidate.
func (g *Generator) Generate(ctx context.Context, req assistant.Request) ([]byte, error) {
	m := g.client.GenerativeModel(g.model)
	m.SetTemperature(g.temperature)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemInstruction)}}
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = toGenaiSchema(req.Schema)

	resp, err := m.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	return firstCandidateText(resp)
}

func (g *Generator) Close() error {
	return g.client.Close()
}

func firstCandidateText(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no response from Gemini")
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return nil, errors.New("no text in Gemini response")
	}
	return []byte(sb.String()), nil
}

func toGenaiSchema(s *assistant.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Format:      s.Format,
		Enum:        s.Enum,
		Required:    s.Required,
		Nullable:    s.Nullable,
		Items:       toGenaiSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for k, v := range s.Properties {
			out.Properties[k] = toGenaiSchema(v)
		}
	}
	return out
}

func genaiType(t assistant.SchemaType) genai.Type {
	switch t {
	case assistant.TypeObject:
		return genai.TypeObject
	case assistant.TypeArray:
		return genai.TypeArray
	case assistant.TypeNumber:
		return genai.TypeNumber
	case assistant.TypeString:
		return genai.TypeString
	}
	return genai.TypeUnspecified
}
