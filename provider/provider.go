package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/flowkit/core"
)

// Message roles understood by the shipped adapters. Unknown roles are treated
// as user input.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request captures the normalized provider input produced by flows.
type Request struct {
	Instructions string    `json:"instructions,omitempty"` // Instructions for the service
	Messages     []Message `json:"messages"`
}

// Usage captures token usage statistics for a response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the completed output of a provider call.
type Response struct {
	ID           string `json:"id,omitempty"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"` // "stop", "length", etc.
	Usage        *Usage `json:"usage,omitempty"`
}

// Info contains metadata about a provider implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Provider is the minimal interface a completion service must satisfy to be
// driven by flows.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)

	// Info returns information about the provider implementation.
	Info() Info
}

// Primitive lifts a Provider into a leaf primitive. Failures of the
// underlying service are wrapped in core.OperationError so flows can classify
// them uniformly.
func Primitive(p Provider) core.Primitive[Request, Response] {
	info := p.Info()

	return &primitive{
		Base:     core.NewBase(info.Provider + ":" + info.Name),
		provider: p,
	}
}

type primitive struct {
	core.Base
	provider Provider
}

// Execute implements core.Primitive.
func (p *primitive) Execute(fc *core.Context, req Request) (Response, error) {
	resp, err := p.provider.Complete(fc.Context, req)
	if err != nil {
		return Response{}, &core.OperationError{Primitive: p.Name(), Err: err}
	}

	if resp.Usage != nil {
		fc.LogDebug("provider call completed",
			"primitive", p.Name(),
			"finish_reason", resp.FinishReason,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
		)
	}

	return resp, nil
}

// MockProvider is a lightweight in-memory Provider useful for tests & examples.
type MockProvider struct {
	info      Info
	responses map[string]string
}

// NewMockProvider constructs a MockProvider identified by name and vendor.
func NewMockProvider(name, vendor string) *MockProvider {
	return &MockProvider{
		info: Info{
			Name:     name,
			Provider: vendor,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockProvider) AddResponse(prompt, response string) { m.responses[prompt] = response }

// Complete implements Provider; replies with the canned completion for the
// last message, or a generic echo when none is registered.
func (m *MockProvider) Complete(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	if len(req.Messages) == 0 {
		return Response{}, fmt.Errorf("no messages provided")
	}

	prompt := req.Messages[len(req.Messages)-1].Content

	text := m.responses[prompt]
	if text == "" {
		text = fmt.Sprintf("Mock response to: %s", prompt)
	}

	// Word counts stand in for tokens.
	promptTokens := 0
	for _, msg := range req.Messages {
		promptTokens += len(strings.Fields(msg.Content))
	}

	completionTokens := len(strings.Fields(text))

	return Response{
		Text:         text,
		FinishReason: "stop",
		Usage: &Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}, nil
}

// Info implements Provider.
func (m *MockProvider) Info() Info { return m.info }
