package openai

import (
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/flowkit/provider"
)

func TestNewFromClient_Defaults(t *testing.T) {
	client := openai.NewClient()
	p := NewFromClient(&client)

	info := p.Info()
	assert.Equal(t, openai.ChatModelGPT4oMini, info.Name)
	assert.Equal(t, "openai", info.Provider)
}

func TestNewFromClient_Options(t *testing.T) {
	client := openai.NewClient()
	p := NewFromClient(&client, func(o *Options) {
		o.Model = openai.ChatModelGPT4o
		o.Temperature = 0
		o.MaxCompletionTokens = 256
	})

	assert.Equal(t, openai.ChatModelGPT4o, p.Info().Name)
	assert.Equal(t, int64(256), p.opts.MaxCompletionTokens)
}

func TestBuildMessages(t *testing.T) {
	messages := buildMessages(provider.Request{
		Instructions: "You are terse.",
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "Answer in French."},
			{Role: provider.RoleUser, Content: "hello"},
			{Role: provider.RoleAssistant, Content: "bonjour"},
			{Role: provider.RoleUser, Content: ""},
		},
	})

	// Instructions plus three non-empty turns; the empty turn is dropped.
	assert.Len(t, messages, 4)
}
