package anthropic

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"

	"github.com/hupe1980/flowkit/provider"
)

func TestNew_Defaults(t *testing.T) {
	p := New()

	info := p.Info()
	assert.Equal(t, string(anthropic.ModelClaude3_5Sonnet20241022), info.Name)
	assert.Equal(t, "anthropic", info.Provider)
}

func TestNew_Options(t *testing.T) {
	p := New(func(o *Options) {
		o.Model = anthropic.ModelClaude3_5Haiku20241022
		o.Temperature = 0.1
		o.MaxTokens = 512
	})

	assert.Equal(t, string(anthropic.ModelClaude3_5Haiku20241022), p.Info().Name)
	assert.InDelta(t, 0.1, p.opts.Temperature, 0.0001)
	assert.Equal(t, int64(512), p.opts.MaxTokens)
}

func TestBuildMessages(t *testing.T) {
	p := New()

	messages := p.buildMessages([]provider.Message{
		{Role: provider.RoleSystem, Content: "be brief"},
		{Role: provider.RoleUser, Content: "hello"},
		{Role: provider.RoleAssistant, Content: "hi"},
		{Role: provider.RoleUser, Content: ""},
		{Role: "observer", Content: "unknown role"},
	})

	// System turns are extracted separately, empty turns dropped, unknown
	// roles become user turns.
	assert.Len(t, messages, 3)
}

func TestBuildSystemBlocks(t *testing.T) {
	p := New()

	blocks := p.buildSystemBlocks(provider.Request{
		Instructions: "You are terse.",
		Messages: []provider.Message{
			{Role: provider.RoleSystem, Content: "Answer in French."},
			{Role: provider.RoleUser, Content: "hello"},
		},
	})

	assert.Len(t, blocks, 2)
	assert.Equal(t, "You are terse.", blocks[0].Text)
	assert.Equal(t, "Answer in French.", blocks[1].Text)
}
