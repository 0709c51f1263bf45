package summary

import (
	"context"
	"strings"

	"readlist/internal/contentcache"
	"readlist/internal/services/llm"
)

// Prompt is one rendered summarization request.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// Completion is the capability's answer.
type Completion struct {
	Text  string
	Model string
	Usage *contentcache.Usage
}

// Capability produces summary text for a rendered prompt.
type Capability interface {
	Summarize(ctx context.Context, prompt Prompt) (Completion, error)
}

// LLMCapability adapts the chat completions client.
type LLMCapability struct {
	client *llm.Client
}

// NewLLMCapability wraps client.
func NewLLMCapability(client *llm.Client) *LLMCapability {
	return &LLMCapability{client: client}
}

// Model returns the configured model name.
func (c *LLMCapability) Model() string {
	return c.client.Model()
}

// Summarize sends the prompt through the chat completions endpoint.
func (c *LLMCapability) Summarize(ctx context.Context, prompt Prompt) (Completion, error) {
	resp, err := c.client.Complete(ctx, llm.Request{
		System:      strings.TrimSpace(prompt.System),
		User:        strings.TrimSpace(prompt.User),
		Temperature: prompt.Temperature,
	})
	if err != nil {
		return Completion{}, err
	}
	out := Completion{Text: resp.Text, Model: resp.Model}
	if resp.Usage != nil {
		out.Usage = &contentcache.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return out, nil
}
