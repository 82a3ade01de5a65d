package ai

import (
	"context"
	"fmt"

	"github.com/v0xg/ytmark/internal/youtube"
)

// Provider defines the interface for AI summary generation
type Provider interface {
	Summarize(ctx context.Context, video *youtube.VideoMeta, transcript, extra string) (string, error)
}

// NewProvider creates a new AI provider based on the provider name
func NewProvider(name, model string) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeProvider(model)
	case "openai", "gpt":
		return NewOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}
