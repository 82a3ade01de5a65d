package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderUnknownName(t *testing.T) {
	_, err := NewProvider("gemini", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}

func TestNewProviderClaudeRequiresKey(t *testing.T) {
	t.Setenv("YTMARK_ANTHROPIC_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := NewProvider("claude", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
}

func TestNewProviderOpenAIRequiresKey(t *testing.T) {
	t.Setenv("YTMARK_OPENAI_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider("openai", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
}

func TestNewProviderAliases(t *testing.T) {
	t.Setenv("YTMARK_ANTHROPIC_KEY", "test-key")
	t.Setenv("YTMARK_OPENAI_KEY", "test-key")

	for _, name := range []string{"claude", "anthropic", "openai", "gpt"} {
		p, err := NewProvider(name, "")
		require.NoError(t, err, name)
		assert.NotNil(t, p, name)
	}
}

func TestNewProviderHonorsModelOverride(t *testing.T) {
	t.Setenv("YTMARK_ANTHROPIC_KEY", "test-key")

	p, err := NewClaudeProvider("claude-3-5-haiku-latest")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-5-haiku-latest", p.model)
}
