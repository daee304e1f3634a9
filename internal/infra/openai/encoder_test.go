package openai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncoderOptionsOverrideDefaults(t *testing.T) {
	encoder, err := NewEncoder("dummy-key",
		WithModel("custom-model"),
		WithDimension(42),
	)
	require.NoError(t, err)

	assert.Equal(t, "custom-model", encoder.ModelName())
	assert.Equal(t, 42, encoder.Dimension())
}

func TestTruncateLimitsInputTokens(t *testing.T) {
	encoder, err := NewEncoder("dummy-key", WithMaxInputTokens(10))
	require.NoError(t, err)

	short := "hello world"
	assert.Equal(t, short, encoder.truncate(short))

	long := strings.Repeat("resume content ", 100)
	truncated := encoder.truncate(long)
	assert.Less(t, len(truncated), len(long))
	assert.LessOrEqual(t, len(encoder.tokenizer.Encode(truncated, nil, nil)), 10)
}
