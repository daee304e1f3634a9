package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor()

	text, err := e.Extract(context.Background(), "resume.txt", "text/plain", []byte("hello resume"))
	require.NoError(t, err)
	assert.Equal(t, "hello resume", text)
}

func TestExtractFallsBackToExtension(t *testing.T) {
	e := NewExtractor()

	text, err := e.Extract(context.Background(), "resume.TXT", "application/octet-stream", []byte("plain body"))
	require.NoError(t, err)
	assert.Equal(t, "plain body", text)
}

func TestExtractUnsupportedType(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract(context.Background(), "resume.png", "image/png", []byte{0x89, 0x50})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}

func TestExtractInvalidPDF(t *testing.T) {
	e := NewExtractor()

	_, err := e.Extract(context.Background(), "resume.pdf", ContentTypePDF, []byte("not a pdf"))
	require.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported(ContentTypePDF))
	assert.True(t, Supported(ContentTypeDOCX))
	assert.True(t, Supported("text/plain; charset=utf-8"))
	assert.False(t, Supported("image/png"))
	assert.False(t, Supported(""))
}
