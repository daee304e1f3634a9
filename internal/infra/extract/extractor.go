package extract

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"github.com/jinford/resume-match/internal/core/intake"
)

// サポートする Content-Type
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeText = "text/plain"
)

// Extractor は PDF / DOCX / プレーンテキストからテキストを取り出す
// intake.Extractor 実装です
type Extractor struct{}

var _ intake.Extractor = (*Extractor)(nil)

// NewExtractor は新しい Extractor を作成します
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported は指定された Content-Type を処理できるかを返します
func Supported(contentType string) bool {
	switch normalizeContentType(contentType) {
	case ContentTypePDF, ContentTypeDOCX, ContentTypeText:
		return true
	}
	return false
}

func normalizeContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(strings.ToLower(contentType))
}

// Extract はアップロードされたバイト列からプレーンテキストを取り出します
// Content-Type が不明な場合は拡張子で判定します
func (e *Extractor) Extract(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	switch normalizeContentType(contentType) {
	case ContentTypePDF:
		return extractPDF(data)
	case ContentTypeDOCX:
		return extractDOCX(data)
	case ContentTypeText:
		return string(data), nil
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(data)
	case ".docx":
		return extractDOCX(data)
	case ".txt":
		return string(data), nil
	}
	return "", fmt.Errorf("unsupported content type %q for file %q", contentType, filename)
}

func extractPDF(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get PDF page count: %w", err)
	}
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	var builder strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("failed to get PDF page %d: %w", i, err)
		}
		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("failed to create extractor for page %d: %w", i, err)
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("failed to extract text from page %d: %w", i, err)
		}
		builder.WriteString(pageText)
		builder.WriteString("\n")
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", fmt.Errorf("PDF contains no extractable text")
	}
	return text, nil
}

var xmlTagRe = regexp.MustCompile(`<[^>]+>`)

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	// 段落区切りを改行に変換してからタグを除去する
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	content = xmlTagRe.ReplaceAllString(content, "")
	content = html.UnescapeString(content)

	text := strings.TrimSpace(content)
	if text == "" {
		return "", fmt.Errorf("DOCX contains no extractable text")
	}
	return text, nil
}
