package tagger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jinford/resume-match/internal/core/redact"
)

// DefaultTimeout はタグ付けAPI呼び出しのデフォルトタイムアウト
const DefaultTimeout = 30 * time.Second

// Client は外部NERサービスを呼び出す EntityTagger 実装です
// POST {baseURL}/entities に {"text": ...} を送り、検出された
// エンティティの一覧を受け取ります
type Client struct {
	baseURL string
	http    *http.Client
}

var _ redact.EntityTagger = (*Client)(nil)

type clientOptions struct {
	httpClient *http.Client
}

// ClientOption は Client のオプション設定
type ClientOption func(*clientOptions)

// WithHTTPClient は HTTP クライアントを差し替える
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

// NewClient は新しいタグ付けクライアントを作成します
func NewClient(baseURL string, opts ...ClientOption) *Client {
	options := clientOptions{
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Client{
		baseURL: baseURL,
		http:    options.httpClient,
	}
}

type tagRequest struct {
	Text string `json:"text"`
}

type tagResponse struct {
	Entities []struct {
		Start int    `json:"start"`
		End   int    `json:"end"`
		Label string `json:"label"`
		Text  string `json:"text"`
	} `json:"entities"`
}

// Tag はテキスト中の固有表現を検出します
func (c *Client) Tag(ctx context.Context, text string) ([]redact.Entity, error) {
	body, err := json.Marshal(tagRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tag request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/entities", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build tag request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call tagger service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tagger service returned status %d", resp.StatusCode)
	}

	var parsed tagResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode tagger response: %w", err)
	}

	entities := make([]redact.Entity, 0, len(parsed.Entities))
	for _, e := range parsed.Entities {
		entities = append(entities, redact.Entity{
			Start: e.Start,
			End:   e.End,
			Label: e.Label,
			Text:  e.Text,
		})
	}
	return entities, nil
}
