package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/pkoukk/tiktoken-go"

	"github.com/jinford/resume-match/internal/core/scoring"
)

const (
	// DefaultEmbeddingModel はモデル未指定時のデフォルトモデル
	DefaultEmbeddingModel = "text-embedding-3-small"
	// DefaultEmbeddingDimension はOpenAI推奨のデフォルト次元
	DefaultEmbeddingDimension = 1536
	// DefaultMaxInputTokens は埋め込み入力の最大トークン数
	// 超過分は末尾が切り詰められます
	DefaultMaxInputTokens = 8000
)

// Encoder は OpenAI API を使用してテキストをベクトルに変換する
type Encoder struct {
	client    openai.Client
	model     string
	dimension int
	maxTokens int
	tokenizer *tiktoken.Tiktoken
}

var _ scoring.Encoder = (*Encoder)(nil)

type encoderOptions struct {
	model     string
	dimension int
	maxTokens int
}

// EncoderOption は Encoder のオプション設定
type EncoderOption func(*encoderOptions)

// WithModel はモデル名を上書きする
func WithModel(model string) EncoderOption {
	return func(o *encoderOptions) {
		o.model = model
	}
}

// WithDimension はベクトル次元を上書きする
func WithDimension(dimension int) EncoderOption {
	return func(o *encoderOptions) {
		o.dimension = dimension
	}
}

// WithMaxInputTokens は入力の最大トークン数を上書きする
func WithMaxInputTokens(maxTokens int) EncoderOption {
	return func(o *encoderOptions) {
		o.maxTokens = maxTokens
	}
}

// NewEncoder は新しい Encoder を作成する
func NewEncoder(apiKey string, opts ...EncoderOption) (*Encoder, error) {
	options := encoderOptions{
		model:     DefaultEmbeddingModel,
		dimension: DefaultEmbeddingDimension,
		maxTokens: DefaultMaxInputTokens,
	}
	for _, opt := range opts {
		opt(&options)
	}

	tokenizer, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}

	return &Encoder{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
		),
		model:     options.model,
		dimension: options.dimension,
		maxTokens: options.maxTokens,
		tokenizer: tokenizer,
	}, nil
}

// Encode は単一テキストの埋め込みを生成する
// 入力が最大トークン数を超える場合は末尾を切り詰める
func (e *Encoder) Encode(ctx context.Context, text string) ([]float32, error) {
	text = e.truncate(text)

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(text),
		},
	}
	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	data := resp.Data[0].Embedding
	vector := make([]float32, len(data))
	for i, v := range data {
		vector[i] = float32(v)
	}
	return vector, nil
}

func (e *Encoder) truncate(text string) string {
	tokens := e.tokenizer.Encode(text, nil, nil)
	if len(tokens) <= e.maxTokens {
		return text
	}
	return e.tokenizer.Decode(tokens[:e.maxTokens])
}

// ModelName はモデル名を返す
func (e *Encoder) ModelName() string {
	return e.model
}

// Dimension はベクトル次元数を返す
func (e *Encoder) Dimension() int {
	return e.dimension
}
