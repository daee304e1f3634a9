package scoring

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrEmbeddingNotFound はキャッシュに該当エントリがない場合に
// EmbeddingStore が返すエラーです
var ErrEmbeddingNotFound = errors.New("embedding not found")

// ErrEncoding は外部エンコーダの呼び出し失敗を表すエラーです
var ErrEncoding = errors.New("encoding failed")

// OwnerKind は埋め込みの所有エンティティ種別です
type OwnerKind string

const (
	OwnerResume OwnerKind = "resume"
	OwnerJob    OwnerKind = "job"
)

// OwnerRef は埋め込みの所有エンティティへの参照です
type OwnerRef struct {
	Kind OwnerKind
	ID   uuid.UUID
}

// EmbeddingRecord は (所有者, テキストハッシュ) をキーとする埋め込み
// キャッシュの1エントリです。同一キーの再計算は禁止されており、
// 元テキストの変更はハッシュ不一致によりキャッシュを無効化します
type EmbeddingRecord struct {
	OwnerKind OwnerKind
	OwnerID   uuid.UUID
	TextHash  string
	Vector    []float32
	Model     string
	Dimension int
	CreatedAt time.Time
}

// Encoder はテキストを固定長ベクトルに変換する外部エンコーダへの
// インターフェース。同一入力・同一モデルに対して決定的です
type Encoder interface {
	Encode(ctx context.Context, text string) ([]float32, error)
	ModelName() string
	Dimension() int
}

// EmbeddingStore は埋め込みキャッシュへのアクセスを提供します
// Put はキーごとの write-once メモ化であり、同一キーへの並行書き込みは
// 等価なベクトルに収束します
type EmbeddingStore interface {
	GetEmbedding(ctx context.Context, kind OwnerKind, ownerID uuid.UUID, textHash string) (*EmbeddingRecord, error)
	PutEmbedding(ctx context.Context, record *EmbeddingRecord) error
}

// TextHash はキャッシュキーに使うテキストのSHA-256ハッシュを返します
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Scorer は埋め込みの取得・キャッシュとコサイン類似度によるスコア
// 計算を提供します
type Scorer struct {
	store   EmbeddingStore
	encoder Encoder
	logger  *slog.Logger
}

type scorerOptions struct {
	logger *slog.Logger
}

// ScorerOption は Scorer のオプション設定
type ScorerOption func(*scorerOptions)

// WithScorerLogger は Scorer にロガーを設定する
func WithScorerLogger(logger *slog.Logger) ScorerOption {
	return func(o *scorerOptions) {
		o.logger = logger
	}
}

// NewScorer は新しい Scorer を作成します
func NewScorer(store EmbeddingStore, encoder Encoder, opts ...ScorerOption) *Scorer {
	options := scorerOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Scorer{
		store:   store,
		encoder: encoder,
		logger:  options.logger,
	}
}

// EmbeddingFor は (所有者, テキストハッシュ) でキャッシュを引き、
// ヒットすれば同一のベクトルを返し、ミスした場合のみエンコーダを
// 呼び出して結果をキャッシュします
func (s *Scorer) EmbeddingFor(ctx context.Context, owner OwnerRef, text string) ([]float32, error) {
	hash := TextHash(text)

	record, err := s.store.GetEmbedding(ctx, owner.Kind, owner.ID, hash)
	if err == nil {
		return record.Vector, nil
	}
	if !errors.Is(err, ErrEmbeddingNotFound) {
		return nil, fmt.Errorf("failed to look up embedding cache: %w", err)
	}

	vector, err := s.encoder.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode %s text: %w", ErrEncoding, owner.Kind, err)
	}

	if err := s.store.PutEmbedding(ctx, &EmbeddingRecord{
		OwnerKind: owner.Kind,
		OwnerID:   owner.ID,
		TextHash:  hash,
		Vector:    vector,
		Model:     s.encoder.ModelName(),
		Dimension: len(vector),
		CreatedAt: time.Now(),
	}); err != nil {
		return nil, fmt.Errorf("failed to store embedding: %w", err)
	}

	s.logger.Debug("埋め込みを計算してキャッシュしました",
		"ownerKind", owner.Kind,
		"ownerID", owner.ID,
		"model", s.encoder.ModelName(),
		"dimension", len(vector),
	)

	return vector, nil
}

// Result は1組のレジュメ・求人ペアに対するスコア計算結果です
type Result struct {
	// Similarity はコサイン類似度 [-1, 1]
	Similarity float64
	// Score は正規化済みマッチスコア [0, 100]
	Score float64
}

// Score はレジュメと求人の埋め込みを取得（またはキャッシュから再利用）
// し、コサイン類似度と正規化スコアを返します
func (s *Scorer) Score(ctx context.Context, resume OwnerRef, resumeText string, job OwnerRef, jobText string) (*Result, error) {
	resumeVec, err := s.EmbeddingFor(ctx, resume, resumeText)
	if err != nil {
		return nil, err
	}
	jobVec, err := s.EmbeddingFor(ctx, job, jobText)
	if err != nil {
		return nil, err
	}

	similarity := Cosine(resumeVec, jobVec)
	return &Result{
		Similarity: similarity,
		Score:      SimilarityToScore(similarity),
	}, nil
}
