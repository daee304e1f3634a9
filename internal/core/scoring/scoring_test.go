package scoring

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEncoder struct {
	vectors map[string][]float32
	calls   int
	err     error
}

func (e *stubEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	if vec, ok := e.vectors[text]; ok {
		return vec, nil
	}
	return []float32{1, 0, 0}, nil
}

func (e *stubEncoder) ModelName() string { return "stub-model" }
func (e *stubEncoder) Dimension() int    { return 3 }

type memoryEmbeddingStore struct {
	records map[string]*EmbeddingRecord
	puts    int
}

func newMemoryEmbeddingStore() *memoryEmbeddingStore {
	return &memoryEmbeddingStore{records: make(map[string]*EmbeddingRecord)}
}

func (s *memoryEmbeddingStore) key(kind OwnerKind, id uuid.UUID, hash string) string {
	return fmt.Sprintf("%s/%s/%s", kind, id, hash)
}

func (s *memoryEmbeddingStore) GetEmbedding(ctx context.Context, kind OwnerKind, ownerID uuid.UUID, textHash string) (*EmbeddingRecord, error) {
	record, ok := s.records[s.key(kind, ownerID, textHash)]
	if !ok {
		return nil, ErrEmbeddingNotFound
	}
	return record, nil
}

func (s *memoryEmbeddingStore) PutEmbedding(ctx context.Context, record *EmbeddingRecord) error {
	s.puts++
	key := s.key(record.OwnerKind, record.OwnerID, record.TextHash)
	// write-once: 既存エントリは上書きしない
	if _, ok := s.records[key]; !ok {
		s.records[key] = record
	}
	return nil
}

func TestCosineKnownValues(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
}

func TestCosineZeroNormFallback(t *testing.T) {
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
}

func TestSimilarityToScoreExactMapping(t *testing.T) {
	assert.Equal(t, 100.0, SimilarityToScore(1.0))
	assert.Equal(t, 50.0, SimilarityToScore(0.0))
	assert.Equal(t, 0.0, SimilarityToScore(-1.0))
	assert.Equal(t, 75.0, SimilarityToScore(0.5))
	assert.Equal(t, 64.65, SimilarityToScore(0.293))

	// 範囲外の入力もクランプされる
	assert.Equal(t, 100.0, SimilarityToScore(1.5))
	assert.Equal(t, 0.0, SimilarityToScore(-2.0))
}

func TestEmbeddingForCachesByOwnerAndHash(t *testing.T) {
	encoder := &stubEncoder{}
	store := newMemoryEmbeddingStore()
	scorer := NewScorer(store, encoder)

	owner := OwnerRef{Kind: OwnerResume, ID: uuid.New()}

	first, err := scorer.EmbeddingFor(context.Background(), owner, "some resume text")
	require.NoError(t, err)
	assert.Equal(t, 1, encoder.calls)

	// 同一キーの再計算は発生しない
	second, err := scorer.EmbeddingFor(context.Background(), owner, "some resume text")
	require.NoError(t, err)
	assert.Equal(t, 1, encoder.calls)
	assert.Equal(t, first, second)

	// テキストが変わるとハッシュ不一致でキャッシュミスになる
	_, err = scorer.EmbeddingFor(context.Background(), owner, "changed resume text")
	require.NoError(t, err)
	assert.Equal(t, 2, encoder.calls)
}

func TestScoreIsDeterministicWithCachedEmbeddings(t *testing.T) {
	encoder := &stubEncoder{vectors: map[string][]float32{
		"resume": {1, 1, 0},
		"job":    {1, 0, 0},
	}}
	store := newMemoryEmbeddingStore()
	scorer := NewScorer(store, encoder)

	resume := OwnerRef{Kind: OwnerResume, ID: uuid.New()}
	job := OwnerRef{Kind: OwnerJob, ID: uuid.New()}

	first, err := scorer.Score(context.Background(), resume, "resume", job, "job")
	require.NoError(t, err)
	second, err := scorer.Score(context.Background(), resume, "resume", job, "job")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, encoder.calls)
	assert.GreaterOrEqual(t, first.Score, 0.0)
	assert.LessOrEqual(t, first.Score, 100.0)
}

func TestScoreEncoderFailure(t *testing.T) {
	encoder := &stubEncoder{err: errors.New("encoder unavailable")}
	scorer := NewScorer(newMemoryEmbeddingStore(), encoder)

	_, err := scorer.Score(context.Background(),
		OwnerRef{Kind: OwnerResume, ID: uuid.New()}, "resume",
		OwnerRef{Kind: OwnerJob, ID: uuid.New()}, "job")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEncoding)
}

func TestTextHashIsStable(t *testing.T) {
	assert.Equal(t, TextHash("abc"), TextHash("abc"))
	assert.NotEqual(t, TextHash("abc"), TextHash("abd"))
	assert.Len(t, TextHash(""), 64)
}
