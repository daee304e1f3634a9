package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/resume-match/internal/core/analysis"
	"github.com/jinford/resume-match/internal/core/intake"
	"github.com/jinford/resume-match/internal/core/scoring"
)

func TestDocumentRoundTrip(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	doc := &intake.Document{ID: uuid.New(), OriginalFilename: "a.pdf"}
	require.NoError(t, store.CreateDocument(ctx, doc))

	got, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.OriginalFilename, got.OriginalFilename)

	// 取得結果への変更はストアに波及しない
	got.OriginalFilename = "changed"
	again, err := store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", again.OriginalFilename)

	_, err = store.GetDocument(ctx, uuid.New())
	assert.ErrorIs(t, err, intake.ErrNotFound)
}

func TestListDocumentsPreservesInsertionOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	var ids []uuid.UUID
	for range 3 {
		doc := &intake.Document{ID: uuid.New()}
		require.NoError(t, store.CreateDocument(ctx, doc))
		ids = append(ids, doc.ID)
	}

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, doc := range docs {
		assert.Equal(t, ids[i], doc.ID)
	}
}

func TestAnalysisPairIndex(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	resumeID, jobID := uuid.New(), uuid.New()
	first := &analysis.AnalysisJob{ID: uuid.New(), ResumeID: resumeID, JobID: jobID, Status: analysis.StatusFailed}
	require.NoError(t, store.CreateAnalysis(ctx, first))

	// 同一ペアへの再作成で索引は最新の分析を指す
	second := &analysis.AnalysisJob{ID: uuid.New(), ResumeID: resumeID, JobID: jobID, Status: analysis.StatusStarting}
	require.NoError(t, store.CreateAnalysis(ctx, second))

	got, err := store.GetAnalysisByPair(ctx, resumeID, jobID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	_, err = store.GetAnalysisByPair(ctx, uuid.New(), jobID)
	assert.ErrorIs(t, err, analysis.ErrNotFound)
}

func TestPutEmbeddingIsWriteOnce(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	ownerID := uuid.New()
	first := &scoring.EmbeddingRecord{
		OwnerKind: scoring.OwnerResume,
		OwnerID:   ownerID,
		TextHash:  "hash",
		Vector:    []float32{1, 2},
	}
	require.NoError(t, store.PutEmbedding(ctx, first))

	overwrite := &scoring.EmbeddingRecord{
		OwnerKind: scoring.OwnerResume,
		OwnerID:   ownerID,
		TextHash:  "hash",
		Vector:    []float32{9, 9},
	}
	require.NoError(t, store.PutEmbedding(ctx, overwrite))

	got, err := store.GetEmbedding(ctx, scoring.OwnerResume, ownerID, "hash")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, got.Vector)
}

func TestDeleteAllKeepsJobDescriptions(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	job := &analysis.JobDescription{ID: uuid.New(), Title: "Backend"}
	require.NoError(t, store.CreateJobDescription(ctx, job))
	require.NoError(t, store.CreateDocument(ctx, &intake.Document{ID: uuid.New()}))
	require.NoError(t, store.DeleteAllDocuments(ctx))
	require.NoError(t, store.DeleteAllAnalyses(ctx))
	require.NoError(t, store.DeleteAllEmbeddings(ctx))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	got, err := store.GetJobDescription(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backend", got.Title)
}
