package analysis_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/resume-match/internal/core/analysis"
	"github.com/jinford/resume-match/internal/core/intake"
	"github.com/jinford/resume-match/internal/core/redact"
	"github.com/jinford/resume-match/internal/core/scoring"
	"github.com/jinford/resume-match/internal/core/taxonomy"
	"github.com/jinford/resume-match/internal/infra/memory"
)

type passthroughExtractor struct{}

func (passthroughExtractor) Extract(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if strings.Contains(string(data), "CORRUPT") {
		return "", errors.New("unreadable file")
	}
	return string(data), nil
}

type noopTagger struct{ err error }

func (t *noopTagger) Tag(ctx context.Context, text string) ([]redact.Entity, error) {
	return nil, t.err
}

type encodeRule struct {
	substring string
	vector    []float32
}

type fakeEncoder struct {
	rules []encodeRule
	calls int
}

func (e *fakeEncoder) Encode(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if strings.Contains(text, "BROKEN") {
		return nil, errors.New("encoder rejected input")
	}
	for _, rule := range e.rules {
		if strings.Contains(text, rule.substring) {
			return rule.vector, nil
		}
	}
	return []float32{1, 0}, nil
}

func (e *fakeEncoder) ModelName() string { return "fake-model" }
func (e *fakeEncoder) Dimension() int    { return 2 }

// syncRunner は分析を投入と同じ goroutine で実行します
// 実行エラーは非同期実行と同様に状態にのみ反映されます
type syncRunner struct{ svc *analysis.Service }

func (r *syncRunner) Dispatch(ctx context.Context, analysisID uuid.UUID) error {
	_ = r.svc.Run(ctx, analysisID)
	return nil
}

// idleRunner は受け付けたジョブを実行せず、投入直後の状態を再現します
type idleRunner struct{}

func (idleRunner) Dispatch(ctx context.Context, analysisID uuid.UUID) error {
	return nil
}

type fixture struct {
	store   *memory.Store
	encoder *fakeEncoder
	intake  *intake.Service
	svc     *analysis.Service
}

func newFixture(t *testing.T, encoder *fakeEncoder) *fixture {
	t.Helper()
	store := memory.NewStore()
	intakeSvc := intake.NewService(store, passthroughExtractor{}, redact.NewRedactor(&noopTagger{}))
	scorer := scoring.NewScorer(store, encoder)
	svc := analysis.NewService(store, intakeSvc, scorer, taxonomy.Default())
	svc.SetRunner(&syncRunner{svc: svc})
	return &fixture{store: store, encoder: encoder, intake: intakeSvc, svc: svc}
}

func (f *fixture) upload(t *testing.T, text string) *intake.Document {
	t.Helper()
	doc, err := f.intake.Ingest(context.Background(), "resume.txt", "text/plain", []byte(text))
	require.NoError(t, err)
	return doc
}

func (f *fixture) createJob(t *testing.T, description string) *analysis.JobDescription {
	t.Helper()
	job, err := f.svc.CreateJob(context.Background(), "Backend Engineer", description)
	require.NoError(t, err)
	return job
}

func TestSubmitRunsPipelineToCompletion(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	doc := f.upload(t, "Skills\nPython, FastAPI and Docker experience.\nContact: jane@example.com")
	job := f.createJob(t, "We require Python, Docker and AWS.")

	submitted, err := f.svc.Submit(ctx, doc.ID, job.ID)
	require.NoError(t, err)

	got, err := f.svc.GetStatus(ctx, submitted.ID)
	require.NoError(t, err)

	assert.Equal(t, analysis.StatusCompleted, got.Status)
	assert.Equal(t, []string{"Python", "Docker"}, got.MatchingSkills)
	assert.Equal(t, []string{"AWS"}, got.MissingSkills)
	assert.Equal(t, 100.0, got.MatchScore)
	assert.Contains(t, got.Explanation, "Strong match")
	assert.NotEmpty(t, got.Suggestions)
	assert.Contains(t, got.SectionSummary, "skills")
	assert.Empty(t, got.ErrorMessage)
}

func TestSubmitIsIdempotentPerPair(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	doc := f.upload(t, "Skills\nPython")
	job := f.createJob(t, "Python required")

	first, err := f.svc.Submit(ctx, doc.ID, job.ID)
	require.NoError(t, err)
	callsAfterFirst := f.encoder.calls

	// 再投入は既存の分析を返し、再計算しない
	second, err := f.svc.Submit(ctx, doc.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, callsAfterFirst, f.encoder.calls)
}

func TestSubmitAfterFailureCreatesFreshAnalysis(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	doc := f.upload(t, "Go developer, BROKEN token included")
	job := f.createJob(t, "Go required")

	first, err := f.svc.Submit(ctx, doc.ID, job.ID)
	require.NoError(t, err)

	got, err := f.svc.GetStatus(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, analysis.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "encoder rejected input")

	// FAILED ペアへの再投入は新しい分析を作る
	second, err := f.svc.Submit(ctx, doc.ID, job.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitRejectsUnextractedResume(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	doc := f.upload(t, "CORRUPT bytes")
	require.Equal(t, intake.ExtractionError, doc.ExtractionStatus)
	job := f.createJob(t, "Python required")

	_, err := f.svc.Submit(ctx, doc.ID, job.ID)
	require.ErrorIs(t, err, analysis.ErrValidation)
}

func TestSubmitUnknownEntities(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	doc := f.upload(t, "Python")
	job := f.createJob(t, "Python required")

	_, err := f.svc.Submit(ctx, uuid.New(), job.ID)
	require.ErrorIs(t, err, analysis.ErrNotFound)

	_, err = f.svc.Submit(ctx, doc.ID, uuid.New())
	require.ErrorIs(t, err, analysis.ErrNotFound)
}

func TestRunFailureRecordsFailedState(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	// アップロード時のマスキングが失敗し、分析時の再試行も失敗する
	store := memory.NewStore()
	tagger := &noopTagger{err: errors.New("tagger down")}
	intakeSvc := intake.NewService(store, passthroughExtractor{}, redact.NewRedactor(tagger))
	svc := analysis.NewService(store, intakeSvc, scoring.NewScorer(store, f.encoder), taxonomy.Default())
	svc.SetRunner(&syncRunner{svc: svc})

	doc, err := intakeSvc.Ingest(ctx, "resume.txt", "text/plain", []byte("Python"))
	require.NoError(t, err)
	job, err := svc.CreateJob(ctx, "Backend", "Python required")
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, doc.ID, job.ID)
	require.NoError(t, err)

	got, err := svc.GetStatus(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "tagger down")
	assert.Zero(t, got.MatchScore)
}

func TestCreateJobRequiresDescription(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})

	_, err := f.svc.CreateJob(context.Background(), "Backend Engineer", "   ")
	require.ErrorIs(t, err, analysis.ErrValidation)
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	encoder := &fakeEncoder{rules: []encodeRule{
		{substring: "alpha", vector: []float32{1, 0}},
		{substring: "beta", vector: []float32{1, 1}},
		{substring: "We require", vector: []float32{1, 0}},
	}}
	f := newFixture(t, encoder)
	ctx := context.Background()

	low := f.upload(t, "beta profile with Python")
	high := f.upload(t, "alpha profile with Python and Docker")
	job := f.createJob(t, "We require Python and Docker")

	result, err := f.svc.Rank(ctx, job.ID, []uuid.UUID{low.ID, high.ID})
	require.NoError(t, err)
	require.Len(t, result.Ranked, 2)

	assert.Equal(t, high.ID, result.Ranked[0].ResumeID)
	assert.Equal(t, 100.0, result.Ranked[0].MatchScore)
	assert.Equal(t, low.ID, result.Ranked[1].ResumeID)
	assert.Greater(t, result.Ranked[0].MatchScore, result.Ranked[1].MatchScore)
	assert.Empty(t, result.Failures)
}

func TestRankTieBreakPreservesSubmissionOrder(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	first := f.upload(t, "Python resume one")
	second := f.upload(t, "Python resume two")
	job := f.createJob(t, "Python required")

	result, err := f.svc.Rank(ctx, job.ID, []uuid.UUID{first.ID, second.ID})
	require.NoError(t, err)
	require.Len(t, result.Ranked, 2)

	assert.Equal(t, result.Ranked[0].MatchScore, result.Ranked[1].MatchScore)
	assert.Equal(t, first.ID, result.Ranked[0].ResumeID)
	assert.Equal(t, second.ID, result.Ranked[1].ResumeID)
}

func TestRankIsolatesPerResumeFailures(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	ok1 := f.upload(t, "Python engineer")
	bad := f.upload(t, "BROKEN resume")
	ok2 := f.upload(t, "Docker engineer")
	job := f.createJob(t, "Python and Docker")

	result, err := f.svc.Rank(ctx, job.ID, []uuid.UUID{ok1.ID, bad.ID, ok2.ID})
	require.NoError(t, err)

	assert.Len(t, result.Ranked, 2)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, bad.ID, result.Failures[0].ResumeID)
	assert.Contains(t, result.Failures[0].Reason, "encoder rejected input")

	ranked := []uuid.UUID{result.Ranked[0].ResumeID, result.Ranked[1].ResumeID}
	assert.Contains(t, ranked, ok1.ID)
	assert.Contains(t, ranked, ok2.ID)
}

func TestRankAttachesToInFlightAnalysis(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	doc := f.upload(t, "Python engineer")
	job := f.createJob(t, "Python required")

	// ワーカーがまだ実行していない分析を残す
	f.svc.SetRunner(idleRunner{})
	submitted, err := f.svc.Submit(ctx, doc.ID, job.ID)
	require.NoError(t, err)

	pending, err := f.svc.GetStatus(ctx, submitted.ID)
	require.NoError(t, err)
	require.Equal(t, analysis.StatusStarting, pending.Status)

	result, err := f.svc.Rank(ctx, job.ID, nil)
	require.NoError(t, err)
	require.Len(t, result.Ranked, 1)

	// 進行中のジョブに合流し、重複する分析は作らない
	assert.Equal(t, submitted.ID, result.Ranked[0].AnalysisID)
	assert.Equal(t, 2, f.encoder.calls)

	got, err := f.svc.GetStatus(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, analysis.StatusCompleted, got.Status)

	latest, err := f.store.GetAnalysisByPair(ctx, doc.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, submitted.ID, latest.ID)

	// 遅れて届いたワーカー実行は終端状態を変更しない
	require.NoError(t, f.svc.Run(ctx, submitted.ID))
	again, err := f.svc.GetStatus(ctx, submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, got.UpdatedAt, again.UpdatedAt)
}

func TestRankReusesCompletedAnalyses(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	doc := f.upload(t, "Python engineer")
	job := f.createJob(t, "Python required")

	submitted, err := f.svc.Submit(ctx, doc.ID, job.ID)
	require.NoError(t, err)
	callsAfterSubmit := f.encoder.calls

	result, err := f.svc.Rank(ctx, job.ID, nil)
	require.NoError(t, err)
	require.Len(t, result.Ranked, 1)

	assert.Equal(t, submitted.ID, result.Ranked[0].AnalysisID)
	assert.Equal(t, callsAfterSubmit, f.encoder.calls)
}

func TestRankUnknownJob(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})

	_, err := f.svc.Rank(context.Background(), uuid.New(), nil)
	require.ErrorIs(t, err, analysis.ErrNotFound)
}

func TestClearAllKeepsJobDescriptions(t *testing.T) {
	f := newFixture(t, &fakeEncoder{})
	ctx := context.Background()

	doc := f.upload(t, "Python engineer")
	job := f.createJob(t, "Python required")
	submitted, err := f.svc.Submit(ctx, doc.ID, job.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.ClearAll(ctx))

	_, err = f.intake.Get(ctx, doc.ID)
	assert.ErrorIs(t, err, intake.ErrNotFound)
	_, err = f.svc.GetStatus(ctx, submitted.ID)
	assert.ErrorIs(t, err, analysis.ErrNotFound)

	kept, err := f.svc.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, kept.ID)
}
