package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/resume-match/internal/core/explain"
	"github.com/jinford/resume-match/internal/core/intake"
	"github.com/jinford/resume-match/internal/core/scoring"
	"github.com/jinford/resume-match/internal/core/taxonomy"
	"github.com/jinford/resume-match/internal/core/textproc"
)

const sectionSummaryMaxLen = 200

// Service は分析ジョブのライフサイクル全体を管理します
// 投入・状態遷移・スコア計算・説明文生成・ランキングを担当します
type Service struct {
	repo   Repository
	intake *intake.Service
	scorer *scoring.Scorer
	tax    *taxonomy.Taxonomy
	runner Runner
	logger *slog.Logger

	// submitGate は同一ペアの重複投入を直列化します
	submitGate keyedMutex
}

type serviceOptions struct {
	logger *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*serviceOptions)

// WithServiceLogger は Service にロガーを設定する
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService は新しい分析サービスを作成します
// Runner は循環参照を避けるため生成後に SetRunner で接続します
func NewService(repo Repository, intakeSvc *intake.Service, scorer *scoring.Scorer, tax *taxonomy.Taxonomy, opts ...ServiceOption) *Service {
	options := serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		repo:   repo,
		intake: intakeSvc,
		scorer: scorer,
		tax:    tax,
		logger: options.logger,
	}
}

// SetRunner は分析実行のディスパッチ先を設定します
func (s *Service) SetRunner(runner Runner) {
	s.runner = runner
}

// CreateJob は求人票を登録します。説明文が空の場合は ErrValidation を
// 返します
func (s *Service) CreateJob(ctx context.Context, title, description string) (*JobDescription, error) {
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: job description must not be empty", ErrValidation)
	}

	job := &JobDescription{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(title),
		Description: description,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateJobDescription(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job description: %w", err)
	}

	s.logger.Info("求人票を登録しました", "jobID", job.ID, "title", job.Title)
	return job, nil
}

// GetJob は求人票を1件取得します
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*JobDescription, error) {
	job, err := s.repo.GetJobDescription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get job description: %w", err)
	}
	return job, nil
}

// Submit はレジュメ・求人ペアの分析を投入します
//
// 同一ペアに対して非終端または COMPLETED の分析が既に存在する場合は
// 新しいジョブを作らず既存の分析を返します（冪等）。FAILED の場合のみ
// 新しい分析を作成します。同一ペアの並行投入は直列化され、重複した
// ジョブは作られません
func (s *Service) Submit(ctx context.Context, resumeID, jobID uuid.UUID) (*AnalysisJob, error) {
	doc, err := s.intake.Get(ctx, resumeID)
	if err != nil {
		if errors.Is(err, intake.ErrNotFound) {
			return nil, fmt.Errorf("%w: resume %s", ErrNotFound, resumeID)
		}
		return nil, err
	}
	if _, err := s.repo.GetJobDescription(ctx, jobID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to get job description: %w", err)
	}
	if doc.ExtractionStatus == intake.ExtractionError {
		return nil, fmt.Errorf("%w: resume text extraction failed: %s", ErrValidation, doc.ExtractionError)
	}

	unlock := s.submitGate.lock(pairKey(resumeID, jobID))
	defer unlock()

	existing, err := s.repo.GetAnalysisByPair(ctx, resumeID, jobID)
	if err == nil && existing.Status != StatusFailed {
		return existing, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up existing analysis: %w", err)
	}

	now := time.Now()
	analysis := &AnalysisJob{
		ID:        uuid.New(),
		ResumeID:  resumeID,
		JobID:     jobID,
		Status:    StatusStarting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateAnalysis(ctx, analysis); err != nil {
		return nil, fmt.Errorf("failed to create analysis: %w", err)
	}

	if err := s.runner.Dispatch(ctx, analysis.ID); err != nil {
		return nil, fmt.Errorf("failed to dispatch analysis: %w", err)
	}

	s.logger.Info("分析ジョブを投入しました",
		"analysisID", analysis.ID,
		"resumeID", resumeID,
		"jobID", jobID,
	)
	return analysis, nil
}

// GetStatus は分析ジョブの現在の状態と結果を返します
func (s *Service) GetStatus(ctx context.Context, id uuid.UUID) (*AnalysisJob, error) {
	analysis, err := s.repo.GetAnalysis(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return analysis, nil
}

// Run は投入済みの分析ジョブを実行します
// 終端状態のジョブに対しては何もしません（再実行安全）
func (s *Service) Run(ctx context.Context, analysisID uuid.UUID) error {
	analysis, err := s.repo.GetAnalysis(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("failed to get analysis %s: %w", analysisID, err)
	}
	if analysis.Status.Terminal() {
		return nil
	}

	if err := s.transition(ctx, analysis, StatusExtracting); err != nil {
		return err
	}

	doc, err := s.intake.Get(ctx, analysis.ResumeID)
	if err != nil {
		return s.fail(ctx, analysis, err)
	}
	if err := s.intake.EnsureRedacted(ctx, doc); err != nil {
		return s.fail(ctx, analysis, err)
	}

	job, err := s.repo.GetJobDescription(ctx, analysis.JobID)
	if err != nil {
		return s.fail(ctx, analysis, fmt.Errorf("failed to get job description: %w", err))
	}

	if err := s.transition(ctx, analysis, StatusEmbedding); err != nil {
		return err
	}

	jobSkills := s.tax.Extract(job.Description)
	if err := s.execute(ctx, analysis, doc, job, jobSkills); err != nil {
		return s.fail(ctx, analysis, err)
	}

	s.logger.Info("分析ジョブが完了しました",
		"analysisID", analysis.ID,
		"matchScore", analysis.MatchScore,
	)
	return nil
}

// execute はスコア計算から結果確定までを行います
// 結果フィールドと COMPLETED への遷移は1回の更新で確定します
func (s *Service) execute(ctx context.Context, analysis *AnalysisJob, doc *intake.Document, job *JobDescription, jobSkills []string) error {
	result, err := s.scorer.Score(ctx,
		scoring.OwnerRef{Kind: scoring.OwnerResume, ID: doc.ID}, doc.RedactedText,
		scoring.OwnerRef{Kind: scoring.OwnerJob, ID: job.ID}, job.Description,
	)
	if err != nil {
		return err
	}

	resumeSkills := s.tax.Extract(doc.RedactedText)
	gap := explain.ComputeGap(s.tax, resumeSkills, jobSkills)

	analysis.MatchScore = result.Score
	analysis.Similarity = result.Similarity
	analysis.MatchingSkills = gap.Matching
	analysis.MissingSkills = gap.Missing
	analysis.SectionSummary = textproc.SummarizeSections(doc.Sections, sectionSummaryMaxLen)
	analysis.Explanation = explain.BuildExplanation(gap, result.Score, doc.Sections)
	analysis.Suggestions = explain.BuildSuggestions(gap, result.Score, doc.Sections)
	analysis.Status = StatusCompleted
	analysis.UpdatedAt = time.Now()

	if err := s.repo.UpdateAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("failed to persist analysis result: %w", err)
	}
	return nil
}

func (s *Service) transition(ctx context.Context, analysis *AnalysisJob, status Status) error {
	analysis.Status = status
	analysis.UpdatedAt = time.Now()
	if err := s.repo.UpdateAnalysis(ctx, analysis); err != nil {
		return fmt.Errorf("failed to transition analysis %s to %s: %w", analysis.ID, status, err)
	}
	return nil
}

func (s *Service) fail(ctx context.Context, analysis *AnalysisJob, cause error) error {
	analysis.Status = StatusFailed
	analysis.ErrorMessage = cause.Error()
	analysis.UpdatedAt = time.Now()
	if err := s.repo.UpdateAnalysis(ctx, analysis); err != nil {
		s.logger.Error("FAILED 状態の永続化に失敗しました",
			"analysisID", analysis.ID,
			"error", err,
		)
	}
	s.logger.Warn("分析ジョブが失敗しました",
		"analysisID", analysis.ID,
		"error", cause,
	)
	return cause
}

// Rank は求人1件に対して複数レジュメを同期的に分析しランキングします
//
// resumeIDs が空の場合は登録済みの全レジュメが対象になります。求人側の
// スキル抽出と埋め込みは全レジュメで共有されます。1件のレジュメの失敗は
// 記録されるだけで、残りのランキングは継続します。結果はスコア降順、
// 同点の場合は投入順で並びます
func (s *Service) Rank(ctx context.Context, jobID uuid.UUID, resumeIDs []uuid.UUID) (*RankingResult, error) {
	job, err := s.repo.GetJobDescription(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s", ErrNotFound, jobID)
		}
		return nil, fmt.Errorf("failed to get job description: %w", err)
	}

	docs, failures, err := s.resolveDocuments(ctx, resumeIDs)
	if err != nil {
		return nil, err
	}

	// 求人側の計算はレジュメ間で共有する
	jobSkills := s.tax.Extract(job.Description)

	result := &RankingResult{JobID: jobID, Failures: failures}
	for _, doc := range docs {
		analysis, err := s.rankOne(ctx, doc, job, jobSkills)
		if err != nil {
			s.logger.Warn("ランキング中のレジュメ分析に失敗しました",
				"resumeID", doc.ID,
				"jobID", jobID,
				"error", err,
			)
			result.Failures = append(result.Failures, RankFailure{ResumeID: doc.ID, Reason: err.Error()})
			continue
		}
		result.Ranked = append(result.Ranked, RankItem{
			ResumeID:          doc.ID,
			OriginalFilename:  doc.OriginalFilename,
			AnalysisID:        analysis.ID,
			MatchScore:        analysis.MatchScore,
			MatchingSkills:    analysis.MatchingSkills,
			MissingSkillCount: len(analysis.MissingSkills),
			Explanation:       analysis.Explanation,
		})
	}

	// スコア降順、同点は投入順を保存する
	sort.SliceStable(result.Ranked, func(i, j int) bool {
		return result.Ranked[i].MatchScore > result.Ranked[j].MatchScore
	})
	return result, nil
}

// rankOne は既存の COMPLETED 分析を再利用し、なければ同期実行します
// 同一ペアに進行中の分析がある場合は新しいジョブを作らず、その分析に
// 合流してこの場で完了まで進めます
func (s *Service) rankOne(ctx context.Context, doc *intake.Document, job *JobDescription, jobSkills []string) (*AnalysisJob, error) {
	unlock := s.submitGate.lock(pairKey(doc.ID, job.ID))
	defer unlock()

	existing, lookupErr := s.repo.GetAnalysisByPair(ctx, doc.ID, job.ID)
	if lookupErr != nil && !errors.Is(lookupErr, ErrNotFound) {
		return nil, fmt.Errorf("failed to look up existing analysis: %w", lookupErr)
	}
	if lookupErr == nil && existing.Status == StatusCompleted {
		return existing, nil
	}

	if doc.ExtractionStatus == intake.ExtractionError {
		return nil, fmt.Errorf("%w: resume text extraction failed: %s", ErrValidation, doc.ExtractionError)
	}
	if err := s.intake.EnsureRedacted(ctx, doc); err != nil {
		return nil, err
	}

	var analysis *AnalysisJob
	if lookupErr == nil && !existing.Status.Terminal() {
		// 投入済み・未実行の分析に合流する。遅れて実行されるワーカー側の
		// Run は終端状態を見て何もしない
		analysis = existing
		if err := s.transition(ctx, analysis, StatusEmbedding); err != nil {
			return nil, err
		}
	} else {
		now := time.Now()
		analysis = &AnalysisJob{
			ID:        uuid.New(),
			ResumeID:  doc.ID,
			JobID:     job.ID,
			Status:    StatusEmbedding,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateAnalysis(ctx, analysis); err != nil {
			return nil, fmt.Errorf("failed to create analysis: %w", err)
		}
	}

	if err := s.execute(ctx, analysis, doc, job, jobSkills); err != nil {
		return nil, s.fail(ctx, analysis, err)
	}
	return analysis, nil
}

func (s *Service) resolveDocuments(ctx context.Context, resumeIDs []uuid.UUID) ([]*intake.Document, []RankFailure, error) {
	if len(resumeIDs) == 0 {
		docs, err := s.intake.List(ctx)
		if err != nil {
			return nil, nil, err
		}
		return docs, nil, nil
	}

	var docs []*intake.Document
	var failures []RankFailure
	for _, id := range resumeIDs {
		doc, err := s.intake.Get(ctx, id)
		if err != nil {
			if errors.Is(err, intake.ErrNotFound) {
				failures = append(failures, RankFailure{ResumeID: id, Reason: "resume not found"})
				continue
			}
			return nil, nil, err
		}
		docs = append(docs, doc)
	}
	return docs, failures, nil
}

// ClearAll は分析・埋め込み・ドキュメントを全削除します
// 求人票は削除されません
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.repo.DeleteAllAnalyses(ctx); err != nil {
		return fmt.Errorf("failed to delete analyses: %w", err)
	}
	if err := s.repo.DeleteAllEmbeddings(ctx); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	if err := s.repo.DeleteAllDocuments(ctx); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	s.logger.Info("分析・埋め込み・ドキュメントを全削除しました")
	return nil
}
