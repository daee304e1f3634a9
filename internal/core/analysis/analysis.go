package analysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound は対象エンティティが存在しない場合のエラーです
	ErrNotFound = errors.New("not found")
	// ErrValidation は入力の検証に失敗した場合のエラーです
	ErrValidation = errors.New("validation failed")
)

// Status は分析ジョブの状態です
// 遷移は STARTING → EXTRACTING_TEXT → COMPUTING_EMBEDDINGS → COMPLETED
// の一方向で、FAILED へは任意の非終端状態から遷移します。終端状態
// (COMPLETED / FAILED) からの遷移はありません
type Status string

const (
	StatusStarting   Status = "STARTING"
	StatusExtracting Status = "EXTRACTING_TEXT"
	StatusEmbedding  Status = "COMPUTING_EMBEDDINGS"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Terminal は終端状態かどうかを返します
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// JobDescription は分析対象の求人票です
type JobDescription struct {
	ID          uuid.UUID
	Title       string
	Description string
	CreatedAt   time.Time
}

// AnalysisJob は1組のレジュメ・求人ペアに対する分析ジョブです
// 結果フィールドは COMPLETED 遷移時に一括で設定され、部分的に
// 設定された状態で観測されることはありません
type AnalysisJob struct {
	ID             uuid.UUID
	ResumeID       uuid.UUID
	JobID          uuid.UUID
	Status         Status
	MatchScore     float64
	Similarity     float64
	MatchingSkills []string
	MissingSkills  []string
	SectionSummary map[string]string
	Explanation    string
	Suggestions    []string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RankItem はランキング結果の1行です
type RankItem struct {
	ResumeID          uuid.UUID
	OriginalFilename  string
	AnalysisID        uuid.UUID
	MatchScore        float64
	MatchingSkills    []string
	MissingSkillCount int
	Explanation       string
}

// RankFailure はランキング中に分析へ失敗した1件のレジュメです
// 1件の失敗が他のレジュメのランキングを妨げることはありません
type RankFailure struct {
	ResumeID uuid.UUID
	Reason   string
}

// RankingResult は求人1件に対する複数レジュメのランキング結果です
type RankingResult struct {
	JobID    uuid.UUID
	Ranked   []RankItem
	Failures []RankFailure
}

// Repository は分析ジョブと求人票の永続化を提供します
type Repository interface {
	CreateJobDescription(ctx context.Context, job *JobDescription) error
	GetJobDescription(ctx context.Context, id uuid.UUID) (*JobDescription, error)

	CreateAnalysis(ctx context.Context, analysis *AnalysisJob) error
	GetAnalysis(ctx context.Context, id uuid.UUID) (*AnalysisJob, error)
	// GetAnalysisByPair は (resumeID, jobID) に対する最新の分析ジョブを
	// 返します。存在しない場合は ErrNotFound を返します
	GetAnalysisByPair(ctx context.Context, resumeID, jobID uuid.UUID) (*AnalysisJob, error)
	UpdateAnalysis(ctx context.Context, analysis *AnalysisJob) error

	DeleteAllAnalyses(ctx context.Context) error
	DeleteAllDocuments(ctx context.Context) error
	DeleteAllEmbeddings(ctx context.Context) error
}
