package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/resume-match/internal/core/analysis"
	"github.com/jinford/resume-match/internal/core/intake"
	"github.com/jinford/resume-match/internal/core/redact"
	"github.com/jinford/resume-match/internal/core/scoring"
	"github.com/jinford/resume-match/internal/core/textproc"
	"github.com/jinford/resume-match/pkg/db"
)

// Store は PostgreSQL を使用した全リポジトリインターフェースの実装です
type Store struct {
	db *db.DB
}

var (
	_ intake.DocumentRepository = (*Store)(nil)
	_ analysis.Repository       = (*Store)(nil)
	_ scoring.EmbeddingStore    = (*Store)(nil)
)

// NewStore は新しい Store を作成します
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// --- intake.DocumentRepository ---

func (s *Store) CreateDocument(ctx context.Context, doc *intake.Document) error {
	manifest, err := json.Marshal(doc.RedactionManifest)
	if err != nil {
		return fmt.Errorf("failed to marshal redaction manifest: %w", err)
	}
	sections, err := json.Marshal(doc.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO documents (
			id, original_filename, content_type, size_bytes, content_hash,
			raw_text, normalized_text, redacted_text, redaction_manifest,
			sections, extraction_status, extraction_error, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		doc.ID, doc.OriginalFilename, doc.ContentType, doc.SizeBytes, doc.ContentHash,
		doc.RawText, doc.NormalizedText, doc.RedactedText, manifest,
		sections, string(doc.ExtractionStatus), doc.ExtractionError, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*intake.Document, error) {
	row := s.db.Pool.QueryRow(ctx, `
		SELECT id, original_filename, content_type, size_bytes, content_hash,
			raw_text, normalized_text, redacted_text, redaction_manifest,
			sections, extraction_status, extraction_error, created_at
		FROM documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, intake.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]*intake.Document, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, original_filename, content_type, size_bytes, content_hash,
			raw_text, normalized_text, redacted_text, redaction_manifest,
			sections, extraction_status, extraction_error, created_at
		FROM documents ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*intake.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

func (s *Store) UpdateDocumentRedaction(ctx context.Context, doc *intake.Document) error {
	manifest, err := json.Marshal(doc.RedactionManifest)
	if err != nil {
		return fmt.Errorf("failed to marshal redaction manifest: %w", err)
	}
	sections, err := json.Marshal(doc.Sections)
	if err != nil {
		return fmt.Errorf("failed to marshal sections: %w", err)
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE documents
		SET redacted_text = $2, redaction_manifest = $3, sections = $4
		WHERE id = $1`,
		doc.ID, doc.RedactedText, manifest, sections,
	)
	if err != nil {
		return fmt.Errorf("failed to update document redaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return intake.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*intake.Document, error) {
	var (
		doc          intake.Document
		status       string
		manifestJSON []byte
		sectionsJSON []byte
	)
	err := row.Scan(
		&doc.ID, &doc.OriginalFilename, &doc.ContentType, &doc.SizeBytes, &doc.ContentHash,
		&doc.RawText, &doc.NormalizedText, &doc.RedactedText, &manifestJSON,
		&sectionsJSON, &status, &doc.ExtractionError, &doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.ExtractionStatus = intake.ExtractionStatus(status)

	if len(manifestJSON) > 0 {
		var manifest []redact.Finding
		if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal redaction manifest: %w", err)
		}
		doc.RedactionManifest = manifest
	}
	if len(sectionsJSON) > 0 {
		var sections map[textproc.SectionLabel]string
		if err := json.Unmarshal(sectionsJSON, &sections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sections: %w", err)
		}
		doc.Sections = sections
	}
	return &doc, nil
}

// --- analysis.Repository ---

func (s *Store) CreateJobDescription(ctx context.Context, job *analysis.JobDescription) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO job_descriptions (id, title, description, created_at)
		VALUES ($1, $2, $3, $4)`,
		job.ID, job.Title, job.Description, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job description: %w", err)
	}
	return nil
}

func (s *Store) GetJobDescription(ctx context.Context, id uuid.UUID) (*analysis.JobDescription, error) {
	var job analysis.JobDescription
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, title, description, created_at
		FROM job_descriptions WHERE id = $1`, id,
	).Scan(&job.ID, &job.Title, &job.Description, &job.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, analysis.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job description: %w", err)
	}
	return &job, nil
}

func (s *Store) CreateAnalysis(ctx context.Context, a *analysis.AnalysisJob) error {
	matching, missing, sectionSummary, suggestions, err := marshalAnalysisFields(a)
	if err != nil {
		return err
	}

	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO analyses (
			id, resume_id, job_id, status, match_score, similarity,
			matching_skills, missing_skills, section_summary, explanation,
			suggestions, error_message, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		a.ID, a.ResumeID, a.JobID, string(a.Status), a.MatchScore, a.Similarity,
		matching, missing, sectionSummary, a.Explanation,
		suggestions, a.ErrorMessage, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*analysis.AnalysisJob, error) {
	row := s.db.Pool.QueryRow(ctx, analysisSelect+` WHERE id = $1`, id)
	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, analysis.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

func (s *Store) GetAnalysisByPair(ctx context.Context, resumeID, jobID uuid.UUID) (*analysis.AnalysisJob, error) {
	row := s.db.Pool.QueryRow(ctx, analysisSelect+`
		WHERE resume_id = $1 AND job_id = $2
		ORDER BY created_at DESC LIMIT 1`, resumeID, jobID)
	a, err := scanAnalysis(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, analysis.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis by pair: %w", err)
	}
	return a, nil
}

func (s *Store) UpdateAnalysis(ctx context.Context, a *analysis.AnalysisJob) error {
	matching, missing, sectionSummary, suggestions, err := marshalAnalysisFields(a)
	if err != nil {
		return err
	}

	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE analyses
		SET status = $2, match_score = $3, similarity = $4,
			matching_skills = $5, missing_skills = $6, section_summary = $7,
			explanation = $8, suggestions = $9, error_message = $10, updated_at = $11
		WHERE id = $1`,
		a.ID, string(a.Status), a.MatchScore, a.Similarity,
		matching, missing, sectionSummary,
		a.Explanation, suggestions, a.ErrorMessage, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return analysis.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteAllAnalyses(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM analyses`); err != nil {
		return fmt.Errorf("failed to delete analyses: %w", err)
	}
	return nil
}

func (s *Store) DeleteAllDocuments(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

func (s *Store) DeleteAllEmbeddings(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return nil
}

const analysisSelect = `
	SELECT id, resume_id, job_id, status, match_score, similarity,
		matching_skills, missing_skills, section_summary, explanation,
		suggestions, error_message, created_at, updated_at
	FROM analyses`

func marshalAnalysisFields(a *analysis.AnalysisJob) (matching, missing, sectionSummary, suggestions []byte, err error) {
	if matching, err = json.Marshal(a.MatchingSkills); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal matching skills: %w", err)
	}
	if missing, err = json.Marshal(a.MissingSkills); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal missing skills: %w", err)
	}
	if sectionSummary, err = json.Marshal(a.SectionSummary); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal section summary: %w", err)
	}
	if suggestions, err = json.Marshal(a.Suggestions); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to marshal suggestions: %w", err)
	}
	return matching, missing, sectionSummary, suggestions, nil
}

func scanAnalysis(row rowScanner) (*analysis.AnalysisJob, error) {
	var (
		a               analysis.AnalysisJob
		status          string
		matchingJSON    []byte
		missingJSON     []byte
		sectionJSON     []byte
		suggestionsJSON []byte
	)
	err := row.Scan(
		&a.ID, &a.ResumeID, &a.JobID, &status, &a.MatchScore, &a.Similarity,
		&matchingJSON, &missingJSON, &sectionJSON, &a.Explanation,
		&suggestionsJSON, &a.ErrorMessage, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = analysis.Status(status)

	if err := unmarshalInto(matchingJSON, &a.MatchingSkills, "matching skills"); err != nil {
		return nil, err
	}
	if err := unmarshalInto(missingJSON, &a.MissingSkills, "missing skills"); err != nil {
		return nil, err
	}
	if err := unmarshalInto(sectionJSON, &a.SectionSummary, "section summary"); err != nil {
		return nil, err
	}
	if err := unmarshalInto(suggestionsJSON, &a.Suggestions, "suggestions"); err != nil {
		return nil, err
	}
	return &a, nil
}

func unmarshalInto(data []byte, target any, name string) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

// --- scoring.EmbeddingStore ---

func (s *Store) GetEmbedding(ctx context.Context, kind scoring.OwnerKind, ownerID uuid.UUID, textHash string) (*scoring.EmbeddingRecord, error) {
	var (
		record  scoring.EmbeddingRecord
		kindStr string
		vec     pgvector.Vector
	)
	err := s.db.Pool.QueryRow(ctx, `
		SELECT owner_kind, owner_id, text_hash, embedding, model, dimension, created_at
		FROM embeddings
		WHERE owner_kind = $1 AND owner_id = $2 AND text_hash = $3`,
		string(kind), ownerID, textHash,
	).Scan(&kindStr, &record.OwnerID, &record.TextHash, &vec, &record.Model, &record.Dimension, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, scoring.ErrEmbeddingNotFound
		}
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	record.OwnerKind = scoring.OwnerKind(kindStr)
	record.Vector = vec.Slice()
	return &record, nil
}

func (s *Store) PutEmbedding(ctx context.Context, record *scoring.EmbeddingRecord) error {
	// write-once: 同一キーへの並行書き込みは先着が残る
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO embeddings (owner_kind, owner_id, text_hash, embedding, model, dimension, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_kind, owner_id, text_hash) DO NOTHING`,
		string(record.OwnerKind), record.OwnerID, record.TextHash,
		pgvector.NewVector(record.Vector), record.Model, record.Dimension, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}
