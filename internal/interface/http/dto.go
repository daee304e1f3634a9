package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/jinford/resume-match/internal/core/analysis"
	"github.com/jinford/resume-match/internal/core/intake"
)

type resumeUploadResponse struct {
	ID               uuid.UUID `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	SizeBytes        int64     `json:"size_bytes"`
	ContentHash      string    `json:"content_hash"`
	ExtractionStatus string    `json:"extraction_status"`
	ExtractionError  string    `json:"extraction_error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func toResumeUploadResponse(doc *intake.Document) resumeUploadResponse {
	return resumeUploadResponse{
		ID:               doc.ID,
		OriginalFilename: doc.OriginalFilename,
		ContentType:      doc.ContentType,
		SizeBytes:        doc.SizeBytes,
		ContentHash:      doc.ContentHash,
		ExtractionStatus: string(doc.ExtractionStatus),
		ExtractionError:  doc.ExtractionError,
		CreatedAt:        doc.CreatedAt,
	}
}

type resumeListItem struct {
	ID               uuid.UUID `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	SizeBytes        int64     `json:"size_bytes"`
	ExtractionStatus string    `json:"extraction_status"`
	CreatedAt        time.Time `json:"created_at"`
}

type resumeListResponse struct {
	Items []resumeListItem `json:"items"`
	Total int              `json:"total"`
}

type resumeDetailResponse struct {
	resumeUploadResponse
	RedactedText string            `json:"redacted_text"`
	Sections     map[string]string `json:"sections,omitempty"`
}

type jobCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type jobResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toJobResponse(job *analysis.JobDescription) jobResponse {
	return jobResponse{
		ID:          job.ID,
		Title:       job.Title,
		Description: job.Description,
		CreatedAt:   job.CreatedAt,
	}
}

type analyzeRequest struct {
	ResumeID uuid.UUID `json:"resume_id" binding:"required"`
	JobID    uuid.UUID `json:"job_id" binding:"required"`
}

type analysisResponse struct {
	ID             uuid.UUID         `json:"id"`
	ResumeID       uuid.UUID         `json:"resume_id"`
	JobID          uuid.UUID         `json:"job_id"`
	Status         string            `json:"status"`
	MatchScore     float64           `json:"match_score_percent"`
	MatchingSkills []string          `json:"matching_skills,omitempty"`
	MissingSkills  []string          `json:"missing_skills,omitempty"`
	SectionSummary map[string]string `json:"section_summary,omitempty"`
	Explanation    string            `json:"explanation,omitempty"`
	Suggestions    []string          `json:"suggestions,omitempty"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func toAnalysisResponse(a *analysis.AnalysisJob) analysisResponse {
	return analysisResponse{
		ID:             a.ID,
		ResumeID:       a.ResumeID,
		JobID:          a.JobID,
		Status:         string(a.Status),
		MatchScore:     a.MatchScore,
		MatchingSkills: a.MatchingSkills,
		MissingSkills:  a.MissingSkills,
		SectionSummary: a.SectionSummary,
		Explanation:    a.Explanation,
		Suggestions:    a.Suggestions,
		ErrorMessage:   a.ErrorMessage,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

type rankRequest struct {
	ResumeIDs []uuid.UUID `json:"resume_ids"`
}

type compareRequest struct {
	JobID     uuid.UUID   `json:"job_id" binding:"required"`
	ResumeIDs []uuid.UUID `json:"resume_ids"`
}

type compareResponse struct {
	JobID       uuid.UUID             `json:"job_id"`
	Comparisons []analysisResponse    `json:"comparisons"`
	Failures    []rankFailureResponse `json:"failures,omitempty"`
}

type rankItemResponse struct {
	ResumeID          uuid.UUID `json:"resume_id"`
	OriginalFilename  string    `json:"original_filename"`
	AnalysisID        uuid.UUID `json:"analysis_id"`
	MatchScore        float64   `json:"match_score_percent"`
	MatchingSkills    []string  `json:"matching_skills,omitempty"`
	MissingSkillCount int       `json:"missing_skills_count"`
	Explanation       string    `json:"explanation,omitempty"`
}

type rankFailureResponse struct {
	ResumeID uuid.UUID `json:"resume_id"`
	Reason   string    `json:"reason"`
}

type rankResponse struct {
	JobID    uuid.UUID             `json:"job_id"`
	Ranked   []rankItemResponse    `json:"ranked"`
	Failures []rankFailureResponse `json:"failures,omitempty"`
}

func toRankResponse(result *analysis.RankingResult) rankResponse {
	resp := rankResponse{
		JobID:  result.JobID,
		Ranked: make([]rankItemResponse, 0, len(result.Ranked)),
	}
	for _, item := range result.Ranked {
		resp.Ranked = append(resp.Ranked, rankItemResponse{
			ResumeID:          item.ResumeID,
			OriginalFilename:  item.OriginalFilename,
			AnalysisID:        item.AnalysisID,
			MatchScore:        item.MatchScore,
			MatchingSkills:    item.MatchingSkills,
			MissingSkillCount: item.MissingSkillCount,
			Explanation:       item.Explanation,
		})
	}
	for _, failure := range result.Failures {
		resp.Failures = append(resp.Failures, rankFailureResponse{
			ResumeID: failure.ResumeID,
			Reason:   failure.Reason,
		})
	}
	return resp
}
