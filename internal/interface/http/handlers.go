package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jinford/resume-match/internal/core/analysis"
	"github.com/jinford/resume-match/internal/core/intake"
	"github.com/jinford/resume-match/internal/core/textproc"
	"github.com/jinford/resume-match/internal/infra/extract"
)

func (s *Server) uploadResume(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !extract.Supported(contentType) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"error": fmt.Sprintf("unsupported file type: %s, allowed: PDF, DOCX, TXT", contentType),
		})
		return
	}
	if fileHeader.Size > s.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file too large, maximum size is %d bytes", s.maxUploadBytes),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}
	if int64(len(data)) > s.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file too large, maximum size is %d bytes", s.maxUploadBytes),
		})
		return
	}

	doc, err := s.intake.Ingest(c.Request.Context(), fileHeader.Filename, contentType, data)
	if err != nil {
		if errors.Is(err, intake.ErrValidation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("レジュメの取り込みに失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest resume"})
		return
	}

	c.JSON(http.StatusCreated, toResumeUploadResponse(doc))
}

func (s *Server) listResumes(c *gin.Context) {
	docs, err := s.intake.List(c.Request.Context())
	if err != nil {
		s.logger.Error("レジュメ一覧の取得に失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list resumes"})
		return
	}

	resp := resumeListResponse{Items: make([]resumeListItem, 0, len(docs)), Total: len(docs)}
	for _, doc := range docs {
		resp.Items = append(resp.Items, resumeListItem{
			ID:               doc.ID,
			OriginalFilename: doc.OriginalFilename,
			ContentType:      doc.ContentType,
			SizeBytes:        doc.SizeBytes,
			ExtractionStatus: string(doc.ExtractionStatus),
			CreatedAt:        doc.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) getResume(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	doc, err := s.intake.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, intake.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "resume not found"})
			return
		}
		s.logger.Error("レジュメの取得に失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get resume"})
		return
	}

	c.JSON(http.StatusOK, resumeDetailResponse{
		resumeUploadResponse: toResumeUploadResponse(doc),
		RedactedText:         doc.RedactedText,
		Sections:             textproc.SummarizeSections(doc.Sections, 200),
	})
}

func (s *Server) createJob(c *gin.Context) {
	var req jobCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	job, err := s.analysis.CreateJob(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		if errors.Is(err, analysis.ErrValidation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("求人票の登録に失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create job"})
		return
	}

	c.JSON(http.StatusCreated, toJobResponse(job))
}

func (s *Server) getJob(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	job, err := s.analysis.GetJob(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, analysis.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		s.logger.Error("求人票の取得に失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get job"})
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

func (s *Server) submitAnalysis(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "resume_id and job_id are required"})
		return
	}

	submitted, err := s.analysis.Submit(c.Request.Context(), req.ResumeID, req.JobID)
	if err != nil {
		switch {
		case errors.Is(err, analysis.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, analysis.ErrValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			s.logger.Error("分析の投入に失敗しました", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit analysis"})
		}
		return
	}

	c.JSON(http.StatusAccepted, toAnalysisResponse(submitted))
}

func (s *Server) getAnalysis(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	a, err := s.analysis.GetStatus(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, analysis.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "analysis not found"})
			return
		}
		s.logger.Error("分析の取得に失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get analysis"})
		return
	}
	c.JSON(http.StatusOK, toAnalysisResponse(a))
}

func (s *Server) rank(c *gin.Context) {
	jobID, ok := parseID(c)
	if !ok {
		return
	}

	// ボディ省略時は全レジュメが対象
	var req rankRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	result, err := s.analysis.Rank(c.Request.Context(), jobID, req.ResumeIDs)
	if err != nil {
		if errors.Is(err, analysis.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		s.logger.Error("ランキングに失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rank resumes"})
		return
	}

	c.JSON(http.StatusOK, toRankResponse(result))
}

func (s *Server) compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
		return
	}

	result, err := s.analysis.Rank(c.Request.Context(), req.JobID, req.ResumeIDs)
	if err != nil {
		if errors.Is(err, analysis.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		s.logger.Error("比較に失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compare resumes"})
		return
	}

	// ランキングと同じ順序で完全な分析結果を並べて返す
	resp := compareResponse{JobID: req.JobID, Comparisons: make([]analysisResponse, 0, len(result.Ranked))}
	for _, item := range result.Ranked {
		a, err := s.analysis.GetStatus(c.Request.Context(), item.AnalysisID)
		if err != nil {
			s.logger.Error("比較対象の分析の取得に失敗しました", "analysisID", item.AnalysisID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compare resumes"})
			return
		}
		resp.Comparisons = append(resp.Comparisons, toAnalysisResponse(a))
	}
	for _, failure := range result.Failures {
		resp.Failures = append(resp.Failures, rankFailureResponse{
			ResumeID: failure.ResumeID,
			Reason:   failure.Reason,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) clearAll(c *gin.Context) {
	if err := s.analysis.ClearAll(c.Request.Context()); err != nil {
		s.logger.Error("データの全削除に失敗しました", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear data"})
		return
	}
	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}
