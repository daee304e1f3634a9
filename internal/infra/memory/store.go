package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jinford/resume-match/internal/core/analysis"
	"github.com/jinford/resume-match/internal/core/intake"
	"github.com/jinford/resume-match/internal/core/scoring"
)

// Store は全リポジトリインターフェースのインメモリ実装です
// テストおよびローカル実行用で、プロセス終了とともにデータは消えます
type Store struct {
	mu sync.RWMutex

	documents     map[uuid.UUID]intake.Document
	documentOrder []uuid.UUID

	jobs map[uuid.UUID]analysis.JobDescription

	analyses map[uuid.UUID]analysis.AnalysisJob
	// pairIndex は (resumeID/jobID) から最新の分析IDへの索引
	pairIndex map[string]uuid.UUID

	embeddings map[string]scoring.EmbeddingRecord
}

var (
	_ intake.DocumentRepository = (*Store)(nil)
	_ analysis.Repository       = (*Store)(nil)
	_ scoring.EmbeddingStore    = (*Store)(nil)
)

// NewStore は空のインメモリストアを作成します
func NewStore() *Store {
	return &Store{
		documents:  make(map[uuid.UUID]intake.Document),
		jobs:       make(map[uuid.UUID]analysis.JobDescription),
		analyses:   make(map[uuid.UUID]analysis.AnalysisJob),
		pairIndex:  make(map[string]uuid.UUID),
		embeddings: make(map[string]scoring.EmbeddingRecord),
	}
}

// --- intake.DocumentRepository ---

func (s *Store) CreateDocument(ctx context.Context, doc *intake.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	s.documentOrder = append(s.documentOrder, doc.ID)
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id uuid.UUID) (*intake.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, intake.ErrNotFound
	}
	return &doc, nil
}

func (s *Store) ListDocuments(ctx context.Context) ([]*intake.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]*intake.Document, 0, len(s.documentOrder))
	for _, id := range s.documentOrder {
		if doc, ok := s.documents[id]; ok {
			copied := doc
			docs = append(docs, &copied)
		}
	}
	return docs, nil
}

func (s *Store) UpdateDocumentRedaction(ctx context.Context, doc *intake.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[doc.ID]; !ok {
		return intake.ErrNotFound
	}
	s.documents[doc.ID] = *doc
	return nil
}

// --- analysis.Repository ---

func (s *Store) CreateJobDescription(ctx context.Context, job *analysis.JobDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = *job
	return nil
}

func (s *Store) GetJobDescription(ctx context.Context, id uuid.UUID) (*analysis.JobDescription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, analysis.ErrNotFound
	}
	return &job, nil
}

func (s *Store) CreateAnalysis(ctx context.Context, a *analysis.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses[a.ID] = *a
	s.pairIndex[a.ResumeID.String()+"/"+a.JobID.String()] = a.ID
	return nil
}

func (s *Store) GetAnalysis(ctx context.Context, id uuid.UUID) (*analysis.AnalysisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.analyses[id]
	if !ok {
		return nil, analysis.ErrNotFound
	}
	return &a, nil
}

func (s *Store) GetAnalysisByPair(ctx context.Context, resumeID, jobID uuid.UUID) (*analysis.AnalysisJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.pairIndex[resumeID.String()+"/"+jobID.String()]
	if !ok {
		return nil, analysis.ErrNotFound
	}
	a, ok := s.analyses[id]
	if !ok {
		return nil, analysis.ErrNotFound
	}
	return &a, nil
}

func (s *Store) UpdateAnalysis(ctx context.Context, a *analysis.AnalysisJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.analyses[a.ID]; !ok {
		return analysis.ErrNotFound
	}
	s.analyses[a.ID] = *a
	return nil
}

func (s *Store) DeleteAllAnalyses(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analyses = make(map[uuid.UUID]analysis.AnalysisJob)
	s.pairIndex = make(map[string]uuid.UUID)
	return nil
}

func (s *Store) DeleteAllDocuments(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents = make(map[uuid.UUID]intake.Document)
	s.documentOrder = nil
	return nil
}

func (s *Store) DeleteAllEmbeddings(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.embeddings = make(map[string]scoring.EmbeddingRecord)
	return nil
}

// --- scoring.EmbeddingStore ---

func embeddingKey(kind scoring.OwnerKind, ownerID uuid.UUID, textHash string) string {
	return string(kind) + "/" + ownerID.String() + "/" + textHash
}

func (s *Store) GetEmbedding(ctx context.Context, kind scoring.OwnerKind, ownerID uuid.UUID, textHash string) (*scoring.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.embeddings[embeddingKey(kind, ownerID, textHash)]
	if !ok {
		return nil, scoring.ErrEmbeddingNotFound
	}
	return &record, nil
}

func (s *Store) PutEmbedding(ctx context.Context, record *scoring.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := embeddingKey(record.OwnerKind, record.OwnerID, record.TextHash)
	// write-once: 先着の書き込みを保持する
	if _, ok := s.embeddings[key]; !ok {
		s.embeddings[key] = *record
	}
	return nil
}
