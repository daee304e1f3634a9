package intake

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jinford/resume-match/internal/core/redact"
	"github.com/jinford/resume-match/internal/core/textproc"
)

var (
	// ErrNotFound は指定されたドキュメントが存在しない場合のエラーです
	ErrNotFound = errors.New("document not found")
	// ErrExtraction はファイルからのテキスト抽出に失敗した場合のエラーです
	ErrExtraction = errors.New("text extraction failed")
	// ErrValidation は入力ファイルの検証に失敗した場合のエラーです
	ErrValidation = errors.New("validation failed")
)

// ExtractionStatus はテキスト抽出処理の結果状態です
type ExtractionStatus string

const (
	ExtractionPending ExtractionStatus = "pending"
	ExtractionSuccess ExtractionStatus = "success"
	ExtractionError   ExtractionStatus = "error"
)

// Document はアップロードされたレジュメ1件を表します
// RawText から NormalizedText、RedactedText への派生は一方向であり、
// 下流のスコア計算は RedactedText のみを参照します
type Document struct {
	ID                uuid.UUID
	OriginalFilename  string
	ContentType       string
	SizeBytes         int64
	ContentHash       string
	RawText           string
	NormalizedText    string
	RedactedText      string
	RedactionManifest []redact.Finding
	Sections          map[textproc.SectionLabel]string
	ExtractionStatus  ExtractionStatus
	ExtractionError   string
	CreatedAt         time.Time
}

// Extractor はアップロードされたバイト列からプレーンテキストを
// 取り出します。対応フォーマットは実装側が決定します
type Extractor interface {
	Extract(ctx context.Context, filename, contentType string, data []byte) (string, error)
}

// DocumentRepository はドキュメントの永続化を提供します
type DocumentRepository interface {
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	UpdateDocumentRedaction(ctx context.Context, doc *Document) error
}

// Service はアップロードからテキスト抽出・正規化・マスキング・
// セクション分割までの取り込みパイプラインを提供します
type Service struct {
	repo      DocumentRepository
	extractor Extractor
	redactor  *redact.Redactor
	logger    *slog.Logger
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

// NewService は新しい取り込みサービスを作成します
func NewService(repo DocumentRepository, extractor Extractor, redactor *redact.Redactor, opts ...ServiceOption) *Service {
	options := serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return &Service{
		repo:      repo,
		extractor: extractor,
		redactor:  redactor,
		logger:    options.logger,
	}
}

// Ingest はアップロードされたファイルを取り込みます
//
// 抽出に失敗した場合でもドキュメント自体は作成され、失敗は
// ExtractionStatus と ExtractionError に記録されます。抽出に成功した
// 場合は正規化・マスキング・セクション分割まで行います。マスキングに
// 失敗した場合は RedactedText を空のまま保存し、後続の分析実行時に
// 再試行されます
func (s *Service) Ingest(ctx context.Context, filename, contentType string, data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", ErrValidation)
	}

	sum := sha256.Sum256(data)
	doc := &Document{
		ID:               uuid.New(),
		OriginalFilename: filename,
		ContentType:      contentType,
		SizeBytes:        int64(len(data)),
		ContentHash:      hex.EncodeToString(sum[:]),
		ExtractionStatus: ExtractionPending,
		CreatedAt:        time.Now(),
	}

	raw, err := s.extractor.Extract(ctx, filename, contentType, data)
	if err != nil {
		doc.ExtractionStatus = ExtractionError
		doc.ExtractionError = err.Error()
		s.logger.Warn("テキスト抽出に失敗しました",
			"filename", filename,
			"contentType", contentType,
			"error", err,
		)
		if err := s.repo.CreateDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to create document: %w", err)
		}
		return doc, nil
	}

	doc.RawText = raw
	doc.NormalizedText = textproc.Normalize(raw)
	doc.ExtractionStatus = ExtractionSuccess

	redacted, findings, err := s.redactor.Redact(ctx, doc.NormalizedText)
	if err != nil {
		// マスキング失敗時は未マスクのテキストを下流に流さない
		s.logger.Warn("アップロード時のマスキングに失敗しました。分析時に再試行します",
			"documentID", doc.ID,
			"error", err,
		)
	} else {
		doc.RedactedText = redacted
		doc.RedactionManifest = findings
		doc.Sections = textproc.Segment(redacted)
	}

	if err := s.repo.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.Info("ドキュメントを取り込みました",
		"documentID", doc.ID,
		"filename", filename,
		"sizeBytes", doc.SizeBytes,
		"extractionStatus", doc.ExtractionStatus,
	)

	return doc, nil
}

// EnsureRedacted は RedactedText が未設定のドキュメントに対して
// マスキングとセクション分割を実行し、結果を永続化します
// 既にマスク済みであれば何もしません
func (s *Service) EnsureRedacted(ctx context.Context, doc *Document) error {
	if doc.RedactedText != "" {
		return nil
	}
	if doc.ExtractionStatus != ExtractionSuccess {
		return fmt.Errorf("%w: %s", ErrExtraction, doc.ExtractionError)
	}

	redacted, findings, err := s.redactor.Redact(ctx, doc.NormalizedText)
	if err != nil {
		return fmt.Errorf("failed to redact document %s: %w", doc.ID, err)
	}

	doc.RedactedText = redacted
	doc.RedactionManifest = findings
	doc.Sections = textproc.Segment(redacted)

	if err := s.repo.UpdateDocumentRedaction(ctx, doc); err != nil {
		return fmt.Errorf("failed to update document redaction: %w", err)
	}
	return nil
}

// Get は1件のドキュメントを取得します
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	doc, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// List は登録済みドキュメントの一覧を返します
func (s *Service) List(ctx context.Context) ([]*Document, error) {
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}
