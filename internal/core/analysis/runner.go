package analysis

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Runner は分析ジョブの実行をディスパッチします
// インライン実装はプロセス内の goroutine で実行し、キュー実装は
// ジョブIDをブローカーに発行してワーカーに委ねます
type Runner interface {
	Dispatch(ctx context.Context, analysisID uuid.UUID) error
}

// GoRunner はプロセス内 goroutine で分析を実行する Runner です
type GoRunner struct {
	service *Service
	logger  *slog.Logger
}

var _ Runner = (*GoRunner)(nil)

// NewGoRunner は新しい GoRunner を作成します
// Service 側にも Runner への参照があるため、生成後に
// Service.SetRunner で接続します
func NewGoRunner(service *Service, logger *slog.Logger) *GoRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoRunner{service: service, logger: logger}
}

// Dispatch は分析を新しい goroutine で実行します
// リクエストスコープの context から切り離して実行します
func (r *GoRunner) Dispatch(ctx context.Context, analysisID uuid.UUID) error {
	go func() {
		if err := r.service.Run(context.Background(), analysisID); err != nil {
			r.logger.Error("分析ジョブの実行に失敗しました",
				"analysisID", analysisID,
				"error", err,
			)
		}
	}()
	return nil
}
