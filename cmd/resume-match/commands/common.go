package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jinford/resume-match/internal/core/analysis"
	"github.com/jinford/resume-match/internal/core/intake"
	"github.com/jinford/resume-match/internal/core/redact"
	"github.com/jinford/resume-match/internal/core/scoring"
	"github.com/jinford/resume-match/internal/core/taxonomy"
	"github.com/jinford/resume-match/internal/infra/extract"
	"github.com/jinford/resume-match/internal/infra/memory"
	"github.com/jinford/resume-match/internal/infra/openai"
	"github.com/jinford/resume-match/internal/infra/postgres"
	"github.com/jinford/resume-match/internal/infra/queue"
	"github.com/jinford/resume-match/internal/infra/tagger"
	"github.com/jinford/resume-match/internal/platform/config"
	"github.com/jinford/resume-match/internal/platform/logger"
	"github.com/jinford/resume-match/pkg/db"
)

// store は全リポジトリインターフェースをまとめた複合インターフェースです
// postgres.Store と memory.Store の両方が満たします
type store interface {
	intake.DocumentRepository
	analysis.Repository
	scoring.EmbeddingStore
}

// AppContext はコマンド実行に必要な共通コンテキストを保持する
type AppContext struct {
	Config   *config.Config
	Logger   *slog.Logger
	Database *db.DB
	Intake   *intake.Service
	Analysis *analysis.Service
	Queue    *queue.RabbitMQRunner
}

// appOptions は AppContext 構築時の挙動を制御する
type appOptions struct {
	syncRunner bool
}

// AppOption は AppContext のオプション設定
type AppOption func(*appOptions)

// WithSyncRunner はキュー設定に関わらず分析を同期実行する
// ワンショットのCLIコマンド用
func WithSyncRunner() AppOption {
	return func(o *appOptions) {
		o.syncRunner = true
	}
}

// NewAppContext は設定を読み込み、ストアと各サービスを組み立てる
func NewAppContext(ctx context.Context, envFile string, opts ...AppOption) (*AppContext, error) {
	options := appOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}

	appLogger := logger.New(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: "json",
	})

	app := &AppContext{
		Config: cfg,
		Logger: appLogger,
	}

	var recordStore store
	switch cfg.StoreDriver {
	case "memory":
		recordStore = memory.NewStore()
	case "postgres":
		database, err := db.New(ctx, db.ConnectionParams{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, fmt.Errorf("データベース接続に失敗: %w", err)
		}
		app.Database = database

		pgStore := postgres.NewStore(database)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			app.Close()
			return nil, fmt.Errorf("スキーマの適用に失敗: %w", err)
		}
		recordStore = pgStore
	default:
		return nil, fmt.Errorf("未知のストアドライバ: %s", cfg.StoreDriver)
	}

	encoder, err := openai.NewEncoder(cfg.OpenAI.APIKey,
		openai.WithModel(cfg.OpenAI.EmbeddingModel),
		openai.WithDimension(cfg.OpenAI.EmbeddingDimension),
		openai.WithMaxInputTokens(cfg.OpenAI.MaxInputTokens),
	)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("エンコーダの初期化に失敗: %w", err)
	}

	taggerClient := tagger.NewClient(cfg.TaggerURL)
	redactor := redact.NewRedactor(taggerClient, redact.WithRedactorLogger(appLogger))

	app.Intake = intake.NewService(recordStore, extract.NewExtractor(), redactor,
		intake.WithServiceLogger(appLogger))

	scorer := scoring.NewScorer(recordStore, encoder, scoring.WithScorerLogger(appLogger))
	app.Analysis = analysis.NewService(recordStore, app.Intake, scorer, taxonomy.Default(),
		analysis.WithServiceLogger(appLogger))

	runner, err := app.buildRunner(options.syncRunner)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Analysis.SetRunner(runner)

	return app, nil
}

func (ac *AppContext) buildRunner(sync bool) (analysis.Runner, error) {
	if sync {
		return &syncRunner{service: ac.Analysis}, nil
	}

	switch ac.Config.QueueDriver {
	case "inline":
		return analysis.NewGoRunner(ac.Analysis, ac.Logger), nil
	case "amqp":
		mq, err := queue.NewRabbitMQRunner(ac.Config.RabbitMQURL,
			queue.WithRunnerLogger(ac.Logger))
		if err != nil {
			return nil, fmt.Errorf("RabbitMQ接続に失敗: %w", err)
		}
		ac.Queue = mq
		return mq, nil
	default:
		return nil, fmt.Errorf("未知のキュードライバ: %s", ac.Config.QueueDriver)
	}
}

// syncRunner は分析を呼び出し元の goroutine で即時実行する
type syncRunner struct {
	service *analysis.Service
}

func (r *syncRunner) Dispatch(ctx context.Context, analysisID uuid.UUID) error {
	return r.service.Run(ctx, analysisID)
}

// Close はAppContextが保持するリソースをクリーンアップする
func (ac *AppContext) Close() {
	if ac.Queue != nil {
		if err := ac.Queue.Close(); err != nil {
			ac.Logger.Warn("RabbitMQ接続のクローズに失敗しました", "error", err)
		}
	}
	if ac.Database != nil {
		ac.Database.Close()
	}
}
