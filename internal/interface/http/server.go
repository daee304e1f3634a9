package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jinford/resume-match/internal/core/analysis"
	"github.com/jinford/resume-match/internal/core/intake"
)

// Server はレジュメ分析APIのHTTPサーバーです
type Server struct {
	engine         *gin.Engine
	intake         *intake.Service
	analysis       *analysis.Service
	maxUploadBytes int64
	logger         *slog.Logger
}

type serverOptions struct {
	logger *slog.Logger
}

// ServerOption は Server のオプション設定
type ServerOption func(*serverOptions)

// WithServerLogger は Server にロガーを設定する
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = logger
	}
}

// NewServer は新しいHTTPサーバーを作成し、ルートを登録します
func NewServer(intakeSvc *intake.Service, analysisSvc *analysis.Service, maxUploadBytes int64, opts ...ServerOption) *Server {
	options := serverOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine:         gin.New(),
		intake:         intakeSvc,
		analysis:       analysisSvc,
		maxUploadBytes: maxUploadBytes,
		logger:         options.logger,
	}
	s.engine.Use(gin.Recovery())
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")
	{
		v1.POST("/resumes/upload", s.uploadResume)
		v1.GET("/resumes", s.listResumes)
		v1.GET("/resumes/:id", s.getResume)

		v1.POST("/jobs", s.createJob)
		v1.GET("/jobs/:id", s.getJob)
		v1.POST("/jobs/:id/rank", s.rank)

		v1.POST("/analyze", s.submitAnalysis)
		v1.GET("/analyses/:id", s.getAnalysis)
		v1.POST("/compare", s.compare)

		v1.DELETE("/admin/data", s.clearAll)
	}
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// Handler は http.Handler としてルーターを返します
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run は指定ポートでHTTPサーバーを起動します
func (s *Server) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("HTTPサーバーを起動します", "addr", addr)
	if err := s.engine.Run(addr); err != nil {
		return fmt.Errorf("failed to run http server: %w", err)
	}
	return nil
}
