package commands

import (
	"context"

	"github.com/urfave/cli/v3"

	httpserver "github.com/jinford/resume-match/internal/interface/http"
)

// ServerStartAction はHTTP APIサーバーを起動するコマンドのアクション
func ServerStartAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer app.Close()

	server := httpserver.NewServer(app.Intake, app.Analysis, app.Config.MaxUploadBytes,
		httpserver.WithServerLogger(app.Logger))
	return server.Run(app.Config.HTTPPort)
}
