package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"
)

// WorkerStartAction はキューから分析ジョブを消費するワーカーのアクション
// QUEUE_DRIVER=amqp が設定されている必要があります
func WorkerStartAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Queue == nil {
		return fmt.Errorf("ワーカーには QUEUE_DRIVER=amqp の設定が必要です（現在: %s）", app.Config.QueueDriver)
	}

	err = app.Queue.Consume(ctx, app.Analysis.Run)
	if errors.Is(err, context.Canceled) {
		app.Logger.Info("ワーカーを停止します")
		return nil
	}
	return err
}
