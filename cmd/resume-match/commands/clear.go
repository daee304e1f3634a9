package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// ClearAction は分析・埋め込み・レジュメを全削除するアクション
// 求人票は削除されません
func ClearAction(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("yes") {
		return fmt.Errorf("全削除には --yes の指定が必要です")
	}

	app, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Analysis.ClearAll(ctx); err != nil {
		return err
	}

	fmt.Println("分析・埋め込み・レジュメを全削除しました")
	return nil
}
