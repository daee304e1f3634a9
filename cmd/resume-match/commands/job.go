package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// JobCreateAction は求人票を登録するアクション
// 説明文は --description または --file で指定します
func JobCreateAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer app.Close()

	description := cmd.String("description")
	if file := cmd.String("file"); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("求人票ファイルの読み込みに失敗: %w", err)
		}
		description = string(data)
	}

	job, err := app.Analysis.CreateJob(ctx, cmd.String("title"), description)
	if err != nil {
		return err
	}

	fmt.Printf("求人票を登録しました: %s (%s)\n", job.ID, job.Title)
	return nil
}
