package commands

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

// ResumeUploadAction はローカルファイルをレジュメとして取り込むアクション
func ResumeUploadAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer app.Close()

	path := cmd.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}
	if int64(len(data)) > app.Config.MaxUploadBytes {
		return fmt.Errorf("ファイルサイズが上限を超えています（上限: %d バイト）", app.Config.MaxUploadBytes)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	doc, err := app.Intake.Ingest(ctx, filepath.Base(path), contentType, data)
	if err != nil {
		return fmt.Errorf("レジュメの取り込みに失敗: %w", err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("項目", "値")
	table.Append("ID", doc.ID.String())
	table.Append("ファイル名", doc.OriginalFilename)
	table.Append("抽出状態", string(doc.ExtractionStatus))
	if doc.ExtractionError != "" {
		table.Append("抽出エラー", doc.ExtractionError)
	}
	table.Append("ハッシュ", doc.ContentHash)
	table.Render()

	return nil
}

// ResumeListAction は取り込み済みレジュメの一覧を表示するアクション
func ResumeListAction(ctx context.Context, cmd *cli.Command) error {
	app, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer app.Close()

	docs, err := app.Intake.List(ctx)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "ファイル名", "サイズ", "抽出状態", "登録日時")
	for _, doc := range docs {
		table.Append(
			doc.ID.String(),
			doc.OriginalFilename,
			fmt.Sprintf("%d", doc.SizeBytes),
			string(doc.ExtractionStatus),
			doc.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	table.Render()

	return nil
}
