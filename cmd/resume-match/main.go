package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/resume-match/cmd/resume-match/commands"
)

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 構造化ログの設定
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	app := &cli.Command{
		Name:  "resume-match",
		Usage: "レジュメと求人票のマッチング分析システム",
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "HTTP APIサーバーコマンド",
				Commands: []*cli.Command{
					{
						Name:   "start",
						Usage:  "APIサーバーを起動",
						Flags:  []cli.Flag{envFlag()},
						Action: commands.ServerStartAction,
					},
				},
			},
			{
				Name:  "worker",
				Usage: "分析ワーカーコマンド",
				Commands: []*cli.Command{
					{
						Name:   "start",
						Usage:  "キューから分析ジョブを消費するワーカーを起動",
						Flags:  []cli.Flag{envFlag()},
						Action: commands.WorkerStartAction,
					},
				},
			},
			{
				Name:  "resume",
				Usage: "レジュメ管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "upload",
						Usage: "ローカルファイルをレジュメとして取り込む",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "file",
								Usage:    "レジュメファイルパス（PDF / DOCX / TXT）",
								Required: true,
							},
						},
						Action: commands.ResumeUploadAction,
					},
					{
						Name:   "list",
						Usage:  "レジュメ一覧を表示",
						Flags:  []cli.Flag{envFlag()},
						Action: commands.ResumeListAction,
					},
				},
			},
			{
				Name:  "job",
				Usage: "求人票管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "求人票を登録",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "title",
								Usage:    "求人タイトル",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "description",
								Usage: "求人票の本文",
							},
							&cli.StringFlag{
								Name:  "file",
								Usage: "求人票本文のファイルパス（--description より優先）",
							},
						},
						Action: commands.JobCreateAction,
					},
				},
			},
			{
				Name:  "analyze",
				Usage: "レジュメ1件を求人票と分析",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:     "resume-id",
						Usage:    "レジュメID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "job-id",
						Usage:    "求人ID",
						Required: true,
					},
				},
				Action: commands.AnalyzeAction,
			},
			{
				Name:  "rank",
				Usage: "求人票に対して複数レジュメをランキング",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:     "job-id",
						Usage:    "求人ID",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "resume-id",
						Usage: "対象レジュメID（省略時は全件）",
					},
				},
				Action: commands.RankAction,
			},
			{
				Name:  "clear",
				Usage: "分析・埋め込み・レジュメを全削除（求人票は残る）",
				Flags: []cli.Flag{
					envFlag(),
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "削除を確認",
					},
				},
				Action: commands.ClearAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
