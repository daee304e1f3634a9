package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

// AnalyzeAction は1組のレジュメ・求人ペアを同期的に分析するアクション
func AnalyzeAction(ctx context.Context, cmd *cli.Command) error {
	resumeID, err := uuid.Parse(cmd.String("resume-id"))
	if err != nil {
		return fmt.Errorf("不正なレジュメID: %w", err)
	}
	jobID, err := uuid.Parse(cmd.String("job-id"))
	if err != nil {
		return fmt.Errorf("不正な求人ID: %w", err)
	}

	app, err := NewAppContext(ctx, cmd.String("env"), WithSyncRunner())
	if err != nil {
		return err
	}
	defer app.Close()

	submitted, err := app.Analysis.Submit(ctx, resumeID, jobID)
	if err != nil {
		return err
	}

	result, err := app.Analysis.GetStatus(ctx, submitted.ID)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("項目", "値")
	table.Append("分析ID", result.ID.String())
	table.Append("状態", string(result.Status))
	table.Append("マッチスコア", fmt.Sprintf("%.2f", result.MatchScore))
	table.Append("一致スキル", strings.Join(result.MatchingSkills, ", "))
	table.Append("不足スキル", strings.Join(result.MissingSkills, ", "))
	if result.ErrorMessage != "" {
		table.Append("エラー", result.ErrorMessage)
	}
	table.Render()

	if result.Explanation != "" {
		fmt.Println("\n=== 説明 ===")
		fmt.Println(result.Explanation)
	}
	if len(result.Suggestions) > 0 {
		fmt.Println("\n=== 改善提案 ===")
		for _, suggestion := range result.Suggestions {
			fmt.Printf("- %s\n", suggestion)
		}
	}

	return nil
}

// RankAction は求人1件に対して複数レジュメをランキングするアクション
func RankAction(ctx context.Context, cmd *cli.Command) error {
	jobID, err := uuid.Parse(cmd.String("job-id"))
	if err != nil {
		return fmt.Errorf("不正な求人ID: %w", err)
	}

	var resumeIDs []uuid.UUID
	for _, raw := range cmd.StringSlice("resume-id") {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("不正なレジュメID %q: %w", raw, err)
		}
		resumeIDs = append(resumeIDs, id)
	}

	app, err := NewAppContext(ctx, cmd.String("env"), WithSyncRunner())
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.Analysis.Rank(ctx, jobID, resumeIDs)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("順位", "ファイル名", "スコア", "一致スキル", "不足数")
	for i, item := range result.Ranked {
		table.Append(
			fmt.Sprintf("%d", i+1),
			item.OriginalFilename,
			fmt.Sprintf("%.2f", item.MatchScore),
			strings.Join(item.MatchingSkills, ", "),
			fmt.Sprintf("%d", item.MissingSkillCount),
		)
	}
	table.Render()

	if len(result.Failures) > 0 {
		fmt.Println("\n=== 失敗 ===")
		failureTable := tablewriter.NewWriter(os.Stdout)
		failureTable.Header("レジュメID", "理由")
		for _, failure := range result.Failures {
			failureTable.Append(failure.ResumeID.String(), failure.Reason)
		}
		failureTable.Render()
	}

	return nil
}
