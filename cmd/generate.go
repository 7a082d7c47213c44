package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-sprite-kit/internal/pipeline"
	kitcfg "github.com/shouni/go-sprite-kit/pkg/config"
	"github.com/shouni/go-sprite-kit/pkg/templates"

	"github.com/spf13/cobra"
)

// generateCmd は、テンプレートから組み立てたプロンプトでスプライトを一括生成するのだ。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "スプライトを一括生成するのだ。",
	Long: `カテゴリ・説明文・バイオームからプロンプトを組み立て、指定枚数のスプライトを生成するのだ。
--animation を指定すると、アニメーションのフレームごとに1枚ずつ生成するのだよ。
出力は output/{アニメーション名 or カテゴリ}_{YYYYmmdd_HHMMSS}/ に保存されるのだ。`,
	Example: `  sprite-kit generate -c personajes -d "knight with a red cape" --resolution 64x64 --count 4
  sprite-kit generate -c personajes -d "slime" --animation walk --biome forest --seed 42`,
	RunE: generateCommand,
}

func init() {
	addRequestFlags(generateCmd)
	generateCmd.Flags().StringVarP(&opts.Resolution, "resolution", "r", kitcfg.DefaultResolution, fmt.Sprintf("解像度（WxH）なのだ。候補: %v", kitcfg.Resolutions))
	generateCmd.Flags().IntVarP(&opts.Steps, "steps", "s", 0, "推論ステップ数なのだ（0でテンプレートの既定値）。")
	generateCmd.Flags().Float64VarP(&opts.Guidance, "guidance", "g", 0, "ガイダンススケールなのだ（0でテンプレートの既定値）。")
	generateCmd.Flags().Int64Var(&opts.Seed, "seed", -1, "シードなのだ（-1でランダム）。")
	generateCmd.Flags().BoolVar(&opts.FitToSize, "fit", false, "保存時に画像を指定解像度へ最近傍補間で合わせるのだ。")
}

// addRequestFlags は生成要求の組み立てに使うフラグを定義するのだ。
func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&opts.Category, "category", "c", templates.DefaultCategory, "プリプロンプトのカテゴリなのだ。")
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "スプライトの説明文なのだ。")
	cmd.Flags().StringVar(&opts.Biome, "biome", "", "背景のバイオーム名なのだ（空 or ninguno でなし）。")
	cmd.Flags().StringVarP(&opts.Animation, "animation", "a", "", "アニメーション名なのだ。指定するとフレームごとに生成するのだ。")
	cmd.Flags().IntVarP(&opts.Count, "count", "n", kitcfg.DefaultCount, fmt.Sprintf("単発生成の枚数なのだ（1〜%d）。", kitcfg.MaxCount))
}

func generateCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	slog.Info("スプライト生成パイプラインを起動するのだ！",
		"backend", cfg.Backend,
		"category", opts.Category,
		"animation", opts.Animation,
		"output", cfg.OutputDir)

	report, err := pipeline.Execute(ctx, cfg)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("すべての生成工程が完了したのだ！",
		"batch_id", report.BatchID,
		"created", len(report.Paths()),
		"failed", len(report.Failed()),
		"output_dir", report.OutputDir)
	for _, p := range report.Paths() {
		fmt.Fprintln(cmd.OutOrStdout(), p)
	}
	return nil
}
