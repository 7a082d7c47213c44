package cmd

import (
	"fmt"

	"github.com/shouni/go-sprite-kit/internal/builder"
	"github.com/shouni/go-sprite-kit/internal/pipeline"
	"github.com/shouni/go-sprite-kit/pkg/prompt"

	"github.com/spf13/cobra"
)

// promptCmd は、生成せずに最終プロンプトだけを表示するのだ。
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "組み立てたプロンプトをプレビューするのだ。",
	Long:  `generate と同じフラグで、実際にバックエンドへ送るプロンプトを1行ずつ表示するのだ。モデルは読み込まないのだよ。`,
	RunE:  promptCommand,
}

func init() {
	addRequestFlags(promptCmd)
}

func promptCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	req, err := pipeline.BuildRequest(cfg.Options)
	if err != nil {
		return err
	}

	prompts, stem := prompt.NewComposer(builder.LoadTemplates(cfg)).Preview(req)
	if len(prompts) == 0 {
		return fmt.Errorf("アニメーション '%s' が見つからないのだ", req.Animation)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s (%d)\n", stem, len(prompts))
	for i, p := range prompts {
		fmt.Fprintf(out, "%03d: %s\n", i+1, p)
	}
	return nil
}
