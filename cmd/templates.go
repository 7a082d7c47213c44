package cmd

import (
	"fmt"
	"strings"

	"github.com/shouni/go-sprite-kit/internal/builder"

	"github.com/spf13/cobra"
)

// templatesCmd は、プロンプトテンプレート文書を参照・編集するためのコマンド群なのだ。
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "プロンプトテンプレートを参照・編集するのだ。",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "カテゴリ、アニメーション、バイオームを一覧表示するのだ。",
	RunE:  templatesListCommand,
}

var templatesSetCmd = &cobra.Command{
	Use:   "set <category> <base|style|quality> <value>",
	Short: "カテゴリのプリプロンプトを1項目更新して保存するのだ。",
	Long: `指定したカテゴリのプリプロンプトの1項目を書き換え、すぐにテンプレート文書へ保存するのだ。
カテゴリが無ければ新しく作るのだよ。項目名は estilo / calidad でも受け付けるのだ。`,
	Example: `  sprite-kit templates set items base "game item icon"`,
	Args:    cobra.ExactArgs(3),
	RunE:    templatesSetCommand,
}

func init() {
	templatesCmd.AddCommand(templatesListCmd, templatesSetCmd)
}

func templatesListCommand(cmd *cobra.Command, args []string) error {
	store := builder.LoadTemplates(loadConfig())
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "テンプレート: %s\n\n", store.Path())
	fmt.Fprintln(out, "[カテゴリ]")
	for _, name := range store.Categories() {
		p, _ := store.Preprompt(name)
		fmt.Fprintf(out, "  %s: %s\n", name, strings.Join(p.Fragments(), " | "))
	}

	fmt.Fprintln(out, "\n[アニメーション]")
	for _, name := range store.Animations() {
		frames, _ := store.Frames(name)
		fmt.Fprintf(out, "  %s (%d フレーム)\n", name, len(frames))
	}

	fmt.Fprintln(out, "\n[バイオーム]")
	for _, name := range store.Biomes() {
		desc, _ := store.Biome(name)
		fmt.Fprintf(out, "  %s: %s\n", name, desc)
	}

	d := store.Defaults()
	fmt.Fprintf(out, "\n[既定値]\n  negative_prompt: %s\n  steps: %d\n  guidance_scale: %.1f\n  seed: %d\n",
		d.NegativePrompt, d.NumInferenceSteps, d.GuidanceScale, d.Seed)
	return nil
}

func templatesSetCommand(cmd *cobra.Command, args []string) error {
	store := builder.LoadTemplates(loadConfig())
	category, field, value := args[0], args[1], args[2]

	if !store.UpdateField(category, field, value) {
		return fmt.Errorf("'%s' の %s を保存できなかったのだ", category, field)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "プリプロンプト '%s' を更新したのだ (%s)\n", category, store.Path())
	return nil
}
