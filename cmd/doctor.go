package cmd

import (
	"fmt"

	"github.com/shouni/go-sprite-kit/internal/builder"
	"github.com/shouni/go-sprite-kit/pkg/runner"

	"github.com/spf13/cobra"
)

// doctorCmd は、テンプレート・出力先・バックエンド・生成履歴が使えるかを診断するのだ。
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "実行環境を診断するのだ。",
	RunE:  doctorCommand,
}

var statusSymbols = map[runner.CheckStatus]string{
	runner.StatusOK:      "✓",
	runner.StatusWarning: "⚠",
	runner.StatusError:   "✗",
}

func doctorCommand(cmd *cobra.Command, args []string) error {
	d, err := builder.BuildDoctorRunner(loadConfig())
	if err != nil {
		return err
	}

	results := d.Run(cmd.Context())
	out := cmd.OutOrStdout()
	for _, r := range results {
		fmt.Fprintf(out, "%s %s\n", statusSymbols[r.Status], r.Name)
		if r.Message != "" {
			fmt.Fprintf(out, "  %s\n", r.Message)
		}
	}

	if !runner.Healthy(results) {
		return fmt.Errorf("診断で問題が見つかったのだ")
	}
	fmt.Fprintln(out, "\nすべて準備できているのだ！")
	return nil
}
