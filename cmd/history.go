package cmd

import (
	"fmt"

	kitcfg "github.com/shouni/go-sprite-kit/pkg/config"
	"github.com/shouni/go-sprite-kit/pkg/journal"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyBatch string
)

// historyCmd は、生成履歴（ジャーナル）から最近の成果物を表示するのだ。
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "最近生成したスプライトを表示するのだ。",
	RunE:  historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", kitcfg.DefaultHistoryLimit, "表示する件数なのだ。")
	historyCmd.Flags().StringVar(&historyBatch, "batch", "", "指定したバッチIDの成果物だけを生成順に表示するのだ。")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	if cfg.JournalPath == "" {
		return fmt.Errorf("生成履歴が無効になっているのだ")
	}

	j, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return err
	}
	defer j.Close()

	var entries []journal.Entry
	if historyBatch != "" {
		entries, err = j.Batch(cmd.Context(), historyBatch)
	} else {
		entries, err = j.Recent(cmd.Context(), historyLimit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "まだ履歴がないのだ。")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s  batch=%s  #%03d  seed=%-10d  %s\n    %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.BatchID, e.Index, e.Seed, e.ImagePath, e.Prompt)
	}
	return nil
}
