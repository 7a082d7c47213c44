package cmd

import (
	"log/slog"
	"os"

	"github.com/shouni/go-sprite-kit/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は CLI フラグの値を受け取る共有オプションなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
// --verbose と --config は clibase 側で定義されるのだよ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 入出力関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.TemplatesPath, "templates", "t", "", "プロンプトテンプレート文書のパス（.json / .yaml）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "output-dir", "o", "", "生成物を保存する親ディレクトリなのだ。")
	rootCmd.PersistentFlags().BoolVar(&opts.NoJournal, "no-journal", false, "生成履歴を記録しないのだ。")

	// --- バックエンド設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Backend, "backend", "b", "", "画像生成バックエンド（webui / gemini / procedural）なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", 0, "バックエンドへのリクエストのタイムアウトなのだ。")
}

// preRunAppE は、コマンド実行前にロガーを設定するのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// 実行時エラーのたびに使い方を出さないようにするのだ
	cmd.SilenceUsage = true

	level := slog.LevelInfo
	if clibase.Flags.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig は環境変数を読み込み、フラグで上書きした設定を返すのだ。
// --templates がなければ --config をテンプレート文書のパスとして使うのだ。
func loadConfig() *config.Config {
	o := opts
	if o.TemplatesPath == "" {
		o.TemplatesPath = clibase.Flags.ConfigFile
	}
	cfg := config.LoadConfig()
	cfg.ApplyOptions(o)
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"sprite-kit",
		addAppFlags,
		preRunAppE,
		generateCmd,
		promptCmd,
		templatesCmd,
		historyCmd,
		doctorCmd,
	)
}
