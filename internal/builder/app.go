package builder

import (
	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/journal"
	"github.com/shouni/go-sprite-kit/pkg/runner"
	"github.com/shouni/go-sprite-kit/pkg/templates"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各コマンドに渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config    *config.Config         // Configは、環境変数とフラグから組み立てた設定です。
	Options   config.GenerateOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Templates *templates.Store       // Templatesは、プロンプトテンプレート文書のストアです。
	Backend   backend.Backend        // Backendは、画像生成に使うバックエンドです。
	Studio    *runner.Studio         // Studioは、読み込みと生成をまとめた実行窓口です。
	Journal   *journal.Journal       // Journalは、生成履歴の記録先です。無効なら nil なのだ。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	store *templates.Store,
	b backend.Backend,
	studio *runner.Studio,
	j *journal.Journal,
) *AppContext {
	return &AppContext{
		Config:    cfg,
		Options:   cfg.Options,
		Templates: store,
		Backend:   b,
		Studio:    studio,
		Journal:   j,
	}
}

// Close は開いている資源を解放します。
func (a *AppContext) Close() error {
	if a.Journal != nil {
		return a.Journal.Close()
	}
	return nil
}
