package builder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-sprite-kit/internal/config"
	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/backend/gemini"
	"github.com/shouni/go-sprite-kit/pkg/backend/procedural"
	"github.com/shouni/go-sprite-kit/pkg/backend/webui"
	kitcfg "github.com/shouni/go-sprite-kit/pkg/config"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/journal"
	"github.com/shouni/go-sprite-kit/pkg/runner"
	"github.com/shouni/go-sprite-kit/pkg/templates"

	"github.com/shouni/go-http-kit/httpkit"
)

// BuildBackend は設定に応じた画像生成バックエンドを構築します。
func BuildBackend(cfg *config.Config) (backend.Backend, error) {
	switch cfg.Backend {
	case config.BackendWebUI:
		httpClient := httpkit.New(cfg.HTTPTimeout)
		return webui.New(webui.Config{BaseURL: cfg.WebUIURL, Sampler: cfg.Sampler}, httpClient), nil
	case config.BackendGemini:
		return gemini.New(gemini.Config{APIKey: cfg.GeminiAPIKey, Model: cfg.GeminiImageModel}), nil
	case config.BackendProcedural:
		return procedural.New(), nil
	default:
		return nil, fmt.Errorf("サポートされていないバックエンド: '%s'。サポートされているのは [%s, %s, %s] です",
			cfg.Backend, config.BackendGemini, config.BackendProcedural, config.BackendWebUI)
	}
}

// LoadTemplates はテンプレート文書を読み込みます。読めなかった場合も既定値のストアを返し、警告だけ出すのだ。
func LoadTemplates(cfg *config.Config) *templates.Store {
	store, err := templates.Load(cfg.TemplatesPath)
	if err != nil {
		slog.Warn("既定のテンプレートで続行します", "error", err)
	}
	return store
}

// BuildAppContext は設定から AppContext を組み立てます。
func BuildAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	b, err := BuildBackend(cfg)
	if err != nil {
		return nil, err
	}

	store := LoadTemplates(cfg)

	var j *journal.Journal
	var opts []generator.Option
	if cfg.JournalPath != "" {
		j, err = journal.Open(cfg.JournalPath)
		if err != nil {
			slog.WarnContext(ctx, "生成履歴を開けませんでした。履歴なしで続行します", "path", cfg.JournalPath, "error", err)
			j = nil
		} else {
			opts = append(opts, generator.WithRecorder(j))
		}
	}

	studio := runner.NewStudio(StudioConfig(cfg), b, store, opts...)
	return NewAppContext(cfg, store, b, studio, j), nil
}

// StudioConfig はアプリ設定から Studio 用の設定を取り出すのだ。
func StudioConfig(cfg *config.Config) kitcfg.Config {
	sc := kitcfg.Default()
	sc.OutputRoot = cfg.OutputDir
	sc.RateInterval = cfg.RateInterval
	sc.FitToSize = cfg.FitToSize
	return sc
}

// BuildDoctorRunner は環境診断の Runner を構築します。
func BuildDoctorRunner(cfg *config.Config) (*runner.DoctorRunner, error) {
	b, err := BuildBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &runner.DoctorRunner{
		TemplatesPath: cfg.TemplatesPath,
		OutputRoot:    cfg.OutputDir,
		JournalPath:   cfg.JournalPath,
		Backend:       b,
		OpenJournal: func(path string) error {
			j, err := journal.Open(path)
			if err != nil {
				return err
			}
			return j.Close()
		},
	}, nil
}
