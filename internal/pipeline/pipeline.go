package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shouni/go-sprite-kit/internal/builder"
	"github.com/shouni/go-sprite-kit/internal/config"
	kitcfg "github.com/shouni/go-sprite-kit/pkg/config"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/generator"
)

// ErrAllFailed はバッチのすべてのアイテムが失敗したことを示すのだ。
var ErrAllFailed = errors.New("すべてのアイテムの生成に失敗しました")

// Execute は、モデル読み込みからスプライトのバッチ生成までを実行するのだ。
func Execute(ctx context.Context, cfg *config.Config) (*generator.Report, error) {
	req, err := BuildRequest(cfg.Options)
	if err != nil {
		return nil, err
	}

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer appCtx.Close()

	// --- Phase 1: モデルの読み込み ---
	slog.Info("Phase 1: モデルを読み込むのだ...", "backend", cfg.Backend)
	if err := appCtx.Studio.LoadModel(ctx, func(message string) {
		slog.Info(message)
	}); err != nil {
		return nil, fmt.Errorf("モデルの読み込みに失敗したのだ: %w", err)
	}

	// --- Phase 2: バッチ生成 ---
	slog.Info("Phase 2: スプライト生成を開始するのだ...")
	report, err := appCtx.Studio.Generate(ctx, req, func(current, total int, message string) {
		slog.Info(fmt.Sprintf("[%d/%d] %s", current, total, message))
	})
	if err != nil {
		return nil, fmt.Errorf("スプライト生成に失敗したのだ: %w", err)
	}

	for _, failed := range report.Failed() {
		slog.Warn("生成できなかったアイテムがあるのだ", "index", failed.Index, "error", failed.Err)
	}
	if len(report.Results) > 0 && len(report.Paths()) == 0 {
		return report, ErrAllFailed
	}
	return report, nil
}

// BuildRequest は CLI オプションを生成要求に変換するのだ。
func BuildRequest(opts config.GenerateOptions) (domain.GenerationRequest, error) {
	resolution := opts.Resolution
	if resolution == "" {
		resolution = kitcfg.DefaultResolution
	}
	width, height, err := kitcfg.ParseResolution(resolution)
	if err != nil {
		return domain.GenerationRequest{}, err
	}
	if opts.Count > kitcfg.MaxCount {
		return domain.GenerationRequest{}, fmt.Errorf("枚数は %d 以下で指定してほしいのだ: %d", kitcfg.MaxCount, opts.Count)
	}

	return domain.GenerationRequest{
		Category:      opts.Category,
		Description:   opts.Description,
		Biome:         kitcfg.NormalizeBiome(opts.Biome),
		Animation:     opts.Animation,
		Width:         width,
		Height:        height,
		Steps:         opts.Steps,
		GuidanceScale: opts.Guidance,
		Seed:          opts.Seed,
		Count:         opts.Count,
	}, nil
}
