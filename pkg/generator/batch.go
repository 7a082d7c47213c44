package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/shouni/go-sprite-kit/pkg/asset"
	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// progressPromptLimit は進捗メッセージに載せるプロンプトの最大文字数です。
const progressPromptLimit = 50

// ErrBackendNotReady はモデル未ロードのためバッチを1件も試さずに拒否したことを示します。
var ErrBackendNotReady = fmt.Errorf("バッチを開始できません: %w", backend.ErrNotReady)

// BatchGenerator はプロンプト列を1件ずつ同じバックエンドで生成し、成果物を保存します。
// 1件の失敗で残りを止めることはありません。
type BatchGenerator struct {
	backend  backend.Backend
	store    ArtifactSaver
	limiter  *rate.Limiter
	recorder Recorder
	newID    func() string
}

// Option は BatchGenerator の設定を変更します。
type Option func(*BatchGenerator)

// WithRateInterval はアイテム間の最小間隔を設定します。リモート API のレート制限向けなのだ。
func WithRateInterval(d time.Duration) Option {
	return func(g *BatchGenerator) {
		if d > 0 {
			g.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithRecorder は保存に成功したアイテムを記録する Recorder を設定します。
func WithRecorder(r Recorder) Option {
	return func(g *BatchGenerator) { g.recorder = r }
}

// NewBatchGenerator は BatchGenerator を初期化します。
func NewBatchGenerator(b backend.Backend, store ArtifactSaver, opts ...Option) *BatchGenerator {
	g := &BatchGenerator{
		backend: b,
		store:   store,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateBatch はバッチを実行し、保存に成功した画像パスを入力順で返します。
// エラーはバッチ全体の前提条件（モデル未ロード、出力先を作れない）の失敗だけで、
// アイテム単位の失敗は進捗イベントとして報告されるのだ。
func (g *BatchGenerator) GenerateBatch(
	ctx context.Context,
	items []domain.PromptItem,
	base domain.GenerationParams,
	outputDir, prefix string,
	sink domain.ProgressSink,
) ([]string, error) {
	report, err := g.Run(ctx, items, base, outputDir, prefix, sink)
	if err != nil {
		return nil, err
	}
	return report.Paths(), nil
}

// Run は GenerateBatch と同じ処理を行い、アイテムごとの結果を Report にまとめて返します。
func (g *BatchGenerator) Run(
	ctx context.Context,
	items []domain.PromptItem,
	base domain.GenerationParams,
	outputDir, prefix string,
	sink domain.ProgressSink,
) (*Report, error) {
	if !g.backend.IsReady() {
		return nil, ErrBackendNotReady
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("出力ディレクトリ %s の作成に失敗しました: %w", outputDir, err)
	}

	report := &Report{
		BatchID:   g.newID(),
		OutputDir: outputDir,
		Prefix:    prefix,
		Results:   make([]ItemResult, 0, len(items)),
	}
	logger := slog.With("batch_id", report.BatchID, "prefix", prefix)
	logger.Info("バッチ生成を開始します", "total", len(items), "output_dir", outputDir)

	total := len(items)
	for i, item := range items {
		index := i + 1
		result := g.runItem(ctx, logger.With("index", index), index, total, item, base, outputDir, prefix, sink)
		if result.Err == nil && g.recorder != nil {
			if err := g.recorder.Record(ctx, report.BatchID, result); err != nil {
				logger.Warn("生成履歴の記録に失敗しました", "index", index, "error", err)
			}
		}
		report.Results = append(report.Results, result)
	}

	logger.Info("バッチ生成が完了しました", "succeeded", len(report.Paths()), "total", total)
	return report, nil
}

func (g *BatchGenerator) runItem(
	ctx context.Context,
	logger *slog.Logger,
	index, total int,
	item domain.PromptItem,
	base domain.GenerationParams,
	outputDir, prefix string,
	sink domain.ProgressSink,
) ItemResult {
	result := ItemResult{Index: index, Prompt: item.Prompt()}

	params := resolveParams(item, base)
	sink.Emit(index, total, fmt.Sprintf("生成中: %s...", truncate(item.Prompt(), progressPromptLimit)))

	fail := func(err error) ItemResult {
		logger.Error("アイテムの生成に失敗しました", "error", err)
		sink.Emit(index, total, fmt.Sprintf("✗ エラー (#%d): %v", index, err))
		result.Err = err
		return result
	}

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fail(fmt.Errorf("待機中に中断されました: %w", err))
		}
	}

	startTime := time.Now()
	res, err := g.backend.Generate(ctx, backend.NewRequest(item.Prompt(), params))
	if err != nil {
		return fail(err)
	}
	if res == nil {
		return fail(backend.NewGenerationError("unknown", errors.New("結果が空です")))
	}

	imageName := asset.ImageFileName(prefix, index)
	imagePath, err := asset.ResolveOutputPath(outputDir, imageName)
	if err != nil {
		return fail(err)
	}
	metadataPath, err := asset.ResolveOutputPath(outputDir, asset.MetadataFileName(prefix, index))
	if err != nil {
		return fail(err)
	}

	if err := g.store.SaveImage(ctx, res.Image, imagePath, params.Width, params.Height); err != nil {
		return fail(err)
	}
	if err := g.store.SaveMetadata(ctx, res.Metadata, metadataPath); err != nil {
		return fail(err)
	}

	result.ImagePath = imagePath
	result.MetadataPath = metadataPath
	result.Seed = res.Metadata.Seed
	logger.Info("アイテムを保存しました", "path", imagePath, "seed", result.Seed, "duration", time.Since(startTime).Round(time.Millisecond))
	sink.Emit(index, total, fmt.Sprintf("✓ 保存しました (#%d): %s", index, imageName))
	return result
}

// resolveParams はアイテムのタグに応じてパラメータを決めます。
func resolveParams(item domain.PromptItem, base domain.GenerationParams) domain.GenerationParams {
	switch item.Kind() {
	case domain.ItemOverridden:
		overrides, _ := item.Overrides()
		return overrides.Apply(base)
	default:
		return base
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
