package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/asset"
	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/config"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/generator"
	"github.com/shouni/go-sprite-kit/pkg/prompt"
	"github.com/shouni/go-sprite-kit/pkg/templates"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrBusy は生成またはモデル読み込みがすでに進行中であることを示します。
	ErrBusy = errors.New("生成またはモデル読み込みが進行中です")
	// ErrModelNotLoaded はモデル未ロードのまま生成しようとしたことを示します。
	ErrModelNotLoaded = errors.New("先にモデルを読み込んでください")
	// ErrModelLoadFailed はバックエンドの Load が失敗したことを示します。
	ErrModelLoadFailed = errors.New("モデルの読み込みに失敗しました")
	// ErrEmptyBatch は要求から1件もプロンプトが作れなかったことを示します（未知のアニメーション等）。
	ErrEmptyBatch = errors.New("生成するプロンプトがありません")
)

const loadKey = "load"

// Studio はテンプレート、プロンプト合成、バッチ生成を1つのバックエンドにまとめ、
// 同時に1つの操作だけが走るように守る呼び出し側のガードなのだ。
type Studio struct {
	cfg       config.Config
	backend   backend.Backend
	templates *templates.Store
	composer  *prompt.Composer
	batch     *generator.BatchGenerator

	loads singleflight.Group
	mu    sync.Mutex
	// generating と loading は mu で守るのだ。
	generating bool
	loading    bool

	now func() time.Time
}

// NewStudio は依存関係を注入して Studio を初期化します。
// opts はバッチ生成器にそのまま渡されます（WithRecorder など）。
func NewStudio(cfg config.Config, b backend.Backend, store *templates.Store, opts ...generator.Option) *Studio {
	saver := asset.NewStore(asset.NewLocalWriter(), asset.WithFitToSize(cfg.FitToSize))
	genOpts := append([]generator.Option{generator.WithRateInterval(cfg.RateInterval)}, opts...)
	return &Studio{
		cfg:       cfg,
		backend:   b,
		templates: store,
		composer:  prompt.NewComposer(store),
		batch:     generator.NewBatchGenerator(b, saver, genOpts...),
		now:       time.Now,
	}
}

// IsReady はバックエンドが生成できる状態かを返します。
func (s *Studio) IsReady() bool { return s.backend.IsReady() }

// LoadModel はバックエンドを読み込みます。同時に呼ばれた場合は1回の Load を共有するのだ。
// 生成中は ErrBusy を返します。
func (s *Studio) LoadModel(ctx context.Context, sink domain.StatusSink) error {
	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	s.mu.Unlock()

	// 読み込みは合流した全員で共有するので、最初の呼び出し元のキャンセルには巻き込まないのだ。
	// 各呼び出し元は自分の ctx が切れた時点で待つのをやめます。
	ch := s.loads.DoChan(loadKey, func() (any, error) {
		defer func() {
			s.mu.Lock()
			s.loading = false
			s.mu.Unlock()
		}()

		loadCtx := context.WithoutCancel(ctx)
		if s.cfg.LoadTimeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, s.cfg.LoadTimeout)
			defer cancel()
		}

		start := time.Now()
		if !s.backend.Load(loadCtx, sink) {
			return nil, ErrModelLoadFailed
		}
		slog.Info("モデルを読み込みました", "duration", time.Since(start).Round(time.Millisecond))
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug("進行中のモデル読み込みに合流しました")
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Generate は要求をアイテム列に展開し、"{語幹}_{YYYYmmdd_HHMMSS}" のディレクトリへバッチ生成します。
// 同じ名前をファイル接頭辞にも使います。
func (s *Studio) Generate(ctx context.Context, req domain.GenerationRequest, sink domain.ProgressSink) (*generator.Report, error) {
	s.mu.Lock()
	if s.generating || s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if !s.backend.IsReady() {
		s.mu.Unlock()
		return nil, ErrModelNotLoaded
	}
	s.generating = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.generating = false
		s.mu.Unlock()
	}()

	items, stem := s.composer.Items(req)
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: animation=%q", ErrEmptyBatch, req.Animation)
	}

	params := prompt.BaseParams(req, s.templates.Defaults())
	name := asset.BatchName(stem, s.now())
	outputDir, err := asset.ResolveOutputPath(s.cfg.OutputRoot, name)
	if err != nil {
		return nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
	}

	slog.Info("スプライト生成を開始します", "count", len(items), "output_dir", outputDir, "seed", params.Seed)
	report, err := s.batch.Run(ctx, items, params, outputDir, name, sink)
	if err != nil {
		return nil, err
	}

	slog.Info("スプライト生成が完了しました", "succeeded", len(report.Paths()), "failed", len(report.Failed()))
	return report, nil
}
