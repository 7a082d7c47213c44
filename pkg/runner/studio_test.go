package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/backend/procedural"
	"github.com/shouni/go-sprite-kit/pkg/config"
	"github.com/shouni/go-sprite-kit/pkg/domain"
	"github.com/shouni/go-sprite-kit/pkg/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockingBackend は release が閉じられるまで Load と Generate を止めるバックエンドなのだ。
type blockingBackend struct {
	release    chan struct{}
	started    chan struct{}
	once       sync.Once
	loadCalls  atomic.Int32
	loadResult bool
	ready      atomic.Bool
	// loadCtxDone は Load が戻る時点で ctx が終わっていたかを記録するのだ。
	loadCtxDone atomic.Bool
}

func newBlockingBackend(loadResult bool) *blockingBackend {
	return &blockingBackend{release: make(chan struct{}), started: make(chan struct{}), loadResult: loadResult}
}

func (b *blockingBackend) signal() { b.once.Do(func() { close(b.started) }) }

func (b *blockingBackend) Load(ctx context.Context, sink domain.StatusSink) bool {
	b.loadCalls.Add(1)
	b.signal()
	<-b.release
	b.loadCtxDone.Store(ctx.Err() != nil)
	b.ready.Store(b.loadResult)
	return b.loadResult
}

func (b *blockingBackend) IsReady() bool { return b.ready.Load() }

func (b *blockingBackend) Generate(ctx context.Context, req backend.Request) (*backend.Result, error) {
	b.signal()
	<-b.release
	return nil, backend.NewGenerationError("blocking", backend.ErrNotReady)
}

func testDocument() domain.TemplateDocument {
	doc := templates.DefaultDocument()
	doc.Animations = domain.AnimationMap{"walk": {"step left", "step right"}}
	doc.Biomes = domain.BiomeMap{"forest": "green forest"}
	return doc
}

func newTestStudio(t *testing.T, b backend.Backend) *Studio {
	t.Helper()
	cfg := config.Default()
	cfg.OutputRoot = t.TempDir()
	s := NewStudio(cfg, b, templates.NewStore(filepath.Join(t.TempDir(), "t.json"), testDocument()))
	s.now = func() time.Time { return time.Date(2025, 7, 8, 9, 10, 11, 0, time.UTC) }
	return s
}

func TestStudio_GenerateAnimation(t *testing.T) {
	ctx := context.Background()
	s := newTestStudio(t, procedural.New())
	require.NoError(t, s.LoadModel(ctx, nil))

	var events int
	report, err := s.Generate(ctx, domain.GenerationRequest{
		Category: "personajes", Description: "knight", Animation: "walk", Biome: "forest",
		Width: 32, Height: 32, Seed: 5,
	}, func(current, total int, message string) { events++ })
	require.NoError(t, err)

	assert.Equal(t, "walk_20250708_091011", report.Prefix)
	assert.Equal(t, "walk_20250708_091011", filepath.Base(report.OutputDir))
	require.Len(t, report.Paths(), 2)
	assert.Equal(t, "walk_20250708_091011_001.png", filepath.Base(report.Paths()[0]))
	assert.Contains(t, report.Results[1].Prompt, "step right")
	assert.Contains(t, report.Results[1].Prompt, "green forest")
	assert.Equal(t, int64(5), report.Results[0].Seed)
	assert.GreaterOrEqual(t, events, 4)

	_, err = os.Stat(report.Results[0].MetadataPath)
	assert.NoError(t, err)
}

func TestStudio_GenerateCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStudio(t, procedural.New())
	require.NoError(t, s.LoadModel(ctx, nil))

	report, err := s.Generate(ctx, domain.GenerationRequest{Category: "personajes", Description: "slime", Width: 16, Height: 16, Seed: -1, Count: 3}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(report.Prefix, "personajes_"))
	assert.Len(t, report.Paths(), 3)
	for _, r := range report.Results {
		assert.GreaterOrEqual(t, r.Seed, int64(0))
	}
}

func TestStudio_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("未ロードなら ErrModelNotLoaded なのだ", func(t *testing.T) {
		s := newTestStudio(t, procedural.New())
		_, err := s.Generate(ctx, domain.GenerationRequest{Category: "personajes", Width: 16, Height: 16}, nil)
		assert.ErrorIs(t, err, ErrModelNotLoaded)
	})

	t.Run("未知のアニメーションは ErrEmptyBatch なのだ", func(t *testing.T) {
		s := newTestStudio(t, procedural.New())
		require.NoError(t, s.LoadModel(ctx, nil))
		_, err := s.Generate(ctx, domain.GenerationRequest{Category: "personajes", Animation: "fly", Width: 16, Height: 16}, nil)
		assert.ErrorIs(t, err, ErrEmptyBatch)
	})

	t.Run("読み込み失敗は ErrModelLoadFailed なのだ", func(t *testing.T) {
		b := newBlockingBackend(false)
		close(b.release)
		s := newTestStudio(t, b)
		assert.ErrorIs(t, s.LoadModel(ctx, nil), ErrModelLoadFailed)
		assert.False(t, s.IsReady())
	})

	t.Run("生成中は2回目の生成も読み込みも ErrBusy なのだ", func(t *testing.T) {
		b := newBlockingBackend(true)
		b.ready.Store(true)
		s := newTestStudio(t, b)

		done := make(chan error, 1)
		go func() {
			_, err := s.Generate(ctx, domain.GenerationRequest{Category: "personajes", Width: 16, Height: 16}, nil)
			done <- err
		}()
		<-b.started

		_, err := s.Generate(ctx, domain.GenerationRequest{Category: "personajes", Width: 16, Height: 16}, nil)
		assert.ErrorIs(t, err, ErrBusy)
		assert.ErrorIs(t, s.LoadModel(ctx, nil), ErrBusy)

		close(b.release)
		assert.NoError(t, <-done)

		// 終わればまた生成できるのだ
		_, err = s.Generate(ctx, domain.GenerationRequest{Category: "personajes", Width: 16, Height: 16}, nil)
		assert.NoError(t, err)
	})

	t.Run("読み込み中の生成は ErrBusy なのだ", func(t *testing.T) {
		b := newBlockingBackend(true)
		s := newTestStudio(t, b)

		done := make(chan error, 1)
		go func() { done <- s.LoadModel(ctx, nil) }()
		<-b.started

		_, err := s.Generate(ctx, domain.GenerationRequest{Category: "personajes", Width: 16, Height: 16}, nil)
		assert.ErrorIs(t, err, ErrBusy)

		close(b.release)
		assert.NoError(t, <-done)
		assert.True(t, s.IsReady())
		assert.Equal(t, int32(1), b.loadCalls.Load())
	})

	t.Run("呼び出し元がキャンセルしても共有中の読み込みは続くのだ", func(t *testing.T) {
		b := newBlockingBackend(true)
		s := newTestStudio(t, b)

		loadCtx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- s.LoadModel(loadCtx, nil) }()
		<-b.started

		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)

		close(b.release)
		assert.Eventually(t, s.IsReady, time.Second, 5*time.Millisecond)
		assert.False(t, b.loadCtxDone.Load())

		// その後の読み込みと生成はふつうに通るのだ
		require.NoError(t, s.LoadModel(ctx, nil))
		_, err := s.Generate(ctx, domain.GenerationRequest{Category: "personajes", Width: 16, Height: 16}, nil)
		assert.NoError(t, err)
	})
}
