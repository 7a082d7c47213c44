package procedural

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/nfnt/resize"
)

const (
	// Name はメタデータに記録するモデル名です。
	Name = "procedural"
	// SamplerName は左右対称のドット絵を作る描画方式の名前なのだ。
	SamplerName = "mirror-grid"

	gridSize = 16
)

// Backend はネットワークも GPU も使わずに、シードとプロンプトから決定論的なドット絵を描くバックエンドです。
// ドライランや結線の確認に使います。
type Backend struct {
	ready atomic.Bool
	now   func() time.Time
}

// New は Backend を生成します。
func New() *Backend {
	return &Backend{now: time.Now}
}

// Load は常に成功するのだ。
func (b *Backend) Load(ctx context.Context, sink domain.StatusSink) bool {
	sink.Emit("手続き型バックエンドを初期化しています...")
	b.ready.Store(true)
	sink.Emit("手続き型バックエンドの準備ができました")
	return true
}

func (b *Backend) IsReady() bool { return b.ready.Load() }

// Generate はシードとプロンプトから同じ画像を再現可能に描画します。
func (b *Backend) Generate(ctx context.Context, req backend.Request) (*backend.Result, error) {
	if !b.IsReady() {
		return nil, backend.NewGenerationError(Name, backend.ErrNotReady)
	}
	if req.Width <= 0 || req.Height <= 0 {
		return nil, backend.NewGenerationError(Name, fmt.Errorf("不正な解像度です: %dx%d", req.Width, req.Height))
	}
	if err := ctx.Err(); err != nil {
		return nil, backend.NewGenerationError(Name, err)
	}

	seed := backend.ResolveSeed(req.Seed)
	sprite := render(seed, req.Prompt)
	scaled := resize.Resize(uint(req.Width), uint(req.Height), sprite, resize.NearestNeighbor)

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, backend.NewGenerationError(Name, err)
	}

	return &backend.Result{
		Image: domain.Image{Data: buf.Bytes(), MimeType: "image/png"},
		Metadata: domain.MetadataRecord{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Width:          req.Width,
			Height:         req.Height,
			Steps:          req.Steps,
			GuidanceScale:  req.GuidanceScale,
			Seed:           seed,
			Timestamp:      b.now(),
			Model:          Name,
			Sampler:        SamplerName,
		},
	}, nil
}

// render は左半分をランダムに塗り、右半分に鏡写しにしたスプライトを描くのだ。
func render(seed int64, prompt string) *image.NRGBA {
	h := fnv.New64a()
	h.Write([]byte(prompt))
	rng := rand.New(rand.NewPCG(uint64(seed), h.Sum64()))

	body := color.NRGBA{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256)), A: 255}
	outline := color.NRGBA{R: body.R / 3, G: body.G / 3, B: body.B / 3, A: 255}

	img := image.NewNRGBA(image.Rect(0, 0, gridSize, gridSize))
	half := gridSize / 2
	for y := 1; y < gridSize-1; y++ {
		for x := 1; x < half; x++ {
			if rng.IntN(100) < 45 {
				continue
			}
			c := body
			if rng.IntN(100) < 20 {
				c = outline
			}
			img.SetNRGBA(x, y, c)
			img.SetNRGBA(gridSize-1-x, y, c)
		}
	}
	return img
}
