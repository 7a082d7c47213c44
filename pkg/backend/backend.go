package backend

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// MaxSeed はランダムに選ぶシードの上限（2^32-1）です。
const MaxSeed int64 = 1<<32 - 1

// ErrNotReady はモデルが読み込まれていない状態で生成を呼んだことを示します。
var ErrNotReady = errors.New("モデルが読み込まれていません。先に Load を呼んでください")

// Backend は画像合成エンジンの能力を表すインターフェースです。
// インスタンスは再入不可の共有資源として扱い、同時に1つの呼び出しだけを想定します。
type Backend interface {
	// Load はエンジンを初期化し、途中経過を sink に報告します。失敗は false で返し、panic はしません。
	Load(ctx context.Context, sink domain.StatusSink) bool
	// IsReady は Load が成功済みかどうかを返します。
	IsReady() bool
	// Generate は1枚の画像を同期的に生成し、実際に使ったシードを含むメタデータと共に返します。
	Generate(ctx context.Context, req Request) (*Result, error)
}

// Request は Generate に渡す入力です。
type Request struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
	GuidanceScale  float64
	Seed           int64 // 負の値はバックエンドに選ばせる
}

// NewRequest はプロンプトと解決済みパラメータから Request を作ります。
func NewRequest(prompt string, params domain.GenerationParams) Request {
	return Request{
		Prompt:         prompt,
		NegativePrompt: params.NegativePrompt,
		Width:          params.Width,
		Height:         params.Height,
		Steps:          params.Steps,
		GuidanceScale:  params.GuidanceScale,
		Seed:           params.Seed,
	}
}

// Result は生成結果の画像とメタデータです。
type Result struct {
	Image    domain.Image
	Metadata domain.MetadataRecord
}

// GenerationError は生成失敗をバックエンド名付きで包みます。
type GenerationError struct {
	Backend string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: 画像生成に失敗しました: %v", e.Backend, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// NewGenerationError は err を GenerationError で包みます。
func NewGenerationError(backend string, err error) error {
	return &GenerationError{Backend: backend, Err: err}
}

// ResolveSeed は要求シードが負のときに [0, MaxSeed] から実際のシードを選びます。
// 0以上ならそのまま返すのだ。
func ResolveSeed(seed int64) int64 {
	if seed >= 0 {
		return seed
	}
	return rand.Int64N(MaxSeed + 1)
}
