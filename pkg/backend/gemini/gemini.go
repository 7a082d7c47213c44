package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/domain"

	"google.golang.org/genai"
)

const (
	// Name はエラーやログに出すバックエンド名です。
	Name = "gemini"
	// DefaultModel は画像生成に使うデフォルトのモデルなのだ。
	DefaultModel = "gemini-2.5-flash-image"
)

// ContentGenerator は genai.Models のうち、画像生成に使うメソッドだけを抜き出したものです。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config は Gemini への接続設定です。
type Config struct {
	APIKey string
	Model  string
}

// Backend は Gemini の画像モデルで1枚ずつ生成するバックエンドです。
type Backend struct {
	cfg     Config
	connect func(ctx context.Context) (ContentGenerator, error)
	now     func() time.Time

	mu     sync.RWMutex
	models ContentGenerator
}

// New は API キーからクライアントを作る Backend を返します。クライアントの生成は Load まで遅延するのだ。
func New(cfg Config) *Backend {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	b := &Backend{cfg: cfg, now: time.Now}
	b.connect = func(ctx context.Context) (ContentGenerator, error) {
		if b.cfg.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY が設定されていません")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  b.cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
		}
		return client.Models, nil
	}
	return b
}

// NewWithGenerator は生成済みの ContentGenerator を使う Backend を返します。
func NewWithGenerator(cfg Config, gen ContentGenerator) *Backend {
	b := New(cfg)
	b.connect = func(ctx context.Context) (ContentGenerator, error) { return gen, nil }
	return b
}

// Load はクライアントを用意します。
func (b *Backend) Load(ctx context.Context, sink domain.StatusSink) bool {
	sink.Emit(fmt.Sprintf("Gemini (%s) に接続しています...", b.cfg.Model))
	models, err := b.connect(ctx)
	if err != nil {
		slog.Error("Gemini の初期化に失敗しました", "error", err)
		sink.Emit(fmt.Sprintf("モデルの読み込みに失敗しました: %v", err))
		return false
	}
	b.mu.Lock()
	b.models = models
	b.mu.Unlock()
	sink.Emit(fmt.Sprintf("モデル %q の準備ができました", b.cfg.Model))
	return true
}

func (b *Backend) IsReady() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.models != nil
}

// Generate は1枚ぶんの画像を生成します。Gemini のシードは int32 なので、
// ランダムに選ぶシードもその範囲に収めるのだ。
func (b *Backend) Generate(ctx context.Context, req backend.Request) (*backend.Result, error) {
	b.mu.RLock()
	models := b.models
	b.mu.RUnlock()
	if models == nil {
		return nil, backend.NewGenerationError(Name, backend.ErrNotReady)
	}

	seed := req.Seed
	if seed < 0 {
		seed = backend.ResolveSeed(seed) & math.MaxInt32
	}
	if seed > math.MaxInt32 {
		return nil, backend.NewGenerationError(Name, fmt.Errorf("シード %d は int32 の範囲を超えています", seed))
	}

	resp, err := models.GenerateContent(ctx, b.cfg.Model, genai.Text(buildPrompt(req)), &genai.GenerateContentConfig{
		Seed:               genai.Ptr(int32(seed)),
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, backend.NewGenerationError(Name, err)
	}

	img, err := parseImage(resp)
	if err != nil {
		return nil, backend.NewGenerationError(Name, err)
	}

	return &backend.Result{
		Image: img,
		Metadata: domain.MetadataRecord{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Width:          req.Width,
			Height:         req.Height,
			Steps:          req.Steps,
			GuidanceScale:  req.GuidanceScale,
			Seed:           seed,
			Timestamp:      b.now(),
			Model:          b.cfg.Model,
		},
	}, nil
}

// buildPrompt はネガティブプロンプトと解像度を本文に畳み込みます。
// Gemini にはネガティブプロンプトの専用欄が無いのだ。
func buildPrompt(req backend.Request) string {
	var sb strings.Builder
	sb.WriteString(req.Prompt)
	if req.Width > 0 && req.Height > 0 {
		fmt.Fprintf(&sb, "\nTarget size: %dx%d pixels.", req.Width, req.Height)
	}
	if neg := strings.TrimSpace(req.NegativePrompt); neg != "" {
		sb.WriteString("\nAvoid: ")
		sb.WriteString(neg)
	}
	return sb.String()
}

func parseImage(resp *genai.GenerateContentResponse) (domain.Image, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return domain.Image{}, errors.New("invalid response")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return domain.Image{Data: part.InlineData.Data, MimeType: part.InlineData.MIMEType}, nil
		}
	}
	return domain.Image{}, errors.New("no image data")
}
