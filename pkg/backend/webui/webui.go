package webui

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/backend"
	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/patrickmn/go-cache"
)

const (
	// Name はエラーやログに出すバックエンド名です。
	Name = "webui"

	optionsPath  = "/sdapi/v1/options"
	txt2imgPath  = "/sdapi/v1/txt2img"
	optionsKey   = "options"
	defaultTTL   = 10 * time.Minute
	cleanupEvery = 20 * time.Minute
)

// HTTPClient は go-http-kit のクライアントのうち、このバックエンドが使う部分です。
type HTTPClient interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
	PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error)
}

// Config は stable-diffusion-webui への接続設定です。
type Config struct {
	BaseURL string
	Sampler string
	// ProbeTTL は options の取得結果をキャッシュする時間なのだ。
	ProbeTTL time.Duration
}

// Backend は AUTOMATIC1111 / Forge 互換の stable-diffusion-webui API を叩くバックエンドです。
type Backend struct {
	cfg    Config
	client HTTPClient
	probes *cache.Cache
	ready  atomic.Bool
	now    func() time.Time
}

// New は Backend を生成します。
func New(cfg Config, client HTTPClient) *Backend {
	if cfg.ProbeTTL <= 0 {
		cfg.ProbeTTL = defaultTTL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Backend{
		cfg:    cfg,
		client: client,
		probes: cache.New(cfg.ProbeTTL, cleanupEvery),
		now:    time.Now,
	}
}

type options struct {
	Checkpoint string `json:"sd_model_checkpoint"`
}

type txt2imgRequest struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Steps          int     `json:"steps"`
	CfgScale       float64 `json:"cfg_scale"`
	Seed           int64   `json:"seed"`
	SamplerName    string  `json:"sampler_name,omitempty"`
	BatchSize      int     `json:"batch_size"`
}

type txt2imgResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

type generationInfo struct {
	Seed        *int64 `json:"seed"`
	SamplerName string `json:"sampler_name"`
}

// Load はサーバーに到達できるかを確かめ、読み込まれているチェックポイント名を覚えます。
func (b *Backend) Load(ctx context.Context, sink domain.StatusSink) bool {
	sink.Emit(fmt.Sprintf("stable-diffusion-webui (%s) に接続しています...", b.cfg.BaseURL))
	b.probes.Delete(optionsKey)
	opts, err := b.probe(ctx)
	if err != nil {
		slog.Error("webui への接続に失敗しました", "url", b.cfg.BaseURL, "error", err)
		sink.Emit(fmt.Sprintf("モデルの読み込みに失敗しました: %v", err))
		b.ready.Store(false)
		return false
	}
	b.ready.Store(true)
	sink.Emit(fmt.Sprintf("モデル %q の準備ができました", opts.Checkpoint))
	return true
}

func (b *Backend) IsReady() bool { return b.ready.Load() }

// Generate は txt2img を1枚ぶん呼び出します。
func (b *Backend) Generate(ctx context.Context, req backend.Request) (*backend.Result, error) {
	if !b.IsReady() {
		return nil, backend.NewGenerationError(Name, backend.ErrNotReady)
	}

	seed := backend.ResolveSeed(req.Seed)
	body := txt2imgRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		CfgScale:       req.GuidanceScale,
		Seed:           seed,
		SamplerName:    b.cfg.Sampler,
		BatchSize:      1,
	}

	raw, err := b.client.PostJSONAndFetchBytes(ctx, b.cfg.BaseURL+txt2imgPath, body)
	if err != nil {
		return nil, backend.NewGenerationError(Name, err)
	}

	var resp txt2imgResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, backend.NewGenerationError(Name, fmt.Errorf("レスポンスの解析に失敗しました: %w", err))
	}
	if len(resp.Images) == 0 {
		return nil, backend.NewGenerationError(Name, errors.New("画像が返されませんでした"))
	}
	data, err := base64.StdEncoding.DecodeString(trimDataURL(resp.Images[0]))
	if err != nil {
		return nil, backend.NewGenerationError(Name, fmt.Errorf("画像のデコードに失敗しました: %w", err))
	}

	sampler := b.cfg.Sampler
	if resp.Info != "" {
		var info generationInfo
		if err := json.Unmarshal([]byte(resp.Info), &info); err != nil {
			slog.Debug("info の解析をスキップします", "error", err)
		} else {
			if info.Seed != nil && *info.Seed >= 0 {
				seed = *info.Seed
			}
			if info.SamplerName != "" {
				sampler = info.SamplerName
			}
		}
	}

	return &backend.Result{
		Image: domain.Image{Data: data, MimeType: "image/png"},
		Metadata: domain.MetadataRecord{
			Prompt:         req.Prompt,
			NegativePrompt: req.NegativePrompt,
			Width:          req.Width,
			Height:         req.Height,
			Steps:          req.Steps,
			GuidanceScale:  req.GuidanceScale,
			Seed:           seed,
			Timestamp:      b.now(),
			Model:          b.modelName(ctx),
			Sampler:        sampler,
		},
	}, nil
}

// probe は options をキャッシュ越しに取得するのだ。
func (b *Backend) probe(ctx context.Context) (*options, error) {
	if cached, found := b.probes.Get(optionsKey); found {
		if opts, ok := cached.(*options); ok {
			return opts, nil
		}
	}
	raw, err := b.client.FetchBytes(ctx, b.cfg.BaseURL+optionsPath)
	if err != nil {
		return nil, err
	}
	var opts options
	if err := json.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("options の解析に失敗しました: %w", err)
	}
	b.probes.Set(optionsKey, &opts, cache.DefaultExpiration)
	return &opts, nil
}

func (b *Backend) modelName(ctx context.Context) string {
	opts, err := b.probe(ctx)
	if err != nil {
		slog.Warn("モデル名を取得できませんでした", "error", err)
		return ""
	}
	return opts.Checkpoint
}

// trimDataURL は "data:image/png;base64," のような接頭辞を取り除きます。
func trimDataURL(s string) string {
	if i := strings.Index(s, ","); i >= 0 && strings.HasPrefix(s, "data:") {
		return s[i+1:]
	}
	return s
}
