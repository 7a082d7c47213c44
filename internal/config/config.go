package config

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/shouni/go-sprite-kit/pkg/asset"
	"github.com/shouni/go-sprite-kit/pkg/backend/gemini"
	"github.com/shouni/go-sprite-kit/pkg/templates"

	"github.com/shouni/go-utils/envutil"
)

// バックエンド名なのだ
const (
	BackendWebUI      = "webui"
	BackendGemini     = "gemini"
	BackendProcedural = "procedural"
)

// デフォルト値の定義なのだ
const (
	DefaultBackend      = BackendWebUI
	DefaultWebUIURL     = "http://127.0.0.1:7860"
	DefaultSampler      = "Euler a"
	DefaultImageModel   = gemini.DefaultModel
	DefaultHTTPTimeout  = 5 * time.Minute
	DefaultRateInterval = 0 * time.Second
	DefaultJournalPath  = "output/history.db"
	DefaultTemplates    = templates.DefaultTemplateFileName
	DefaultOutputDir    = asset.DefaultOutputDir
)

// Config はアプリケーション全体の環境設定（接続先や保存先）を保持する構造体なのだ。
type Config struct {
	TemplatesPath    string
	OutputDir        string
	Backend          string
	WebUIURL         string
	Sampler          string
	GeminiAPIKey     string
	GeminiImageModel string
	JournalPath      string // 空なら生成履歴を記録しない
	RateInterval     time.Duration
	HTTPTimeout      time.Duration
	FitToSize        bool

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	cfg := &Config{
		TemplatesPath:    envutil.GetEnv("SPRITE_TEMPLATES", DefaultTemplates),
		OutputDir:        envutil.GetEnv("SPRITE_OUTPUT_DIR", DefaultOutputDir),
		Backend:          envutil.GetEnv("SPRITE_BACKEND", DefaultBackend),
		WebUIURL:         envutil.GetEnv("SD_WEBUI_URL", DefaultWebUIURL),
		Sampler:          envutil.GetEnv("SD_SAMPLER", DefaultSampler),
		GeminiAPIKey:     envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiImageModel: envutil.GetEnv("GEMINI_IMAGE_MODEL", DefaultImageModel),
		JournalPath:      envutil.GetEnv("SPRITE_JOURNAL", DefaultJournalPath),
		RateInterval:     durationEnv("SPRITE_RATE_INTERVAL", DefaultRateInterval),
		HTTPTimeout:      durationEnv("SPRITE_HTTP_TIMEOUT", DefaultHTTPTimeout),
		FitToSize:        boolEnv("SPRITE_FIT_TO_SIZE", false),
	}
	return cfg
}

// ApplyOptions は CLI フラグで明示された値を設定に反映するのだ。
func (c *Config) ApplyOptions(opts GenerateOptions) {
	c.Options = opts
	if opts.TemplatesPath != "" {
		c.TemplatesPath = opts.TemplatesPath
	}
	if opts.OutputDir != "" {
		c.OutputDir = opts.OutputDir
	}
	if opts.Backend != "" {
		c.Backend = opts.Backend
	}
	if opts.HTTPTimeout > 0 {
		c.HTTPTimeout = opts.HTTPTimeout
	}
	if opts.NoJournal {
		c.JournalPath = ""
	}
	if opts.FitToSize {
		c.FitToSize = true
	}
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 入出力関連
	TemplatesPath string // --templates
	OutputDir     string // --output-dir
	NoJournal     bool   // --no-journal

	// 生成要求
	Category    string  // --category
	Description string  // --description
	Biome       string  // --biome
	Animation   string  // --animation
	Resolution  string  // --resolution
	Steps       int     // --steps
	Guidance    float64 // --guidance
	Seed        int64   // --seed
	Count       int     // --count
	FitToSize   bool    // --fit

	// 実行制御
	Backend     string        // --backend
	HTTPTimeout time.Duration // --http-timeout
}

func durationEnv(key string, def time.Duration) time.Duration {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("環境変数の値を解釈できないためデフォルトを使います", "key", key, "value", raw, "error", err)
		return def
	}
	return d
}

func boolEnv(key string, def bool) bool {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("環境変数の値を解釈できないためデフォルトを使います", "key", key, "value", raw, "error", err)
		return def
	}
	return b
}
