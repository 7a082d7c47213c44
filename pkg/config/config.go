package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// デフォルト値の定義
const (
	DefaultOutputRoot    = "output"
	DefaultResolution    = "512x512"
	DefaultCount         = 1
	MaxCount             = 50
	DefaultRateInterval  = 0 * time.Second
	DefaultLoadTimeout   = 2 * time.Minute
	DefaultHistoryLimit  = 20
	DefaultBiomeDisabled = "ninguno" // バイオームなしを表す GUI 由来の値なのだ
)

// Resolutions はドット絵向けに用意した解像度の候補です。
var Resolutions = []string{"16x16", "32x32", "64x64", "128x128", "256x256", "512x512"}

// Config は go-sprite-kit の Runner を動作させるための基本設定です。
type Config struct {
	// --- Output Settings ---
	OutputRoot string // バッチごとのディレクトリを作る親ディレクトリ
	FitToSize  bool   // 保存時に要求解像度へ最近傍補間で合わせる

	// --- Generation Settings ---
	RateInterval time.Duration // アイテム間の最小間隔（0で無効）

	// --- Timeout ---
	LoadTimeout time.Duration
}

// Default はデフォルト値で埋めた Config を返します。
func Default() Config {
	return Config{
		OutputRoot:   DefaultOutputRoot,
		RateInterval: DefaultRateInterval,
		LoadTimeout:  DefaultLoadTimeout,
	}
}

// ParseResolution は "WxH" 形式の文字列を幅と高さに分解します。
func ParseResolution(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("解像度 %q は WxH 形式で指定してください", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("解像度 %q の幅が不正です", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("解像度 %q の高さが不正です", s)
	}
	return width, height, nil
}

// NormalizeBiome は "ninguno" や "none" をバイオームなし（空文字）に揃えるのだ。
func NormalizeBiome(biome string) string {
	switch strings.ToLower(strings.TrimSpace(biome)) {
	case "", DefaultBiomeDisabled, "none":
		return ""
	default:
		return strings.TrimSpace(biome)
	}
}
