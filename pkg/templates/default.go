package templates

import "github.com/shouni/go-sprite-kit/pkg/domain"

// 組み込みの既定値なのだ
const (
	DefaultCategory         = "personajes"
	DefaultNegativePrompt   = "blurry, 3D, realistic"
	DefaultInferenceSteps   = 50
	DefaultGuidanceScale    = 7.5
	DefaultTemplateFileName = "config/prompts_templates.json"
	defaultCharacterBase    = "pixel art character sprite"
	defaultCharacterStyle   = "retro gaming style"
	defaultCharacterQuality = "high quality pixel art"
)

// DefaultDocument はテンプレート文書が使えないときの最小構成を返します。
func DefaultDocument() domain.TemplateDocument {
	return domain.TemplateDocument{
		Preprompts: domain.TemplateSet{
			DefaultCategory: {
				Base:    defaultCharacterBase,
				Style:   defaultCharacterStyle,
				Quality: defaultCharacterQuality,
			},
		},
		Animations: domain.AnimationMap{},
		Biomes:     domain.BiomeMap{},
		Defaults: domain.DefaultSettings{
			NegativePrompt:    DefaultNegativePrompt,
			NumInferenceSteps: DefaultInferenceSteps,
			GuidanceScale:     DefaultGuidanceScale,
			Seed:              domain.RandomSeed,
		},
	}
}

// fillDefaults は使えない推論設定（0以下のステップ数やガイダンス）を組み込みの値で補います。
func fillDefaults(d domain.DefaultSettings) domain.DefaultSettings {
	if d.NumInferenceSteps <= 0 {
		d.NumInferenceSteps = DefaultInferenceSteps
	}
	if d.GuidanceScale <= 0 {
		d.GuidanceScale = DefaultGuidanceScale
	}
	return d
}
