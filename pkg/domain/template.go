package domain

// Preprompt はカテゴリごとのプロンプト断片（ベース・スタイル・品質）を保持します。
// JSON のキー名は既存のテンプレート文書との互換性のためスペイン語のままなのだ。
type Preprompt struct {
	Base    string `json:"base" yaml:"base"`
	Style   string `json:"estilo" yaml:"estilo"`
	Quality string `json:"calidad" yaml:"calidad"`
}

// Fragments は base, style, quality の固定順で断片を返します。
func (p Preprompt) Fragments() []string {
	return []string{p.Base, p.Style, p.Quality}
}

// TemplateSet はカテゴリ名から Preprompt への対応表です。
type TemplateSet map[string]Preprompt

// BiomeMap はバイオーム名から背景描写への対応表です。
type BiomeMap map[string]string

// AnimationMap はアニメーション名からフレーム記述の列への対応表です。
// 列の順序はそのまま出力ファイルの連番になるため、並べ替えてはいけないのだ。
type AnimationMap map[string][]string

// DefaultSettings はテンプレート文書に保存される生成パラメータの既定値です。
type DefaultSettings struct {
	NegativePrompt    string  `json:"negative_prompt" yaml:"negative_prompt"`
	NumInferenceSteps int     `json:"num_inference_steps" yaml:"num_inference_steps"`
	GuidanceScale     float64 `json:"guidance_scale" yaml:"guidance_scale"`
	Seed              int64   `json:"seed" yaml:"seed"`
}

// TemplateDocument は永続化されるテンプレート文書全体です。
type TemplateDocument struct {
	Preprompts TemplateSet     `json:"preprompts" yaml:"preprompts"`
	Animations AnimationMap    `json:"animaciones" yaml:"animaciones"`
	Biomes     BiomeMap        `json:"biomas" yaml:"biomas"`
	Defaults   DefaultSettings `json:"configuracion_default" yaml:"configuracion_default"`
}

// Clone は呼び出し元が内部状態を書き換えられないよう、マップとスライスを複製します。
func (d TemplateDocument) Clone() TemplateDocument {
	out := TemplateDocument{
		Preprompts: make(TemplateSet, len(d.Preprompts)),
		Animations: make(AnimationMap, len(d.Animations)),
		Biomes:     make(BiomeMap, len(d.Biomes)),
		Defaults:   d.Defaults,
	}
	for k, v := range d.Preprompts {
		out.Preprompts[k] = v
	}
	for k, frames := range d.Animations {
		out.Animations[k] = append([]string(nil), frames...)
	}
	for k, v := range d.Biomes {
		out.Biomes[k] = v
	}
	return out
}

// Normalize は nil のマップを空マップに置き換えます。
func (d *TemplateDocument) Normalize() {
	if d.Preprompts == nil {
		d.Preprompts = make(TemplateSet)
	}
	if d.Animations == nil {
		d.Animations = make(AnimationMap)
	}
	if d.Biomes == nil {
		d.Biomes = make(BiomeMap)
	}
}
