package prompt

import (
	"strings"

	"github.com/shouni/go-sprite-kit/pkg/domain"
)

// segmentSeparator はプロンプト断片の区切り文字なのだ。
const segmentSeparator = ", "

// TemplateSource は Composer が参照するテンプレートの読み取り口です。
// templates.Store がこれを満たします。
type TemplateSource interface {
	Preprompt(category string) (domain.Preprompt, bool)
	Biome(name string) (string, bool)
	Frames(animation string) ([]string, bool)
}

// Composer はテンプレートの各層と説明文を決定論的にプロンプトへ合成します。
// 隠れた乱数は使わないため、同じ入力からは常に同じ文字列が得られるのだ。
type Composer struct {
	source TemplateSource
}

// NewComposer は新しい Composer を生成します。
func NewComposer(source TemplateSource) *Composer {
	return &Composer{source: source}
}

// Preprompt はカテゴリの base, style, quality を空でないものだけ結合して返します。
// 未知のカテゴリでは空文字を返すのだ。
func (c *Composer) Preprompt(category string) string {
	p, _ := c.source.Preprompt(category)
	return joinNonEmpty(p.Fragments()...)
}

// BuildFullPrompt は [プリプロンプト, 説明文, バイオーム描写] の順で結合します。
// biome が空、または未登録の場合はバイオームの断片を付けません。
func (c *Composer) BuildFullPrompt(category, description, biome string) string {
	return joinNonEmpty(c.Preprompt(category), description, c.biomeDescriptor(biome))
}

// AnimationPrompts はアニメーションの各フレームごとにプロンプトを1つずつ、フレーム順で返します。
// 未知のアニメーション名では空のスライスを返すのだ。
func (c *Composer) AnimationPrompts(animation, category, baseDescription, biome string) []string {
	frames, _ := c.source.Frames(animation)

	prompts := make([]string, 0, len(frames))
	for _, frame := range frames {
		merged := joinNonEmpty(baseDescription, frame)
		prompts = append(prompts, c.BuildFullPrompt(category, merged, biome))
	}
	return prompts
}

func (c *Composer) biomeDescriptor(biome string) string {
	if biome == "" {
		return ""
	}
	desc, _ := c.source.Biome(biome)
	return desc
}

// joinNonEmpty は空白のみの断片を除いてカンマ区切りで結合するのだ。
func joinNonEmpty(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			clean = append(clean, s)
		}
	}
	return strings.Join(clean, segmentSeparator)
}
