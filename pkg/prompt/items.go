package prompt

import "github.com/shouni/go-sprite-kit/pkg/domain"

// Items は生成要求からバッチのアイテム列と、出力名の語幹を組み立てます。
// アニメーション指定があればフレームごとに1枚、なければ同じプロンプトを Count 枚なのだ。
func (c *Composer) Items(req domain.GenerationRequest) ([]domain.PromptItem, string) {
	if req.Animation != "" {
		prompts := c.AnimationPrompts(req.Animation, req.Category, req.Description, req.Biome)
		return domain.PlainItems(prompts), req.Animation
	}

	count := req.Count
	if count < 1 {
		count = 1
	}

	full := c.BuildFullPrompt(req.Category, req.Description, req.Biome)
	items := make([]domain.PromptItem, count)
	for i := range items {
		items[i] = domain.PlainItem(full)
	}
	return items, req.Category
}

// Preview は Items と同じ展開で最終プロンプトだけを返します。生成はしないのだ。
func (c *Composer) Preview(req domain.GenerationRequest) ([]string, string) {
	items, stem := c.Items(req)
	prompts := make([]string, len(items))
	for i, item := range items {
		prompts[i] = item.Prompt()
	}
	return prompts, stem
}

// BaseParams は要求とテンプレート文書の既定値からバッチ共通のパラメータを作ります。
// ネガティブプロンプトは常に文書の既定値を使います。
func BaseParams(req domain.GenerationRequest, defaults domain.DefaultSettings) domain.GenerationParams {
	params := domain.GenerationParams{
		NegativePrompt: defaults.NegativePrompt,
		Width:          req.Width,
		Height:         req.Height,
		Steps:          req.Steps,
		GuidanceScale:  req.GuidanceScale,
		Seed:           req.Seed,
	}
	if params.Steps <= 0 {
		params.Steps = defaults.NumInferenceSteps
	}
	if params.GuidanceScale <= 0 {
		params.GuidanceScale = defaults.GuidanceScale
	}
	return params
}
