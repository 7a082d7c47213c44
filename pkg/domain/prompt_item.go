package domain

// ItemKind は PromptItem の種別タグです。
type ItemKind int

const (
	// ItemPlain は合成済みプロンプトのみを持つアイテムです。
	ItemPlain ItemKind = iota
	// ItemOverridden はプロンプトに加えてパラメータ上書きを持つアイテムです。
	ItemOverridden
)

func (k ItemKind) String() string {
	switch k {
	case ItemPlain:
		return "plain"
	case ItemOverridden:
		return "overridden"
	default:
		return "unknown"
	}
}

// PromptItem はバッチの1要素です。種別はタグで判別し、形の推測はしません。
type PromptItem struct {
	kind      ItemKind
	prompt    string
	overrides ParamOverrides
}

// PlainItem はプロンプトのみのアイテムを作ります。
func PlainItem(prompt string) PromptItem {
	return PromptItem{kind: ItemPlain, prompt: prompt}
}

// OverriddenItem はパラメータ上書き付きのアイテムを作ります。
func OverriddenItem(prompt string, overrides ParamOverrides) PromptItem {
	return PromptItem{kind: ItemOverridden, prompt: prompt, overrides: overrides}
}

// PlainItems は文字列の列を PlainItem の列に変換します。
func PlainItems(prompts []string) []PromptItem {
	items := make([]PromptItem, 0, len(prompts))
	for _, p := range prompts {
		items = append(items, PlainItem(p))
	}
	return items
}

func (i PromptItem) Kind() ItemKind { return i.kind }

func (i PromptItem) Prompt() string { return i.prompt }

// Overrides は上書き値を返します。ItemOverridden 以外では ok が false になります。
func (i PromptItem) Overrides() (ParamOverrides, bool) {
	if i.kind != ItemOverridden {
		return ParamOverrides{}, false
	}
	return i.overrides, true
}
