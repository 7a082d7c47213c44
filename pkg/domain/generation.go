package domain

import "time"

// RandomSeed はバックエンドにシードの選択を任せる番兵値です。
const RandomSeed int64 = -1

// GenerationParams は1枚の画像生成に渡すパラメータです。
type GenerationParams struct {
	NegativePrompt string
	Width          int
	Height         int
	Steps          int
	GuidanceScale  float64
	Seed           int64 // 負の値はランダム
}

// ParamOverrides はアイテム単位でベースパラメータを上書きする値です。
// nil のフィールドは上書きしません。
type ParamOverrides struct {
	NegativePrompt *string
	Width          *int
	Height         *int
	Steps          *int
	GuidanceScale  *float64
	Seed           *int64
}

// Apply は base に上書きを適用した新しいパラメータを返します。base 自体は変更しないのだ。
func (o ParamOverrides) Apply(base GenerationParams) GenerationParams {
	out := base
	if o.NegativePrompt != nil {
		out.NegativePrompt = *o.NegativePrompt
	}
	if o.Width != nil {
		out.Width = *o.Width
	}
	if o.Height != nil {
		out.Height = *o.Height
	}
	if o.Steps != nil {
		out.Steps = *o.Steps
	}
	if o.GuidanceScale != nil {
		out.GuidanceScale = *o.GuidanceScale
	}
	if o.Seed != nil {
		out.Seed = *o.Seed
	}
	return out
}

// GenerationRequest は CLI などの呼び出し元から受け取る生成要求です。
type GenerationRequest struct {
	Category      string
	Description   string
	Biome         string // 空ならバイオームなし
	Animation     string // 空なら単発生成
	Width         int
	Height        int
	Steps         int
	GuidanceScale float64
	Seed          int64
	Count         int
}

// Image は生成された画像データです。
type Image struct {
	Data     []byte
	MimeType string
}

// MetadataRecord は画像と一緒に保存されるメタデータです。
// Seed は常にバックエンドが実際に使った値で、番兵値 -1 が入ることはないのだ。
type MetadataRecord struct {
	Prompt         string    `json:"prompt"`
	NegativePrompt string    `json:"negative_prompt"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Steps          int       `json:"steps"`
	GuidanceScale  float64   `json:"guidance_scale"`
	Seed           int64     `json:"seed"`
	Timestamp      time.Time `json:"timestamp"`
	Model          string    `json:"model,omitempty"`
	Sampler        string    `json:"sampler,omitempty"`
}

// ProgressSink はバッチの進捗を受け取るコールバックです。生成と同じゴルーチンで同期的に呼ばれます。
type ProgressSink func(current, total int, message string)

// StatusSink はモデル読み込み中の状況メッセージを受け取るコールバックです。
type StatusSink func(message string)

// Emit は sink が nil でも安全に呼び出せるようにするヘルパーです。
func (s ProgressSink) Emit(current, total int, message string) {
	if s != nil {
		s(current, total, message)
	}
}

// Emit は sink が nil でも安全に呼び出せるようにするヘルパーです。
func (s StatusSink) Emit(message string) {
	if s != nil {
		s(message)
	}
}
