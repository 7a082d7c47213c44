package gemini

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/shouni/go-sprite-kit/pkg/backend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type mockGenerator struct {
	resp       *genai.GenerateContentResponse
	err        error
	lastModel  string
	lastText   string
	lastConfig *genai.GenerateContentConfig
}

func (m *mockGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m.lastModel = model
	m.lastConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		m.lastText = contents[0].Parts[0].Text
	}
	return m.resp, m.err
}

func imageResponse() *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{
					{Text: "here you go"},
					{InlineData: &genai.Blob{MIMEType: "image/png", Data: []byte("fake")}},
				},
			},
		}},
	}
}

func TestLoad(t *testing.T) {
	t.Run("API キーが無ければ失敗するのだ", func(t *testing.T) {
		b := New(Config{})
		var messages []string
		assert.False(t, b.Load(context.Background(), func(m string) { messages = append(messages, m) }))
		assert.False(t, b.IsReady())
		assert.Contains(t, messages[len(messages)-1], "GEMINI_API_KEY")
	})

	t.Run("注入したジェネレーターで準備完了になるのだ", func(t *testing.T) {
		b := NewWithGenerator(Config{}, &mockGenerator{})
		assert.True(t, b.Load(context.Background(), nil))
		assert.True(t, b.IsReady())
	})
}

func TestGenerate(t *testing.T) {
	t.Run("未ロードなら ErrNotReady なのだ", func(t *testing.T) {
		_, err := NewWithGenerator(Config{}, &mockGenerator{}).Generate(context.Background(), backend.Request{})
		assert.ErrorIs(t, err, backend.ErrNotReady)
	})

	t.Run("画像とシードを返すのだ", func(t *testing.T) {
		gen := &mockGenerator{resp: imageResponse()}
		b := NewWithGenerator(Config{Model: "test-model"}, gen)
		require.True(t, b.Load(context.Background(), nil))

		res, err := b.Generate(context.Background(), backend.Request{
			Prompt: "pixel hero", NegativePrompt: "blurry", Width: 64, Height: 64, Seed: 1234,
		})
		require.NoError(t, err)
		assert.Equal(t, []byte("fake"), res.Image.Data)
		assert.Equal(t, "image/png", res.Image.MimeType)
		assert.Equal(t, int64(1234), res.Metadata.Seed)
		assert.Equal(t, "test-model", res.Metadata.Model)
		assert.Equal(t, "test-model", gen.lastModel)
		assert.Equal(t, int32(1234), *gen.lastConfig.Seed)
		assert.Contains(t, gen.lastText, "pixel hero")
		assert.Contains(t, gen.lastText, "Avoid: blurry")
	})

	t.Run("ランダムシードは int32 に収まるのだ", func(t *testing.T) {
		b := NewWithGenerator(Config{}, &mockGenerator{resp: imageResponse()})
		require.True(t, b.Load(context.Background(), nil))
		for i := 0; i < 50; i++ {
			res, err := b.Generate(context.Background(), backend.Request{Prompt: "x", Seed: -1})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, res.Metadata.Seed, int64(0))
			assert.LessOrEqual(t, res.Metadata.Seed, int64(math.MaxInt32))
		}
	})

	t.Run("範囲外の明示シードはエラーなのだ", func(t *testing.T) {
		b := NewWithGenerator(Config{}, &mockGenerator{resp: imageResponse()})
		require.True(t, b.Load(context.Background(), nil))
		_, err := b.Generate(context.Background(), backend.Request{Prompt: "x", Seed: math.MaxInt32 + 1})
		assert.Error(t, err)
	})

	t.Run("API エラーは GenerationError なのだ", func(t *testing.T) {
		b := NewWithGenerator(Config{}, &mockGenerator{err: errors.New("quota exceeded")})
		require.True(t, b.Load(context.Background(), nil))
		_, err := b.Generate(context.Background(), backend.Request{Prompt: "x", Seed: 1})
		var genErr *backend.GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("画像が無い応答はエラーなのだ", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "sorry"}}}}}}
		b := NewWithGenerator(Config{}, &mockGenerator{resp: resp})
		require.True(t, b.Load(context.Background(), nil))
		_, err := b.Generate(context.Background(), backend.Request{Prompt: "x", Seed: 1})
		assert.Error(t, err)
	})
}
