package backend

import (
	"errors"
	"testing"

	"github.com/shouni/go-sprite-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
)

func TestResolveSeed(t *testing.T) {
	t.Run("明示的なシードはそのまま使うのだ", func(t *testing.T) {
		assert.Equal(t, int64(0), ResolveSeed(0))
		assert.Equal(t, int64(12345), ResolveSeed(12345))
	})

	t.Run("負のシードは範囲内の具体値になるのだ", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			s := ResolveSeed(domain.RandomSeed)
			assert.GreaterOrEqual(t, s, int64(0))
			assert.LessOrEqual(t, s, MaxSeed)
		}
	})
}

func TestGenerationError(t *testing.T) {
	err := NewGenerationError("webui", ErrNotReady)
	assert.ErrorIs(t, err, ErrNotReady)

	var genErr *GenerationError
	assert.True(t, errors.As(err, &genErr))
	assert.Equal(t, "webui", genErr.Backend)
	assert.Contains(t, err.Error(), "webui")
}

func TestNewRequest(t *testing.T) {
	params := domain.GenerationParams{NegativePrompt: "blurry", Width: 32, Height: 48, Steps: 10, GuidanceScale: 5, Seed: 9}
	req := NewRequest("slime", params)
	assert.Equal(t, Request{Prompt: "slime", NegativePrompt: "blurry", Width: 32, Height: 48, Steps: 10, GuidanceScale: 5, Seed: 9}, req)
}
