package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("環境変数が無ければデフォルトなのだ", func(t *testing.T) {
		for _, key := range []string{"SPRITE_TEMPLATES", "SPRITE_OUTPUT_DIR", "SPRITE_BACKEND", "SPRITE_RATE_INTERVAL", "SPRITE_JOURNAL", "SPRITE_FIT_TO_SIZE"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
		cfg := LoadConfig()
		assert.Equal(t, DefaultTemplates, cfg.TemplatesPath)
		assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
		assert.Equal(t, DefaultBackend, cfg.Backend)
		assert.Equal(t, DefaultRateInterval, cfg.RateInterval)
		assert.False(t, cfg.FitToSize)
	})

	t.Run("環境変数を読むのだ", func(t *testing.T) {
		t.Setenv("SPRITE_BACKEND", BackendProcedural)
		t.Setenv("SPRITE_RATE_INTERVAL", "1500ms")
		t.Setenv("SPRITE_FIT_TO_SIZE", "true")
		t.Setenv("SD_WEBUI_URL", "http://gpu-box:7860")
		cfg := LoadConfig()
		assert.Equal(t, BackendProcedural, cfg.Backend)
		assert.Equal(t, 1500*time.Millisecond, cfg.RateInterval)
		assert.True(t, cfg.FitToSize)
		assert.Equal(t, "http://gpu-box:7860", cfg.WebUIURL)
	})

	t.Run("解釈できない値はデフォルトなのだ", func(t *testing.T) {
		t.Setenv("SPRITE_RATE_INTERVAL", "soon")
		t.Setenv("SPRITE_FIT_TO_SIZE", "maybe")
		cfg := LoadConfig()
		assert.Equal(t, DefaultRateInterval, cfg.RateInterval)
		assert.False(t, cfg.FitToSize)
	})
}

func TestApplyOptions(t *testing.T) {
	cfg := &Config{TemplatesPath: "a.json", OutputDir: "out", Backend: BackendWebUI, JournalPath: "h.db", HTTPTimeout: time.Second}
	cfg.ApplyOptions(GenerateOptions{Backend: BackendGemini, NoJournal: true, Count: 3})

	assert.Equal(t, "a.json", cfg.TemplatesPath)
	assert.Equal(t, BackendGemini, cfg.Backend)
	assert.Empty(t, cfg.JournalPath)
	assert.Equal(t, time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.Options.Count)
}
