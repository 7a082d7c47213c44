package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResolution(t *testing.T) {
	for _, r := range Resolutions {
		t.Run(r, func(t *testing.T) {
			w, h, err := ParseResolution(r)
			require.NoError(t, err)
			assert.Equal(t, w, h)
		})
	}

	w, h, err := ParseResolution(" 64X32 ")
	require.NoError(t, err)
	assert.Equal(t, 64, w)
	assert.Equal(t, 32, h)

	for _, bad := range []string{"", "64", "x64", "64x", "0x64", "-1x5", "axb"} {
		_, _, err := ParseResolution(bad)
		assert.Error(t, err, bad)
	}
}

func TestNormalizeBiome(t *testing.T) {
	assert.Equal(t, "", NormalizeBiome("ninguno"))
	assert.Equal(t, "", NormalizeBiome("None"))
	assert.Equal(t, "", NormalizeBiome("  "))
	assert.Equal(t, "forest", NormalizeBiome(" forest "))
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultOutputRoot, cfg.OutputRoot)
	assert.Zero(t, cfg.RateInterval)
	assert.Equal(t, DefaultLoadTimeout, cfg.LoadTimeout)
}
