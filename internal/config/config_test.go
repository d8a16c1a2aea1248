package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("MODEL", "gemini-2.5-pro")
	t.Setenv("GEMINI_API_KEY", "key-from-env")
	t.Setenv("TRAVELER_ID", "t-9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-pro", cfg.Model)
	assert.Equal(t, "key-from-env", cfg.GeminiAPIKey)
	assert.Equal(t, "t-9", cfg.TravelerID)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{Model: "gemini-2.0-flash", GeminiAPIKey: "k"}

	t.Run("ok", func(t *testing.T) {
		c := base
		assert.NoError(t, c.Validate())
	})

	t.Run("missing model", func(t *testing.T) {
		c := base
		c.Model = "  "
		assert.Error(t, c.Validate())
	})

	t.Run("missing api key", func(t *testing.T) {
		c := base
		c.GeminiAPIKey = ""
		assert.Error(t, c.Validate())
	})

	t.Run("fake model needs no key", func(t *testing.T) {
		c := Config{Model: "FAKE"}
		assert.NoError(t, c.Validate())
		assert.True(t, c.UseFake())
	})

	t.Run("skip collect needs traveler id", func(t *testing.T) {
		c := base
		c.SkipCollect = true
		assert.Error(t, c.Validate())
		c.TravelerID = "t1"
		assert.NoError(t, c.Validate())
	})
}
