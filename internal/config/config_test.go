package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fxnlabs/cascaded-bench/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config, err := LoadConfig("../../fixtures/tests/config/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, config)

		assert.Equal(t, "debug", config.Logger.Verbosity)
		assert.Equal(t, "cpu", config.Device.Backend)
		assert.Equal(t, int64(1048576), config.Device.MemoryLimit)
		assert.Equal(t, 4096, config.Engine.ChunkElements)
		assert.Equal(t, 2, config.Engine.Workers)
		assert.Equal(t, "/tmp/cascaded_bench.prom", config.Metrics.Textfile)
	})

	t.Run("partial config keeps defaults", func(t *testing.T) {
		config, err := LoadConfig("../../fixtures/tests/config/partial_config.yaml")
		require.NoError(t, err)

		assert.Equal(t, 3, config.Engine.Workers)
		assert.Equal(t, "warn", config.Logger.Verbosity)
		assert.Equal(t, "auto", config.Device.Backend)
		assert.Equal(t, 65536, config.Engine.ChunkElements)
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := LoadConfig("non-existent-file.yaml")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir, err := os.Getwd()
		require.NoError(t, err)

		configPath := filepath.Join(dir, "..", "..", "fixtures", "tests", "invalid_config", "config.yaml")
		_, err = LoadConfig(configPath)
		assert.Error(t, err)
	})
}

func TestConfigTemplateMatchesDefaults(t *testing.T) {
	config := Default()
	require.NoError(t, yaml.Unmarshal(fixtures.ConfigTemplate, config))
	assert.Equal(t, Default(), config)
}
