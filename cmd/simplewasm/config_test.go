package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/wippyai/simple-wasm/errors"
	"github.com/wippyai/simple-wasm/fixture"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("", mapLookup(nil))
	require.NoError(t, err)
	assert.Equal(t, "simple.wasm", cfg.Out)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, fixture.DefaultOptions(), cfg.Build)
	assert.Zero(t, cfg.MemoryLimitPages)
}

func TestLoadConfigEnv(t *testing.T) {
	cfg, err := loadConfig("", mapLookup(map[string]string{
		envOut:              "out.wasm",
		envStrategy:         "memory",
		envPlacement:        "data",
		envNames:            "false",
		envSectionBase:      "4096",
		envLogLevel:         "DEBUG",
		envMemoryLimitPages: "16",
	}))
	require.NoError(t, err)
	assert.Equal(t, "out.wasm", cfg.Out)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, fixture.StrategyMemory, cfg.Build.Strategy)
	assert.Equal(t, fixture.PlacementData, cfg.Build.Placement)
	assert.False(t, cfg.Build.Names)
	assert.Equal(t, uint32(4096), cfg.Build.SectionBase)
	assert.Equal(t, uint32(16), cfg.MemoryLimitPages)
}

func TestLoadConfigDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SIMPLEWASM_STRATEGY=memory\nSIMPLEWASM_OUT=from-file.wasm\n"), 0o644))

	cfg, err := loadConfig(path, mapLookup(map[string]string{envOut: "from-env.wasm"}))
	require.NoError(t, err)
	assert.Equal(t, fixture.StrategyMemory, cfg.Build.Strategy)
	assert.Equal(t, "from-env.wasm", cfg.Out, "process environment wins over the file")
}

func TestLoadConfigMissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := loadConfig(defaultEnvFile, mapLookup(nil))
	assert.NoError(t, err, "missing default file is ignored")

	_, err = loadConfig(filepath.Join(dir, "missing.env"), mapLookup(nil))
	assert.Error(t, err, "missing explicit file is an error")
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		envStrategy:         "stack",
		envPlacement:        "section",
		envNames:            "maybe",
		envSectionBase:      "-1",
		envMemoryLimitPages: "lots",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			_, err := loadConfig("", mapLookup(map[string]string{key: value}))
			require.Error(t, err)
			assert.ErrorIs(t, err, werrors.New(werrors.PhaseConfig, werrors.KindInvalidInput).Build())
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := newLogger(level)
		require.NoError(t, err, level)
		require.NotNil(t, log)
	}
	_, err := newLogger("loud")
	assert.Error(t, err)
}
