package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/tinyhtml/internal/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, "console", cfg.Logger().Format)
	assert.Equal(t, "tinyhtml", cfg.Logger().ServiceName)
	assert.Equal(t, 1280.0, cfg.Environment().ViewportWidth)
	assert.Equal(t, 800.0, cfg.Environment().ViewportHeight)
	assert.Equal(t, 400*time.Millisecond, cfg.Effects().DefaultDuration)
	assert.True(t, cfg.Effects().CancelOnReplace)
	assert.Equal(t, 500*time.Millisecond, cfg.Messaging().LivenessInterval)
	assert.Empty(t, cfg.Messaging().PeerOrigin)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tinyhtml.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logger:
  level: debug
  format: json
environment:
  viewport_width: 1920
  viewport_height: 1080
messaging:
  liveness_interval: 250ms
  peer_origin: "https://app.example"
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "json", cfg.Logger().Format)
	assert.Equal(t, 1920.0, cfg.Environment().ViewportWidth)
	assert.Equal(t, 250*time.Millisecond, cfg.Messaging().LivenessInterval)
	assert.Equal(t, "https://app.example", cfg.Messaging().PeerOrigin)

	// Untouched sections keep their defaults.
	assert.True(t, cfg.Effects().CancelOnReplace)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment:
  viewport_width: -5
`), 0o600))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/tinyhtml.yaml")
	assert.Error(t, err)
}

func TestSetters(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.SetEnvironmentViewport(640, 480)
	assert.Equal(t, 640.0, cfg.Environment().ViewportWidth)
	cfg.SetEffectsCancelOnReplace(false)
	assert.False(t, cfg.Effects().CancelOnReplace)
}
