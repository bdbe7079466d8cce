package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultRoundTrip(t *testing.T) {
	data, err := Default().Encode()
	require.NoError(t, err)

	cfg, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseOverridesDefaults(t *testing.T) {
	doc := `
[window]
title = "demo"

[renderer]
render_path = "deferred"
msaa = 1

[profiler]
enabled = true
interval = "250ms"
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Window.Title)
	assert.Equal(t, 1280, cfg.Window.Width, "unset keys keep their default")
	assert.Equal(t, common.RenderPathDeferred, cfg.RenderPath())
	assert.Equal(t, uint32(backend.MSAAOff), cfg.Renderer.MSAA)
	assert.True(t, cfg.Profiler.Enabled)
	assert.Equal(t, Duration(250*time.Millisecond), cfg.Profiler.Interval)
}

func TestParseOptionsWinOverFile(t *testing.T) {
	cfg, err := Parse([]byte("[renderer]\nrender_path = \"deferred\"\n"), WithRenderPath(common.RenderPathForward), WithPresentMode(backend.PresentModeUncapped))
	require.NoError(t, err)
	assert.Equal(t, common.RenderPathForward, cfg.RenderPath())
	mode, err := cfg.PresentMode()
	require.NoError(t, err)
	assert.Equal(t, backend.PresentModeUncapped, mode)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("[window]\ncolour = \"red\"\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		option Option
	}{
		{"window size", WithWindowSize(0, 720)},
		{"present mode", func(c *Config) { c.Renderer.PresentMode = "sometimes" }},
		{"msaa", WithMSAA(3)},
		{"render path", func(c *Config) { c.Renderer.RenderPath = "raytraced" }},
		{"workers", WithCompileWorkers(0)},
		{"log level", WithLogLevel("loud")},
		{"profiler interval", WithProfiler(true, 0)},
		{"tick rate", WithTickRate(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Apply(tt.option)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.toml"), WithTitle("fallback"))
	require.NoError(t, err)
	assert.Equal(t, "fallback", cfg.Window.Title)

	path := filepath.Join(dir, "oxy.toml")
	require.NoError(t, os.WriteFile(path, []byte("[engine]\ntick_rate = 30.0\n"), 0o600))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 30.0, cfg.Engine.TickRate)
}

func TestNewLogger(t *testing.T) {
	logger, err := LogConfig{Level: "warn"}.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	dev, err := LogConfig{Level: "debug", Development: true}.NewLogger()
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	_, err = LogConfig{Level: "loud"}.NewLogger()
	assert.Error(t, err)
}
