// Package config loads the engine settings from TOML. Every setting has a default, a file may
// override any subset of them, and functional options override the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid")

// Duration is a time.Duration written as a Go duration string ("1s", "250ms") in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// WindowConfig holds the window settings.
type WindowConfig struct {
	Title  string `toml:"title"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
}

// RendererConfig holds the backend and renderer settings.
type RendererConfig struct {
	PresentMode    string     `toml:"present_mode"`
	MSAA           uint32     `toml:"msaa"`
	RenderPath     string     `toml:"render_path"`
	CompileWorkers int        `toml:"compile_workers"`
	FrustumCulling bool       `toml:"frustum_culling"`
	ForceSoftware  bool       `toml:"force_software"`
	ClearColor     [4]float64 `toml:"clear_color"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// ProfilerConfig holds the profiler settings.
type ProfilerConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval"`
}

// EngineConfig holds the loop settings.
type EngineConfig struct {
	// TickRate is the fixed update rate in ticks per second.
	TickRate float64 `toml:"tick_rate"`
	// FrameLimit caps the render rate in frames per second. 0 is uncapped.
	FrameLimit float64 `toml:"frame_limit"`
}

// Config is the complete engine configuration.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Log      LogConfig      `toml:"log"`
	Profiler ProfilerConfig `toml:"profiler"`
	Engine   EngineConfig   `toml:"engine"`
}

// Default returns the configuration used when no file or option says otherwise.
//
// Returns:
//   - Config: the defaults
func Default() Config {
	return Config{
		Window: WindowConfig{Title: "oxy", Width: 1280, Height: 720},
		Renderer: RendererConfig{
			PresentMode:    backend.PresentModeVSync.String(),
			MSAA:           uint32(backend.MSAA4x),
			RenderPath:     common.RenderPathForward.String(),
			CompileWorkers: 4,
			FrustumCulling: true,
			ClearColor:     [4]float64{0.1, 0.1, 0.1, 1},
		},
		Log:      LogConfig{Level: "info"},
		Profiler: ProfilerConfig{Interval: Duration(time.Second)},
		Engine:   EngineConfig{TickRate: 60},
	}
}

// Parse decodes TOML over the defaults, applies the options and validates the result.
// Unknown keys are rejected.
//
// Parameters:
//   - data: the TOML document
//   - options: overrides applied after decoding
//
// Returns:
//   - Config: the configuration
//   - error: a decode error or an error wrapping ErrInvalid
func Parse(data []byte, options ...Option) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("config: %s", strict.String())
		}
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Apply(options...)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses a TOML file. A missing file yields the defaults with the options applied.
//
// Parameters:
//   - path: the file path
//   - options: overrides applied after decoding
//
// Returns:
//   - Config: the configuration
//   - error: a read, decode or validation error
func Load(path string, options ...Option) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Parse(nil, options...)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, options...)
}

// Encode writes the configuration as TOML.
//
// Returns:
//   - []byte: the TOML document
//   - error: an encoding error
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Apply applies options in order.
func (c *Config) Apply(options ...Option) {
	for _, opt := range options {
		opt(c)
	}
}

// Validate checks every setting.
//
// Returns:
//   - error: an error wrapping ErrInvalid, or nil
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height))
	}
	if _, err := c.PresentMode(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalid, err))
	}
	if !backend.MSAASampleCount(c.Renderer.MSAA).Valid() {
		errs = append(errs, fmt.Errorf("%w: msaa %d", ErrInvalid, c.Renderer.MSAA))
	}
	if _, ok := common.ParseRenderPath(c.Renderer.RenderPath); !ok {
		errs = append(errs, fmt.Errorf("%w: render path %q", ErrInvalid, c.Renderer.RenderPath))
	}
	if c.Renderer.CompileWorkers < 1 {
		errs = append(errs, fmt.Errorf("%w: compile workers %d", ErrInvalid, c.Renderer.CompileWorkers))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level))
	}
	if c.Profiler.Interval <= 0 {
		errs = append(errs, fmt.Errorf("%w: profiler interval %s", ErrInvalid, time.Duration(c.Profiler.Interval)))
	}
	if c.Engine.TickRate <= 0 || c.Engine.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("%w: tick rate %g, frame limit %g", ErrInvalid, c.Engine.TickRate, c.Engine.FrameLimit))
	}
	return errors.Join(errs...)
}

// PresentMode returns the parsed present mode.
func (c Config) PresentMode() (backend.PresentMode, error) {
	return backend.ParsePresentMode(c.Renderer.PresentMode)
}

// RenderPath returns the parsed render path, or forward if it is not recognised.
func (c Config) RenderPath() common.RenderPath {
	p, _ := common.ParseRenderPath(c.Renderer.RenderPath)
	return p
}

// NewLogger builds the process logger: zap's production configuration, or its development
// configuration when Development is set, at the configured level.
//
// Returns:
//   - *zap.Logger: the logger
//   - error: an error if the level is unknown or the logger cannot be built
func (c LogConfig) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
