// Package config loads the wall display configuration. A file may be JSON,
// TOML or YAML; every key that is missing keeps its default.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/oukeidos/walldisplay/internal/apperrors"
)

// RGB is a colour triple as written in the config file: [r, g, b].
type RGB [3]int

// NRGBA converts the triple into an opaque colour.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: 0xff}
}

type Window struct {
	Fullscreen bool `json:"fullscreen" toml:"fullscreen" yaml:"fullscreen"`
	MenuWidth  int  `json:"menuWidth" toml:"menuWidth" yaml:"menuWidth"`
	FPS        int  `json:"fps" toml:"fps" yaml:"fps"`
	// Width and Height size the window when not fullscreen.
	Width  int `json:"width" toml:"width" yaml:"width"`
	Height int `json:"height" toml:"height" yaml:"height"`
}

type Slideshow struct {
	ImageDelayMs   int    `json:"imageDelayMs" toml:"imageDelayMs" yaml:"imageDelayMs"`
	StartDelayMs   int    `json:"startDelayMs" toml:"startDelayMs" yaml:"startDelayMs"`
	FadeSpeedMs    int    `json:"fadeSpeedMs" toml:"fadeSpeedMs" yaml:"fadeSpeedMs"`
	ErrorDisplayMs int    `json:"errorDisplayMs" toml:"errorDisplayMs" yaml:"errorDisplayMs"`
	FailureText    string `json:"failureText" toml:"failureText" yaml:"failureText"`
	EmptyText      string `json:"emptyText" toml:"emptyText" yaml:"emptyText"`
	// PausedText is shown in the sidebar footer while paused; empty hides it.
	PausedText string `json:"pausedText" toml:"pausedText" yaml:"pausedText"`
}

type Content struct {
	Watch      bool `json:"watch" toml:"watch" yaml:"watch"`
	DebounceMs int  `json:"debounceMs" toml:"debounceMs" yaml:"debounceMs"`
}

type Colors struct {
	Background     RGB `json:"background" toml:"background" yaml:"background"`
	MenuBackground RGB `json:"menuBackground" toml:"menuBackground" yaml:"menuBackground"`
	MenuActive     RGB `json:"menuActive" toml:"menuActive" yaml:"menuActive"`
	MenuInactive   RGB `json:"menuInactive" toml:"menuInactive" yaml:"menuInactive"`
	Spinner        RGB `json:"spinner" toml:"spinner" yaml:"spinner"`
	Failure        RGB `json:"failure" toml:"failure" yaml:"failure"`
}

// Config is built once at start-up and treated as immutable afterwards.
type Config struct {
	Window    Window    `json:"window" toml:"window" yaml:"window"`
	Slideshow Slideshow `json:"slideshow" toml:"slideshow" yaml:"slideshow"`
	Content   Content   `json:"content" toml:"content" yaml:"content"`
	Colors    Colors    `json:"colors" toml:"colors" yaml:"colors"`
}

const (
	DefaultMenuWidth      = 205
	DefaultFPS            = 30
	DefaultWidth          = 1024
	DefaultHeight         = 768
	DefaultImageDelayMs   = 15000
	DefaultStartDelayMs   = 20000
	DefaultFadeSpeedMs    = 200
	DefaultErrorDisplayMs = 2000
	DefaultDebounceMs     = 500
	DefaultFailureText    = "Image unavailable"
	DefaultEmptyText      = "No images"
	DefaultPausedText     = "Paused"

	MinFPS       = 1
	MaxFPS       = 120
	MaxMenuWidth = 4096
	MaxDelayMs   = 24 * 60 * 60 * 1000
	// MinImageDelayMs is the shortest time an image stays up between
	// automatic advances.
	MinImageDelayMs = 1000
)

// Default returns the configuration used for every key the file omits.
func Default() Config {
	return Config{
		Window: Window{
			Fullscreen: true,
			MenuWidth:  DefaultMenuWidth,
			FPS:        DefaultFPS,
			Width:      DefaultWidth,
			Height:     DefaultHeight,
		},
		Slideshow: Slideshow{
			ImageDelayMs:   DefaultImageDelayMs,
			StartDelayMs:   DefaultStartDelayMs,
			FadeSpeedMs:    DefaultFadeSpeedMs,
			ErrorDisplayMs: DefaultErrorDisplayMs,
			FailureText:    DefaultFailureText,
			EmptyText:      DefaultEmptyText,
			PausedText:     DefaultPausedText,
		},
		Content: Content{
			Watch:      false,
			DebounceMs: DefaultDebounceMs,
		},
		Colors: Colors{
			Background:     RGB{0, 0, 0},
			MenuBackground: RGB{0, 0, 0},
			MenuActive:     RGB{255, 255, 255},
			MenuInactive:   RGB{150, 150, 150},
			Spinner:        RGB{200, 200, 200},
			Failure:        RGB{226, 72, 38},
		},
	}
}

// Load reads the configuration at path.
//
// A missing file yields the defaults. A file that cannot be decoded yields
// the defaults together with a non-fatal config error. A file that exists but
// cannot be read is a fatal start-up error. The returned notes describe every
// value that was clamped.
func Load(path string) (Config, []string, error) {
	def := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return def, []string{fmt.Sprintf("config file %s not found, using defaults", path)}, nil
		}
		return def, nil, apperrors.Startup(fmt.Sprintf("config file %s is unreadable", path), err)
	}

	cfg, err := Decode(data, FormatOf(path))
	if err != nil {
		return def, nil, apperrors.Config(fmt.Errorf("parse %s: %w", path, err))
	}
	cfg, notes := cfg.Normalize()
	return cfg, notes, nil
}

// Format names a supported encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// FormatOf picks the encoding from the file extension; JSON by default.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode parses data on top of the defaults.
func Decode(data []byte, format Format) (Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	var err error
	switch format {
	case FormatTOML:
		_, err = toml.Decode(string(data), &cfg)
	case FormatYAML:
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Encode renders cfg in the given format.
func Encode(cfg Config, format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatYAML:
		return yaml.Marshal(cfg)
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

// Normalize applies safe bounds to config values and returns any adjustments.
func (c Config) Normalize() (Config, []string) {
	var notes []string
	clampInt := func(name string, v *int, lo, hi int) {
		if *v < lo {
			notes = append(notes, fmt.Sprintf("%s clamped from %d to %d", name, *v, lo))
			*v = lo
		} else if *v > hi {
			notes = append(notes, fmt.Sprintf("%s clamped from %d to %d", name, *v, hi))
			*v = hi
		}
	}

	clampInt("window.fps", &c.Window.FPS, MinFPS, MaxFPS)
	clampInt("window.menuWidth", &c.Window.MenuWidth, 0, MaxMenuWidth)
	clampInt("window.width", &c.Window.Width, 1, 16384)
	clampInt("window.height", &c.Window.Height, 1, 16384)
	clampInt("slideshow.fadeSpeedMs", &c.Slideshow.FadeSpeedMs, 0, MaxDelayMs)
	// An image must outlast its own fade-out and fade-in.
	clampInt("slideshow.imageDelayMs", &c.Slideshow.ImageDelayMs,
		max(MinImageDelayMs, 2*c.Slideshow.FadeSpeedMs), MaxDelayMs)
	clampInt("slideshow.startDelayMs", &c.Slideshow.StartDelayMs, 0, MaxDelayMs)
	clampInt("slideshow.errorDisplayMs", &c.Slideshow.ErrorDisplayMs, 0, MaxDelayMs)
	clampInt("content.debounceMs", &c.Content.DebounceMs, 0, MaxDelayMs)

	for _, entry := range []struct {
		name string
		rgb  *RGB
	}{
		{"colors.background", &c.Colors.Background},
		{"colors.menuBackground", &c.Colors.MenuBackground},
		{"colors.menuActive", &c.Colors.MenuActive},
		{"colors.menuInactive", &c.Colors.MenuInactive},
		{"colors.spinner", &c.Colors.Spinner},
		{"colors.failure", &c.Colors.Failure},
	} {
		for i := range entry.rgb {
			clampInt(fmt.Sprintf("%s[%d]", entry.name, i), &entry.rgb[i], 0, 255)
		}
	}

	if strings.TrimSpace(c.Slideshow.FailureText) == "" {
		c.Slideshow.FailureText = DefaultFailureText
	}
	return c, notes
}

// Validate checks the invariants the display loop relies on.
func (c Config) Validate() error {
	if c.Window.FPS < MinFPS || c.Window.FPS > MaxFPS {
		return fmt.Errorf("window.fps must be between %d and %d, got %d", MinFPS, MaxFPS, c.Window.FPS)
	}
	if c.Window.MenuWidth < 0 {
		return fmt.Errorf("window.menuWidth must be 0 or greater, got %d", c.Window.MenuWidth)
	}
	if c.Slideshow.FadeSpeedMs < 0 {
		return fmt.Errorf("slideshow.fadeSpeedMs must be 0 or greater, got %d", c.Slideshow.FadeSpeedMs)
	}
	return nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (s Slideshow) ImageDelay() time.Duration   { return ms(s.ImageDelayMs) }
func (s Slideshow) StartDelay() time.Duration   { return ms(s.StartDelayMs) }
func (s Slideshow) FadeSpeed() time.Duration    { return ms(s.FadeSpeedMs) }
func (s Slideshow) ErrorDisplay() time.Duration { return ms(s.ErrorDisplayMs) }
func (c Content) Debounce() time.Duration       { return ms(c.DebounceMs) }

// FrameInterval is the target time between two display-loop iterations.
func (w Window) FrameInterval() time.Duration {
	fps := w.FPS
	if fps < MinFPS {
		fps = DefaultFPS
	}
	return time.Second / time.Duration(fps)
}
