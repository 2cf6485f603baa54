// Package config holds the run configuration. Every flag has an
// EXPLAINER_* environment default.
package config

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

var (
	ErrNoInput       = errors.New("nothing to render: pass -scene or -script")
	ErrBadDimensions = errors.New("width and height must be positive and even")
	ErrBadFPS        = errors.New("fps must be between 1 and 120")
	ErrUnknownPreset = errors.New("unknown preset")
)

// Config is the configuration of one explainer run.
type Config struct {
	Scenes     []string `env:"EXPLAINER_SCENES" envSeparator:","`
	Script     string   `env:"EXPLAINER_SCRIPT"`
	Output     string   `env:"EXPLAINER_OUTPUT"`
	OutputDir  string   `env:"EXPLAINER_OUTPUT_DIR" envDefault:"output"`
	Timeline   string   `env:"EXPLAINER_TIMELINE"`
	DryRun     bool     `env:"EXPLAINER_DRY_RUN"`
	Width      int      `env:"EXPLAINER_WIDTH" envDefault:"1280"`
	Height     int      `env:"EXPLAINER_HEIGHT" envDefault:"720"`
	FPS        int      `env:"EXPLAINER_FPS" envDefault:"30"`
	Preset     string   `env:"EXPLAINER_PRESET"`
	Quality    int      `env:"EXPLAINER_QUALITY"`
	Encoder    string   `env:"EXPLAINER_ENCODER"`
	Link       string   `env:"EXPLAINER_LINK"`
	SweepLeaks bool     `env:"EXPLAINER_SWEEP_LEAKS"`
	ShowStats  bool     `env:"EXPLAINER_STATS"`
	Verbose    bool     `env:"EXPLAINER_VERBOSE"`

	// List prints the scene catalog and exits. Flag only.
	List bool
	// BuildVersion is stamped by the linker.
	BuildVersion string
}

// Presets maps aspect ratio names to frame sizes.
var Presets = map[string][2]int{
	"16:9": {1280, 720},
	"9:16": {720, 1280},
	"4:5":  {1080, 1350},
}

// ParseConfig reads the environment, then overlays args parsed with fs.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	scenes := strings.Join(cfg.Scenes, ",")
	fs.StringVar(&scenes, "scene", scenes, "Comma separated built-in scenes to render, in order")
	fs.StringVar(&cfg.Script, "script", cfg.Script, "Lua scene script rendered after the built-in scenes")
	fs.BoolVar(&cfg.List, "list", false, "List built-in scenes and exit")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "Video path (generated in -output-dir when empty)")
	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "Directory for generated outputs")
	fs.StringVar(&cfg.Timeline, "timeline", cfg.Timeline, "Timeline YAML path (next to the video when empty)")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Plan and time every scene without rendering")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Height")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "FPS")
	fs.StringVar(&cfg.Preset, "preset", cfg.Preset, "Format preset: 16:9, 9:16 (Shorts/TikTok), 4:5 (Instagram)")
	fs.IntVar(&cfg.Quality, "quality", cfg.Quality, "Video quality (0 - auto, x264: CRF 1-51, VideoToolbox: bitrate = Q*100kbit/s)")
	fs.StringVar(&cfg.Encoder, "encoder", cfg.Encoder, "H.264 encoder (detected when empty)")
	fs.StringVar(&cfg.Link, "link", cfg.Link, "Link encoded in the outro QR code")
	fs.BoolVar(&cfg.SweepLeaks, "sweep-leaks", cfg.SweepLeaks, "Fade out objects a scene leaves on stage instead of failing")
	fs.BoolVar(&cfg.ShowStats, "stats", cfg.ShowStats, "Print the performance report")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Log every step")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.Scenes = splitList(scenes)
	if err := cfg.ApplyPreset(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ApplyPreset replaces the frame size with the preset's.
func (c *Config) ApplyPreset() error {
	if c.Preset == "" {
		return nil
	}
	size, ok := Presets[c.Preset]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownPreset, c.Preset)
	}
	c.Width, c.Height = size[0], size[1]
	return nil
}

// Validate reports the first configuration error.
func (c Config) Validate() error {
	if len(c.Scenes) == 0 && c.Script == "" {
		return ErrNoInput
	}
	if c.Width <= 0 || c.Height <= 0 || c.Width%2 != 0 || c.Height%2 != 0 {
		return fmt.Errorf("%w, got %dx%d", ErrBadDimensions, c.Width, c.Height)
	}
	if c.FPS < 1 || c.FPS > 120 {
		return fmt.Errorf("%w, got %d", ErrBadFPS, c.FPS)
	}
	if c.Quality < 0 {
		return fmt.Errorf("quality must not be negative, got %d", c.Quality)
	}
	return nil
}

// DefaultQuality is the quality used for encoder when none is configured.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
