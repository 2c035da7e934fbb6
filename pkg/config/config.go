package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/gridlights/pkg/grid"
	"github.com/ritzau/gridlights/pkg/sim"
)

// DefaultFile is read from the working directory when --config is not given
const DefaultFile = "gridlights.toml"

// EnvPrefix prefixes environment overrides, e.g. GRIDLIGHTS_CELL_SIZE=30
const EnvPrefix = "GRIDLIGHTS_"

// Config holds all configuration for the application. Keys are lower case
// without separators so flags (--cell-size), env (GRIDLIGHTS_CELL_SIZE) and
// the config file (cellsize) all land on the same key.
type Config struct {
	Mode       string `koanf:"mode"` // web, term or headless
	Port       int    `koanf:"port"`
	Width      int    `koanf:"width"`
	Height     int    `koanf:"height"`
	FPS        int    `koanf:"fps"`
	Frames     int    `koanf:"frames"`
	Seed       int64  `koanf:"seed"` // 0 seeds from the clock
	Watch      bool   `koanf:"watch"`
	Sound      bool   `koanf:"sound"`
	LogFile    string `koanf:"logfile"`
	JSONLogs   bool   `koanf:"json"`
	Verbosity  string `koanf:"verbosity"`
	VerboseCnt int    `koanf:"verbose"`

	Shape           int           `koanf:"shape"`
	CellSize        float64       `koanf:"cellsize"`
	Animated        bool          `koanf:"animated"`
	LightSpeed      float64       `koanf:"lightspeed"`
	MinTravel       int           `koanf:"mintravel"`
	MaxTravel       int           `koanf:"maxtravel"`
	SpawnRate       time.Duration `koanf:"spawnrate"`
	SplitChance     float64       `koanf:"splitchance"`
	TrailFadeSpeed  float64       `koanf:"trailfadespeed"`
	LineColor       string        `koanf:"linecolor"`
	LineWidth       float64       `koanf:"linewidth"`
	LightColor      string        `koanf:"lightcolor"`
	Step            float64       `koanf:"step"`
	ExplosionGrowth float64       `koanf:"explosiongrowth"`
	ExplosionFade   float64       `koanf:"explosionfade"`

	// File is the config file that was (or would have been) read
	File string `koanf:"-"`
}

// Defaults returns the built-in values, the lowest priority layer
func Defaults() map[string]interface{} {
	o := sim.DefaultOptions()
	return map[string]interface{}{
		"mode":      "web",
		"port":      8080,
		"width":     1280,
		"height":    720,
		"fps":       60,
		"frames":    600,
		"seed":      0,
		"watch":     false,
		"sound":     false,
		"logfile":   "gridlights.log",
		"json":      false,
		"verbosity": "",
		"verbose":   0,

		"shape":           int(o.Shape),
		"cellsize":        o.CellSize,
		"animated":        o.Animated,
		"lightspeed":      o.LightSpeed,
		"mintravel":       o.MinTravel,
		"maxtravel":       o.MaxTravel,
		"spawnrate":       o.SpawnRate.String(),
		"splitchance":     o.SplitChance,
		"trailfadespeed":  o.TrailFadeSpeed,
		"linecolor":       o.LineColor,
		"linewidth":       o.LineWidth,
		"lightcolor":      o.LightColor,
		"step":            o.Step,
		"explosiongrowth": o.ExplosionGrowth,
		"explosionfade":   o.ExplosionFade,
	}
}

// RegisterFlags adds every option to f
func RegisterFlags(f *pflag.FlagSet) {
	d := sim.DefaultOptions()

	f.String("config", DefaultFile, "Path to the TOML config file")
	f.String("mode", "web", "Renderer: web, term or headless")
	f.Int("port", 8080, "Port for the web renderer")
	f.Int("width", 1280, "Region width in pixels (headless and initial web size)")
	f.Int("height", 720, "Region height in pixels (headless and initial web size)")
	f.Int("fps", 60, "Ticks per second")
	f.Int("frames", 600, "Ticks to run in headless mode")
	f.Int64("seed", 0, "Random seed, 0 for a clock seed")
	f.Bool("watch", false, "Reload the config file when it changes")
	f.Bool("sound", false, "Play a pop on explosions in terminal mode")
	f.String("log-file", "gridlights.log", "Log destination in terminal mode")
	f.Bool("json", false, "Log as JSON")
	f.String("verbosity", "", "Log level: trace, debug, info, warn, error")
	f.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")

	f.Int("shape", int(d.Shape), "Tessellation: 4 for squares, 6 for hexagons")
	f.Float64("cell-size", d.CellSize, "Cell size in pixels")
	f.Bool("animated", d.Animated, "Run particles; false draws a static grid")
	f.Float64("light-speed", d.LightSpeed, "Progress multiplier per tick")
	f.Int("min-travel", d.MinTravel, "Minimum edges a light crosses before dying")
	f.Int("max-travel", d.MaxTravel, "Maximum edges a light crosses before dying")
	f.Duration("spawn-rate", d.SpawnRate, "Minimum interval between spawn attempts")
	f.Float64("split-chance", d.SplitChance, "Probability of a light branching at a node")
	f.Float64("trail-fade-speed", d.TrailFadeSpeed, "Trail opacity lost per tick")
	f.String("line-color", d.LineColor, "Grid line color")
	f.Float64("line-width", d.LineWidth, "Grid line width")
	f.String("light-color", d.LightColor, "Light, trail and explosion color")
	f.Float64("step", d.Step, "Edge progress per tick at light speed 1")
	f.Float64("explosion-growth", d.ExplosionGrowth, "Explosion radius gained per tick")
	f.Float64("explosion-fade", d.ExplosionFade, "Explosion opacity lost per tick")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(makeMapProvider(Defaults()), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	path := DefaultFile
	explicit := false
	if f != nil {
		if p, err := f.GetString("config"); err == nil && p != "" {
			path = p
			explicit = f.Changed("config")
		}
	}

	// Only the implicit default file is optional
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return normalizeKey(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, func(fl *pflag.Flag) (string, interface{}) {
			if fl.Name == "config" {
				return "", nil
			}
			return normalizeKey(fl.Name), posflag.FlagVal(f, fl)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = path

	return &cfg, nil
}

// normalizeKey maps CELL_SIZE, cell-size and cellsize to the same key
func normalizeKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", "")
	return strings.ReplaceAll(s, "-", "")
}

// SimOptions converts the loaded values to simulation options
func (c *Config) SimOptions() sim.Options {
	return sim.Options{
		Shape:           grid.Shape(c.Shape),
		CellSize:        c.CellSize,
		Animated:        c.Animated,
		LightSpeed:      c.LightSpeed,
		MinTravel:       c.MinTravel,
		MaxTravel:       c.MaxTravel,
		SpawnRate:       c.SpawnRate,
		SplitChance:     c.SplitChance,
		TrailFadeSpeed:  c.TrailFadeSpeed,
		LineColor:       c.LineColor,
		LineWidth:       c.LineWidth,
		LightColor:      c.LightColor,
		Step:            c.Step,
		ExplosionGrowth: c.ExplosionGrowth,
		ExplosionFade:   c.ExplosionFade,
	}
}

// Validate rejects values the host cannot work with. Simulation values are
// never rejected; odd ones only make odd pictures.
func (c *Config) Validate() error {
	switch c.Mode {
	case "web", "term", "headless":
	default:
		return fmt.Errorf("unknown mode %q (want web, term or headless)", c.Mode)
	}
	if c.Mode == "web" && (c.Port <= 0 || c.Port > 65535) {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
