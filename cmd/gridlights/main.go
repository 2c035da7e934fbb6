package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/gridlights/pkg/config"
	"github.com/ritzau/gridlights/pkg/logging"
	"github.com/ritzau/gridlights/pkg/output"
	"github.com/ritzau/gridlights/pkg/sim"
	"github.com/ritzau/gridlights/pkg/term"
	"github.com/ritzau/gridlights/pkg/watcher"
	"github.com/ritzau/gridlights/pkg/web"
)

func main() {
	flags := pflag.NewFlagSet("gridlights", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: gridlights [flags]\n\nAnimated light-trail background on a square or hexagonal grid.\n\n")
		flags.PrintDefaults()
	}
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	if err := run(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *pflag.FlagSet) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logging.Info("starting gridlights", "mode", cfg.Mode, "seed", seed, "config", cfg.File)

	state := sim.New(cfg.SimOptions(), rand.New(rand.NewSource(seed)))

	switch cfg.Mode {
	case "web":
		return runWeb(ctx, flags, cfg, state)
	case "term":
		return runTerm(ctx, flags, cfg, state)
	default:
		return runHeadless(cfg, state)
	}
}

func setupLogging(cfg *config.Config) (func(), error) {
	logging.SetLevel(logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt))
	logging.SetJSONOutput(cfg.JSONLogs)

	if cfg.Mode != "term" {
		return func() {}, nil
	}

	// The screen owns stdout
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logging.SetOutput(f)
	return func() {
		logging.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

func runWeb(ctx context.Context, flags *pflag.FlagSet, cfg *config.Config, state *sim.State) error {
	loop := sim.NewLoop(state, cfg.FPS)
	loop.Resize(float64(cfg.Width), float64(cfg.Height))

	server := web.NewServer(loop)
	startWatcher(ctx, flags, cfg, loop)

	loop.Start()
	go loop.Run(ctx)

	return server.Start(ctx, cfg.Port)
}

func runTerm(ctx context.Context, flags *pflag.FlagSet, cfg *config.Config, state *sim.State) error {
	screen, err := term.OpenScreen()
	if err != nil {
		return err
	}
	defer screen.Fini()

	var sound *term.Sound
	if cfg.Sound {
		// Non-fatal, the grid works fine without sound
		if sound, err = term.NewSound(); err != nil {
			logging.Warn("audio unavailable", "error", err)
			sound = nil
		}
	}

	loop := sim.NewLoop(state, cfg.FPS)
	startWatcher(ctx, flags, cfg, loop)

	return term.NewRenderer(screen, loop, sound, cfg.FPS).Run(ctx)
}

func runHeadless(cfg *config.Config, state *sim.State) error {
	state.Rebuild(float64(cfg.Width), float64(cfg.Height))

	fps := cfg.FPS
	if fps <= 0 {
		fps = 60
	}
	frameStep := time.Second / time.Duration(fps)

	// Virtual clock so a run is reproducible for a given seed
	start := time.Unix(0, 0)
	now := start
	var peak int
	for i := 0; i < cfg.Frames; i++ {
		now = now.Add(frameStep)
		stats := state.Tick(now)
		if stats.Deaths > 0 {
			logging.Trace("lights died", "frame", stats.Frame, "count", stats.Deaths)
		}
		if p, _, _ := state.Live(); p > peak {
			peak = p
		}
	}

	g := state.Graph()
	lines := state.Lines()
	particles, trails, explosions := state.Live()
	output.PrintRunReport(os.Stdout, output.RunReport{
		Shape:          lines.Shape,
		Width:          lines.Width,
		Height:         lines.Height,
		Nodes:          len(g.Nodes),
		Edges:          len(g.Edges),
		Entries:        len(g.EntryNodes),
		Components:     lines.Components,
		Frames:         uint64(cfg.Frames),
		Elapsed:        now.Sub(start),
		Totals:         state.Totals(),
		PeakParticles:  peak,
		LiveParticles:  particles,
		LiveTrails:     trails,
		LiveExplosions: explosions,
	})
	return nil
}

// startWatcher reloads the configuration when the config file changes and
// hands the new simulation options to the loop
func startWatcher(ctx context.Context, flags *pflag.FlagSet, cfg *config.Config, loop *sim.Loop) {
	if !cfg.Watch {
		return
	}

	fw, err := watcher.NewFileWatcher(cfg.File)
	if err != nil {
		logging.Warn("config watch disabled", "error", err)
		return
	}
	if err := fw.Start(ctx); err != nil {
		logging.Warn("config watch disabled", "error", err)
		return
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 200*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)

	go func() {
		for event := range debouncer.Output() {
			if event.Removed {
				logging.Warn("config file removed, keeping current settings", "path", event.Path)
				continue
			}
			next, err := config.Load(flags)
			if err != nil {
				logging.Error("config reload failed", "error", err)
				continue
			}
			logging.Info("config reloaded", "path", event.Path, "changes", event.Count)
			loop.Configure(next.SimOptions())
		}
	}()
}
