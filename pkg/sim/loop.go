package sim

import (
	"context"
	"sync"
	"time"

	"github.com/ritzau/gridlights/pkg/logging"
)

// FrameFunc receives every frame produced by the loop
type FrameFunc func(Frame, TickStats)

// RebuildFunc receives the static lines after every rebuild
type RebuildFunc func(GridLines)

// Loop drives a State from a ticker. The loop goroutine is the only caller of
// State.Tick; every other method goes through the loop's mutex, and listeners
// run on the loop goroutine after the lock is released.
type Loop struct {
	mu        sync.Mutex
	state     *State
	interval  time.Duration
	running   bool
	latest    Frame
	lines     GridLines
	onFrame   []FrameFunc
	onRebuild []RebuildFunc
}

// NewLoop creates a stopped loop ticking fps times per second
func NewLoop(state *State, fps int) *Loop {
	if fps <= 0 {
		fps = 60
	}
	return &Loop{
		state:    state,
		interval: time.Second / time.Duration(fps),
		latest:   state.Snapshot(),
		lines:    state.Lines(),
	}
}

// OnFrame registers a frame listener
func (l *Loop) OnFrame(fn FrameFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFrame = append(l.onFrame, fn)
}

// OnRebuild registers a rebuild listener
func (l *Loop) OnRebuild(fn RebuildFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onRebuild = append(l.onRebuild, fn)
}

// Start resumes ticking
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		logging.Info("simulation started", "sim", l.state.ID[:8], "interval", l.interval)
	}
	l.running = true
}

// Stop pauses ticking; state is kept
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		logging.Info("simulation stopped", "sim", l.state.ID[:8], "frame", l.latest.Frame)
	}
	l.running = false
}

// Running reports whether the loop is ticking
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Resize schedules a rebuild at the new size
func (l *Loop) Resize(width, height float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Resize(width, height)
}

// Configure schedules a rebuild with new options
func (l *Loop) Configure(opts Options) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.Configure(opts)
}

// Options returns the active options
func (l *Loop) Options() Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Options()
}

// Latest returns the most recent frame
func (l *Loop) Latest() Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest
}

// Lines returns the static lines of the current graph
func (l *Loop) Lines() GridLines {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lines
}

// Run ticks until ctx is cancelled. Ticks while stopped are skipped.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("simulation loop exiting", "sim", l.state.ID[:8])
			return
		case now := <-ticker.C:
			l.Step(now)
		}
	}
}

// Step runs one tick if the loop is running and notifies listeners
func (l *Loop) Step(now time.Time) {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}

	stats := l.state.Tick(now)
	l.latest = l.state.Snapshot()
	frame := l.latest
	if stats.Rebuilt {
		l.lines = l.state.Lines()
	}
	lines := l.lines
	onFrame := append([]FrameFunc(nil), l.onFrame...)
	onRebuild := append([]RebuildFunc(nil), l.onRebuild...)
	l.mu.Unlock()

	if stats.Rebuilt {
		for _, fn := range onRebuild {
			fn(lines)
		}
	}
	for _, fn := range onFrame {
		fn(frame, stats)
	}
}
