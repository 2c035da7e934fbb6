package term

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ritzau/gridlights/pkg/logging"
	"github.com/ritzau/gridlights/pkg/sim"
)

// Renderer draws a simulation loop on a terminal. It drives the loop itself:
// each tick of its ticker steps the loop and repaints, and key and resize
// events are handled on the same goroutine.
type Renderer struct {
	screen   tcell.Screen
	loop     *sim.Loop
	sound    *Sound
	interval time.Duration

	width, height int
}

// NewRenderer wraps an initialized screen. sound may be nil.
func NewRenderer(screen tcell.Screen, loop *sim.Loop, sound *Sound, fps int) *Renderer {
	if fps <= 0 {
		fps = 60
	}
	r := &Renderer{
		screen:   screen,
		loop:     loop,
		sound:    sound,
		interval: time.Second / time.Duration(fps),
	}
	loop.OnFrame(func(_ sim.Frame, stats sim.TickStats) {
		if stats.Deaths > 0 {
			r.sound.Pop(time.Now())
		}
	})
	return r
}

// OpenScreen creates and initializes the terminal screen
func OpenScreen() (tcell.Screen, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize screen: %w", err)
	}
	screen.HideCursor()
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	return screen, nil
}

// Run starts the loop and renders until ctx is cancelled or the user quits
func (r *Renderer) Run(ctx context.Context) error {
	r.resize()
	r.loop.Start()
	defer r.loop.Stop()

	events := make(chan tcell.Event, 32)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := r.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev := <-events:
			if !r.handleEvent(ev) {
				logging.Info("quit requested")
				return nil
			}

		case now := <-ticker.C:
			r.loop.Step(now)
			r.paint()
		}
	}
}

// resize maps the terminal size to simulation pixels and schedules a rebuild
func (r *Renderer) resize() {
	r.width, r.height = r.screen.Size()
	r.loop.Resize(float64(r.width*CellWidth), float64(r.height*CellHeight))
	logging.Debug("terminal resized", "cols", r.width, "rows", r.height)
}

// handleEvent returns false when the user asked to quit
func (r *Renderer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				if r.loop.Running() {
					r.loop.Stop()
				} else {
					r.loop.Start()
				}
				r.paint()
			case 'r':
				r.resize()
			}
		}

	case *tcell.EventResize:
		r.screen.Sync()
		r.resize()
	}
	return true
}

func (r *Renderer) paint() {
	r.screen.Clear()
	c := canvas{screen: r.screen, width: r.width, height: r.height}
	draw(c, r.loop.Lines(), r.loop.Latest())
	if !r.loop.Running() {
		r.status("paused · space to resume · q to quit")
	}
	r.screen.Show()
}

func (r *Renderer) status(text string) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	x := 0
	for _, ch := range text {
		r.screen.SetContent(x, r.height-1, ch, nil, style)
		x++
	}
}
