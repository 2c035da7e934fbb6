package output

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/ritzau/gridlights/pkg/particle"
)

// RunReport summarizes a headless run
type RunReport struct {
	Shape      string
	Width      float64
	Height     float64
	Nodes      int
	Edges      int
	Entries    int
	Components int

	Frames  uint64
	Elapsed time.Duration // simulated, not wall clock
	Totals  particle.Stats

	PeakParticles  int
	LiveParticles  int
	LiveTrails     int
	LiveExplosions int
}

// PrintRunReport prints a nicely formatted run report with colors
func PrintRunReport(w io.Writer, r RunReport) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Fprintln(w, "gridlights - Headless Run")
	bold.Fprintln(w, "=========================")
	fmt.Fprintf(w, "Region: %gx%g (%s)\n", r.Width, r.Height, r.Shape)

	if r.Nodes == 0 {
		red.Fprintln(w, "Grid: empty (region too small or cell size invalid)")
	} else {
		fmt.Fprintf(w, "Grid: %d nodes, %d edges, %d entry nodes\n", r.Nodes, r.Edges, r.Entries)
		componentColor := green
		if r.Components > 1 {
			componentColor = yellow
		}
		componentColor.Fprintf(w, "Components: %d\n", r.Components)
	}
	fmt.Fprintln(w)

	cyan.Fprintf(w, "Frames: %d (%s simulated)\n", r.Frames, r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Spawned: %d\n", r.Totals.Spawned)
	fmt.Fprintf(w, "Splits: %d\n", r.Totals.Splits)
	fmt.Fprintf(w, "Arrivals: %d\n", r.Totals.Arrived)
	fmt.Fprintf(w, "Deaths: %d\n", r.Totals.Deaths)
	fmt.Fprintf(w, "Peak lights: %d\n", r.PeakParticles)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Live at end: %d lights, %d trails, %d explosions\n",
		r.LiveParticles, r.LiveTrails, r.LiveExplosions)

	switch {
	case r.Nodes == 0:
		yellow.Fprintln(w, "Nothing to animate")
	case r.Totals.Spawned == 0:
		yellow.Fprintln(w, "No lights spawned; check spawn rate and frame count")
	default:
		green.Fprintf(w, "✓ %d lights crossed the grid\n", r.Totals.Spawned+r.Totals.Splits)
	}
}
