package sim

import (
	"time"

	"github.com/ritzau/gridlights/pkg/grid"
	"github.com/ritzau/gridlights/pkg/ledger"
	"github.com/ritzau/gridlights/pkg/particle"
)

// Options is the full configuration surface of a simulation. Values outside
// the documented ranges are accepted and may simply look odd.
type Options struct {
	Shape          grid.Shape    `json:"shape"`
	CellSize       float64       `json:"cellSize"`
	Animated       bool          `json:"animated"`
	LightSpeed     float64       `json:"lightSpeed"`
	MinTravel      int           `json:"minTravel"`
	MaxTravel      int           `json:"maxTravel"`
	SpawnRate      time.Duration `json:"spawnRate"`
	SplitChance    float64       `json:"splitChance"`
	TrailFadeSpeed float64       `json:"trailFadeSpeed"`
	LineColor      string        `json:"lineColor"`
	LineWidth      float64       `json:"lineWidth"`
	LightColor     string        `json:"lightColor"`

	// Step is the progress added per tick at light speed 1. Speed is tied to
	// the tick rate, so hosts ticking faster than 60Hz should lower it.
	Step            float64 `json:"step"`
	ExplosionGrowth float64 `json:"explosionGrowth"`
	ExplosionFade   float64 `json:"explosionFade"`
}

// DefaultOptions returns the stock look: hexagons, sky-blue lights
func DefaultOptions() Options {
	return Options{
		Shape:           grid.Hexagon,
		CellSize:        40,
		Animated:        true,
		LightSpeed:      1,
		MinTravel:       3,
		MaxTravel:       8,
		SpawnRate:       800 * time.Millisecond,
		SplitChance:     0.2,
		TrailFadeSpeed:  0.01,
		LineColor:       "#1e293b",
		LineWidth:       1,
		LightColor:      "#38bdf8",
		Step:            1.0 / 60,
		ExplosionGrowth: 0.6,
		ExplosionFade:   0.04,
	}
}

func (o Options) settings() particle.Settings {
	return particle.Settings{
		Speed:       o.LightSpeed,
		Step:        o.Step,
		MinTravel:   o.MinTravel,
		MaxTravel:   o.MaxTravel,
		SplitChance: o.SplitChance,
	}
}

func (o Options) rates() ledger.Rates {
	return ledger.Rates{
		TrailFade:       o.TrailFadeSpeed,
		ExplosionGrowth: o.ExplosionGrowth,
		ExplosionFade:   o.ExplosionFade,
	}
}
