package term

import (
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(44100)
	popFreq    = 660
	popLength  = 40 * time.Millisecond
	// Minimum gap between pops; a busy grid can lose several lights a tick
	popGap = 90 * time.Millisecond
)

// Sound plays a short pop when lights die. A nil *Sound is silent.
type Sound struct {
	last time.Time
}

// NewSound opens the default audio device
func NewSound() (*Sound, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	return &Sound{}, nil
}

// Pop plays one pop unless another was played within popGap of now
func (s *Sound) Pop(now time.Time) {
	if s == nil || now.Sub(s.last) < popGap {
		return
	}
	s.last = now

	sine, err := generators.SineTone(sampleRate, popFreq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(popLength), sine))
}
