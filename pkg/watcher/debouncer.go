package watcher

import (
	"context"
	"time"

	"github.com/ritzau/gridlights/pkg/logging"
)

// Debouncer batches rapid file system events so one save triggers one reload
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a debouncer that emits once input has been quiet for
// quietPeriod, or at the latest maxWait after the first event of a burst.
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 4),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

func (d *Debouncer) run(ctx context.Context) {
	defer close(d.output)

	quiet := time.NewTimer(d.quietPeriod)
	quiet.Stop()
	deadline := time.NewTimer(d.maxWait)
	deadline.Stop()

	var (
		pending ChangeEvent
		active  bool
	)

	flush := func() {
		if !active {
			return
		}
		quiet.Stop()
		deadline.Stop()
		active = false

		logging.Debug("flushing config changes", "count", pending.Count, "removed", pending.Removed)
		select {
		case d.output <- pending:
		case <-ctx.Done():
		}
		pending = ChangeEvent{}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				return
			}

			// The latest event decides whether the file is gone
			count := pending.Count + event.Count
			pending = event
			pending.Count = count

			quiet.Reset(d.quietPeriod)
			if !active {
				active = true
				deadline.Reset(d.maxWait)
			}

		case <-quiet.C:
			flush()

		case <-deadline.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
