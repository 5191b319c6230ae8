package display

import (
	"context"
	"sync/atomic"
	"time"

	"aria-view-go/internal/cache"
	"aria-view-go/internal/types"
)

// Window names match the original viewer so window-manager placement
// rules keep working for people who relied on them.
const (
	RGBWindow  = "Aria RGB (press q to quit)"
	SLAMWindow = "Aria SLAM"
)

const QuitKey = 'q'

// State of the display loop. Stopped is terminal.
type State int32

const (
	Running State = iota
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Surface is the window toolkit the loop renders to. Present shows one
// frame in the named window, PollKey waits up to delayMS for a key press
// (-1 when none), Close releases every window. The production Surface is
// gocv; tests substitute a fake.
type Surface interface {
	Present(window string, rec types.Record)
	PollKey(delayMS int) int
	Close() error
}

type Options struct {
	ShowSLAM     bool
	PollInterval time.Duration
}

// Loop polls the frame cache and presents the latest frames until the
// quit key is pressed or ctx is cancelled. Single-goroutine; the cache
// snapshot is its only contact with the producers.
type Loop struct {
	cache   *cache.Cache
	surface Surface
	opts    Options
	state   atomic.Int32
}

func NewLoop(c *cache.Cache, surface Surface, opts Options) *Loop {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Millisecond
	}
	return &Loop{
		cache:   c,
		surface: surface,
		opts:    opts,
	}
}

func (l *Loop) State() State {
	return State(l.state.Load())
}

// Run drives the loop until quit or cancellation. Window resources are
// released on every exit path, the interrupt path included.
func (l *Loop) Run(ctx context.Context) error {
	l.state.Store(int32(Running))
	defer func() {
		_ = l.surface.Close()
		l.state.Store(int32(Stopped))
	}()

	ticker := time.NewTicker(l.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.state.Store(int32(Stopping))
			return nil
		default:
		}

		snap := l.cache.Snapshot()
		if snap.RGB != nil {
			l.surface.Present(RGBWindow, *snap.RGB)
		}
		if l.opts.ShowSLAM && snap.SLAM != nil {
			l.surface.Present(SLAMWindow, *snap.SLAM)
		}

		if key := l.surface.PollKey(1); key&0xff == QuitKey {
			l.state.Store(int32(Stopping))
			return nil
		}

		select {
		case <-ctx.Done():
			l.state.Store(int32(Stopping))
			return nil
		case <-ticker.C:
		}
	}
}
