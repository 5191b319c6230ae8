package display

import (
	"context"
	"sync"
	"testing"
	"time"

	"aria-view-go/internal/cache"
	"aria-view-go/internal/types"
)

// fakeSurface records Present calls and feeds scripted key presses.
type fakeSurface struct {
	mu        sync.Mutex
	presented map[string]int
	keys      []int
	closed    bool
}

func newFakeSurface(keys ...int) *fakeSurface {
	return &fakeSurface{
		presented: make(map[string]int),
		keys:      keys,
	}
}

func (f *fakeSurface) Present(window string, _ types.Record) {
	f.mu.Lock()
	f.presented[window]++
	f.mu.Unlock()
}

func (f *fakeSurface) PollKey(_ int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.keys) == 0 {
		return -1
	}
	key := f.keys[0]
	f.keys = f.keys[1:]
	return key
}

func (f *fakeSurface) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *fakeSurface) count(window string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.presented[window]
}

func rgbRecord(ts int64) types.Record {
	return types.Record{
		Stream:      types.StreamRGB,
		TimestampNs: ts,
		Image:       types.Image{Width: 1, Height: 1, Channels: 3, Pix: []byte{1, 2, 3}},
	}
}

func slamRecord(ts int64) types.Record {
	return types.Record{
		Stream:      types.StreamSLAM,
		TimestampNs: ts,
		Image:       types.Image{Width: 1, Height: 1, Channels: 1, Pix: []byte{9}},
	}
}

func TestQuitKeyStopsLoop(t *testing.T) {
	c := cache.New()
	c.Put(rgbRecord(100))

	surface := newFakeSurface(-1, -1, 'q')
	loop := NewLoop(c, surface, Options{PollInterval: time.Microsecond})

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on quit key")
	}

	if loop.State() != Stopped {
		t.Fatalf("expected Stopped, got %v", loop.State())
	}
	if !surface.closed {
		t.Fatal("surface not closed on quit path")
	}
	if got := surface.count(RGBWindow); got != 3 {
		t.Fatalf("expected RGB presented on all 3 iterations, got %d", got)
	}
	if got := surface.count(SLAMWindow); got != 0 {
		t.Fatalf("SLAM window should never open with ShowSLAM unset, got %d presents", got)
	}
}

func TestSLAMHiddenWhenDisabled(t *testing.T) {
	c := cache.New()
	c.Put(slamRecord(50))

	surface := newFakeSurface('q')
	loop := NewLoop(c, surface, Options{PollInterval: time.Microsecond})
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := surface.count(SLAMWindow); got != 0 {
		t.Fatalf("SLAM presented %d times with ShowSLAM unset", got)
	}
	if got := surface.count(RGBWindow); got != 0 {
		t.Fatalf("RGB window presented with no RGB frame, %d times", got)
	}
}

func TestSLAMShownWhenEnabled(t *testing.T) {
	c := cache.New()
	c.Put(rgbRecord(1))
	c.Put(slamRecord(2))

	surface := newFakeSurface(-1, 'q')
	loop := NewLoop(c, surface, Options{ShowSLAM: true, PollInterval: time.Microsecond})
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if got := surface.count(RGBWindow); got != 2 {
		t.Fatalf("expected 2 RGB presents, got %d", got)
	}
	if got := surface.count(SLAMWindow); got != 2 {
		t.Fatalf("expected 2 SLAM presents, got %d", got)
	}
}

func TestInterruptStopsLoop(t *testing.T) {
	c := cache.New()
	surface := newFakeSurface()
	loop := NewLoop(c, surface, Options{PollInterval: time.Microsecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	if loop.State() != Running {
		t.Fatalf("expected Running before cancel, got %v", loop.State())
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop on interrupt")
	}

	if loop.State() != Stopped {
		t.Fatalf("expected Stopped, got %v", loop.State())
	}
	if !surface.closed {
		t.Fatal("surface not closed on interrupt path")
	}
}

func TestLatestFrameWinsAcrossIterations(t *testing.T) {
	c := cache.New()
	c.Put(rgbRecord(100))
	c.Put(rgbRecord(200))

	var lastTS int64
	surface := newFakeSurface('q')
	loop := NewLoop(c, &tsSurface{fakeSurface: surface, last: &lastTS}, Options{PollInterval: time.Microsecond})
	if err := loop.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if lastTS != 200 {
		t.Fatalf("expected latest frame (ts 200) presented, got %d", lastTS)
	}
}

type tsSurface struct {
	*fakeSurface
	last *int64
}

func (s *tsSurface) Present(window string, rec types.Record) {
	if window == RGBWindow {
		*s.last = rec.TimestampNs
	}
	s.fakeSurface.Present(window, rec)
}
