package cache

import (
	"sync"
	"sync/atomic"

	"aria-view-go/internal/types"
)

// Cache holds the most recent frame per stream. Producer callbacks replace
// slots with Put; the display loop reads both slots with Snapshot. One
// mutex guards both slots and is held only for the pointer swap or copy,
// never across I/O.
type Cache struct {
	mu   sync.Mutex
	rgb  *types.Record
	slam *types.Record

	rgbSeen  bool
	slamSeen bool

	rgbPuts   atomic.Uint64
	slamPuts  atomic.Uint64
	rgbDrops  atomic.Uint64
	slamDrops atomic.Uint64
}

// Stats are cumulative counters since startup. A drop is a frame that was
// overwritten before any snapshot observed it.
type Stats struct {
	RGBPuts   uint64
	SLAMPuts  uint64
	RGBDrops  uint64
	SLAMDrops uint64
}

func New() *Cache {
	return &Cache{}
}

// Put replaces the slot for rec.Stream unconditionally. Records for an
// unknown stream are ignored.
func (c *Cache) Put(rec types.Record) {
	switch rec.Stream {
	case types.StreamRGB:
		c.rgbPuts.Add(1)
	case types.StreamSLAM:
		c.slamPuts.Add(1)
	default:
		return
	}

	c.mu.Lock()
	switch rec.Stream {
	case types.StreamRGB:
		if c.rgb != nil && !c.rgbSeen {
			c.rgbDrops.Add(1)
		}
		stored := rec
		c.rgb = &stored
		c.rgbSeen = false
	case types.StreamSLAM:
		if c.slam != nil && !c.slamSeen {
			c.slamDrops.Add(1)
		}
		stored := rec
		c.slam = &stored
		c.slamSeen = false
	}
	c.mu.Unlock()
}

// Snapshot returns both slots as they were at a single instant. The two
// records are each internally consistent but carry independent capture
// times; no cross-stream alignment is attempted. Later puts do not mutate
// a returned snapshot.
func (c *Cache) Snapshot() types.Snapshot {
	c.mu.Lock()
	snap := types.Snapshot{RGB: c.rgb, SLAM: c.slam}
	c.rgbSeen = true
	c.slamSeen = true
	c.mu.Unlock()
	return snap
}

func (c *Cache) Stats() Stats {
	return Stats{
		RGBPuts:   c.rgbPuts.Load(),
		SLAMPuts:  c.slamPuts.Load(),
		RGBDrops:  c.rgbDrops.Load(),
		SLAMDrops: c.slamDrops.Load(),
	}
}
