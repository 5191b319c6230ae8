package simulator

import (
	"context"
	"math"
	"time"

	"aria-view-go/internal/types"
)

// Options control the synthetic device. Real hardware delivers large RGB
// frames next to small grayscale SLAM frames; the defaults here are
// scaled down so debug mode stays cheap.
type Options struct {
	Width    int
	Height   int
	FPS      float64
	WithSLAM bool
}

func (o *Options) defaults() {
	if o.Width < 1 {
		o.Width = 320
	}
	if o.Height < 1 {
		o.Height = 240
	}
	if o.FPS <= 0 {
		o.FPS = 10
	}
}

// Stream emits synthetic frame records until ctx is cancelled: a moving
// RGB gradient and, when enabled, a grayscale SLAM counterpart sharing
// the same capture timestamp.
func Stream(ctx context.Context, opts Options) <-chan types.Record {
	opts.defaults()
	out := make(chan types.Record)

	go func() {
		defer close(out)

		interval := time.Duration(float64(time.Second) / opts.FPS)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		frameIndex := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ts := time.Now().UnixNano()
				rgb := types.Record{
					Stream:      types.StreamRGB,
					TimestampNs: ts,
					Image:       rgbFrame(opts.Width, opts.Height, frameIndex),
				}
				select {
				case <-ctx.Done():
					return
				case out <- rgb:
				}

				if opts.WithSLAM {
					slam := types.Record{
						Stream:      types.StreamSLAM,
						TimestampNs: ts,
						Image:       slamFrame(opts.Width, opts.Height, frameIndex),
					}
					select {
					case <-ctx.Done():
						return
					case out <- slam:
					}
				}
				frameIndex++
			}
		}
	}()

	return out
}

func rgbFrame(width, height, index int) types.Image {
	pix := make([]byte, width*height*3)
	phase := float64(index) * 0.1
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			pix[i] = byte(x * 255 / width)
			pix[i+1] = byte(y * 255 / height)
			pix[i+2] = byte(127 + 127*math.Sin(phase+float64(x+y)/64))
		}
	}
	return types.Image{Width: width, Height: height, Channels: 3, Pix: pix}
}

func slamFrame(width, height, index int) types.Image {
	pix := make([]byte, width*height)
	phase := float64(index) * 0.1
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix[y*width+x] = byte(127 + 127*math.Sin(phase+float64(x)/32)*math.Cos(float64(y)/32))
		}
	}
	return types.Image{Width: width, Height: height, Channels: 1, Pix: pix}
}
