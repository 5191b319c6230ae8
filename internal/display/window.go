package display

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"aria-view-go/internal/types"
)

// GocvSurface renders frames through OpenCV highgui windows. Windows are
// created lazily on first Present, matching how the device may start
// delivering SLAM frames long after RGB.
type GocvSurface struct {
	windows map[string]*gocv.Window
}

func NewGocvSurface() *GocvSurface {
	return &GocvSurface{windows: make(map[string]*gocv.Window)}
}

func (s *GocvSurface) Present(window string, rec types.Record) {
	matType := gocv.MatTypeCV8UC1
	if rec.Image.Channels == 3 {
		matType = gocv.MatTypeCV8UC3
	}
	mat, err := gocv.NewMatFromBytes(rec.Image.Height, rec.Image.Width, matType, rec.Image.Pix)
	if err != nil || mat.Empty() {
		return
	}
	defer mat.Close()

	// The wire carries RGB ordering; OpenCV windows expect BGR. SLAM
	// frames are usually single-channel and shown as-is.
	if rec.Stream == types.StreamRGB && rec.Image.Channels == 3 {
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, gocv.ColorBGRToRGB)
		gocv.PutText(
			&bgr,
			fmt.Sprintf("RGB ts(ns): %d", rec.TimestampNs),
			image.Pt(10, 30),
			gocv.FontHersheySimplex,
			0.7,
			color.RGBA{G: 255},
			2,
		)
		s.window(window).IMShow(bgr)
		return
	}

	s.window(window).IMShow(mat)
}

func (s *GocvSurface) PollKey(delayMS int) int {
	// WaitKey pumps the shared highgui event queue; any open window works.
	for _, w := range s.windows {
		return w.WaitKey(delayMS)
	}
	// No window yet, so there is no event queue to pump.
	return -1
}

func (s *GocvSurface) Close() error {
	var first error
	for name, w := range s.windows {
		if err := w.Close(); err != nil && first == nil {
			first = err
		}
		delete(s.windows, name)
	}
	return first
}

func (s *GocvSurface) window(name string) *gocv.Window {
	if w, ok := s.windows[name]; ok {
		return w
	}
	w := gocv.NewWindow(name)
	s.windows[name] = w
	return w
}
