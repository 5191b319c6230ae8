package types

// StreamID identifies one of the two camera streams delivered by the device.
type StreamID string

const (
	StreamRGB  StreamID = "rgb"
	StreamSLAM StreamID = "slam"
)

// Valid reports whether the id matches a known stream.
func (s StreamID) Valid() bool {
	return s == StreamRGB || s == StreamSLAM
}

// Image is a decoded 8-bit pixel buffer. Channels is 1 (grayscale) or 3
// (interleaved RGB). Pix is treated as immutable once the image has been
// handed to the cache.
type Image struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// Empty reports whether the image holds no pixels.
func (im Image) Empty() bool {
	return len(im.Pix) == 0 || im.Width == 0 || im.Height == 0
}

// Record is one delivered frame: the pixel buffer plus the device-assigned
// capture timestamp in nanoseconds.
type Record struct {
	Stream      StreamID
	Image       Image
	TimestampNs int64
}

// Snapshot is a point-in-time view of both stream slots. A nil entry means
// no frame has been received for that stream yet.
type Snapshot struct {
	RGB  *Record
	SLAM *Record
}
