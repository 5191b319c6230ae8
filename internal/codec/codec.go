package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"aria-view-go/internal/types"
)

// Frame messages are CBOR maps shaped like:
// { "type": "image", "stream": "rgb"|"slam",
//   "capture_timestamp_ns": <int64>, "image": <tag 40 multidim uint8 array> }
// The image payload uses RFC 8746 tag 40 with dims [H,W] for grayscale or
// [H,W,C] for interleaved channels, wrapping a tag 64 uint8 typed array.

const (
	tagMultiDimArray = 40
	tagUint8         = 64
)

const maxPixels = 64 << 20

// ErrSkip marks messages that are valid CBOR but not image frames
// (e.g. "start"/"end" control messages). Callers ignore these.
var ErrSkip = errors.New("not an image message")

// DecodeFrame parses one wire message into a frame record.
func DecodeFrame(msg []byte) (types.Record, error) {
	var payload map[string]any
	if err := cbor.Unmarshal(msg, &payload); err != nil {
		return types.Record{}, fmt.Errorf("cbor decode: %w", err)
	}

	msgType, _ := payload["type"].(string)
	if msgType != "image" {
		return types.Record{}, ErrSkip
	}

	streamRaw, _ := payload["stream"].(string)
	stream := types.StreamID(streamRaw)
	if !stream.Valid() {
		return types.Record{}, fmt.Errorf("unknown stream %q", streamRaw)
	}

	ts, err := toInt64(payload["capture_timestamp_ns"])
	if err != nil {
		return types.Record{}, fmt.Errorf("invalid capture_timestamp_ns: %w", err)
	}

	img, err := decodeImageArray(payload["image"])
	if err != nil {
		return types.Record{}, fmt.Errorf("invalid image payload: %w", err)
	}

	return types.Record{
		Stream:      stream,
		Image:       img,
		TimestampNs: ts,
	}, nil
}

// EncodeFrame builds the wire message for a frame record. Used by the
// feeder tool and by tests.
func EncodeFrame(rec types.Record) ([]byte, error) {
	if !rec.Stream.Valid() {
		return nil, fmt.Errorf("unknown stream %q", rec.Stream)
	}
	if rec.Image.Empty() {
		return nil, errors.New("empty image")
	}
	if len(rec.Image.Pix) != rec.Image.Width*rec.Image.Height*rec.Image.Channels {
		return nil, errors.New("pixel buffer does not match dimensions")
	}

	dims := []any{rec.Image.Height, rec.Image.Width}
	if rec.Image.Channels != 1 {
		dims = append(dims, rec.Image.Channels)
	}

	payload := map[string]any{
		"type":                 "image",
		"stream":               string(rec.Stream),
		"capture_timestamp_ns": rec.TimestampNs,
		"image": cbor.Tag{
			Number: tagMultiDimArray,
			Content: []any{
				dims,
				cbor.Tag{Number: tagUint8, Content: rec.Image.Pix},
			},
		},
	}
	return cbor.Marshal(payload)
}

func decodeImageArray(value any) (types.Image, error) {
	tag, ok := value.(cbor.Tag)
	if !ok || tag.Number != tagMultiDimArray {
		return types.Image{}, fmt.Errorf("expected multidim tag %d", tagMultiDimArray)
	}

	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return types.Image{}, errors.New("invalid multidim array content")
	}

	dimsRaw, ok := items[0].([]any)
	if !ok || len(dimsRaw) < 2 || len(dimsRaw) > 3 {
		return types.Image{}, errors.New("invalid multidim dimensions")
	}

	height, err := toInt(dimsRaw[0])
	if err != nil {
		return types.Image{}, err
	}
	width, err := toInt(dimsRaw[1])
	if err != nil {
		return types.Image{}, err
	}
	channels := 1
	if len(dimsRaw) == 3 {
		channels, err = toInt(dimsRaw[2])
		if err != nil {
			return types.Image{}, err
		}
	}
	if height < 1 || width < 1 {
		return types.Image{}, fmt.Errorf("invalid image shape %dx%d", height, width)
	}
	if channels != 1 && channels != 3 {
		return types.Image{}, fmt.Errorf("unsupported channel count %d", channels)
	}
	if height*width*channels > maxPixels {
		return types.Image{}, errors.New("image payload too large")
	}

	pix, err := decodeUint8Array(items[1])
	if err != nil {
		return types.Image{}, err
	}
	if len(pix) != height*width*channels {
		return types.Image{}, fmt.Errorf("pixel count %d does not match shape %dx%dx%d",
			len(pix), height, width, channels)
	}

	return types.Image{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      pix,
	}, nil
}

func decodeUint8Array(value any) ([]byte, error) {
	tag, ok := value.(cbor.Tag)
	if !ok {
		return nil, errors.New("expected typed array tag")
	}
	if tag.Number != tagUint8 {
		return nil, fmt.Errorf("unsupported typed array tag %d", tag.Number)
	}
	data, ok := tag.Content.([]byte)
	if !ok {
		return nil, fmt.Errorf("unsupported typed array content %T", tag.Content)
	}
	return data, nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case uint32:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported int type %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unsupported int type %T", v)
	}
}
