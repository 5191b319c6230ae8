package record

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Entry is one recorded payload with its receive timestamp.
type Entry struct {
	TimestampNs int64
	Payload     []byte
}

type Reader struct {
	f *os.File
}

func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	header := make([]byte, len(Magic))
	if _, err := io.ReadFull(f, header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(header) != Magic {
		_ = f.Close()
		return nil, fmt.Errorf("unexpected recording magic %q", string(header))
	}
	return &Reader{f: f}, nil
}

// Next returns the next entry, or io.EOF after the last one.
func (r *Reader) Next() (Entry, error) {
	var meta [12]byte
	if _, err := io.ReadFull(r.f, meta[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return Entry{}, io.EOF
		}
		return Entry{}, err
	}
	ts := int64(binary.LittleEndian.Uint64(meta[:8]))
	size := binary.LittleEndian.Uint32(meta[8:12])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r.f, payload); err != nil {
		return Entry{}, err
	}
	return Entry{TimestampNs: ts, Payload: payload}, nil
}

func (r *Reader) Close() error {
	return r.f.Close()
}
