package record

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// Magic identifies a recording file. The container is a flat sequence of
// raw wire payloads: per record a 12-byte header (received-at unix nanos
// uint64 LE, payload size uint32 LE) followed by the payload bytes. The
// path requested on the command line is used verbatim; conversion to the
// vendor's VRS format is out of scope here.
const Magic = "ARIAREC1"

type Writer struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer

	records atomic.Uint64
	bytes   atomic.Uint64
}

func NewWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1024*1024)
	if _, err := w.WriteString(Magic); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{
		f: f,
		w: w,
	}, nil
}

// Record appends one raw payload. Safe from concurrent delivery
// goroutines.
func (r *Writer) Record(payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return fmt.Errorf("recording writer is closed")
	}
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(time.Now().UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := r.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := r.w.Write(payload); err != nil {
		return err
	}
	if err := r.w.Flush(); err != nil {
		return err
	}
	r.records.Add(1)
	r.bytes.Add(uint64(12 + len(payload)))
	return nil
}

// Stats returns records and payload bytes written so far.
func (r *Writer) Stats() (records uint64, bytes uint64) {
	return r.records.Load(), r.bytes.Load()
}

func (r *Writer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	if err := r.w.Flush(); err != nil {
		_ = r.f.Close()
		r.w = nil
		return err
	}
	err := r.f.Close()
	r.w = nil
	return err
}
