package record

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.vrs")

	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}
	payloads := [][]byte{
		[]byte("first"),
		[]byte("second frame payload"),
		{},
	}
	for _, p := range payloads {
		if err := w.Record(p); err != nil {
			t.Fatalf("Record error: %v", err)
		}
	}
	records, total := w.Stats()
	if records != 3 {
		t.Fatalf("expected 3 records, got %d", records)
	}
	if total == 0 {
		t.Fatal("expected nonzero bytes written")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer r.Close()

	for i, want := range payloads {
		entry, err := r.Next()
		if err != nil {
			t.Fatalf("Next %d error: %v", i, err)
		}
		if entry.TimestampNs == 0 {
			t.Fatalf("entry %d has zero timestamp", i)
		}
		if !bytes.Equal(entry.Payload, want) {
			t.Fatalf("entry %d payload mismatch: got %q want %q", i, entry.Payload, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF after last record, got %v", err)
	}
}

func TestRecordAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.vrs")
	w, err := NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if err := w.Record([]byte("late")); err == nil {
		t.Fatal("expected error writing after close")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close should be a no-op, got %v", err)
	}
}

func TestOpenRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.vrs")
	if err := os.WriteFile(path, []byte("NOTAREC1xxxx"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for bad magic")
	}
}
