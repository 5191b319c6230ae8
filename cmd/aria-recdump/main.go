package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"aria-view-go/internal/codec"
	"aria-view-go/internal/record"
)

// aria-recdump summarizes the frames in a recording file.
func main() {
	var (
		path  = flag.String("path", "", "Path to recording file")
		limit = flag.Int("limit", 10, "Number of records to dump (0 = all)")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("path is required")
	}

	r, err := record.Open(*path)
	if err != nil {
		log.Fatalf("open recording: %v", err)
	}
	defer r.Close()

	count := 0
	var rgbCount, slamCount, skipCount, errCount int
	for {
		entry, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read record %d: %v", count, err)
		}

		if *limit <= 0 || count < *limit {
			describe(count, entry)
		}
		count++

		rec, err := codec.DecodeFrame(entry.Payload)
		switch {
		case errors.Is(err, codec.ErrSkip):
			skipCount++
		case err != nil:
			errCount++
		case rec.Stream == "rgb":
			rgbCount++
		default:
			slamCount++
		}
	}

	fmt.Printf("summary: records=%d rgb=%d slam=%d skipped=%d errors=%d\n",
		count, rgbCount, slamCount, skipCount, errCount)
}

func describe(index int, entry record.Entry) {
	received := time.Unix(0, entry.TimestampNs).Format(time.RFC3339Nano)
	rec, err := codec.DecodeFrame(entry.Payload)
	if err != nil {
		fmt.Printf("record %d received=%s size=%d (%v)\n", index, received, len(entry.Payload), err)
		return
	}
	fmt.Printf("record %d received=%s stream=%s capture_ts=%d shape=%dx%dx%d\n",
		index, received, rec.Stream, rec.TimestampNs,
		rec.Image.Height, rec.Image.Width, rec.Image.Channels)
}
