package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"aria-view-go/internal/codec"
	"aria-view-go/internal/simulator"
	"aria-view-go/internal/types"
)

// aria-feed pushes simulated device frames to a running viewer. Useful
// for exercising the viewer without hardware.
func main() {
	var (
		target    = flag.String("target", "127.0.0.1:6768", "Viewer host:port")
		transport = flag.String("transport", "ws", "Transport: ws or http")
		fps       = flag.Float64("fps", 10, "Frames per second")
		width     = flag.Int("width", 320, "Frame width")
		height    = flag.Int("height", 240, "Frame height")
		withSLAM  = flag.Bool("with-slam", true, "Also send SLAM frames")
		duration  = flag.Duration("duration", 0, "Stop after this long (0 = run until interrupted)")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	var send func([]byte) error
	switch *transport {
	case "ws":
		url := fmt.Sprintf("ws://%s/stream", *target)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			log.Fatalf("failed to connect to %s: %v", url, err)
		}
		defer conn.Close()
		send = func(payload []byte) error {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			return conn.WriteMessage(websocket.BinaryMessage, payload)
		}
	case "http":
		url := fmt.Sprintf("http://%s/frame", *target)
		client := &http.Client{Timeout: 10 * time.Second}
		send = func(payload []byte) error {
			resp, err := client.Post(url, "application/cbor", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusNoContent {
				return fmt.Errorf("unexpected status %s", resp.Status)
			}
			return nil
		}
	default:
		log.Fatalf("unknown transport %q", *transport)
	}

	var sent uint64
	frames := simulator.Stream(ctx, simulator.Options{
		Width:    *width,
		Height:   *height,
		FPS:      *fps,
		WithSLAM: *withSLAM,
	})
	for rec := range frames {
		payload, err := codec.EncodeFrame(rec)
		if err != nil {
			log.Fatalf("encode frame: %v", err)
		}
		if err := send(payload); err != nil {
			log.Fatalf("send frame: %v", err)
		}
		sent++
		if rec.Stream == types.StreamRGB && sent%100 == 0 {
			log.Printf("sent %d frames", sent)
		}
	}
	log.Printf("done, sent %d frames", sent)
}
