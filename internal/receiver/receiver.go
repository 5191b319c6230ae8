package receiver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"aria-view-go/internal/codec"
	"aria-view-go/internal/record"
	"aria-view-go/internal/types"
)

// Receiver is the embedded streaming server the device pushes frames to.
// Frames arrive as CBOR messages over HTTP POST, a websocket connection,
// or an optional ZMQ PULL endpoint, and are dispatched to the registered
// per-stream callbacks from the delivery goroutines. Callbacks must be
// registered before StartServer.
type Receiver struct {
	cfg         Config
	zmqEndpoint string
	logEvery    int

	rgbCb  Callback
	slamCb Callback

	recorder *record.Writer

	rgbFrames      atomic.Uint64
	slamFrames     atomic.Uint64
	skipped        atomic.Uint64
	decodeFailures atomic.Uint64
	recordFailures atomic.Uint64
	wsClients      atomic.Int64
	logCounter     atomic.Uint64

	started bool
}

// Config mirrors the HTTP server configuration the device is pointed at.
type Config struct {
	Address string
	Port    int
}

// Callback receives one decoded frame record. Invoked concurrently from
// delivery goroutines; implementations must not block.
type Callback func(types.Record)

const maxFrameBytes = 64 << 20

func New() *Receiver {
	return &Receiver{
		cfg:      Config{Address: "0.0.0.0", Port: 6768},
		logEvery: 100,
	}
}

func (r *Receiver) SetServerConfig(cfg Config) {
	r.cfg = cfg
}

// SetZMQEndpoint enables the ZMQ ingest path for device profiles that
// push over a PUSH socket instead of HTTP. Empty disables it.
func (r *Receiver) SetZMQEndpoint(endpoint string) {
	r.zmqEndpoint = endpoint
}

// SetLogEvery throttles decode-failure logging to every nth occurrence.
func (r *Receiver) SetLogEvery(n int) {
	if n < 1 {
		n = 1
	}
	r.logEvery = n
}

func (r *Receiver) RegisterRGBCallback(fn Callback) {
	r.rgbCb = fn
}

func (r *Receiver) RegisterSLAMCallback(fn Callback) {
	r.slamCb = fn
}

// RecordToVRS opens the recording sink at path. Every accepted raw
// payload is appended before decode and dispatch.
func (r *Receiver) RecordToVRS(path string) error {
	if r.started {
		return errors.New("recording must be enabled before StartServer")
	}
	w, err := record.NewWriter(path)
	if err != nil {
		return err
	}
	r.recorder = w
	return nil
}

// StartServer binds the listener and starts serving in the background.
// A bind failure is returned synchronously; after that the server runs
// until ctx is cancelled, then shuts down and closes the recorder.
func (r *Receiver) StartServer(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/frame", r.handleFrame)
	mux.HandleFunc("/stream", r.handleWS)
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/status", r.handleStatus)

	addr := net.JoinHostPort(r.cfg.Address, fmt.Sprintf("%d", r.cfg.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if r.zmqEndpoint != "" {
		if err := r.startZMQ(ctx, r.zmqEndpoint); err != nil {
			_ = listener.Close()
			return err
		}
	}

	go func() {
		if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("receiver serve stopped: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		if r.recorder != nil {
			if err := r.recorder.Close(); err != nil {
				log.Printf("recording close failed: %v", err)
			}
		}
	}()

	r.started = true
	return nil
}

// dispatch records, decodes, and routes one raw wire payload.
func (r *Receiver) dispatch(payload []byte) error {
	if r.recorder != nil {
		if err := r.recorder.Record(payload); err != nil {
			r.recordFailures.Add(1)
			r.logEveryN("recording write failed: %v", err)
		}
	}

	rec, err := codec.DecodeFrame(payload)
	if err != nil {
		if errors.Is(err, codec.ErrSkip) {
			r.skipped.Add(1)
			return nil
		}
		r.decodeFailures.Add(1)
		r.logEveryN("frame decode failed: %v", err)
		return err
	}

	switch rec.Stream {
	case types.StreamRGB:
		r.rgbFrames.Add(1)
		if r.rgbCb != nil {
			r.rgbCb(rec)
		}
	case types.StreamSLAM:
		r.slamFrames.Add(1)
		if r.slamCb != nil {
			r.slamCb(rec)
		}
	}
	return nil
}

func (r *Receiver) handleFrame(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(req.Body, maxFrameBytes+1))
	if err != nil {
		http.Error(w, "read failed", http.StatusBadRequest)
		return
	}
	if len(payload) > maxFrameBytes {
		http.Error(w, "frame too large", http.StatusRequestEntityTooLarge)
		return
	}
	if err := r.dispatch(payload); err != nil {
		http.Error(w, "decode failed", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Receiver) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Receiver) handleStatus(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{
		"address":               r.cfg.Address,
		"port":                  r.cfg.Port,
		"rgb_frames_total":      r.rgbFrames.Load(),
		"slam_frames_total":     r.slamFrames.Load(),
		"skipped_total":         r.skipped.Load(),
		"decode_failures_total": r.decodeFailures.Load(),
		"record_failures_total": r.recordFailures.Load(),
		"ws_clients":            r.wsClients.Load(),
		"recording":             r.recorder != nil,
	}
	if r.recorder != nil {
		records, bytes := r.recorder.Stats()
		payload["recorded_frames_total"] = records
		payload["recorded_bytes_total"] = bytes
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// Stats is a subset of /status used by the periodic logger in main.
func (r *Receiver) Stats() (rgb, slam, decodeFailures uint64) {
	return r.rgbFrames.Load(), r.slamFrames.Load(), r.decodeFailures.Load()
}

func (r *Receiver) logEveryN(format string, args ...any) {
	if r.logCounter.Add(1)%uint64(r.logEvery) == 0 {
		log.Printf(format, args...)
	}
}
