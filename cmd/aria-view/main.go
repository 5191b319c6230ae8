package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"aria-view-go/internal/cache"
	"aria-view-go/internal/config"
	"aria-view-go/internal/display"
	"aria-view-go/internal/receiver"
	"aria-view-go/internal/simulator"
)

func main() {
	defaults := config.Default()
	var (
		configPath     = flag.String("config", "", "Optional YAML config file; flags override file values")
		host           = flag.String("host", defaults.Host, "Host/IP to bind")
		port           = flag.Int("port", defaults.Port, "Port to bind")
		recordToVRS    = flag.String("record-to-vrs", "", "Optional output recording file path")
		showSLAM       = flag.Bool("show-slam", false, "Also show SLAM stream window")
		zmqEndpoint    = flag.String("zmq-endpoint", "", "Optional ZMQ PULL endpoint for devices streaming over ZMQ")
		debug          = flag.Bool("debug", false, "Run with simulated frames instead of the network receiver")
		debugFPS       = flag.Float64("debug-fps", defaults.DebugFPS, "Simulated frame rate (frames/sec)")
		pollInterval   = flag.Duration("poll-interval", defaults.PollInterval, "Sleep between display iterations")
		statusLogEvery = flag.Duration("status-log-every", defaults.StatusLogEvery, "Interval for periodic stats logging")
		ingestLogEvery = flag.Int("ingest-log-every", defaults.IngestLogEvery, "Log every Nth ingest error")
	)
	flag.Parse()

	cfg := defaults
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	// Explicitly set flags win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = *host
		case "port":
			cfg.Port = *port
		case "record-to-vrs":
			cfg.RecordToVRS = *recordToVRS
		case "show-slam":
			cfg.ShowSLAM = *showSLAM
		case "zmq-endpoint":
			cfg.ZMQEndpoint = *zmqEndpoint
		case "debug":
			cfg.Debug = *debug
		case "debug-fps":
			cfg.DebugFPS = *debugFPS
		case "poll-interval":
			cfg.PollInterval = *pollInterval
		case "status-log-every":
			cfg.StatusLogEvery = *statusLogEvery
		case "ingest-log-every":
			cfg.IngestLogEvery = *ingestLogEvery
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frameCache := cache.New()

	rcv := receiver.New()
	rcv.SetServerConfig(receiver.Config{Address: cfg.Host, Port: cfg.Port})
	rcv.SetLogEvery(cfg.IngestLogEvery)
	if cfg.ZMQEndpoint != "" {
		rcv.SetZMQEndpoint(cfg.ZMQEndpoint)
	}
	if cfg.RecordToVRS != "" {
		if err := rcv.RecordToVRS(cfg.RecordToVRS); err != nil {
			log.Fatalf("failed to open recording: %v", err)
		}
		log.Printf("recording to %s", cfg.RecordToVRS)
	}
	rcv.RegisterRGBCallback(frameCache.Put)
	rcv.RegisterSLAMCallback(frameCache.Put)

	if cfg.Debug {
		log.Printf("debug mode: streaming simulated frames at %.1f fps", cfg.DebugFPS)
		go func() {
			for rec := range simulator.Stream(ctx, simulator.Options{FPS: cfg.DebugFPS, WithSLAM: true}) {
				frameCache.Put(rec)
			}
		}()
	} else {
		log.Printf("starting server on http://%s:%d", cfg.Host, cfg.Port)
		log.Println("waiting for device to start streaming...")
		if err := rcv.StartServer(ctx); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}

	go func() {
		ticker := time.NewTicker(cfg.StatusLogEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				stats := frameCache.Stats()
				rgb, slam, failures := rcv.Stats()
				log.Printf("stats: rgb=%d slam=%d decode_failures=%d dropped_rgb=%d dropped_slam=%d",
					rgb, slam, failures, stats.RGBDrops, stats.SLAMDrops)
			}
		}
	}()

	loop := display.NewLoop(frameCache, display.NewGocvSurface(), display.Options{
		ShowSLAM:     cfg.ShowSLAM,
		PollInterval: cfg.PollInterval,
	})
	if err := loop.Run(ctx); err != nil {
		log.Printf("display loop stopped: %v", err)
	}
	stop()
	log.Println("done")
}
