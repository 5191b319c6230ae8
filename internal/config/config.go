package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type AppConfig struct {
	Host        string  `yaml:"host"`
	Port        int     `yaml:"port"`
	RecordToVRS string  `yaml:"record_to_vrs"`
	ShowSLAM    bool    `yaml:"show_slam"`
	ZMQEndpoint string  `yaml:"zmq_endpoint"`
	Debug       bool    `yaml:"debug"`
	DebugFPS    float64 `yaml:"debug_fps"`

	// Durations are flag-only; yaml.v2 has no native duration parsing.
	PollInterval   time.Duration `yaml:"-"`
	StatusLogEvery time.Duration `yaml:"-"`

	IngestLogEvery int `yaml:"ingest_log_every"`
}

func Default() AppConfig {
	return AppConfig{
		Host:           "0.0.0.0",
		Port:           6768,
		DebugFPS:       10,
		PollInterval:   time.Millisecond,
		StatusLogEvery: 30 * time.Second,
		IngestLogEvery: 100,
	}
}

// Load reads a YAML config file over the defaults. Flags applied by the
// caller afterwards take precedence over file values.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
