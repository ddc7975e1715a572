package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // hcl file or directory

	// Frames is the number of frames to execute. Zero runs until the
	// context is cancelled.
	Frames        int
	FrameInterval time.Duration

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Watch reloads the pipeline when its files change.
	Watch        bool
	InspectorURL string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.Frames < 0 {
		return nil, fmt.Errorf("frames must not be negative, got %d", cfg.Frames)
	}
	if cfg.FrameInterval < 0 {
		return nil, fmt.Errorf("frame interval must not be negative, got %s", cfg.FrameInterval)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port out of range: %d", cfg.HealthcheckPort)
	}
	if cfg.InspectorURL != "" && !govalidator.IsRequestURL(cfg.InspectorURL) {
		return nil, fmt.Errorf("inspector URL %q is not a valid absolute URL", cfg.InspectorURL)
	}
	if cfg.Frames == 0 && !cfg.Watch && cfg.FrameInterval == 0 {
		// Unbounded busy loop without anything to wait for.
		cfg.FrameInterval = 16 * time.Millisecond
	}

	return &cfg, nil
}
