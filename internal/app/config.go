package app

import (
	"errors"
	"fmt"
)

// Config holds all the configuration for a single batch run.
type Config struct {
	WorklistPath string
	OutputPath   string
	// ParamsPath is the per-case extraction parameters file. A missing file
	// selects the built-in defaults.
	ParamsPath string
	// ToolkitPath is an optional HCL file describing the toolkit command.
	ToolkitPath string
	// LogDir receives one timestamped log file per run. Empty logs to the
	// application's output writer instead.
	LogDir          string
	LogLevel        string
	LogFormat       string
	WorkerCount     int
	HealthcheckPort int
	ProgressURL     string
	UploadURL       string
	KeepBackground  bool
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorklistPath == "" {
		return nil, errors.New("worklist path is required")
	}
	if cfg.OutputPath == "" {
		return nil, errors.New("output path is required")
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("invalid worker count %d: must be zero (auto) or positive", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "line"
	case "line", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q", cfg.LogFormat)
	}
	return &cfg, nil
}
