// Package config holds the pipeline's runtime configuration: binning
// parameters, regression bounds, I/O paths and the optional status
// server settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates every configurable section of the pipeline.
type Config struct {
	Regression RegressionConfig
	Binning    BinningConfig
	IO         IOConfig
	Server     ServerConfig
}

// RegressionConfig bounds the regression kernel's scale sweep. Alpha is
// only range-checked by Validate; the validator's critical values come
// from internal/statistics, which uses its own fixed Alpha.
type RegressionConfig struct {
	MinScale int // smallest half-window scale attempted (default 2)
	MaxScale int // largest half-window scale attempted (default statistics.MaxScale)
	Alpha    float64
}

// BinningConfig holds qBinning parameters.
type BinningConfig struct {
	MaxDist     int     // max scan-number gap before a scan-split (default 6)
	PPM         float64 // fixed ppm mass error, used when a point carries no per-point error
	EnableRebin bool    // run the hot-end rebinning pass
	MinBinSize  int     // default 5; only range-checked by Validate, qbin always uses its own MinBinSize constant
}

// IOConfig holds file paths and CLI-driven output toggles.
type IOConfig struct {
	InputPath    string
	OutputDir    string
	Recursive    bool
	Silent       bool
	PrintBins    bool
	LogFile      string
	BinOnlyCSV   string
}

// ServerConfig configures the optional long-running status/control API.
type ServerConfig struct {
	Host            string
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Regression: RegressionConfig{
			MinScale: 2,
			MaxScale: 63,
			Alpha:    0.01,
		},
		Binning: BinningConfig{
			MaxDist:     6,
			PPM:         5,
			EnableRebin: true,
			MinBinSize:  5,
		},
		IO: IOConfig{},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// LoadFromEnv overlays environment variables on top of the defaults.
func LoadFromEnv() *Config {
	cfg := Default()

	if v := os.Getenv("QALGO_MIN_SCALE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Regression.MinScale = n
		}
	}
	if v := os.Getenv("QALGO_MAX_SCALE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Regression.MaxScale = n
		}
	}
	if v := os.Getenv("QALGO_MAXDIST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Binning.MaxDist = n
		}
	}
	if v := os.Getenv("QALGO_PPM"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Binning.PPM = f
		}
	}
	if v := os.Getenv("QALGO_REBIN"); v == "false" {
		cfg.Binning.EnableRebin = false
	}
	if v := os.Getenv("QALGO_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("QALGO_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("QALGO_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}

	return cfg
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Regression.MinScale < 2 {
		return fmt.Errorf("invalid min scale: %d (must be >= 2)", c.Regression.MinScale)
	}
	if c.Regression.MaxScale < c.Regression.MinScale {
		return fmt.Errorf("invalid max scale: %d (must be >= min scale %d)", c.Regression.MaxScale, c.Regression.MinScale)
	}
	if c.Regression.Alpha <= 0 || c.Regression.Alpha >= 1 {
		return fmt.Errorf("invalid alpha: %v (must be in (0,1))", c.Regression.Alpha)
	}
	if c.Binning.MaxDist < 0 {
		return fmt.Errorf("invalid maxdist: %d (must be >= 0)", c.Binning.MaxDist)
	}
	if c.Binning.PPM <= 0 {
		return fmt.Errorf("invalid ppm: %v (must be > 0)", c.Binning.PPM)
	}
	if c.Binning.MinBinSize < 1 {
		return fmt.Errorf("invalid min bin size: %d (must be > 0)", c.Binning.MinBinSize)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Server.Port)
	}
	return nil
}

// Address returns the server's host:port address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
