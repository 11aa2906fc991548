// Package cmn provides common types and utilities for dlsim packages.
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package cmn

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/dlsim/cmn/cos"
	"github.com/NVIDIA/dlsim/cmn/jsp"

	"gopkg.in/yaml.v3"
)

// environment
const (
	EnvPort             = "PORT"
	EnvHost             = "DLSIM_HOST"
	EnvDB               = "DLSIM_DB"
	EnvChunkSize        = "DLSIM_CHUNK_SIZE"
	EnvSampleInterval   = "DLSIM_SAMPLE_INTERVAL"
	EnvStatsLogInterval = "DLSIM_STATS_LOG_INTERVAL"
	EnvLogDir           = "DLSIM_LOG_DIR"
	EnvTracingEndpoint  = "DLSIM_TRACING_ENDPOINT"
)

// defaults
const (
	DefaultPort             = 8080
	DefaultDBPath           = "db/dlsim.db"
	DefaultChunkSize        = 64 * cos.KiB
	DefaultSampleInterval   = time.Second
	DefaultStatsLogInterval = time.Minute
	DefaultLogFlushTime     = 10 * time.Second
	DefaultLogMaxSize       = 4 * cos.MiB

	maxChunkSize   = 64 * cos.MiB
	minSampleIval  = time.Millisecond
	minLogInterval = time.Second
)

type (
	Config struct {
		Net     NetConf     `json:"net" yaml:"net"`
		Stats   StatsConf   `json:"stats" yaml:"stats"`
		Stream  StreamConf  `json:"stream" yaml:"stream"`
		Log     LogConf     `json:"log" yaml:"log"`
		Tracing TracingConf `json:"tracing" yaml:"tracing"`
	}
	NetConf struct {
		Host string `json:"host" yaml:"host"`
		Port int    `json:"port" yaml:"port"`
	}
	StatsConf struct {
		DBPath      string       `json:"db_path" yaml:"db_path"`
		LogInterval cos.Duration `json:"log_interval" yaml:"log_interval"` // zero disables the periodic log line
	}
	StreamConf struct {
		ChunkSize      cos.SizeIEC  `json:"chunk_size" yaml:"chunk_size"`
		SampleInterval cos.Duration `json:"sample_interval" yaml:"sample_interval"`
	}
	LogConf struct {
		Dir       string       `json:"dir" yaml:"dir"` // empty: stderr
		MaxSize   cos.SizeIEC  `json:"max_size" yaml:"max_size"`
		FlushTime cos.Duration `json:"flush_time" yaml:"flush_time"`
		ToStderr  bool         `json:"to_stderr" yaml:"to_stderr"`
	}
	TracingConf struct {
		ExporterEndpoint   string  `json:"exporter_endpoint" yaml:"exporter_endpoint"`
		SamplerProbability float64 `json:"sampler_probability" yaml:"sampler_probability"`
		Enabled            bool    `json:"enabled" yaml:"enabled"`
		SkipVerify         bool    `json:"skip_verify" yaml:"skip_verify"`
	}
)

func DefaultConfig() *Config {
	return &Config{
		Net:   NetConf{Port: DefaultPort},
		Stats: StatsConf{DBPath: DefaultDBPath, LogInterval: cos.Duration(DefaultStatsLogInterval)},
		Stream: StreamConf{
			ChunkSize:      cos.SizeIEC(DefaultChunkSize),
			SampleInterval: cos.Duration(DefaultSampleInterval),
		},
		Log: LogConf{
			MaxSize:   cos.SizeIEC(DefaultLogMaxSize),
			FlushTime: cos.Duration(DefaultLogFlushTime),
		},
		Tracing: TracingConf{SamplerProbability: 1},
	}
}

// LoadConfig reads JSON or YAML (by extension) on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(config); err != nil {
			return nil, fmt.Errorf("failed to parse %q: %w", path, err)
		}
	default:
		if err := jsp.Load(path, config, jsp.Plain()); err != nil {
			return nil, fmt.Errorf("failed to load %q: %w", path, err)
		}
	}
	return config, nil
}

// SaveConfig writes human-readable JSON or YAML (by extension).
func SaveConfig(path string, config *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		b, err := yaml.Marshal(config)
		if err != nil {
			return err
		}
		return os.WriteFile(path, b, cos.PermRWR)
	default:
		return jsp.Save(path, config, jsp.Plain())
	}
}

// LoadFromEnv applies environment overrides.
func (c *Config) LoadFromEnv() (err error) {
	if v := os.Getenv(EnvPort); v != "" {
		if c.Net.Port, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", EnvPort, v, err)
		}
	}
	c.Net.Host = cos.GetEnvOrDefault(EnvHost, c.Net.Host)
	c.Stats.DBPath = cos.GetEnvOrDefault(EnvDB, c.Stats.DBPath)
	c.Log.Dir = cos.GetEnvOrDefault(EnvLogDir, c.Log.Dir)
	if v := os.Getenv(EnvChunkSize); v != "" {
		n, err := cos.ParseSize(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvChunkSize, err)
		}
		c.Stream.ChunkSize = cos.SizeIEC(n)
	}
	if err = envDuration(EnvSampleInterval, &c.Stream.SampleInterval); err != nil {
		return err
	}
	if err = envDuration(EnvStatsLogInterval, &c.Stats.LogInterval); err != nil {
		return err
	}
	if v := os.Getenv(EnvTracingEndpoint); v != "" {
		c.Tracing.Enabled = true
		c.Tracing.ExporterEndpoint = v
	}
	return nil
}

func envDuration(name string, d *cos.Duration) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	dur, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", name, v, err)
	}
	*d = cos.Duration(dur)
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Net.Port <= 0 || c.Net.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Net.Port))
	}
	if c.Stats.DBPath == "" {
		errs = append(errs, errors.New("statistics db path must be specified"))
	}
	if d := c.Stats.LogInterval.D(); d != 0 && d < minLogInterval {
		errs = append(errs, fmt.Errorf("stats log interval %v is too short (min %v)", d, minLogInterval))
	}
	if n := int64(c.Stream.ChunkSize); n <= 0 || n > maxChunkSize {
		errs = append(errs, fmt.Errorf("invalid chunk size %d (expecting 1B to %s)", n, cos.ToSizeCanon(maxChunkSize)))
	}
	if d := c.Stream.SampleInterval.D(); d < minSampleIval {
		errs = append(errs, fmt.Errorf("sample interval %v is too short (min %v)", d, minSampleIval))
	}
	if c.Log.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("invalid log max size %d", c.Log.MaxSize))
	}
	if c.Log.FlushTime.D() <= 0 {
		errs = append(errs, fmt.Errorf("invalid log flush time %v", c.Log.FlushTime))
	}
	if c.Tracing.Enabled {
		if c.Tracing.ExporterEndpoint == "" {
			errs = append(errs, errors.New("tracing enabled with no exporter endpoint"))
		}
		if p := c.Tracing.SamplerProbability; p < 0 || p > 1 {
			errs = append(errs, fmt.Errorf("invalid sampler probability %f", p))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) ListenAddr() string {
	return c.Net.Host + ":" + strconv.Itoa(c.Net.Port)
}
