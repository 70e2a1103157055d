// Package config loads the resolver driver's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk YAML configuration for resolverd.
type File struct {
	Listen        string `yaml:"listen"`
	MetricsListen string `yaml:"metrics_listen"`

	RootServer   string `yaml:"root_server"`
	QueryTimeout string `yaml:"query_timeout"`
	MaxDepth     int    `yaml:"max_depth"`
	Enable0x20   *bool  `yaml:"enable_0x20"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the configuration resolverd runs with when no file is
// supplied.
func Default() File {
	enable0x20 := true
	return File{
		Listen:        "0.0.0.0:2053",
		MetricsListen: "127.0.0.1:9053",
		RootServer:    "198.41.0.4",
		QueryTimeout:  "2s",
		MaxDepth:      8,
		Enable0x20:    &enable0x20,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load reads and parses a YAML config file at path, filling any field the
// file omits from Default().
func Load(path string) (File, error) {
	f := Default()

	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return f, nil
}

// QueryTimeoutDuration parses QueryTimeout, defaulting to 2s on a blank or
// unparsable value.
func (f File) QueryTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(f.QueryTimeout)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// Enable0x20Value returns the configured 0x20 flag, defaulting to true
// when unset.
func (f File) Enable0x20Value() bool {
	if f.Enable0x20 == nil {
		return true
	}
	return *f.Enable0x20
}
