// Package config holds the cliplink server configuration. Values come from a
// YAML file overlaid by environment variables; core protocol packages receive
// plain values from here and never consult the environment themselves.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Repository backends.
const (
	BackendMemory = "memory"
	BackendEtcd   = "etcd"
)

// Defaults.
const (
	DefaultAddr = "127.0.0.1"
	DefaultPort = 6166
)

// Environment variable names recognized by ApplyEnv.
const (
	EnvAddr          = "CLIPLINK_ADDR"
	EnvPort          = "CLIPLINK_PORT"
	EnvBackend       = "CLIPLINK_BACKEND"
	EnvEtcdEndpoints = "CLIPLINK_ETCD_ENDPOINTS"
	EnvLogLevel      = "CLIPLINK_LOG_LEVEL"
)

// Server holds the cliplink server configuration.
type Server struct {
	Addr          string   `yaml:"addr"`
	Port          uint16   `yaml:"port"`
	Backend       string   `yaml:"backend"`
	EtcdEndpoints []string `yaml:"etcd_endpoints"`
	LogLevel      string   `yaml:"log_level"`
}

// Default returns the built-in configuration: listen on 127.0.0.1:6166 with
// the in-memory backend.
func Default() *Server {
	return &Server{
		Addr:     DefaultAddr,
		Port:     DefaultPort,
		Backend:  BackendMemory,
		LogLevel: "info",
	}
}

// Load reads the configuration from the given YAML file path. An empty path
// or a missing file yields the defaults with no error.
func Load(path string) (*Server, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	return cfg, nil
}

// ApplyEnv overlays environment variables onto the configuration. Unset
// variables leave the current values untouched.
func (c *Server) ApplyEnv() error {
	if addr := os.Getenv(EnvAddr); addr != "" {
		c.Addr = addr
	}
	if port := os.Getenv(EnvPort); port != "" {
		parsed, err := strconv.ParseUint(port, 10, 16)
		if err != nil {
			return fmt.Errorf("parse %s=%q: %w", EnvPort, port, err)
		}
		c.Port = uint16(parsed)
	}
	if backend := os.Getenv(EnvBackend); backend != "" {
		c.Backend = backend
	}
	if endpoints := os.Getenv(EnvEtcdEndpoints); endpoints != "" {
		c.EtcdEndpoints = strings.Split(endpoints, ",")
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}

	return c.validate()
}

func (c *Server) validate() error {
	switch c.Backend {
	case BackendMemory, BackendEtcd:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == BackendEtcd && len(c.EtcdEndpoints) == 0 {
		return fmt.Errorf("backend %q requires etcd endpoints", BackendEtcd)
	}
	return nil
}

// ListenAddr returns the host:port string to listen on.
func (c *Server) ListenAddr() string {
	return net.JoinHostPort(c.Addr, strconv.Itoa(int(c.Port)))
}
