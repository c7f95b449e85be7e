// Package config loads the daemon's on-disk YAML configuration and overlays
// it with environment variables, in the teacher's LoadConfig/DefaultConfig
// style (client/daemon/config.go), generalised from a relay/P2P daemon's
// settings to the tunnel's role/secret/overlay settings.
package config

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-envparse"
	"gopkg.in/yaml.v3"

	"github.com/shadowmesh/l2tun/internal/overlay"
)

// Config is the full on-disk configuration for one tunnel endpoint.
type Config struct {
	Role string `yaml:"role"` // "server" or "client"

	SecretFile string `yaml:"secret_file"`
	Listen     string `yaml:"listen"`    // server: address to bind; client: local bind address
	PeerAddr   string `yaml:"peer_addr"` // client: server address to dial

	// ControlSocket, if set, is a unix socket the client dials and relays
	// overlay-change control messages to, for a parent process to apply to
	// the OS network stack. Unused by the server.
	ControlSocket string `yaml:"control_socket"`

	Tap TapConfig `yaml:"tap"`

	Overlay OverlayConfig `yaml:"overlay"` // server only

	Timing TimingConfig `yaml:"timing"`

	Debug         bool `yaml:"debug"`
	DebugCompress bool `yaml:"debug_compress"`

	Logging LoggingConfig `yaml:"logging"`

	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TapConfig describes the virtual Ethernet interface to create or attach to.
type TapConfig struct {
	Name string `yaml:"name"`
	MTU  int    `yaml:"mtu"`
}

// OverlayConfig mirrors internal/overlay.Config but in host-friendly,
// human-editable form (dotted IPv4 strings instead of packed uint32s).
type OverlayConfig struct {
	NetAddr   string `yaml:"net_addr"`
	NetMask   string `yaml:"net_mask"`
	DefaultGW string `yaml:"default_gw"`
	MTU       int    `yaml:"mtu"`
	DNS1      string `yaml:"dns1"`
	DNS2      string `yaml:"dns2"`
	DNS3      string `yaml:"dns3"`
}

// TimingConfig overrides the specification's normative timers. Left at
// their zero value, the engine applies its own defaults.
type TimingConfig struct {
	Timeout            time.Duration `yaml:"timeout"`
	ConnectTTL         int32         `yaml:"connect_ttl"`
	TimestampDeltaMax  uint32        `yaml:"timestamp_delta_max"`
	StatsTimeoutMax    int           `yaml:"stats_timeout_max"`
	CompressTimeoutMax int           `yaml:"compress_timeout_max"`
}

// LoggingConfig controls the structured audit logger (internal/telemetry).
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// TelemetryConfig points at the optional stats/audit sinks.
type TelemetryConfig struct {
	RedisAddr    string `yaml:"redis_addr"`
	PostgresDSN  string `yaml:"postgres_dsn"`
	MetricsAddr  string `yaml:"metrics_addr"`
}

// Resolve converts the human-editable dotted-IPv4 form into the packed
// uint32 overlay.Config the engine carries inside HELLO. Empty address
// strings resolve to zero, so an operator can leave DNS2/DNS3 unset.
func (o OverlayConfig) Resolve() (overlay.Config, error) {
	netAddr, err := ipToUint32(o.NetAddr)
	if err != nil {
		return overlay.Config{}, fmt.Errorf("config: overlay.net_addr: %w", err)
	}
	netMask, err := ipToUint32(o.NetMask)
	if err != nil {
		return overlay.Config{}, fmt.Errorf("config: overlay.net_mask: %w", err)
	}
	gw, err := ipToUint32(o.DefaultGW)
	if err != nil {
		return overlay.Config{}, fmt.Errorf("config: overlay.default_gw: %w", err)
	}
	dns1, err := ipToUint32(o.DNS1)
	if err != nil {
		return overlay.Config{}, fmt.Errorf("config: overlay.dns1: %w", err)
	}
	dns2, err := ipToUint32(o.DNS2)
	if err != nil {
		return overlay.Config{}, fmt.Errorf("config: overlay.dns2: %w", err)
	}
	dns3, err := ipToUint32(o.DNS3)
	if err != nil {
		return overlay.Config{}, fmt.Errorf("config: overlay.dns3: %w", err)
	}
	return overlay.Config{
		NetAddr:   netAddr,
		NetMask:   netMask,
		DefaultGW: gw,
		MTU:       uint32(o.MTU),
		DNS1:      dns1,
		DNS2:      dns2,
		DNS3:      dns3,
	}, nil
}

// ipToUint32 parses a dotted-decimal IPv4 address into its big-endian
// uint32 form. An empty string is valid and resolves to 0.
func ipToUint32(addr string) (uint32, error) {
	if addr == "" {
		return 0, nil
	}
	ip := net.ParseIP(addr).To4()
	if ip == nil {
		return 0, fmt.Errorf("invalid IPv4 address %q", addr)
	}
	return binary.BigEndian.Uint32(ip), nil
}

// Default returns a configuration with sensible defaults for a first run.
func Default() *Config {
	return &Config{
		Role:       "client",
		SecretFile: "/etc/l2tund/secret",
		Listen:     ":9000",
		Tap:        TapConfig{Name: "tap0", MTU: 1500},
		Logging:    LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads path as YAML into Default(), then overlays any matching
// environment variables found in envPath (if non-empty) or the process
// environment, environment values always winning over the file.
func Load(path string, envPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	env, err := loadEnv(envPath)
	if err != nil {
		return nil, err
	}
	applyEnv(cfg, env)

	// Validation is left to the caller, which may still override fields
	// (cmd/l2tund sets Role from the subcommand) before calling Validate.
	return cfg, nil
}

// loadEnv reads KEY=VALUE pairs from envPath, if given, via
// hashicorp/go-envparse; otherwise it returns the process environment.
func loadEnv(envPath string) (map[string]string, error) {
	if envPath == "" {
		out := make(map[string]string)
		for _, kv := range os.Environ() {
			for i := 0; i < len(kv); i++ {
				if kv[i] == '=' {
					out[kv[:i]] = kv[i+1:]
					break
				}
			}
		}
		return out, nil
	}

	f, err := os.Open(envPath)
	if err != nil {
		return nil, fmt.Errorf("config: opening env overlay %s: %w", envPath, err)
	}
	defer f.Close()

	env, err := envparse.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("config: parsing env overlay %s: %w", envPath, err)
	}
	return env, nil
}

// applyEnv overlays the handful of settings an operator most often wants to
// override without editing the YAML file: role, endpoints, and the secret
// path. Env vars are prefixed L2TUND_.
func applyEnv(cfg *Config, env map[string]string) {
	if v, ok := env["L2TUND_ROLE"]; ok {
		cfg.Role = v
	}
	if v, ok := env["L2TUND_SECRET_FILE"]; ok {
		cfg.SecretFile = v
	}
	if v, ok := env["L2TUND_LISTEN"]; ok {
		cfg.Listen = v
	}
	if v, ok := env["L2TUND_PEER_ADDR"]; ok {
		cfg.PeerAddr = v
	}
	if v, ok := env["L2TUND_DEBUG"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Debug = b
		}
	}
}

// Validate checks the minimal set of invariants the engine needs to start.
func (c *Config) Validate() error {
	switch c.Role {
	case "server", "client":
	default:
		return fmt.Errorf("config: role must be \"server\" or \"client\", got %q", c.Role)
	}
	if c.SecretFile == "" {
		return fmt.Errorf("config: secret_file is required")
	}
	if c.Role == "client" && c.PeerAddr == "" {
		return fmt.Errorf("config: peer_addr is required for client role")
	}
	return nil
}
