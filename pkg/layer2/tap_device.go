package layer2

import (
	"fmt"

	"github.com/songgao/water"
)

// TAPConfig describes the virtual Ethernet interface the tunnel attaches
// to. It is deliberately tiny: the engine drives I/O against the
// water.Interface directly (it already owns its own read/write
// goroutines), so this package's only job is constructing and naming the
// device.
type TAPConfig struct {
	Name string // desired interface name on Linux; ignored on macOS
	MTU  int
}

// NewTAP creates a TAP interface and returns it as an io.ReadWriteCloser
// suitable for engine.Config.Tap. Creating one requires CAP_NET_ADMIN or
// root.
func NewTAP(cfg TAPConfig) (*water.Interface, error) {
	waterCfg := water.Config{DeviceType: water.TAP}
	if cfg.Name != "" {
		waterCfg.Name = cfg.Name
	}

	iface, err := water.New(waterCfg)
	if err != nil {
		return nil, fmt.Errorf("layer2: creating TAP device: %w", err)
	}
	return iface, nil
}

// Interface address assignment is not done by this package. cmd/l2tund's
// server applies its own configured overlay address through
// shared/networking.InterfaceConfigurator; a client relays the overlay it
// receives to its control socket instead.
