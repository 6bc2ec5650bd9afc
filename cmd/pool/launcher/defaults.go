package launcher

import (
	"fmt"
	"time"
)

// DefaultConfig bundles the baseline configuration values the launcher uses
// before the preset and CLI flags override them.
func DefaultConfig() Config {
	return Config{
		Node: NodeConfig{
			DataDir:     "~/.opera-pool",
			Preset:      "default",
			EpochPeriod: 10 * time.Second,
		},
		Pool: PoolConfig{
			NetworkName: "fake",
			FeeBps:      500,
		},
		HTTP: HTTPConfig{
			Addr: "127.0.0.1",
			Port: 18545,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1",
			Port: 6060,
		},
		Logging: LoggingConfig{
			Verbosity: 3,
			Format:    "text",
		},
	}
}

func errInvalidNetwork(name string) error {
	return fmt.Errorf("unknown network %q (want main|test|fake)", name)
}
