// This file maps CLI context to the launcher's aggregated configuration.

package launcher

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-opera-pool/integration"
	"github.com/rony4d/go-opera-pool/pool"
)

// Config aggregates every subsystem's configuration the launcher needs.
type Config struct {
	Node    NodeConfig
	Pool    PoolConfig
	HTTP    HTTPConfig
	Metrics MetricsConfig
	Store   StoreConfig
	Logging LoggingConfig
}

// NodeConfig holds the daemon-level knobs.
type NodeConfig struct {
	DataDir     string
	Preset      string
	EpochPeriod time.Duration // fakenet-only synthetic epoch interval
}

// PoolConfig selects the rule set and ledger identities.
type PoolConfig struct {
	NetworkName string
	Operator    string // hex address
	Self        string // hex address
	FeeBps      uint64
}

// HTTPConfig configures the query API server.
type HTTPConfig struct {
	Enabled bool
	Addr    string
	Port    int
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Addr    string
	Port    int
}

// StoreConfig configures ledger persistence.
type StoreConfig struct {
	Path     string
	Disabled bool
}

// LoggingConfig configures logrus output and the optional Sentry hook.
type LoggingConfig struct {
	Verbosity int
	Format    string
	SentryDSN string
}

// Rules resolves the configured network name to its rule set, applying the
// fee override.
func (c PoolConfig) Rules() (pool.Rules, error) {
	var rules pool.Rules
	switch strings.ToLower(c.NetworkName) {
	case "main":
		rules = pool.MainNetRules()
	case "test":
		rules = pool.TestNetRules()
	case "fake":
		rules = pool.FakeNetRules()
	default:
		return pool.Rules{}, errInvalidNetwork(c.NetworkName)
	}
	rules.Fees.InitialFeeBps = c.FeeBps
	return rules, rules.Validate()
}

// applyPreset folds a configuration profile into cfg. Runs before the
// individual flag overrides, so explicit flags win over the profile.
func applyPreset(cfg *Config, preset integration.PresetConfig) {
	cfg.Node.Preset = preset.Name
	cfg.Node.EpochPeriod = time.Duration(preset.EpochPeriodSec) * time.Second
	cfg.HTTP.Enabled = preset.EnableHTTP
	cfg.Metrics.Enabled = preset.EnableMetrics
	cfg.Store.Disabled = preset.DisableStore
	cfg.Logging.Format = preset.LogFormat
	cfg.Logging.Verbosity = preset.LogVerbosity
}

// MakeAllConfigs merges defaults, then the selected preset, then CLI flag
// overrides, into the aggregated Config struct.
func MakeAllConfigs(ctx *cli.Context) (Config, error) {
	cfg := DefaultConfig()

	preset, err := integration.GetPresetByName(ctx.String("preset"))
	if err != nil {
		return Config{}, err
	}
	applyPreset(&cfg, preset)

	if ctx.GlobalIsSet("datadir") {
		cfg.Node.DataDir = ctx.GlobalString("datadir")
	} else if v := ctx.String("datadir"); v != "" {
		cfg.Node.DataDir = v
	}
	cfg.Node.DataDir = expandHome(cfg.Node.DataDir)

	if v := ctx.String("network"); v != "" {
		cfg.Pool.NetworkName = v
	}
	if v := ctx.String("pool.operator"); v != "" {
		cfg.Pool.Operator = v
	}
	if v := ctx.String("pool.self"); v != "" {
		cfg.Pool.Self = v
	}
	if ctx.IsSet("pool.fee") {
		cfg.Pool.FeeBps = ctx.Uint64("pool.fee")
	}

	if ctx.Bool("http") {
		cfg.HTTP.Enabled = true
	}
	if v := ctx.String("http.addr"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := ctx.Int("http.port"); v != 0 {
		cfg.HTTP.Port = v
	}

	if ctx.Bool("metrics") {
		cfg.Metrics.Enabled = true
	}
	if v := ctx.String("metrics.addr"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := ctx.Int("metrics.port"); v != 0 {
		cfg.Metrics.Port = v
	}

	if ctx.Bool("store.disable") {
		cfg.Store.Disabled = true
	}
	if v := ctx.String("store.path"); v != "" {
		cfg.Store.Path = v
	} else {
		cfg.Store.Path = filepath.Join(cfg.Node.DataDir, "pool.db")
	}

	if ctx.IsSet("log.verbosity") {
		cfg.Logging.Verbosity = ctx.Int("log.verbosity")
	}
	if ctx.IsSet("log.format") {
		cfg.Logging.Format = ctx.String("log.format")
	}
	cfg.Logging.SentryDSN = ctx.String("log.sentry")

	return cfg, nil
}

// expandHome resolves a leading "~" against the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
