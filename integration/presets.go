// Package integration provides named configuration presets for the pool
// daemon. Presets bundle the knobs that vary between deployment styles
// (observability endpoints, persistence, log output) into profiles so an
// operator can spin up a sensibly-configured daemon with one flag instead
// of setting each knob individually.
//
// Usage:
//
//	cfg := integration.LitePreset()   // for local development
//	cfg := integration.ServerPreset() // for a monitored deployment
//
// A preset is merged into the launcher's configuration before individual
// CLI flags, so explicit flags always win over the profile.
package integration

import "fmt"

// PresetConfig captures the tunable parameters that vary across profiles.
// It intentionally excludes identity fields (operator and custody
// addresses, network rule set): those describe which pool is being run,
// not how to run it, and must always be given explicitly.
type PresetConfig struct {
	Name           string // profile identifier, recorded in logs and config dumps
	EnableHTTP     bool   // serve the query API
	EnableMetrics  bool   // serve the Prometheus endpoint
	DisableStore   bool   // run without ledger persistence
	LogFormat      string // "text" or "json"
	LogVerbosity   int    // 0 (fatal) through 5 (trace)
	EpochPeriodSec int    // fakenet-only: seconds between synthetic epochs
}

// DefaultPreset is the balanced baseline: persistence on, observability
// surfaces off until asked for, human-readable logs.
func DefaultPreset() PresetConfig {
	return PresetConfig{
		Name:           "default",
		EnableHTTP:     false,
		EnableMetrics:  false,
		DisableStore:   false,
		LogFormat:      "text",
		LogVerbosity:   3, // info and above
		EpochPeriodSec: 10,
	}
}

// LitePreset is tuned for local development and CI: everything observable,
// nothing durable, epochs short enough to watch stake lock and mature
// interactively.
func LitePreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "lite"
	cfg.EnableHTTP = true
	cfg.EnableMetrics = true
	cfg.DisableStore = true
	cfg.LogVerbosity = 4 // debug
	cfg.EpochPeriodSec = 2
	return cfg
}

// ServerPreset is tuned for a long-running monitored deployment: both
// endpoints up, persistence on, machine-readable logs for aggregation.
func ServerPreset() PresetConfig {
	cfg := DefaultPreset()
	cfg.Name = "server"
	cfg.EnableHTTP = true
	cfg.EnableMetrics = true
	cfg.LogFormat = "json"
	return cfg
}

// presets maps profile names to their constructors. Registered here so
// GetPresetByName and the CLI usage string stay in sync automatically.
var presets = map[string]func() PresetConfig{
	"default": DefaultPreset,
	"lite":    LitePreset,
	"server":  ServerPreset,
}

// GetPresetByName resolves a profile name (case-sensitive) to its config.
func GetPresetByName(name string) (PresetConfig, error) {
	ctor, ok := presets[name]
	if !ok {
		return PresetConfig{}, fmt.Errorf("unknown preset %q (want default|lite|server)", name)
	}
	return ctor(), nil
}

// Names returns the registered profile names; the order is unspecified.
func Names() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	return out
}
