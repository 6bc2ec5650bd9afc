package test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-opera-pool/cmd/pool/launcher"
	"github.com/rony4d/go-opera-pool/flags"
)

// runConfigFromArgs runs MakeAllConfigs under a synthetic CLI app so tests
// can exercise the full defaults -> preset -> flag-override pipeline.
func runConfigFromArgs(t *testing.T, args []string) launcher.Config {
	t.Helper()

	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.PoolFlags()...)

	var got launcher.Config
	app.Action = func(c *cli.Context) error {
		cfg, err := launcher.MakeAllConfigs(c)
		if err != nil {
			return err
		}
		got = cfg
		return nil
	}

	require.NoError(t, app.Run(append([]string{"opera-pool"}, args...)))
	return got
}

// TestMakeAllConfigs_defaults verifies the zero-flag invocation lands on
// the documented baseline: fake network, default preset, persistence on,
// observability off.
func TestMakeAllConfigs_defaults(t *testing.T) {
	require := require.New(t)
	cfg := runConfigFromArgs(t, nil)

	require.Equal("fake", cfg.Pool.NetworkName)
	require.Equal("default", cfg.Node.Preset)
	require.Equal(uint64(500), cfg.Pool.FeeBps)
	require.False(cfg.HTTP.Enabled)
	require.False(cfg.Metrics.Enabled)
	require.False(cfg.Store.Disabled)
	require.Equal(10*time.Second, cfg.Node.EpochPeriod)

	// Store path derives from the data directory when not overridden.
	require.Equal(filepath.Join(cfg.Node.DataDir, "pool.db"), cfg.Store.Path)
}

// TestMakeAllConfigs_flagOverrides verifies each declared flag lands on the
// corresponding Config field.
func TestMakeAllConfigs_flagOverrides(t *testing.T) {
	require := require.New(t)
	cfg := runConfigFromArgs(t, []string{
		"--datadir", "/tmp/pool-test",
		"--network", "main",
		"--pool.operator", "0x00000000000000000000000000000000000000aa",
		"--pool.fee", "1000",
		"--http",
		"--http.port", "9999",
		"--metrics",
		"--metrics.addr", "0.0.0.0",
		"--store.path", "/tmp/other/ledger.bolt",
		"--log.format", "json",
		"--log.verbosity", "5",
	})

	require.Equal("/tmp/pool-test", cfg.Node.DataDir)
	require.Equal("main", cfg.Pool.NetworkName)
	require.Equal("0x00000000000000000000000000000000000000aa", cfg.Pool.Operator)
	require.Equal(uint64(1000), cfg.Pool.FeeBps)
	require.True(cfg.HTTP.Enabled)
	require.Equal(9999, cfg.HTTP.Port)
	require.True(cfg.Metrics.Enabled)
	require.Equal("0.0.0.0", cfg.Metrics.Addr)
	require.Equal("/tmp/other/ledger.bolt", cfg.Store.Path)
	require.Equal("json", cfg.Logging.Format)
	require.Equal(5, cfg.Logging.Verbosity)
}

// TestMakeAllConfigs_presets verifies a profile reshapes the baseline and
// explicit flags still win over the profile.
func TestMakeAllConfigs_presets(t *testing.T) {
	require := require.New(t)

	lite := runConfigFromArgs(t, []string{"--preset", "lite"})
	require.Equal("lite", lite.Node.Preset)
	require.True(lite.HTTP.Enabled)
	require.True(lite.Metrics.Enabled)
	require.True(lite.Store.Disabled)
	require.Equal(2*time.Second, lite.Node.EpochPeriod)

	server := runConfigFromArgs(t, []string{"--preset", "server"})
	require.Equal("server", server.Node.Preset)
	require.Equal("json", server.Logging.Format)
	require.False(server.Store.Disabled)

	// A flag given alongside the preset overrides its value.
	mixed := runConfigFromArgs(t, []string{"--preset", "server", "--log.format", "text"})
	require.Equal("text", mixed.Logging.Format)
}

// TestMakeAllConfigs_unknownPreset verifies a bad profile name aborts
// configuration instead of silently running with defaults.
func TestMakeAllConfigs_unknownPreset(t *testing.T) {
	app := cli.NewApp()
	app.HideHelp = true
	app.HideVersion = true
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.PoolFlags()...)
	app.Action = func(c *cli.Context) error {
		_, err := launcher.MakeAllConfigs(c)
		return err
	}

	err := app.Run([]string{"opera-pool", "--preset", "bogus"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "bogus")
}

// TestPoolConfigRules verifies the network name to rule set resolution and
// the fee override applied on top of it.
func TestPoolConfigRules(t *testing.T) {
	require := require.New(t)

	pc := launcher.PoolConfig{NetworkName: "test", FeeBps: 1500}
	rules, err := pc.Rules()
	require.NoError(err)
	require.Equal("test", rules.Name)
	require.Equal(uint64(1500), rules.Fees.InitialFeeBps)

	pc.NetworkName = "nonsense"
	_, err = pc.Rules()
	require.Error(err)

	// An over-bound fee fails rule validation at resolution time.
	pc = launcher.PoolConfig{NetworkName: "fake", FeeBps: 2001}
	_, err = pc.Rules()
	require.Error(err)
}
