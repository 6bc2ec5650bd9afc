package launcher

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/evalphobia/logrus_sentry"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-opera-pool/api"
	"github.com/rony4d/go-opera-pool/flags"
	"github.com/rony4d/go-opera-pool/inter"
	"github.com/rony4d/go-opera-pool/metrics"
	"github.com/rony4d/go-opera-pool/pool/engine"
	"github.com/rony4d/go-opera-pool/pool/vault"
	"github.com/rony4d/go-opera-pool/store"
)

var log = logrus.WithField("pkg", "launcher")

var app = flags.NewApp()

func init() {
	app.Flags = append(app.Flags, flags.CommonFlags()...)
	app.Flags = append(app.Flags, flags.PoolFlags()...)
	app.Action = run
}

// Launch parses flags and runs the pool daemon until interrupted.
func Launch(args []string) error {
	return app.Run(args)
}

func run(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	setupLogging(cfg.Logging)
	log.WithField("preset", cfg.Node.Preset).Info("configuration assembled")

	rules, err := cfg.Pool.Rules()
	if err != nil {
		return err
	}
	if cfg.Pool.NetworkName != "fake" {
		// Real deployments embed the engine next to adapters for the live
		// asset network; the standalone daemon only simulates.
		return errors.Errorf("network %q requires external vault/settlement adapters; only fake is runnable standalone", cfg.Pool.NetworkName)
	}
	if !common.IsHexAddress(cfg.Pool.Operator) {
		return errors.New("--pool.operator must be a hex address")
	}
	self := common.HexToAddress(cfg.Pool.Self)
	if cfg.Pool.Self == "" {
		self = common.HexToAddress("0x00000000000000000000000000000000506f6f4c")
	}

	memVault := vault.NewMemVault(self)
	settlement := vault.NewMemSettlement(memVault)
	oracle := vault.NewManualOracle(0)

	pl, err := engine.New(engine.Config{
		Rules:      rules,
		Self:       self,
		Operator:   common.HexToAddress(cfg.Pool.Operator),
		Vault:      memVault,
		Settlement: settlement,
		Oracle:     oracle,
	})
	if err != nil {
		return err
	}

	var st *store.Store
	if !cfg.Store.Disabled {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		snap, err := st.LoadSnapshot()
		switch {
		case err == nil:
			pl.Restore(snap)
			log.WithField("epoch", snap.LastProcessedEpoch).Info("ledger restored")
		case errors.Is(err, store.ErrNoSnapshot):
			log.Info("starting with a fresh ledger")
		default:
			return err
		}
	}

	// Persist settlement events as they happen.
	if st != nil {
		go persistClaims(pl, st)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Fakenet epoch clock.
	ticker := time.NewTicker(cfg.Node.EpochPeriod)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			oracle.Advance(oracle.CurrentEpoch() + 1)
			pl.ProcessEpoch()
		}
	}()

	var servers []*http.Server
	if cfg.HTTP.Enabled {
		router := mux.NewRouter()
		api.New(pl, st).Mount(router)
		servers = append(servers, serve(cfg.HTTP.Addr, cfg.HTTP.Port, router, "http"))
	}
	if cfg.Metrics.Enabled {
		collector := metrics.New(pl)
		collector.Start()
		defer collector.Stop()
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", collector.Handler())
		servers = append(servers, serve(cfg.Metrics.Addr, cfg.Metrics.Port, metricsMux, "metrics"))
	}

	fmt.Fprintln(app.Writer, "Pool daemon started on network", cfg.Pool.NetworkName)
	<-stop
	log.Info("shutting down")

	for _, srv := range servers {
		_ = srv.Close()
	}
	if st != nil {
		if err := st.SaveSnapshot(pl.Snapshot()); err != nil {
			return errors.WithMessage(err, "save ledger snapshot")
		}
	}
	return nil
}

// persistClaims appends every settlement event to the claim history.
func persistClaims(pl *engine.Pool, st *store.Store) {
	ch := make(chan inter.PoolEvent, 16)
	sub := pl.SubscribeEvents(ch)
	defer sub.Unsubscribe()
	for {
		select {
		case ev := <-ch:
			if ev.Kind != inter.EvRewardsClaimed {
				continue
			}
			res := &engine.ClaimResult{
				Seq:         ev.ClaimSeq,
				Epoch:       ev.Epoch,
				Total:       ev.Amount,
				Fee:         ev.Fee,
				Distributed: ev.Distributed,
			}
			if err := st.AppendClaim(res); err != nil {
				log.WithError(err).Error("failed to persist claim")
			}
		case <-sub.Err():
			return
		}
	}
}

func serve(addr string, port int, handler http.Handler, name string) *http.Server {
	srv := &http.Server{
		Addr:    net.JoinHostPort(addr, strconv.Itoa(port)),
		Handler: handler,
	}
	go func() {
		log.WithField("addr", srv.Addr).Infof("%s server listening", name)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Errorf("%s server failed", name)
		}
	}()
	return srv
}

// setupLogging configures the process-wide logrus defaults and the optional
// Sentry hook.
func setupLogging(cfg LoggingConfig) {
	switch cfg.Format {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	levels := []logrus.Level{
		logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel,
		logrus.InfoLevel, logrus.DebugLevel, logrus.TraceLevel,
	}
	idx := cfg.Verbosity
	if idx < 0 {
		idx = 0
	}
	if idx >= len(levels) {
		idx = len(levels) - 1
	}
	logrus.SetLevel(levels[idx])

	if cfg.SentryDSN != "" {
		hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
			logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel,
		})
		if err != nil {
			log.WithError(err).Warn("sentry hook disabled")
			return
		}
		logrus.AddHook(hook)
	}
}
