// Package metrics exposes the pool's ledger state as Prometheus metrics.
// Gauges are refreshed from the engine snapshot whenever the engine emits
// an event, so the scrape surface lags a mutation by at most one event
// delivery rather than polling on a timer.
package metrics

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-pool/inter"
	"github.com/rony4d/go-opera-pool/pool/engine"
)

var logger = logrus.WithField("pkg", "metrics")

// Collector subscribes to the engine event feed and maintains the metric
// set. Create with New, then Start; Stop unsubscribes.
type Collector struct {
	pool     *engine.Pool
	registry *prometheus.Registry

	totalLocked    prometheus.Gauge
	totalPending   prometheus.Gauge
	totalUnclaimed prometheus.Gauge
	depositors     prometheus.Gauge
	tier           prometheus.Gauge
	feeBps         prometheus.Gauge
	paused         prometheus.Gauge
	epoch          prometheus.Gauge

	deposits    prometheus.Counter
	withdrawals prometheus.Counter
	emergencies prometheus.Counter
	claims      prometheus.Counter
	distributed prometheus.Counter

	ch   chan inter.PoolEvent
	sub  event.Subscription
	done chan struct{}
}

// New builds a Collector with its own registry.
func New(p *engine.Pool) *Collector {
	c := &Collector{
		pool:     p,
		registry: prometheus.NewRegistry(),

		totalLocked:    newGauge("total_locked", "Sum of locked (reward-earning) balances"),
		totalPending:   newGauge("total_pending", "Sum of pending (not yet epoch-qualified) balances"),
		totalUnclaimed: newGauge("total_unclaimed_reward", "Sum of credited but unclaimed rewards"),
		depositors:     newGauge("depositors", "Number of active participants"),
		tier:           newGauge("tier", "Current pool tier level (0-3)"),
		feeBps:         newGauge("fee_bps", "Operator fee in basis points"),
		paused:         newGauge("paused", "1 while the pause gate is closed"),
		epoch:          newGauge("last_processed_epoch", "The engine's epoch cursor"),

		deposits:    newCounter("deposits_total", "Accepted deposits"),
		withdrawals: newCounter("withdrawals_completed_total", "Completed withdrawals"),
		emergencies: newCounter("emergency_withdrawals_total", "Emergency exits"),
		claims:      newCounter("claims_total", "Settlement claim events"),
		distributed: newCounter("rewards_distributed_units_total", "Reward units credited to depositors"),
	}
	c.registry.MustRegister(
		c.totalLocked, c.totalPending, c.totalUnclaimed, c.depositors,
		c.tier, c.feeBps, c.paused, c.epoch,
		c.deposits, c.withdrawals, c.emergencies, c.claims, c.distributed,
	)
	return c
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "pool",
		Name:      name,
		Help:      help,
	})
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pool",
		Name:      name,
		Help:      help,
	})
}

// Start subscribes to the engine and begins updating metrics.
func (c *Collector) Start() {
	c.ch = make(chan inter.PoolEvent, 64)
	c.sub = c.pool.SubscribeEvents(c.ch)
	c.done = make(chan struct{})
	c.refresh()
	go c.loop()
	logger.Debug("collector started")
}

// Stop unsubscribes and waits for the update loop to exit.
func (c *Collector) Stop() {
	if c.sub != nil {
		c.sub.Unsubscribe()
	}
	if c.done != nil {
		<-c.done
	}
}

// Handler serves the collector's registry for scraping.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) loop() {
	defer close(c.done)
	for {
		select {
		case ev := <-c.ch:
			switch ev.Kind {
			case inter.EvDeposit:
				c.deposits.Inc()
			case inter.EvWithdrawalCompleted:
				c.withdrawals.Inc()
			case inter.EvEmergencyWithdrawal:
				c.emergencies.Inc()
			case inter.EvRewardsClaimed:
				c.claims.Inc()
				c.distributed.Add(toFloat(ev.Distributed))
			}
			c.refresh()
		case <-c.sub.Err():
			return
		}
	}
}

func (c *Collector) refresh() {
	info := c.pool.Info()
	c.totalLocked.Set(toFloat(info.TotalLocked))
	c.totalPending.Set(toFloat(info.TotalPending))
	c.totalUnclaimed.Set(toFloat(info.TotalUnclaimedReward))
	c.depositors.Set(float64(info.Depositors))
	c.tier.Set(float64(info.Tier))
	c.feeBps.Set(float64(info.FeeBps))
	c.epoch.Set(float64(info.LastProcessedEpoch))
	if info.Paused {
		c.paused.Set(1)
	} else {
		c.paused.Set(0)
	}
}

// toFloat converts a ledger amount for metric export; precision loss above
// 2^53 units is acceptable for monitoring.
func toFloat(x *big.Int) float64 {
	if x == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}
