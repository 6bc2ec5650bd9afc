// Package engine implements the epoch-synchronized accounting engine of the
// pooled-custody stake ledger: deposit activation, withdrawal settlement,
// pro-rata reward distribution and operator access control.
//
// The engine is a plain state machine. It owns every balance it custodies,
// reads epochs from an external oracle, moves funds through an external
// vault and observes settlement only as a balance delta. All state-mutating
// operations are serialized by a single mutex, and every internal ledger is
// updated before any external transfer executes, so a hostile callback
// re-entering the engine observes already-debited state.
package engine

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-opera-pool/inter"
	"github.com/rony4d/go-opera-pool/pool"
)

var logger = logrus.WithField("pkg", "engine")

// SetLogger overrides the package logger, e.g. to attach launcher-configured
// formatting and hooks.
func SetLogger(entry *logrus.Entry) {
	logger = entry
}

// Config carries everything the engine needs at construction. Self is the
// pool's own custody account in the vault; Operator is the initial delegated
// operator identity.
type Config struct {
	Rules    pool.Rules
	Self     common.Address
	Operator common.Address

	Vault      Vault
	Settlement Settlement
	Oracle     EpochOracle
}

// Pool is the accounting engine. All exported methods are safe for
// concurrent use; internally they run one at a time.
type Pool struct {
	mu sync.Mutex

	rules  pool.Rules
	self   common.Address
	vault  Vault
	settle Settlement
	oracle EpochOracle

	participants map[common.Address]*participant
	roster       []common.Address
	withdrawals  map[common.Address][]pendingWithdrawal

	totalLocked    *big.Int
	totalPending   *big.Int
	totalUnclaimed *big.Int

	lastProcessedEpoch inter.Epoch

	operator        common.Address
	pendingOperator common.Address
	feeBps          uint64
	paused          bool

	claimSeq uint64
	feed     event.Feed
	events   []inter.PoolEvent
}

// New constructs an engine from the given configuration. The rules are
// validated and deep-copied; the engine holds no shared mutable state with
// the caller.
func New(cfg Config) (*Pool, error) {
	if err := cfg.Rules.Validate(); err != nil {
		return nil, err
	}
	if cfg.Operator == (common.Address{}) {
		return nil, ErrZeroAddress
	}
	if cfg.Vault == nil || cfg.Settlement == nil || cfg.Oracle == nil {
		return nil, ErrZeroAddress
	}
	return &Pool{
		rules:        cfg.Rules.Copy(),
		self:         cfg.Self,
		vault:        cfg.Vault,
		settle:       cfg.Settlement,
		oracle:       cfg.Oracle,
		participants: make(map[common.Address]*participant),
		withdrawals:  make(map[common.Address][]pendingWithdrawal),

		totalLocked:    new(big.Int),
		totalPending:   new(big.Int),
		totalUnclaimed: new(big.Int),

		operator: cfg.Operator,
		feeBps:   cfg.Rules.Fees.InitialFeeBps,
	}, nil
}

// SubscribeEvents registers a channel to receive every engine event. The
// subscription follows go-ethereum event.Feed semantics: a slow subscriber
// blocks delivery, so consumers should drain promptly or buffer. Events are
// always delivered after the emitting operation has released the engine
// lock, so a subscriber may call back into the engine.
func (p *Pool) SubscribeEvents(ch chan<- inter.PoolEvent) event.Subscription {
	return p.feed.Subscribe(ch)
}

// emit queues an event for delivery once the current operation's flush
// runs. The caller must hold p.mu.
func (p *Pool) emit(ev inter.PoolEvent) {
	p.events = append(p.events, ev)
}

// flush releases the engine lock and delivers the queued events in order.
// Mutating operations acquire p.mu and `defer p.flush()` instead of a bare
// unlock, keeping feed delivery outside the critical section.
func (p *Pool) flush() {
	events := p.events
	p.events = nil
	p.mu.Unlock()
	for _, ev := range events {
		p.feed.Send(ev)
	}
}

// getOrCreate returns the record for addr, creating a dormant one if absent.
func (p *Pool) getOrCreate(addr common.Address) *participant {
	rec, ok := p.participants[addr]
	if !ok {
		rec = newParticipant()
		p.participants[addr] = rec
	}
	return rec
}

// rosterAdd registers addr as active at the end of the roster.
func (p *Pool) rosterAdd(addr common.Address, rec *participant) {
	rec.rosterIndex = len(p.roster)
	rec.active = true
	p.roster = append(p.roster, addr)
}

// rosterRemove drops addr from the roster by swap-with-last: the final
// entry moves into the freed slot, its index is rewritten, and the roster
// shrinks by one. O(1), order not preserved.
func (p *Pool) rosterRemove(addr common.Address, rec *participant) {
	last := len(p.roster) - 1
	moved := p.roster[last]
	p.roster[rec.rosterIndex] = moved
	p.participants[moved].rosterIndex = rec.rosterIndex
	p.roster = p.roster[:last]
	rec.active = false
	rec.rosterIndex = 0
}

// dropIfDormant removes a fully-zeroed record from the participant map.
// Records with residual unclaimed reward are retained so the reward stays
// claimable even after the principal has left.
func (p *Pool) dropIfDormant(addr common.Address, rec *participant) {
	if rec.dormant() && !rec.active && len(p.withdrawals[addr]) == 0 {
		delete(p.participants, addr)
	}
}

//
// Query surface - no state change beyond lazy epoch sync.
//

// TierLevel reports the tier (0-3) the pool's current vault balance has
// reached against the configured thresholds.
func (p *Pool) TierLevel() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rules.Tiers.TierOf(p.vault.BalanceOf(p.self))
}

// DepositorCount reports the number of active participants.
func (p *Pool) DepositorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.roster)
}

// Operator returns the current operator identity.
func (p *Pool) Operator() common.Address {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.operator
}

// FeeBps returns the current operator fee in basis points.
func (p *Pool) FeeBps() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feeBps
}

// Paused reports whether the pause gate is closed.
func (p *Pool) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Participant returns the snapshot of one participant. A never-seen address
// yields a zeroed snapshot, not an error.
func (p *Pool) Participant(addr common.Address) ParticipantInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	info := ParticipantInfo{
		Address:         addr,
		Pending:         new(big.Int),
		Locked:          new(big.Int),
		UnclaimedReward: new(big.Int),
		QueuedWithdraw:  new(big.Int),
	}
	if rec, ok := p.participants[addr]; ok {
		info.Pending.Set(rec.pending)
		info.Locked.Set(rec.locked)
		info.LockEpoch = rec.lockEpoch
		info.UnclaimedReward.Set(rec.unclaimed)
		info.Active = rec.active
	}
	for _, w := range p.withdrawals[addr] {
		info.QueuedWithdraw.Add(info.QueuedWithdraw, w.amount)
	}
	return info
}

// Info returns the pool-wide snapshot.
func (p *Pool) Info() PoolInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	balance := new(big.Int).Set(p.vault.BalanceOf(p.self))
	return PoolInfo{
		TotalLocked:          new(big.Int).Set(p.totalLocked),
		TotalPending:         new(big.Int).Set(p.totalPending),
		TotalUnclaimedReward: new(big.Int).Set(p.totalUnclaimed),
		Balance:              balance,
		Tier:                 p.rules.Tiers.TierOf(balance),
		Epoch:                p.oracle.CurrentEpoch(),
		LastProcessedEpoch:   p.lastProcessedEpoch,
		Operator:             p.operator,
		FeeBps:               p.feeBps,
		Paused:               p.paused,
		Depositors:           len(p.roster),
	}
}
