package engine

import (
	"math/big"

	"github.com/rony4d/go-opera-pool/inter"
)

// ProcessEpoch synchronizes the engine with the external epoch counter.
// Anyone may call it, any number of times: if the oracle has not advanced
// past lastProcessedEpoch it is a no-op, and repeated calls at the same
// oracle value converge to identical state. When the counter has advanced,
// every pending batch whose lock epoch has arrived is promoted to locked.
//
// The engine also runs this transition implicitly before every operation
// that reads epoch-sensitive state, so callers never observe stale
// aggregates. Because the epoch source advances independently and the pool
// controls no scheduler, lazy re-synchronization at the call boundary is
// the only advancement mechanism.
func (p *Pool) ProcessEpoch() {
	p.mu.Lock()
	defer p.flush()
	p.syncEpoch()
}

// syncEpoch is the internal transition; the caller must hold p.mu.
// lastProcessedEpoch is monotone and never rolls back, which is what makes
// the transition idempotent under redundant invocation.
func (p *Pool) syncEpoch() {
	current := p.oracle.CurrentEpoch()
	if current <= p.lastProcessedEpoch {
		return
	}

	promoted := new(big.Int)
	for _, addr := range p.roster {
		rec := p.participants[addr]
		if rec.pending.Sign() == 0 || rec.lockEpoch > current {
			continue
		}
		promoted.Add(promoted, rec.pending)
		rec.locked.Add(rec.locked, rec.pending)
		rec.pending.SetInt64(0)
		rec.lockEpoch = 0
	}
	if promoted.Sign() > 0 {
		p.totalLocked.Add(p.totalLocked, promoted)
		p.totalPending.Sub(p.totalPending, promoted)
	}
	p.lastProcessedEpoch = current

	logger.WithFields(map[string]interface{}{
		"epoch":    current,
		"promoted": promoted,
	}).Debug("epoch processed")
	p.emit(inter.PoolEvent{
		Kind:   inter.EvEpochProcessed,
		Epoch:  current,
		Amount: promoted,
	})
}

// LastProcessedEpoch returns the engine's epoch cursor.
func (p *Pool) LastProcessedEpoch() inter.Epoch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastProcessedEpoch
}
