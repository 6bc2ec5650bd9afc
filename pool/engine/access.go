package engine

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-pool/inter"
	"github.com/rony4d/go-opera-pool/pool"
)

// SetFee updates the operator fee in basis points. Operator-only, bounded
// to [0, MaxFeeBps].
func (p *Pool) SetFee(from common.Address, bps uint64) error {
	p.mu.Lock()
	defer p.flush()

	if from != p.operator {
		return ErrNotOperator
	}
	if bps > pool.MaxFeeBps {
		return ErrFeeTooHigh
	}
	p.feeBps = bps

	logger.WithField("feeBps", bps).Info("operator fee updated")
	p.emit(inter.PoolEvent{
		Kind:   inter.EvFeeUpdated,
		Epoch:  p.lastProcessedEpoch,
		FeeBps: bps,
	})
	return nil
}

// ProposeOperator starts the two-step operator handoff: the current
// operator names a successor, and only that exact identity can finalize the
// swap. A one-step transfer could hand control to an unreachable identity
// with no way back.
func (p *Pool) ProposeOperator(from, successor common.Address) error {
	p.mu.Lock()
	defer p.flush()

	if from != p.operator {
		return ErrNotOperator
	}
	if successor == (common.Address{}) {
		return ErrZeroAddress
	}
	p.pendingOperator = successor

	logger.WithField("successor", successor).Info("operator transfer proposed")
	p.emit(inter.PoolEvent{
		Kind:    inter.EvOperatorProposed,
		Epoch:   p.lastProcessedEpoch,
		Account: successor,
	})
	return nil
}

// AcceptOperator finalizes the handoff; only the proposed successor may call.
func (p *Pool) AcceptOperator(from common.Address) error {
	p.mu.Lock()
	defer p.flush()

	if p.pendingOperator == (common.Address{}) || from != p.pendingOperator {
		return ErrNotPendingOperator
	}
	p.operator = p.pendingOperator
	p.pendingOperator = common.Address{}

	logger.WithField("operator", p.operator).Info("operator transferred")
	p.emit(inter.PoolEvent{
		Kind:    inter.EvOperatorTransferred,
		Epoch:   p.lastProcessedEpoch,
		Account: p.operator,
	})
	return nil
}

// Pause closes the gate over deposits and work submission. Withdrawal paths
// stay open: pausing may never trap funds.
func (p *Pool) Pause(from common.Address) error {
	p.mu.Lock()
	defer p.flush()

	if from != p.operator {
		return ErrNotOperator
	}
	if !p.paused {
		p.paused = true
		logger.Warn("pool paused")
		p.emit(inter.PoolEvent{Kind: inter.EvPaused, Epoch: p.lastProcessedEpoch})
	}
	return nil
}

// Unpause reopens the gate.
func (p *Pool) Unpause(from common.Address) error {
	p.mu.Lock()
	defer p.flush()

	if from != p.operator {
		return ErrNotOperator
	}
	if p.paused {
		p.paused = false
		logger.Info("pool unpaused")
		p.emit(inter.PoolEvent{Kind: inter.EvUnpaused, Epoch: p.lastProcessedEpoch})
	}
	return nil
}
