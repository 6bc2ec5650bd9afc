package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/rony4d/go-opera-pool/inter"
)

// RequestWithdrawal removes amount from the caller's locked balance and
// queues it for release at currentEpoch + WithdrawalDelay. The funds stop
// earning reward the instant the request is made, not when it completes.
// Withdrawal paths are never pause-gated.
func (p *Pool) RequestWithdrawal(from common.Address, amount *big.Int) error {
	p.mu.Lock()
	defer p.flush()

	p.syncEpoch()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	rec, ok := p.participants[from]
	if !ok || rec.locked.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}

	rec.locked.Sub(rec.locked, amount)
	p.totalLocked.Sub(p.totalLocked, amount)

	availableEpoch := p.lastProcessedEpoch + p.rules.Epochs.WithdrawalDelay
	p.withdrawals[from] = append(p.withdrawals[from], pendingWithdrawal{
		amount:         new(big.Int).Set(amount),
		availableEpoch: availableEpoch,
	})

	if rec.pending.Sign() == 0 && rec.locked.Sign() == 0 {
		p.rosterRemove(from, rec)
	}

	logger.WithFields(map[string]interface{}{
		"account":        from,
		"amount":         amount,
		"availableEpoch": availableEpoch,
	}).Info("withdrawal requested")
	p.emit(inter.PoolEvent{
		Kind:      inter.EvWithdrawalRequested,
		Epoch:     p.lastProcessedEpoch,
		Account:   from,
		Amount:    new(big.Int).Set(amount),
		LockEpoch: availableEpoch,
	})
	return nil
}

// CompleteWithdrawal releases every mature withdrawal record of the caller
// in one outbound transfer. Records are debited from the queue before the
// transfer executes, so a re-entrant callback observes them already gone;
// a failed transfer restores the queue and reports the failure, leaving the
// operation without effect. Calling before maturity fails with
// ErrNothingToRelease rather than silently succeeding.
func (p *Pool) CompleteWithdrawal(from common.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.flush()

	p.syncEpoch()

	queue := p.withdrawals[from]
	released := new(big.Int)
	kept := queue[:0:0]
	for _, w := range queue {
		if w.availableEpoch <= p.lastProcessedEpoch {
			released.Add(released, w.amount)
		} else {
			kept = append(kept, w)
		}
	}
	if released.Sign() == 0 {
		return nil, ErrNothingToRelease
	}

	// Debit the queue first, then transfer; restore on failure.
	if len(kept) == 0 {
		delete(p.withdrawals, from)
	} else {
		p.withdrawals[from] = kept
	}
	if err := p.vault.TransferOut(from, released); err != nil {
		p.withdrawals[from] = queue
		return nil, errors.WithMessage(err, "withdrawal transfer")
	}
	if rec, ok := p.participants[from]; ok {
		p.dropIfDormant(from, rec)
	}

	logger.WithFields(map[string]interface{}{
		"account": from,
		"amount":  released,
	}).Info("withdrawal completed")
	p.emit(inter.PoolEvent{
		Kind:    inter.EvWithdrawalCompleted,
		Epoch:   p.lastProcessedEpoch,
		Account: from,
		Amount:  new(big.Int).Set(released),
	})
	return released, nil
}

// EmergencyWithdraw is the guaranteed exit valve. It sweeps the caller's
// pending deposit, locked deposit, queued withdrawal records and unclaimed
// reward into a single payout, zeroing all four, and never consults the
// pause gate or the epoch oracle: a closed gate, a stuck oracle or another
// participant's state can never block it. Already-accrued reward is paid
// out, not burned; only future pro-rata share is forfeited because the
// principal leaves the locked pool.
func (p *Pool) EmergencyWithdraw(from common.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.flush()

	rec, ok := p.participants[from]
	queue := p.withdrawals[from]
	if !ok && len(queue) == 0 {
		return nil, ErrNothingToRelease
	}
	if rec == nil {
		rec = newParticipant()
	}

	total := new(big.Int)
	total.Add(total, rec.pending)
	total.Add(total, rec.locked)
	total.Add(total, rec.unclaimed)
	for _, w := range queue {
		total.Add(total, w.amount)
	}
	if total.Sign() == 0 {
		return nil, ErrNothingToRelease
	}

	// Zero everything before the transfer (reentrancy exclusion), keeping
	// the previous values for the unwind path.
	prevPending := new(big.Int).Set(rec.pending)
	prevLocked := new(big.Int).Set(rec.locked)
	prevUnclaimed := new(big.Int).Set(rec.unclaimed)
	prevLockEpoch := rec.lockEpoch
	wasActive := rec.active

	p.totalPending.Sub(p.totalPending, rec.pending)
	p.totalLocked.Sub(p.totalLocked, rec.locked)
	p.totalUnclaimed.Sub(p.totalUnclaimed, rec.unclaimed)
	rec.pending.SetInt64(0)
	rec.locked.SetInt64(0)
	rec.unclaimed.SetInt64(0)
	rec.lockEpoch = 0
	if rec.active {
		p.rosterRemove(from, rec)
	}
	delete(p.withdrawals, from)

	if err := p.vault.TransferOut(from, total); err != nil {
		rec.pending.Set(prevPending)
		rec.locked.Set(prevLocked)
		rec.unclaimed.Set(prevUnclaimed)
		rec.lockEpoch = prevLockEpoch
		p.totalPending.Add(p.totalPending, prevPending)
		p.totalLocked.Add(p.totalLocked, prevLocked)
		p.totalUnclaimed.Add(p.totalUnclaimed, prevUnclaimed)
		if wasActive {
			p.rosterAdd(from, rec)
		}
		if len(queue) > 0 {
			p.withdrawals[from] = queue
		}
		return nil, errors.WithMessage(err, "emergency transfer")
	}
	p.dropIfDormant(from, rec)

	logger.WithFields(map[string]interface{}{
		"account": from,
		"amount":  total,
	}).Warn("emergency withdrawal")
	p.emit(inter.PoolEvent{
		Kind:    inter.EvEmergencyWithdrawal,
		Epoch:   p.lastProcessedEpoch,
		Account: from,
		Amount:  new(big.Int).Set(total),
	})
	return total, nil
}
