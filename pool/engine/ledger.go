package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/rony4d/go-opera-pool/inter"
)

// Deposit transfers amount from the depositor into the pool's custody and
// enqueues it as pending stake. The batch locks (starts earning) at
// currentEpoch + DepositLockDelay; the delay denies "flash" capture of a
// pro-rata share by depositing just before a claim and leaving just after.
//
// The inbound transfer is all-or-nothing and executes before any ledger is
// touched, so a failed transfer leaves no state change behind. If the
// depositor already has a pending batch, amounts merge into one batch with
// the later target epoch, bounding pending records at one per participant.
func (p *Pool) Deposit(from common.Address, amount *big.Int) error {
	p.mu.Lock()
	defer p.flush()

	p.syncEpoch()

	if p.paused {
		return ErrPaused
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	if err := p.vault.TransferIn(from, amount); err != nil {
		return errors.WithMessage(err, "deposit transfer")
	}

	rec := p.getOrCreate(from)
	if !rec.active {
		p.rosterAdd(from, rec)
	}

	lockEpoch := p.lastProcessedEpoch + p.rules.Epochs.DepositLockDelay
	if rec.pending.Sign() > 0 && rec.lockEpoch > lockEpoch {
		lockEpoch = rec.lockEpoch
	}
	rec.pending.Add(rec.pending, amount)
	rec.lockEpoch = lockEpoch
	p.totalPending.Add(p.totalPending, amount)

	logger.WithFields(map[string]interface{}{
		"account":   from,
		"amount":    amount,
		"lockEpoch": lockEpoch,
	}).Info("deposit accepted")
	p.emit(inter.PoolEvent{
		Kind:      inter.EvDeposit,
		Epoch:     p.lastProcessedEpoch,
		Account:   from,
		Amount:    new(big.Int).Set(amount),
		LockEpoch: lockEpoch,
	})
	return nil
}
