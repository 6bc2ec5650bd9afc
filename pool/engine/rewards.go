package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/rony4d/go-opera-pool/inter"
	"github.com/rony4d/go-opera-pool/pool"
)

// ClaimResult summarizes one settlement event. Distributed is the amount
// allocated to depositors; Total - Fee - Distributed is rounding dust (or,
// with no locked stake, the whole remainder) left in the pool's custody.
type ClaimResult struct {
	Seq         uint64      `json:"seq"`
	Epoch       inter.Epoch `json:"epoch"`
	EpochIDs    []uint64    `json:"epochIds"`
	Total       *big.Int    `json:"total"`
	Fee         *big.Int    `json:"fee"`
	Distributed *big.Int    `json:"distributed"`
}

// ClaimRewards forwards a settlement claim for the given epoch identifiers
// and distributes whatever it paid. The settlement channel pays an
// unpredictable, work-dependent amount, so the engine measures it as the
// pool's vault balance delta around the opaque call; the delta is
// attributable because operations are serialized and nothing else credits
// the pool mid-call.
//
// The operator fee (floor(total * feeBps / 10000)) is paid out immediately;
// the remainder is credited across locked balances pro-rata with integer
// floor division. Per-participant rounding dust stays in the pool's custody
// untracked: an accepted, bounded loss of at most one unit per participant
// per claim, not a defect. Pending balances earn nothing.
//
// Any caller may trigger settlement; distribution only ever benefits
// depositors, so there is nothing for the caller to gain.
func (p *Pool) ClaimRewards(epochIDs []uint64) (*ClaimResult, error) {
	p.mu.Lock()
	defer p.flush()

	p.syncEpoch()

	before := new(big.Int).Set(p.vault.BalanceOf(p.self))
	if err := p.settle.Claim(epochIDs); err != nil {
		return nil, errors.WithMessage(ErrClaimFailed, err.Error())
	}
	after := p.vault.BalanceOf(p.self)

	total := new(big.Int).Sub(after, before)
	if total.Sign() < 0 {
		// A settlement that drains the pool would be a vault fault; refuse
		// to account it as negative reward.
		return nil, errors.WithMessage(ErrClaimFailed, "negative settlement delta")
	}

	p.claimSeq++
	res := &ClaimResult{
		Seq:         p.claimSeq,
		Epoch:       p.lastProcessedEpoch,
		EpochIDs:    append([]uint64(nil), epochIDs...),
		Total:       total,
		Fee:         new(big.Int),
		Distributed: new(big.Int),
	}

	// A zero-reward settlement is still a recorded event.
	if total.Sign() > 0 {
		fee := new(big.Int).Mul(total, new(big.Int).SetUint64(p.feeBps))
		fee.Div(fee, new(big.Int).SetUint64(pool.FeeDenominator))
		if fee.Sign() > 0 {
			if err := p.vault.TransferOut(p.operator, fee); err != nil {
				// Unwind: nothing internal has changed except the claim
				// sequence, which must not replay.
				p.claimSeq--
				return nil, errors.WithMessage(err, "operator fee transfer")
			}
		}
		res.Fee.Set(fee)

		depositorReward := new(big.Int).Sub(total, fee)
		if p.totalLocked.Sign() > 0 {
			for _, addr := range p.roster {
				rec := p.participants[addr]
				if rec.locked.Sign() == 0 {
					continue
				}
				share := new(big.Int).Mul(depositorReward, rec.locked)
				share.Div(share, p.totalLocked)
				if share.Sign() == 0 {
					continue
				}
				rec.unclaimed.Add(rec.unclaimed, share)
				p.totalUnclaimed.Add(p.totalUnclaimed, share)
				res.Distributed.Add(res.Distributed, share)
			}
		}
		// With no locked stake the post-fee remainder stays in custody,
		// same as rounding dust: there is no eligible stake to attribute it to.
	}

	logger.WithFields(map[string]interface{}{
		"seq":         res.Seq,
		"total":       res.Total,
		"fee":         res.Fee,
		"distributed": res.Distributed,
	}).Info("rewards claimed")
	p.emit(inter.PoolEvent{
		Kind:        inter.EvRewardsClaimed,
		Epoch:       p.lastProcessedEpoch,
		Amount:      new(big.Int).Set(res.Total),
		Fee:         new(big.Int).Set(res.Fee),
		Distributed: new(big.Int).Set(res.Distributed),
		ClaimSeq:    res.Seq,
	})
	return res, nil
}

// ClaimUserRewards pays out and zeroes the caller's unclaimed reward.
// The ledger is debited before the outbound transfer; a failed transfer
// restores it.
func (p *Pool) ClaimUserRewards(from common.Address) (*big.Int, error) {
	p.mu.Lock()
	defer p.flush()

	rec, ok := p.participants[from]
	if !ok || rec.unclaimed.Sign() == 0 {
		return nil, ErrNoRewards
	}

	amount := new(big.Int).Set(rec.unclaimed)
	rec.unclaimed.SetInt64(0)
	p.totalUnclaimed.Sub(p.totalUnclaimed, amount)

	if err := p.vault.TransferOut(from, amount); err != nil {
		rec.unclaimed.Set(amount)
		p.totalUnclaimed.Add(p.totalUnclaimed, amount)
		return nil, errors.WithMessage(err, "reward transfer")
	}
	p.dropIfDormant(from, rec)

	logger.WithFields(map[string]interface{}{
		"account": from,
		"amount":  amount,
	}).Info("user rewards paid")
	p.emit(inter.PoolEvent{
		Kind:    inter.EvRewardPaid,
		Epoch:   p.lastProcessedEpoch,
		Account: from,
		Amount:  new(big.Int).Set(amount),
	})
	return amount, nil
}

// SubmitWork forwards an opaque work payload to the settlement channel.
// Operator-only and pause-gated: pausing stops new exposure (deposits and
// work submission) while leaving every withdrawal path open.
func (p *Pool) SubmitWork(from common.Address, payload []byte) error {
	p.mu.Lock()
	defer p.flush()

	if from != p.operator {
		return ErrNotOperator
	}
	if p.paused {
		return ErrPaused
	}
	if err := p.settle.Submit(payload); err != nil {
		return errors.WithMessage(err, "work submission")
	}
	p.emit(inter.PoolEvent{
		Kind:    inter.EvWorkSubmitted,
		Epoch:   p.lastProcessedEpoch,
		Account: from,
	})
	return nil
}
