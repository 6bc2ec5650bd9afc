package engine

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-pool/inter"
)

// ParticipantRecord is the RLP-friendly export of one participant.
type ParticipantRecord struct {
	Address   common.Address
	Pending   *big.Int
	Locked    *big.Int
	LockEpoch uint64
	Unclaimed *big.Int
	Active    bool
}

// WithdrawalRecord is the RLP-friendly export of one queued withdrawal.
type WithdrawalRecord struct {
	Owner          common.Address
	Amount         *big.Int
	AvailableEpoch uint64
}

// Snapshot is the engine's full exportable state, sufficient to resume the
// ledger after a restart. Active participants appear first, in roster
// order, so a restore reproduces the exact roster layout; inactive records
// (residual unclaimed reward) follow, sorted by address for determinism.
type Snapshot struct {
	LastProcessedEpoch uint64
	Operator           common.Address
	PendingOperator    common.Address
	FeeBps             uint64
	Paused             bool
	ClaimSeq           uint64
	Participants       []ParticipantRecord
	Withdrawals        []WithdrawalRecord
}

// Snapshot exports the engine state. The result shares nothing with the
// engine and is stable across repeated calls on unchanged state.
func (p *Pool) Snapshot() *Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := &Snapshot{
		LastProcessedEpoch: uint64(p.lastProcessedEpoch),
		Operator:           p.operator,
		PendingOperator:    p.pendingOperator,
		FeeBps:             p.feeBps,
		Paused:             p.paused,
		ClaimSeq:           p.claimSeq,
	}

	for _, addr := range p.roster {
		snap.Participants = append(snap.Participants, exportParticipant(addr, p.participants[addr]))
	}
	var inactive []common.Address
	for addr, rec := range p.participants {
		if !rec.active {
			inactive = append(inactive, addr)
		}
	}
	sort.Slice(inactive, func(i, j int) bool {
		return bytes.Compare(inactive[i][:], inactive[j][:]) < 0
	})
	for _, addr := range inactive {
		snap.Participants = append(snap.Participants, exportParticipant(addr, p.participants[addr]))
	}

	var owners []common.Address
	for addr := range p.withdrawals {
		owners = append(owners, addr)
	}
	sort.Slice(owners, func(i, j int) bool {
		return bytes.Compare(owners[i][:], owners[j][:]) < 0
	})
	for _, addr := range owners {
		for _, w := range p.withdrawals[addr] {
			snap.Withdrawals = append(snap.Withdrawals, WithdrawalRecord{
				Owner:          addr,
				Amount:         new(big.Int).Set(w.amount),
				AvailableEpoch: uint64(w.availableEpoch),
			})
		}
	}
	return snap
}

func exportParticipant(addr common.Address, rec *participant) ParticipantRecord {
	return ParticipantRecord{
		Address:   addr,
		Pending:   new(big.Int).Set(rec.pending),
		Locked:    new(big.Int).Set(rec.locked),
		LockEpoch: uint64(rec.lockEpoch),
		Unclaimed: new(big.Int).Set(rec.unclaimed),
		Active:    rec.active,
	}
}

// Restore replaces the engine's state with a previously exported snapshot.
// Aggregates and roster indexes are recomputed rather than trusted, so a
// restored engine always satisfies the ledger invariants.
func (p *Pool) Restore(snap *Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.participants = make(map[common.Address]*participant, len(snap.Participants))
	p.roster = nil
	p.withdrawals = make(map[common.Address][]pendingWithdrawal)
	p.totalLocked = new(big.Int)
	p.totalPending = new(big.Int)
	p.totalUnclaimed = new(big.Int)

	for _, r := range snap.Participants {
		rec := newParticipant()
		rec.pending.Set(r.Pending)
		rec.locked.Set(r.Locked)
		rec.lockEpoch = inter.Epoch(r.LockEpoch)
		rec.unclaimed.Set(r.Unclaimed)
		p.participants[r.Address] = rec
		if r.Active {
			p.rosterAdd(r.Address, rec)
		}
		p.totalPending.Add(p.totalPending, rec.pending)
		p.totalLocked.Add(p.totalLocked, rec.locked)
		p.totalUnclaimed.Add(p.totalUnclaimed, rec.unclaimed)
	}
	for _, w := range snap.Withdrawals {
		p.withdrawals[w.Owner] = append(p.withdrawals[w.Owner], pendingWithdrawal{
			amount:         new(big.Int).Set(w.Amount),
			availableEpoch: inter.Epoch(w.AvailableEpoch),
		})
	}

	p.lastProcessedEpoch = inter.Epoch(snap.LastProcessedEpoch)
	p.operator = snap.Operator
	p.pendingOperator = snap.PendingOperator
	p.feeBps = snap.FeeBps
	p.paused = snap.Paused
	p.claimSeq = snap.ClaimSeq
}
