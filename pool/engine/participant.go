package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-pool/inter"
)

// participant is the engine's per-depositor record. The engine exclusively
// owns every record; nothing outside the package ever holds a reference to
// one, and the roster stores identities only.
//
// Invariant: active == (pending > 0 || locked > 0), and while active,
// roster[rosterIndex] == the participant's identity. rosterIndex is what
// makes roster removal O(1) (swap-with-last).
type participant struct {
	pending   *big.Int    // deposited, not yet epoch-qualified
	locked    *big.Int    // epoch-qualified, reward-earning
	lockEpoch inter.Epoch // epoch at which the current pending batch locks
	unclaimed *big.Int    // rewards credited but not yet paid out

	rosterIndex int
	active      bool
}

func newParticipant() *participant {
	return &participant{
		pending:   new(big.Int),
		locked:    new(big.Int),
		unclaimed: new(big.Int),
	}
}

// dormant reports whether the record carries no balance of any kind and can
// be dropped from the participant map.
func (p *participant) dormant() bool {
	return p.pending.Sign() == 0 && p.locked.Sign() == 0 && p.unclaimed.Sign() == 0
}

// pendingWithdrawal is one outstanding withdrawal request. Multiple records
// per owner may coexist; they are released in any order once mature, and
// destroyed on completion or emergency exit.
type pendingWithdrawal struct {
	amount         *big.Int
	availableEpoch inter.Epoch // first epoch at which release is permitted
}

// ParticipantInfo is the per-participant view exposed by the query surface.
type ParticipantInfo struct {
	Address         common.Address `json:"address"`
	Pending         *big.Int       `json:"pending"`
	Locked          *big.Int       `json:"locked"`
	LockEpoch       inter.Epoch    `json:"lockEpoch"`
	UnclaimedReward *big.Int       `json:"unclaimedReward"`
	QueuedWithdraw  *big.Int       `json:"queuedWithdrawal"`
	Active          bool           `json:"active"`
}

// PoolInfo is the pool-wide view exposed by the query surface.
type PoolInfo struct {
	TotalLocked          *big.Int       `json:"totalLocked"`
	TotalPending         *big.Int       `json:"totalPending"`
	TotalUnclaimedReward *big.Int       `json:"totalUnclaimedReward"`
	Balance              *big.Int       `json:"balance"`
	Tier                 uint8          `json:"tier"`
	Epoch                inter.Epoch    `json:"epoch"`
	LastProcessedEpoch   inter.Epoch    `json:"lastProcessedEpoch"`
	Operator             common.Address `json:"operator"`
	FeeBps               uint64         `json:"feeBps"`
	Paused               bool           `json:"paused"`
	Depositors           int            `json:"depositors"`
}
