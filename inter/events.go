package inter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// EventKind discriminates the engine's event stream. All events travel over
// a single feed as PoolEvent values, so subscribers filter on Kind.
type EventKind uint8

// Event kinds emitted by the accounting engine.
const (
	EvDeposit EventKind = iota + 1
	EvWithdrawalRequested
	EvWithdrawalCompleted
	EvEmergencyWithdrawal
	EvEpochProcessed
	EvRewardsClaimed
	EvRewardPaid
	EvOperatorProposed
	EvOperatorTransferred
	EvFeeUpdated
	EvPaused
	EvUnpaused
	EvWorkSubmitted
)

func (k EventKind) String() string {
	switch k {
	case EvDeposit:
		return "deposit"
	case EvWithdrawalRequested:
		return "withdrawal_requested"
	case EvWithdrawalCompleted:
		return "withdrawal_completed"
	case EvEmergencyWithdrawal:
		return "emergency_withdrawal"
	case EvEpochProcessed:
		return "epoch_processed"
	case EvRewardsClaimed:
		return "rewards_claimed"
	case EvRewardPaid:
		return "reward_paid"
	case EvOperatorProposed:
		return "operator_proposed"
	case EvOperatorTransferred:
		return "operator_transferred"
	case EvFeeUpdated:
		return "fee_updated"
	case EvPaused:
		return "paused"
	case EvUnpaused:
		return "unpaused"
	case EvWorkSubmitted:
		return "work_submitted"
	}
	return "unknown"
}

// PoolEvent is the single concrete type carried by the engine's event feed.
// Fields beyond Kind and Epoch are populated per kind:
//
//   - EvDeposit: Account, Amount (deposited), LockEpoch (when it locks)
//   - EvWithdrawalRequested: Account, Amount, LockEpoch (availableEpoch)
//   - EvWithdrawalCompleted / EvEmergencyWithdrawal / EvRewardPaid: Account, Amount
//   - EvEpochProcessed: Amount (total promoted pending)
//   - EvRewardsClaimed: Amount (total reward), Fee, Distributed, ClaimSeq
//   - EvOperatorProposed / EvOperatorTransferred: Account (the successor)
//   - EvFeeUpdated: FeeBps
//
// Amounts are never nil for the kinds that define them; unused fields are
// left zero.
type PoolEvent struct {
	Kind    EventKind
	Epoch   Epoch
	Account common.Address

	Amount      *big.Int
	Fee         *big.Int
	Distributed *big.Int

	LockEpoch Epoch
	FeeBps    uint64
	ClaimSeq  uint64
}
