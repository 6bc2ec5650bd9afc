package engine

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-pool/inter"
)

// Vault is the asset-transfer collaborator. Transfers are all-or-nothing:
// either the exact amount moves or the call returns an error and both sides
// are unchanged. There is no partial-transfer state for the engine to
// reconcile; a failed transfer unwinds the whole operation that issued it.
type Vault interface {
	// TransferIn pulls amount from the given account into the pool's custody.
	TransferIn(from common.Address, amount *big.Int) error

	// TransferOut pushes amount from the pool's custody to the given account.
	TransferOut(to common.Address, amount *big.Int) error

	// BalanceOf reports the current balance of an account, including the
	// pool's own custody account. The returned value must not be retained
	// or mutated by the vault after the call.
	BalanceOf(account common.Address) *big.Int
}

// Settlement is the external work-settlement collaborator. Payloads are
// opaque to the engine; the only observable effect of Claim is the change
// in the pool's vault balance.
type Settlement interface {
	// Submit forwards an opaque work payload to the remote system.
	Submit(payload []byte) error

	// Claim requests settlement for the given epoch identifiers. The amount
	// paid is work-dependent and unpredictable; the engine measures it as a
	// balance delta around this call.
	Claim(epochIDs []uint64) error
}

// EpochOracle exposes the externally-defined epoch counter. The counter is
// authoritative and monotonically non-decreasing; the engine never advances
// it and never substitutes local time.
type EpochOracle interface {
	CurrentEpoch() inter.Epoch
}
