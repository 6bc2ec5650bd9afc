// Package vault provides in-memory reference implementations of the
// engine's external collaborators: the asset-transfer vault, the
// work-settlement channel and the epoch oracle. They back the fakenet
// launcher mode and the test suites; production deployments substitute
// adapters to the real asset network.
package vault

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/rony4d/go-opera-pool/inter"
)

// ErrInsufficientFunds is returned by a transfer whose source balance is
// too small. Transfers are all-or-nothing: on error no balance moves.
var ErrInsufficientFunds = errors.New("vault: insufficient funds")

// MemVault is an in-memory ledger of account balances implementing
// engine.Vault. The pool's custody account is an ordinary account; Pool is
// its address for TransferIn/TransferOut bookkeeping.
type MemVault struct {
	mu       sync.Mutex
	pool     common.Address
	balances map[common.Address]*big.Int
}

// NewMemVault creates an empty vault custodying into the given pool account.
func NewMemVault(pool common.Address) *MemVault {
	return &MemVault{
		pool:     pool,
		balances: make(map[common.Address]*big.Int),
	}
}

// Mint credits an account out of thin air (test/fakenet helper).
func (v *MemVault) Mint(account common.Address, amount *big.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.credit(account, amount)
}

func (v *MemVault) credit(account common.Address, amount *big.Int) {
	bal, ok := v.balances[account]
	if !ok {
		bal = new(big.Int)
		v.balances[account] = bal
	}
	bal.Add(bal, amount)
}

func (v *MemVault) debit(account common.Address, amount *big.Int) error {
	bal, ok := v.balances[account]
	if !ok || bal.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	bal.Sub(bal, amount)
	return nil
}

// TransferIn moves amount from an external account into the pool account.
func (v *MemVault) TransferIn(from common.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.debit(from, amount); err != nil {
		return err
	}
	v.credit(v.pool, amount)
	return nil
}

// TransferOut moves amount from the pool account to an external account.
func (v *MemVault) TransferOut(to common.Address, amount *big.Int) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.debit(v.pool, amount); err != nil {
		return err
	}
	v.credit(to, amount)
	return nil
}

// BalanceOf reports an account's balance.
func (v *MemVault) BalanceOf(account common.Address) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if bal, ok := v.balances[account]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// MemSettlement is an engine.Settlement that pays a configurable reward
// into a MemVault on each claim, imitating a settlement channel whose
// payout is work-dependent and unknown to the pool in advance.
type MemSettlement struct {
	mu    sync.Mutex
	vault *MemVault

	nextReward *big.Int
	failNext   bool

	submitted [][]byte
	claimed   [][]uint64
}

// NewMemSettlement creates a settlement channel paying into vault's pool
// account.
func NewMemSettlement(v *MemVault) *MemSettlement {
	return &MemSettlement{
		vault:      v,
		nextReward: new(big.Int),
	}
}

// SetNextReward sets the amount the next claims will pay.
func (s *MemSettlement) SetNextReward(amount *big.Int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextReward = new(big.Int).Set(amount)
}

// FailNext makes the next claim or submit call fail.
func (s *MemSettlement) FailNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = true
}

// Submit records the payload.
func (s *MemSettlement) Submit(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errors.New("vault: settlement rejected submission")
	}
	s.submitted = append(s.submitted, append([]byte(nil), payload...))
	return nil
}

// Claim pays the configured reward into the pool account.
func (s *MemSettlement) Claim(epochIDs []uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext {
		s.failNext = false
		return errors.New("vault: settlement rejected claim")
	}
	s.claimed = append(s.claimed, append([]uint64(nil), epochIDs...))
	if s.nextReward.Sign() > 0 {
		s.vault.Mint(s.vault.pool, s.nextReward)
		s.nextReward = new(big.Int)
	}
	return nil
}

// Submitted returns the payloads forwarded so far.
func (s *MemSettlement) Submitted() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.submitted...)
}

// ManualOracle is an engine.EpochOracle advanced by hand. Advancing is
// monotone; Advance panics on an attempt to move backwards, matching the
// oracle contract.
type ManualOracle struct {
	mu    sync.Mutex
	epoch inter.Epoch
}

// NewManualOracle starts the oracle at the given epoch.
func NewManualOracle(start inter.Epoch) *ManualOracle {
	return &ManualOracle{epoch: start}
}

// CurrentEpoch returns the oracle value.
func (o *ManualOracle) CurrentEpoch() inter.Epoch {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.epoch
}

// Advance moves the oracle to the given epoch.
func (o *ManualOracle) Advance(to inter.Epoch) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if to < o.epoch {
		panic("vault: epoch oracle cannot roll back")
	}
	o.epoch = to
}
