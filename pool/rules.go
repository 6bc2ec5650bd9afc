// Package pool defines the network rules and configuration parameters for
// the pooled-custody stake ledger.
//
// This package provides:
//   - Network identification constants (MainNet, TestNet, FakeNet)
//   - Tier rules: the balance thresholds the combined pool must cross
//   - Fee rules: the operator fee bound and defaults
//   - Epoch rules: the deposit-activation and withdrawal-maturity delays
//
// The Rules type serves as the central configuration structure for a given
// pool deployment. The accounting engine itself never reads ambient
// configuration; it is handed a Rules value at construction.
package pool

import (
	"encoding/json"
	"math/big"

	"github.com/pkg/errors"

	"github.com/rony4d/go-opera-pool/inter"
)

// Network identification constants
const (
	// MainNetworkID is the chain ID of the network the pool custodies funds
	// on (0xfa = 250 in decimal)
	MainNetworkID uint64 = 0xfa

	// TestNetworkID is the chain ID for the testnet deployment (0xfa2 = 4002)
	TestNetworkID uint64 = 0xfa2

	// FakeNetworkID is the chain ID for local/fake networks used in testing
	// (0xfa3 = 4003)
	FakeNetworkID uint64 = 0xfa3
)

// Fee and distribution constants.
const (
	// FeeDenominator is the basis-point denominator: a fee of 10000 bps
	// would be 100% of the reward.
	FeeDenominator uint64 = 10000

	// MaxFeeBps is the hard upper bound on the operator fee (20%).
	// SetFee rejects anything above this.
	MaxFeeBps uint64 = 2000

	// TierCount is the number of balance tiers above the base tier.
	// Tier levels therefore range over [0, TierCount].
	TierCount = 3
)

// Rules describes the complete configuration for a pool deployment.
// This is the main type used throughout the codebase to access pool
// parameters.
//
// Note: Rules contains *big.Int fields; use Copy() rather than assignment
// when a mutation-safe duplicate is needed.
type Rules struct {
	Name      string // Deployment name identifier (e.g., "main", "test", "fake")
	NetworkID uint64 // Chain ID of the custodied asset's network

	// Tiers holds the pool balance thresholds
	Tiers TierRules

	// Fees holds the operator fee parameters
	Fees FeeRules

	// Epochs holds the epoch-delay parameters
	Epochs EpochRules
}

// TierRules defines the three fixed balance thresholds that unlock higher
// tiers for the pool as a whole. The tier level reported by the query
// surface is the number of thresholds the current pool balance has crossed,
// so it ranges over [0, 3].
type TierRules struct {
	// Thresholds are the tier boundaries in ascending order.
	// Thresholds[0] unlocks tier 1, Thresholds[2] unlocks tier 3.
	Thresholds [TierCount]*big.Int
}

// FeeRules defines the operator compensation parameters.
type FeeRules struct {
	// InitialFeeBps is the fee the pool starts with; the operator may move
	// it afterwards, but never above MaxFeeBps.
	InitialFeeBps uint64
}

// EpochRules defines the epoch-delay parameters of the accounting engine.
// Both delays exist to stop participants from gaming epoch boundaries:
// a deposit must bear one full epoch of exposure before it earns, and a
// withdrawal must mature one full epoch before principal is released.
type EpochRules struct {
	// DepositLockDelay is the number of epochs after the deposit epoch at
	// which a pending deposit becomes locked (reward-earning).
	DepositLockDelay inter.Epoch

	// WithdrawalDelay is the number of epochs after the request epoch at
	// which a pending withdrawal becomes releasable.
	WithdrawalDelay inter.Epoch
}

// TierOf returns the tier level (0-3) for a given pool balance: the number
// of configured thresholds the balance has reached or crossed.
func (t TierRules) TierOf(balance *big.Int) uint8 {
	if balance == nil {
		return 0
	}
	level := uint8(0)
	for _, threshold := range t.Thresholds {
		if threshold == nil || balance.Cmp(threshold) < 0 {
			break
		}
		level++
	}
	return level
}

// Validate checks that the rules are internally consistent: thresholds
// present and strictly ascending, fee within bound, delays non-zero.
func (r Rules) Validate() error {
	prev := new(big.Int)
	for i, threshold := range r.Tiers.Thresholds {
		if threshold == nil || threshold.Sign() <= 0 {
			return errors.Errorf("rules: tier threshold %d must be positive", i)
		}
		if threshold.Cmp(prev) <= 0 {
			return errors.Errorf("rules: tier thresholds must be strictly ascending (threshold %d)", i)
		}
		prev = threshold
	}
	if r.Fees.InitialFeeBps > MaxFeeBps {
		return errors.Errorf("rules: initial fee %d bps exceeds bound %d", r.Fees.InitialFeeBps, MaxFeeBps)
	}
	if r.Epochs.DepositLockDelay == 0 {
		return errors.New("rules: deposit lock delay must be at least one epoch")
	}
	if r.Epochs.WithdrawalDelay == 0 {
		return errors.New("rules: withdrawal delay must be at least one epoch")
	}
	return nil
}

// MainNetRules returns the configuration rules for the production pool.
// Thresholds are denominated in wei-scale units (1e18 per whole token).
func MainNetRules() Rules {
	return Rules{
		Name:      "main",
		NetworkID: MainNetworkID,
		Tiers:     DefaultTierRules(),
		Fees:      DefaultFeeRules(),
		Epochs:    DefaultEpochRules(),
	}
}

// TestNetRules returns the configuration rules for the testnet pool.
// Testnet uses the same parameters as mainnet for realistic testing.
func TestNetRules() Rules {
	return Rules{
		Name:      "test",
		NetworkID: TestNetworkID,
		Tiers:     DefaultTierRules(),
		Fees:      DefaultFeeRules(),
		Epochs:    DefaultEpochRules(),
	}
}

// FakeNetRules returns the configuration rules for fake/local pools.
// Fake pools use small tier thresholds so tests can cross every tier with
// modest balances.
func FakeNetRules() Rules {
	return Rules{
		Name:      "fake",
		NetworkID: FakeNetworkID,
		Tiers: TierRules{
			Thresholds: [TierCount]*big.Int{
				big.NewInt(1000),
				big.NewInt(10000),
				big.NewInt(100000),
			},
		},
		Fees:   DefaultFeeRules(),
		Epochs: DefaultEpochRules(),
	}
}

// DefaultTierRules returns the mainnet tier thresholds:
// 100k, 500k and 2M whole tokens.
func DefaultTierRules() TierRules {
	scale := big.NewInt(1e18)
	return TierRules{
		Thresholds: [TierCount]*big.Int{
			new(big.Int).Mul(big.NewInt(100_000), scale),
			new(big.Int).Mul(big.NewInt(500_000), scale),
			new(big.Int).Mul(big.NewInt(2_000_000), scale),
		},
	}
}

// DefaultFeeRules returns the default operator fee configuration (5%).
func DefaultFeeRules() FeeRules {
	return FeeRules{
		InitialFeeBps: 500,
	}
}

// DefaultEpochRules returns the default epoch delays. Both are one epoch:
// the minimum that still denies flash-deposit reward capture and instant
// withdrawal settlement.
func DefaultEpochRules() EpochRules {
	return EpochRules{
		DepositLockDelay: 1,
		WithdrawalDelay:  1,
	}
}

// Copy creates a deep copy of Rules.
// This is necessary because Rules contains pointer types (*big.Int) that
// would be shared in a shallow copy, leading to unintended mutations.
func (r Rules) Copy() Rules {
	cp := r
	for i, threshold := range r.Tiers.Thresholds {
		if threshold != nil {
			cp.Tiers.Thresholds[i] = new(big.Int).Set(threshold)
		}
	}
	return cp
}

// String returns a JSON representation of Rules for debugging and logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
