package engine

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/rony4d/go-opera-pool/inter"
)

// lockedDeposit funds addr with amount already promoted to locked.
func (tp *testPool) lockedDeposit(t *testing.T, addr common.Address, amount int64) {
	t.Helper()
	require.NoError(t, tp.Deposit(addr, big.NewInt(amount)))
	tp.advance(tp.oracle.CurrentEpoch() + 1)
}

func TestRequestWithdrawalValidation(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	require.ErrorIs(tp.RequestWithdrawal(alice, big.NewInt(0)), ErrInvalidAmount)
	require.ErrorIs(tp.RequestWithdrawal(alice, big.NewInt(10)), ErrInsufficientBalance)

	// Pending stake is not withdrawable; only locked is.
	require.NoError(tp.Deposit(alice, big.NewInt(100)))
	require.ErrorIs(tp.RequestWithdrawal(alice, big.NewInt(100)), ErrInsufficientBalance)

	tp.advance(6)
	require.ErrorIs(tp.RequestWithdrawal(alice, big.NewInt(101)), ErrInsufficientBalance)
	require.NoError(tp.RequestWithdrawal(alice, big.NewInt(100)))
	checkInvariants(t, tp.Pool)
}

// TestWithdrawalLifecycle walks a locked deposit through request and
// completion: funds leave the reward-earning pool at request time and are
// releasable exactly one epoch later.
func TestWithdrawalLifecycle(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.lockedDeposit(t, alice, 500)
	require.NoError(tp.RequestWithdrawal(alice, big.NewInt(200)))

	// Locked pool is debited immediately.
	info := tp.Info()
	require.Zero(info.TotalLocked.Cmp(big.NewInt(300)))
	pi := tp.Participant(alice)
	require.Zero(pi.QueuedWithdraw.Cmp(big.NewInt(200)))

	// Not mature yet: a premature completion is a typed failure, not a
	// silent success.
	_, err := tp.CompleteWithdrawal(alice)
	require.ErrorIs(err, ErrNothingToRelease)

	tp.advance(tp.oracle.CurrentEpoch() + 1)
	released, err := tp.CompleteWithdrawal(alice)
	require.NoError(err)
	require.Zero(released.Cmp(big.NewInt(200)))

	// Repeating fails again.
	_, err = tp.CompleteWithdrawal(alice)
	require.ErrorIs(err, ErrNothingToRelease)
	checkInvariants(t, tp.Pool)
}

// TestWithdrawalRoundTrip: deposit, lock, then request the full amount.
// Every aggregate returns to zero and the request matures exactly at
// currentEpoch+1.
func TestWithdrawalRoundTrip(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	require.NoError(tp.Deposit(alice, big.NewInt(100)))
	// Before the boundary the stake is pending, so a locked withdrawal is
	// not possible yet; promote first.
	tp.advance(6)
	require.NoError(tp.RequestWithdrawal(alice, big.NewInt(100)))

	info := tp.Info()
	require.Zero(info.TotalPending.Sign())
	require.Zero(info.TotalLocked.Sign())
	require.Equal(0, tp.DepositorCount())

	// Releasable exactly at epoch 7, not before.
	_, err := tp.CompleteWithdrawal(alice)
	require.ErrorIs(err, ErrNothingToRelease)
	tp.advance(7)
	released, err := tp.CompleteWithdrawal(alice)
	require.NoError(err)
	require.Zero(released.Cmp(big.NewInt(100)))
	checkInvariants(t, tp.Pool)
}

// TestRosterSwapAndPop exercises O(1) roster removal with several
// participants: removing one from the middle moves the last entry into its
// slot and every surviving index stays consistent.
func TestRosterSwapAndPop(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.lockedDeposit(t, alice, 100)
	require.NoError(tp.Deposit(bob, big.NewInt(200)))
	require.NoError(tp.Deposit(carol, big.NewInt(300)))
	tp.advance(tp.oracle.CurrentEpoch() + 1)
	require.Equal(3, tp.DepositorCount())

	// Remove the middle entry; carol should take its slot.
	require.NoError(tp.RequestWithdrawal(bob, big.NewInt(200)))
	require.Equal(2, tp.DepositorCount())
	checkInvariants(t, tp.Pool)

	require.NoError(tp.RequestWithdrawal(alice, big.NewInt(100)))
	require.NoError(tp.RequestWithdrawal(carol, big.NewInt(300)))
	require.Equal(0, tp.DepositorCount())
	checkInvariants(t, tp.Pool)
}

func TestMultipleWithdrawalRecords(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.lockedDeposit(t, alice, 600)
	require.NoError(tp.RequestWithdrawal(alice, big.NewInt(100)))
	tp.advance(tp.oracle.CurrentEpoch() + 1)
	require.NoError(tp.RequestWithdrawal(alice, big.NewInt(200)))

	// Only the first record is mature; the second needs one more epoch.
	released, err := tp.CompleteWithdrawal(alice)
	require.NoError(err)
	require.Zero(released.Cmp(big.NewInt(100)))

	tp.advance(tp.oracle.CurrentEpoch() + 1)
	released, err = tp.CompleteWithdrawal(alice)
	require.NoError(err)
	require.Zero(released.Cmp(big.NewInt(200)))
	checkInvariants(t, tp.Pool)
}

// TestEmergencyWithdraw covers scenario D: while paused, the emergency path
// sweeps locked + pending + queued + unclaimed reward in one payout and
// zeroes all four.
func TestEmergencyWithdraw(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	// Build up all four balance kinds for alice:
	// 300 locked, 100 pending, 200 queued, and a reward credit.
	tp.lockedDeposit(t, alice, 500)
	require.NoError(tp.RequestWithdrawal(alice, big.NewInt(200)))
	require.NoError(tp.Deposit(alice, big.NewInt(100)))

	tp.settle.SetNextReward(big.NewInt(1000))
	_, err := tp.ClaimRewards([]uint64{1})
	require.NoError(err)
	unclaimed := tp.Participant(alice).UnclaimedReward
	require.True(unclaimed.Sign() > 0)

	// Pause everything; the emergency exit must not care.
	require.NoError(tp.Pause(operator))

	balBefore := tp.vault.BalanceOf(alice)
	swept, err := tp.EmergencyWithdraw(alice)
	require.NoError(err)

	want := big.NewInt(300 + 100 + 200)
	want.Add(want, unclaimed)
	require.Zero(swept.Cmp(want))
	require.Zero(new(big.Int).Sub(tp.vault.BalanceOf(alice), balBefore).Cmp(want))

	pi := tp.Participant(alice)
	require.Zero(pi.Pending.Sign())
	require.Zero(pi.Locked.Sign())
	require.Zero(pi.UnclaimedReward.Sign())
	require.Zero(pi.QueuedWithdraw.Sign())
	require.False(pi.Active)
	require.Equal(0, tp.DepositorCount())
	checkInvariants(t, tp.Pool)

	// Nothing left: a second emergency call is a typed failure.
	_, err = tp.EmergencyWithdraw(alice)
	require.ErrorIs(err, ErrNothingToRelease)
}

// TestEmergencyWithdrawIgnoresStuckOracle pins the exit-valve property: the
// emergency path never consults the epoch oracle, so even an oracle frozen
// forever cannot block it.
func TestEmergencyWithdrawIgnoresStuckOracle(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	require.NoError(tp.Deposit(alice, big.NewInt(100)))
	// The oracle never advances past the deposit epoch; the pending batch
	// can never lock and a queued withdrawal could never mature.
	swept, err := tp.EmergencyWithdraw(alice)
	require.NoError(err)
	require.Zero(swept.Cmp(big.NewInt(100)))
	require.Equal(inter.Epoch(5), tp.oracle.CurrentEpoch())
	checkInvariants(t, tp.Pool)
}
