package engine

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestClaimRewardsFeeSplit is the canonical settlement walk-through: a
// 1000-unit payout under a 500 bps fee pays the operator 50 and credits
// the sole depositor 950.
func TestClaimRewardsFeeSplit(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.lockedDeposit(t, alice, 4000)
	tp.settle.SetNextReward(big.NewInt(1000))

	opBefore := tp.vault.BalanceOf(operator)
	res, err := tp.ClaimRewards([]uint64{7, 8})
	require.NoError(err)

	require.Equal(uint64(1), res.Seq)
	require.Equal([]uint64{7, 8}, res.EpochIDs)
	require.Zero(res.Total.Cmp(big.NewInt(1000)))
	require.Zero(res.Fee.Cmp(big.NewInt(50)))
	require.Zero(res.Distributed.Cmp(big.NewInt(950)))

	// Fee is paid out immediately; the depositor share is credited, not
	// transferred.
	require.Zero(new(big.Int).Sub(tp.vault.BalanceOf(operator), opBefore).Cmp(big.NewInt(50)))
	require.Zero(tp.Participant(alice).UnclaimedReward.Cmp(big.NewInt(950)))
	checkInvariants(t, tp.Pool)
}

// TestClaimRewardsProRata checks distribution fairness: a depositor with
// twice the locked stake receives twice the reward, and floor-division
// dust stays in the pool's custody rather than being distributed.
func TestClaimRewardsProRata(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	require.NoError(tp.Deposit(alice, big.NewInt(2000)))
	require.NoError(tp.Deposit(bob, big.NewInt(1000)))
	tp.advance(6)

	tp.settle.SetNextReward(big.NewInt(1000))
	res, err := tp.ClaimRewards(nil)
	require.NoError(err)

	// 1000 - 50 fee = 950 over 3000 locked: alice floor(950*2000/3000)=633,
	// bob floor(950*1000/3000)=316, dust 1.
	require.Zero(tp.Participant(alice).UnclaimedReward.Cmp(big.NewInt(633)))
	require.Zero(tp.Participant(bob).UnclaimedReward.Cmp(big.NewInt(316)))
	require.Zero(res.Distributed.Cmp(big.NewInt(949)))
	checkInvariants(t, tp.Pool)
}

// TestClaimRewardsPendingEarnsNothing: stake still in its lock window is
// ineligible; a claim landing before the boundary credits only locked
// participants.
func TestClaimRewardsPendingEarnsNothing(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.lockedDeposit(t, alice, 1000)
	require.NoError(tp.Deposit(bob, big.NewInt(1000)))

	tp.settle.SetNextReward(big.NewInt(1000))
	_, err := tp.ClaimRewards(nil)
	require.NoError(err)

	require.Zero(tp.Participant(alice).UnclaimedReward.Cmp(big.NewInt(950)))
	require.Zero(tp.Participant(bob).UnclaimedReward.Sign())
	checkInvariants(t, tp.Pool)
}

func TestClaimRewardsZeroPayout(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.lockedDeposit(t, alice, 1000)

	// No reward configured: the claim is still a recorded event with a
	// fresh sequence number.
	res, err := tp.ClaimRewards(nil)
	require.NoError(err)
	require.Equal(uint64(1), res.Seq)
	require.Zero(res.Total.Sign())
	require.Zero(res.Fee.Sign())
	require.Zero(res.Distributed.Sign())

	res, err = tp.ClaimRewards(nil)
	require.NoError(err)
	require.Equal(uint64(2), res.Seq)
}

func TestClaimRewardsSettlementFailure(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.lockedDeposit(t, alice, 1000)
	tp.settle.FailNext()

	_, err := tp.ClaimRewards(nil)
	require.ErrorIs(err, ErrClaimFailed)

	// The failed attempt consumed no sequence number and credited nothing.
	res, err := tp.ClaimRewards(nil)
	require.NoError(err)
	require.Equal(uint64(1), res.Seq)
	require.Zero(tp.Participant(alice).UnclaimedReward.Sign())
}

// TestClaimRewardsNoLockedStake: with nothing locked, the post-fee
// remainder stays in custody; nothing is credited.
func TestClaimRewardsNoLockedStake(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	require.NoError(tp.Deposit(alice, big.NewInt(1000)))

	tp.settle.SetNextReward(big.NewInt(1000))
	res, err := tp.ClaimRewards(nil)
	require.NoError(err)
	require.Zero(res.Fee.Cmp(big.NewInt(50)))
	require.Zero(res.Distributed.Sign())
	require.Zero(tp.Participant(alice).UnclaimedReward.Sign())

	// The undistributed 950 remains on the pool's custody account.
	info := tp.Info()
	require.Zero(info.TotalUnclaimedReward.Sign())
	require.Zero(info.Balance.Cmp(big.NewInt(1000 + 950)))
	checkInvariants(t, tp.Pool)
}

func TestClaimUserRewards(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.lockedDeposit(t, alice, 1000)
	tp.settle.SetNextReward(big.NewInt(1000))
	_, err := tp.ClaimRewards(nil)
	require.NoError(err)

	before := tp.vault.BalanceOf(alice)
	paid, err := tp.ClaimUserRewards(alice)
	require.NoError(err)
	require.Zero(paid.Cmp(big.NewInt(950)))
	require.Zero(new(big.Int).Sub(tp.vault.BalanceOf(alice), before).Cmp(big.NewInt(950)))
	require.Zero(tp.Participant(alice).UnclaimedReward.Sign())

	// Nothing left to pay.
	_, err = tp.ClaimUserRewards(alice)
	require.ErrorIs(err, ErrNoRewards)
	_, err = tp.ClaimUserRewards(bob)
	require.ErrorIs(err, ErrNoRewards)
	checkInvariants(t, tp.Pool)
}

// TestRewardSurvivesFullWithdrawal: withdrawing all principal keeps the
// accrued reward claimable afterwards.
func TestRewardSurvivesFullWithdrawal(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.lockedDeposit(t, alice, 1000)
	tp.settle.SetNextReward(big.NewInt(1000))
	_, err := tp.ClaimRewards(nil)
	require.NoError(err)

	require.NoError(tp.RequestWithdrawal(alice, big.NewInt(1000)))
	tp.advance(tp.oracle.CurrentEpoch() + 1)
	_, err = tp.CompleteWithdrawal(alice)
	require.NoError(err)

	paid, err := tp.ClaimUserRewards(alice)
	require.NoError(err)
	require.Zero(paid.Cmp(big.NewInt(950)))
	checkInvariants(t, tp.Pool)

	// The record is gone once every balance kind has been drained.
	require.False(tp.Participant(alice).Active)
}

func TestSubmitWork(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	payload := []byte{0xde, 0xad, 0xbe, 0xef}
	require.ErrorIs(tp.SubmitWork(alice, payload), ErrNotOperator)
	require.NoError(tp.SubmitWork(operator, payload))
	require.Equal([][]byte{payload}, tp.settle.Submitted())

	// Pausing stops new work but never settlement of the old.
	require.NoError(tp.Pause(operator))
	require.ErrorIs(tp.SubmitWork(operator, payload), ErrPaused)

	tp.settle.SetNextReward(big.NewInt(100))
	_, err := tp.ClaimRewards(nil)
	require.NoError(err)
}

func TestSubmitWorkForwardFailure(t *testing.T) {
	require := require.New(t)
	tp := newTestPool(t)

	tp.settle.FailNext()
	require.Error(tp.SubmitWork(operator, []byte("job")))
	require.Empty(tp.settle.Submitted())
}
