package contract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sputnik_dao/contract"
	"sputnik_dao/sdk"
)

// tokenPolicy has a one member council and a holders role whose plain votes are
// weighted by delegation.
func tokenPolicy() contract.Policy {
	p := contract.DefaultPolicy([]sdk.Address{alice})
	p.Roles = append(p.Roles, contract.RolePermission{
		Name:        "holders",
		Kind:        contract.Member(bal(1)),
		Permissions: []string{"vote:VoteApprove", "vote:VoteReject"},
		VotePolicy: map[string]contract.VotePolicy{
			contract.LabelVote: {WeightKind: contract.TokenWeight, Quorum: sdk.Zero, Threshold: contract.Ratio(1, 2)},
		},
	})
	return p
}

// withStaking points the DAO at stakingID through a council proposal.
func withStaking(t *testing.T, ct *contractTest, approvers ...sdk.Address) {
	t.Helper()
	id := ct.propose(t, alice, contract.SetStakingContract{StakingID: stakingID})
	require.Equal(t, contract.StatusApproved, ct.approve(t, id, approvers...))
}

func (ct *contractTest) stakingEnv() sdk.Env { return ct.env(stakingID, sdk.Zero) }

func (ct *contractTest) delegate(t *testing.T, account sdk.Address, amount uint64) contract.DelegationResult {
	t.Helper()
	require.NoError(t, ct.c.RegisterDelegation(ct.ctx, ct.stakingEnv(), account))
	res, err := ct.c.Delegate(ct.ctx, ct.stakingEnv(), account, bal(amount))
	require.NoError(t, err)
	return res
}

func TestDelegationNeedsStakingContract(t *testing.T) {
	ct := SetupCouncilTest(t)
	err := ct.c.RegisterDelegation(ct.ctx, ct.stakingEnv(), carol)
	assert.ErrorIs(t, err, contract.ErrNoStaking)

	withStaking(t, ct, alice, bob)
	err = ct.c.RegisterDelegation(ct.ctx, ct.env(carol, sdk.Zero), carol)
	assert.ErrorIs(t, err, contract.ErrNotStakingContract)
	assert.Equal(t, contract.ClassAuthorization, contract.ClassOf(err))
	_, err = ct.c.Delegate(ct.ctx, ct.env(carol, sdk.Zero), carol, bal(5))
	assert.ErrorIs(t, err, contract.ErrNotStakingContract)
}

func TestDelegationLedger(t *testing.T) {
	ct := SetupCouncilTest(t)
	withStaking(t, ct, alice, bob)

	res := ct.delegate(t, carol, 100)
	assert.Equal(t, contract.DelegationResult{Prev: sdk.Zero, New: bal(100), Total: bal(100)}, res)
	res = ct.delegate(t, outsider, 50)
	assert.Equal(t, bal(150), res.Total)

	// registering again keeps the weight
	require.NoError(t, ct.c.RegisterDelegation(ct.ctx, ct.stakingEnv(), carol))
	got, err := ct.c.DelegationBalanceOf(ct.ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, bal(100), got)

	res, err = ct.c.Undelegate(ct.ctx, ct.stakingEnv(), carol, bal(30))
	require.NoError(t, err)
	assert.Equal(t, contract.DelegationResult{Prev: bal(100), New: bal(70), Total: bal(120)}, res)

	_, err = ct.c.Undelegate(ct.ctx, ct.stakingEnv(), carol, bal(71))
	assert.ErrorIs(t, err, contract.ErrInvalidStakingContract)
	_, err = ct.c.Delegate(ct.ctx, ct.stakingEnv(), bob, bal(1))
	assert.ErrorIs(t, err, contract.ErrNotRegistered)
	assert.ErrorIs(t, ct.c.RegisterDelegation(ct.ctx, ct.stakingEnv(), "NOT VALID"), contract.ErrInvalidAccountID)

	total, err := ct.c.DelegationTotalSupply(ct.ctx)
	require.NoError(t, err)
	carolBal, _ := ct.c.DelegationBalanceOf(ct.ctx, carol)
	outsiderBal, _ := ct.c.DelegationBalanceOf(ct.ctx, outsider)
	assert.Equal(t, total, carolBal.Add(outsiderBal))
}

func TestTokenWeightedVoting(t *testing.T) {
	ct := SetupContractTest(t, contract.CurrentPolicy(tokenPolicy()))
	withStaking(t, ct, alice)
	ct.delegate(t, bob, 60)
	ct.delegate(t, carol, 40)

	id := ct.propose(t, alice, contract.VoteKind{})
	status := ct.approve(t, id, carol)
	assert.Equal(t, contract.StatusInProgress, status)
	assert.Equal(t, contract.Tally{bal(40), sdk.Zero, sdk.Zero}, ct.proposal(t, id).VoteCounts["holders"])

	status = ct.approve(t, id, bob)
	assert.Equal(t, contract.StatusApproved, status)

	// holders may not vote on anything but signaling proposals
	other := ct.propose(t, alice, contract.ChangeConfig{Config: contract.Config{Name: "x"}})
	_, err := ct.act(bob, other, contract.ActionVoteApprove)
	assert.ErrorIs(t, err, contract.ErrPermissionDenied)
}

func TestChangeDelegationWeightKeepsTotal(t *testing.T) {
	ct := SetupContractTest(t, contract.CurrentPolicy(tokenPolicy()))
	withStaking(t, ct, alice)
	ct.delegate(t, bob, 60)
	ct.delegate(t, carol, 40)

	id := ct.propose(t, alice, contract.ChangeDelegationWeight{AccountID: carol, Amount: bal(10)})
	require.Equal(t, contract.StatusApproved, ct.approve(t, id, alice))

	got, err := ct.c.DelegationBalanceOf(ct.ctx, carol)
	require.NoError(t, err)
	assert.Equal(t, bal(10), got)
	total, err := ct.c.DelegationTotalSupply(ct.ctx)
	require.NoError(t, err)
	assert.Equal(t, bal(70), total)
}
