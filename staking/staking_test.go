package staking_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sputnik_dao/contract"
	"sputnik_dao/internal/host"
	"sputnik_dao/sdk"
	"sputnik_dao/staking"
)

const (
	daoID     sdk.Address = "dao.near"
	stakingID sdk.Address = "staking.near"
	alice     sdk.Address = "alice.near"
	bob       sdk.Address = "bob.near"
	carol     sdk.Address = "carol.near"
	voteToken sdk.Asset   = "vote.near"

	cooldown uint64 = 1_000
)

func bal(v uint64) sdk.Balance { return sdk.NewBalance(v) }

type stakingTest struct {
	s    *staking.Staking
	dao  *contract.Contract
	host *host.Local
	ctx  context.Context
	now  uint64
}

func (st *stakingTest) env(caller sdk.Address) sdk.Env {
	return sdk.Env{CurrentAccount: stakingID, Predecessor: caller, BlockTimestamp: st.now}
}

func (st *stakingTest) weight(t *testing.T, account sdk.Address) sdk.Balance {
	t.Helper()
	b, err := st.dao.DelegationBalanceOf(st.ctx, account)
	require.NoError(t, err)
	return b
}

func (st *stakingTest) tokens(t *testing.T, account sdk.Address) sdk.Balance {
	t.Helper()
	b, err := st.host.BalanceOf(account, voteToken)
	require.NoError(t, err)
	return b
}

// SetupStakingTest runs the DAO, the host and the staking collaborator on one store.
// The DAO trusts daoStaking as its staking contract.
func SetupStakingTest(t *testing.T, daoStaking sdk.Address) *stakingTest {
	t.Helper()
	log := zaptest.NewLogger(t)
	store := sdk.NewMemStore()
	h := host.New(store, daoID, log)
	dao := contract.New(store, h, contract.WithLogger(log))
	st := &stakingTest{dao: dao, host: h, ctx: context.Background(), now: 1}

	require.NoError(t, dao.Init(st.ctx, sdk.Env{CurrentAccount: daoID, Predecessor: alice, BlockTimestamp: st.now}, contract.InitArgs{
		Policy:    contract.LegacyPolicy(alice),
		StakingID: daoStaking,
	}))
	st.s = staking.New(staking.Config{
		Self:          stakingID,
		DAO:           daoID,
		Token:         voteToken,
		UnstakePeriod: cooldown,
	}, store, dao, h, log)
	require.NoError(t, h.Credit(carol, voteToken, bal(100)))
	return st
}

func TestStakingLifecycle(t *testing.T) {
	st := SetupStakingTest(t, stakingID)

	u, err := st.s.Deposit(st.ctx, st.env(carol), bal(60))
	require.NoError(t, err)
	assert.Equal(t, bal(60), u.Free)
	assert.Equal(t, bal(40), st.tokens(t, carol))
	assert.Equal(t, bal(60), st.tokens(t, stakingID))

	res, err := st.s.DelegateTo(st.ctx, st.env(carol), bob, bal(50))
	require.NoError(t, err)
	assert.Equal(t, bal(50), res.Total)
	assert.Equal(t, bal(50), st.weight(t, bob))

	_, err = st.s.Withdraw(st.ctx, st.env(carol), bal(11))
	assert.ErrorIs(t, err, staking.ErrNotEnoughFree)

	res, err = st.s.UndelegateFrom(st.ctx, st.env(carol), bob, bal(20))
	require.NoError(t, err)
	assert.Equal(t, bal(30), res.New)
	assert.Equal(t, bal(30), st.weight(t, bob))

	_, err = st.s.Withdraw(st.ctx, st.env(carol), bal(30))
	assert.ErrorIs(t, err, staking.ErrCooldown)
	_, err = st.s.UndelegateFrom(st.ctx, st.env(carol), bob, bal(1))
	assert.ErrorIs(t, err, staking.ErrCooldown)

	st.now += cooldown
	u, err = st.s.Withdraw(st.ctx, st.env(carol), bal(30))
	require.NoError(t, err)
	assert.True(t, u.Free.IsZero())
	assert.Equal(t, []staking.Delegation{{Account: bob, Amount: bal(30)}}, u.Delegated)
	assert.Equal(t, bal(70), st.tokens(t, carol))

	total, err := st.s.TotalStaked()
	require.NoError(t, err)
	assert.Equal(t, bal(30), total)
}

func TestWithdrawEverythingForgetsUser(t *testing.T) {
	st := SetupStakingTest(t, stakingID)
	_, err := st.s.Deposit(st.ctx, st.env(carol), bal(10))
	require.NoError(t, err)
	_, err = st.s.Withdraw(st.ctx, st.env(carol), bal(10))
	require.NoError(t, err)

	_, err = st.s.GetUser(carol)
	assert.ErrorIs(t, err, staking.ErrNoUser)
	assert.Equal(t, bal(100), st.tokens(t, carol))
}

func TestDepositNeedsFunds(t *testing.T) {
	st := SetupStakingTest(t, stakingID)
	_, err := st.s.Deposit(st.ctx, st.env(bob), bal(1))
	assert.ErrorIs(t, err, host.ErrInsufficientFunds)
	_, err = st.s.Deposit(st.ctx, st.env(carol), sdk.Zero)
	assert.ErrorIs(t, err, staking.ErrZeroAmount)
	_, err = st.s.GetUser(bob)
	assert.ErrorIs(t, err, staking.ErrNoUser)
}

func TestDelegateOverFreeBalance(t *testing.T) {
	st := SetupStakingTest(t, stakingID)
	_, err := st.s.Deposit(st.ctx, st.env(carol), bal(10))
	require.NoError(t, err)
	_, err = st.s.DelegateTo(st.ctx, st.env(carol), bob, bal(11))
	assert.ErrorIs(t, err, staking.ErrNotEnoughFree)
	assert.True(t, st.weight(t, bob).IsZero())

	_, err = st.s.UndelegateFrom(st.ctx, st.env(carol), bob, bal(1))
	assert.ErrorIs(t, err, staking.ErrNotEnoughDelegated)
}

func TestDAORefusalLeavesUserUntouched(t *testing.T) {
	st := SetupStakingTest(t, "other-staking.near")
	_, err := st.s.Deposit(st.ctx, st.env(carol), bal(10))
	require.NoError(t, err)

	_, err = st.s.DelegateTo(st.ctx, st.env(carol), bob, bal(5))
	assert.ErrorIs(t, err, contract.ErrNotStakingContract)

	u, err := st.s.GetUser(carol)
	require.NoError(t, err)
	assert.Equal(t, bal(10), u.Free)
	assert.Empty(t, u.Delegated)
}

func TestDelegationsStaySorted(t *testing.T) {
	st := SetupStakingTest(t, stakingID)
	_, err := st.s.Deposit(st.ctx, st.env(carol), bal(30))
	require.NoError(t, err)
	for _, to := range []sdk.Address{carol, alice, bob} {
		_, err := st.s.DelegateTo(st.ctx, st.env(carol), to, bal(10))
		require.NoError(t, err)
	}
	u, err := st.s.GetUser(carol)
	require.NoError(t, err)
	require.Len(t, u.Delegated, 3)
	assert.Equal(t, alice, u.Delegated[0].Account)
	assert.Equal(t, carol, u.Delegated[2].Account)

	total, err := st.dao.DelegationTotalSupply(st.ctx)
	require.NoError(t, err)
	assert.Equal(t, bal(30), total)
}

// =============================================================================
// Ledger and store failures
// =============================================================================

// switchLedger fails every transfer while fail is set.
type switchLedger struct {
	inner staking.Ledger
	fail  bool
}

func (l *switchLedger) Transfer(from, to sdk.Address, asset sdk.Asset, amount sdk.Balance) error {
	if l.fail {
		return assert.AnError
	}
	return l.inner.Transfer(from, to, asset, amount)
}

// switchStore refuses every batch while fail is set.
type switchStore struct {
	*sdk.MemStore
	fail bool
}

func (s *switchStore) Apply(batch []sdk.Mutation) error {
	if s.fail {
		return assert.AnError
	}
	return s.MemStore.Apply(batch)
}

// setupFaultyStaking runs staking on its own store and ledger, both of which can be
// told to fail.
func setupFaultyStaking(t *testing.T) (*stakingTest, *switchLedger, *switchStore) {
	t.Helper()
	st := SetupStakingTest(t, stakingID)
	ledger := &switchLedger{inner: st.host}
	store := &switchStore{MemStore: sdk.NewMemStore()}
	st.s = staking.New(staking.Config{
		Self:          stakingID,
		DAO:           daoID,
		Token:         voteToken,
		UnstakePeriod: cooldown,
	}, store, st.dao, ledger, zaptest.NewLogger(t))
	return st, ledger, store
}

func TestFailedWithdrawTransferRestoresUser(t *testing.T) {
	st, ledger, _ := setupFaultyStaking(t)
	_, err := st.s.Deposit(st.ctx, st.env(carol), bal(40))
	require.NoError(t, err)

	ledger.fail = true
	_, err = st.s.Withdraw(st.ctx, st.env(carol), bal(40))
	assert.ErrorIs(t, err, assert.AnError)
	u, err := st.s.GetUser(carol)
	require.NoError(t, err)
	assert.Equal(t, bal(40), u.Free)
	assert.Equal(t, bal(60), st.tokens(t, carol))

	ledger.fail = false
	_, err = st.s.Withdraw(st.ctx, st.env(carol), bal(40))
	require.NoError(t, err)
	assert.Equal(t, bal(100), st.tokens(t, carol))
	_, err = st.s.Withdraw(st.ctx, st.env(carol), bal(40))
	assert.ErrorIs(t, err, staking.ErrNoUser)
}

func TestFailedDepositTransferForgetsNewUser(t *testing.T) {
	st, ledger, _ := setupFaultyStaking(t)
	ledger.fail = true
	_, err := st.s.Deposit(st.ctx, st.env(carol), bal(10))
	assert.ErrorIs(t, err, assert.AnError)
	_, err = st.s.GetUser(carol)
	assert.ErrorIs(t, err, staking.ErrNoUser)
	assert.Equal(t, bal(100), st.tokens(t, carol))
}

func TestStoreFailureMovesNoFunds(t *testing.T) {
	st, _, store := setupFaultyStaking(t)
	_, err := st.s.Deposit(st.ctx, st.env(carol), bal(30))
	require.NoError(t, err)

	store.fail = true
	_, err = st.s.Withdraw(st.ctx, st.env(carol), bal(30))
	assert.ErrorIs(t, err, assert.AnError)
	_, err = st.s.Deposit(st.ctx, st.env(carol), bal(5))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, bal(70), st.tokens(t, carol))
	assert.Equal(t, bal(30), st.tokens(t, stakingID))

	store.fail = false
	u, err := st.s.GetUser(carol)
	require.NoError(t, err)
	assert.Equal(t, bal(30), u.Free)
}
