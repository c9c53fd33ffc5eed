package host_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sputnik_dao/contract"
	"sputnik_dao/internal/host"
	"sputnik_dao/sdk"
)

const (
	dao   sdk.Address = "dao.near"
	alice sdk.Address = "alice.near"
	bob   sdk.Address = "bob.near"
	usdc  sdk.Asset   = "usdc.near"
)

func bal(v uint64) sdk.Balance { return sdk.NewBalance(v) }

func SetupHostTest(t *testing.T) (*host.Local, *sdk.MemStore) {
	t.Helper()
	store := sdk.NewMemStore()
	return host.New(store, dao, zaptest.NewLogger(t)), store
}

func balanceOf(t *testing.T, h *host.Local, account sdk.Address, asset sdk.Asset) sdk.Balance {
	t.Helper()
	b, err := h.BalanceOf(account, asset)
	require.NoError(t, err)
	return b
}

// =============================================================================
// Ledger
// =============================================================================

func TestNativePayoutSettlesImmediately(t *testing.T) {
	h, _ := SetupHostTest(t)
	require.NoError(t, h.Credit(dao, sdk.AssetNative, bal(100)))

	p, err := h.Payout(context.Background(), sdk.Payout{ID: "p1", Receiver: bob, Amount: bal(40)})
	require.NoError(t, err)
	assert.Equal(t, sdk.Promise{ID: "p1", Resolved: true, Success: true}, p)
	assert.Equal(t, bal(60), balanceOf(t, h, dao, sdk.AssetNative))
	assert.Equal(t, bal(40), balanceOf(t, h, bob, sdk.AssetNative))

	p, err = h.Payout(context.Background(), sdk.Payout{ID: "p2", Receiver: bob, Amount: bal(61)})
	require.NoError(t, err)
	assert.True(t, p.Resolved)
	assert.False(t, p.Success)
	assert.Equal(t, bal(60), balanceOf(t, h, dao, sdk.AssetNative))
}

func TestTransferRejectsOverdraft(t *testing.T) {
	h, _ := SetupHostTest(t)
	require.NoError(t, h.Credit(alice, sdk.AssetNative, bal(5)))
	err := h.Transfer(alice, bob, sdk.AssetNative, bal(6))
	assert.ErrorIs(t, err, host.ErrInsufficientFunds)
	require.NoError(t, h.Transfer(alice, bob, sdk.AssetNative, bal(5)))
	assert.True(t, balanceOf(t, h, alice, sdk.AssetNative).IsZero())
}

// =============================================================================
// Outbox
// =============================================================================

func TestTokenPayoutWaitsForResolve(t *testing.T) {
	h, _ := SetupHostTest(t)
	require.NoError(t, h.Credit(dao, usdc, bal(10)))

	var got []string
	h.OnResolve(func(_ context.Context, id string, success bool) error {
		if success {
			got = append(got, id+":ok")
		} else {
			got = append(got, id+":fail")
		}
		return nil
	})

	msg := "deposit"
	p, err := h.Payout(context.Background(), sdk.Payout{ID: "t1", Token: usdc, Receiver: bob, Amount: bal(7), Memo: "m", Msg: &msg})
	require.NoError(t, err)
	assert.False(t, p.Resolved)

	out, err := h.Outbox()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, host.RequestPayout, out[0].Kind)
	assert.Equal(t, sdk.Payout{ID: "t1", Token: usdc, Receiver: bob, Amount: bal(7), Memo: "m", Msg: &msg}, *out[0].Payout)

	require.NoError(t, h.Resolve(context.Background(), "t1", true))
	assert.Equal(t, bal(7), balanceOf(t, h, bob, usdc))
	assert.Equal(t, []string{"t1:ok"}, got)

	err = h.Resolve(context.Background(), "t1", true)
	assert.ErrorIs(t, err, host.ErrUnknownRequest)
}

func TestResolveWithoutFundsFails(t *testing.T) {
	h, _ := SetupHostTest(t)
	var outcome *bool
	h.OnResolve(func(_ context.Context, _ string, success bool) error {
		outcome = &success
		return nil
	})
	_, err := h.Payout(context.Background(), sdk.Payout{ID: "t1", Token: usdc, Receiver: bob, Amount: bal(7)})
	require.NoError(t, err)
	require.NoError(t, h.Resolve(context.Background(), "t1", true))
	require.NotNil(t, outcome)
	assert.False(t, *outcome)
}

func TestDispatchMovesDeposits(t *testing.T) {
	h, _ := SetupHostTest(t)
	require.NoError(t, h.Credit(dao, sdk.AssetNative, bal(10)))
	_, err := h.Dispatch(context.Background(), sdk.RemoteCall{
		ID:       "c1",
		Receiver: "app.near",
		Actions: []sdk.FunctionCallAction{
			{Method: "a", Args: []byte(`{}`), Deposit: bal(3), Gas: 10},
			{Method: "b", Deposit: bal(4)},
		},
	})
	require.NoError(t, err)

	out, err := h.Outbox()
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Call)
	assert.Equal(t, "a", out[0].Call.Actions[0].Method)
	assert.Equal(t, []byte(`{}`), out[0].Call.Actions[0].Args)
	assert.Equal(t, uint64(10), out[0].Call.Actions[0].Gas)

	require.NoError(t, h.Resolve(context.Background(), "c1", true))
	assert.Equal(t, bal(7), balanceOf(t, h, "app.near", sdk.AssetNative))
	assert.Equal(t, bal(3), balanceOf(t, h, dao, sdk.AssetNative))
}

// =============================================================================
// Engine round trip
// =============================================================================

func TestTokenTransferProposalThroughOutbox(t *testing.T) {
	ctx := context.Background()
	store := sdk.NewMemStore()
	h := host.New(store, dao, zaptest.NewLogger(t))
	c := contract.New(store, h, contract.WithLogger(zaptest.NewLogger(t)))
	self := sdk.Env{CurrentAccount: dao, Predecessor: dao, BlockTimestamp: 1}
	h.OnResolve(func(ctx context.Context, id string, success bool) error {
		return c.OnProposalCallback(ctx, self, id, success)
	})

	env := sdk.Env{CurrentAccount: dao, Predecessor: alice, BlockTimestamp: 1}
	require.NoError(t, c.Init(ctx, env, contract.InitArgs{Policy: contract.LegacyPolicy(alice)}))
	require.NoError(t, h.Credit(dao, usdc, bal(500)))
	require.NoError(t, h.Credit(dao, sdk.AssetNative, contract.DefaultProposalBond))

	id, err := c.AddProposal(ctx, env.WithCaller(alice, contract.DefaultProposalBond), contract.ProposalInput{
		Description: "pay bob",
		Kind:        contract.Transfer{TokenID: usdc, ReceiverID: bob, Amount: bal(200)},
	})
	require.NoError(t, err)
	status, err := c.ActProposal(ctx, env, id, contract.ActionVoteApprove, "")
	require.NoError(t, err)
	assert.Equal(t, contract.StatusApproved, status)

	out, err := h.Outbox()
	require.NoError(t, err)
	require.Len(t, out, 1)
	pending, err := c.GetPendingCall(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, pending.CallID, out[0].ID)

	require.NoError(t, h.Resolve(ctx, out[0].ID, true))
	assert.Equal(t, bal(200), balanceOf(t, h, bob, usdc))
	assert.Equal(t, contract.DefaultProposalBond, balanceOf(t, h, alice, sdk.AssetNative))
	locked, err := c.GetLockedAmount(ctx)
	require.NoError(t, err)
	assert.True(t, locked.IsZero())
	pending, err = c.GetPendingCall(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, pending)
}
