package contract_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"sputnik_dao/contract"
	"sputnik_dao/sdk"
)

const (
	daoID     = sdk.Address("dao.near")
	stakingID = sdk.Address("staking.near")
	alice     = sdk.Address("alice.near")
	bob       = sdk.Address("bob.near")
	carol     = sdk.Address("carol.near")
	outsider  = sdk.Address("outsider.near")
)

// startTime is the block time every test begins at.
const startTime uint64 = 1_700_000_000_000_000_000

type contractTest struct {
	c     *contract.Contract
	store *sdk.MemStore
	host  *sdk.MockHost
	ctx   context.Context
	now   uint64
	lines []string
}

// SetupContractTest initializes a fresh DAO with the given policy.
func SetupContractTest(t *testing.T, policy contract.VersionedPolicy) *contractTest {
	t.Helper()
	ct := &contractTest{
		store: sdk.NewMemStore(),
		host:  sdk.NewMockHost(),
		ctx:   context.Background(),
		now:   startTime,
	}
	ct.c = contract.New(ct.store, ct.host,
		contract.WithLogger(zaptest.NewLogger(t)),
		contract.WithEventSink(func(_, line string) { ct.lines = append(ct.lines, line) }),
	)
	err := ct.c.Init(ct.ctx, ct.env(alice, sdk.Zero), contract.InitArgs{
		Config: contract.Config{Name: "testdao", Purpose: "testing"},
		Policy: policy,
	})
	require.NoError(t, err)
	return ct
}

// SetupCouncilTest is a DAO whose council is alice and bob.
func SetupCouncilTest(t *testing.T) *contractTest {
	return SetupContractTest(t, contract.LegacyPolicy(alice, bob))
}

func (ct *contractTest) env(caller sdk.Address, deposit sdk.Balance) sdk.Env {
	return sdk.Env{
		CurrentAccount:  daoID,
		Predecessor:     caller,
		AttachedDeposit: deposit,
		BlockTimestamp:  ct.now,
	}
}

func (ct *contractTest) advance(ns uint64) { ct.now += ns }

// propose submits kind with the default bond and expects success.
func (ct *contractTest) propose(t *testing.T, caller sdk.Address, kind contract.ProposalKind) uint64 {
	t.Helper()
	id, err := ct.c.AddProposal(ct.ctx, ct.env(caller, contract.DefaultProposalBond), contract.ProposalInput{
		Description: "test proposal",
		Kind:        kind,
	})
	require.NoError(t, err)
	return id
}

func (ct *contractTest) act(caller sdk.Address, id uint64, action contract.Action) (contract.ProposalStatus, error) {
	return ct.c.ActProposal(ct.ctx, ct.env(caller, sdk.Zero), id, action, "")
}

// approve has every listed account vote approve and expects each vote to go through.
func (ct *contractTest) approve(t *testing.T, id uint64, voters ...sdk.Address) contract.ProposalStatus {
	t.Helper()
	var status contract.ProposalStatus
	for _, v := range voters {
		var err error
		status, err = ct.act(v, id, contract.ActionVoteApprove)
		require.NoError(t, err)
	}
	return status
}

func (ct *contractTest) proposal(t *testing.T, id uint64) *contract.Proposal {
	t.Helper()
	p, err := ct.c.GetProposal(ct.ctx, id)
	require.NoError(t, err)
	return p
}

func (ct *contractTest) locked(t *testing.T) sdk.Balance {
	t.Helper()
	b, err := ct.c.GetLockedAmount(ct.ctx)
	require.NoError(t, err)
	return b
}

// callback delivers the outcome of the last remote call or pending payout as the DAO.
func (ct *contractTest) callback(t *testing.T, callID string, success bool) error {
	t.Helper()
	return ct.c.OnProposalCallback(ct.ctx, ct.env(daoID, sdk.Zero), callID, success)
}

func bal(v uint64) sdk.Balance { return sdk.NewBalance(v) }

func bonds(n uint64) sdk.Balance {
	return contract.DefaultProposalBond.MulDiv(n, 1)
}
