package contract_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sputnik_dao/contract"
	"sputnik_dao/sdk"
)

func TestLegacyPolicyUpgradeRoundTrip(t *testing.T) {
	v, err := contract.ParseVersionedPolicy([]byte(`["bob.near","alice.near"]`))
	require.NoError(t, err)
	require.False(t, v.IsCurrent())

	upgraded := v.Upgrade()
	require.NoError(t, upgraded.Validate())
	council, ok := upgraded.Role(contract.RoleCouncil)
	require.True(t, ok)
	assert.Equal(t, []sdk.Address{alice, bob}, council.Kind.Group)
	assert.Contains(t, council.Permissions, "*:AddProposal")
	all, ok := upgraded.Role(contract.RoleAll)
	require.True(t, ok)
	assert.Equal(t, []string{"*:AddProposal"}, all.Permissions)

	raw, err := contract.EncodePolicyJSON(upgraded)
	require.NoError(t, err)
	again, err := contract.ParseVersionedPolicy(raw)
	require.NoError(t, err)
	require.True(t, again.IsCurrent())

	if diff := cmp.Diff(upgraded, again.Upgrade(), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("policy changed on round trip (-want +got):\n%s", diff)
	}
}

func TestStructuredPolicyJSON(t *testing.T) {
	doc := `{
		"roles": [
			{"name":"holders","kind":{"Member":"5"},"permissions":["*:VoteApprove"],
			 "vote_policy":{"transfer":{"weight_kind":"TokenWeight","quorum":"10","threshold":"100"}}},
			{"name":"all","kind":"Everyone","permissions":["*:AddProposal"],"vote_policy":{}}
		],
		"default_vote_policy":{"weight_kind":"RoleWeight","quorum":"0","threshold":[2,3]},
		"proposal_bond":"7",
		"proposal_period":"1000",
		"bounty_bond":"3",
		"bounty_forgiveness_period":"500"
	}`
	v, err := contract.ParseVersionedPolicy([]byte(doc))
	require.NoError(t, err)
	require.True(t, v.IsCurrent())
	p := v.Upgrade()
	require.NoError(t, p.Validate())

	require.Len(t, p.Roles, 2)
	assert.Equal(t, contract.Member(bal(5)), p.Roles[0].Kind)
	vp := p.Roles[0].VotePolicy[contract.LabelTransfer]
	assert.Equal(t, contract.TokenWeight, vp.WeightKind)
	assert.Equal(t, bal(10), vp.Quorum)
	assert.Equal(t, contract.Weight(bal(100)), vp.Threshold)
	assert.Equal(t, contract.Ratio(2, 3), p.DefaultVotePolicy.Threshold)
	assert.Equal(t, bal(7), p.ProposalBond)
	assert.Equal(t, uint64(1000), p.ProposalPeriod)
	assert.Equal(t, bal(3), p.BountyBond)
	assert.Equal(t, uint64(500), p.BountyForgivenessPeriod)
}

func TestParseProposalInput(t *testing.T) {
	in, err := contract.ParseProposalInput([]byte(
		`{"description":"pay alice","kind":{"Transfer":{"token_id":"","receiver_id":"alice.near","amount":"1000","msg":null}}}`))
	require.NoError(t, err)
	assert.Equal(t, "pay alice", in.Description)
	assert.Equal(t, contract.Transfer{ReceiverID: alice, Amount: bal(1000)}, in.Kind)

	in, err = contract.ParseProposalInput([]byte(`{"description":"ping","kind":"Vote"}`))
	require.NoError(t, err)
	assert.Equal(t, contract.VoteKind{}, in.Kind)

	_, err = contract.ParseProposalInput([]byte(`{"description":"no kind"}`))
	assert.ErrorIs(t, err, contract.ErrInvalidKind)

	_, err = contract.ParseProposalInput([]byte(`{"description":"x","kind":{"Teleport":{}}}`))
	assert.Error(t, err)
}

func TestKindJSONRoundTrip(t *testing.T) {
	msg := "deposit"
	kinds := []contract.ProposalKind{
		contract.VoteKind{},
		contract.AddMemberToRole{MemberID: carol, Role: contract.RoleCouncil},
		contract.Transfer{TokenID: "usdc.near", ReceiverID: bob, Amount: bal(42), Msg: &msg},
		contract.FunctionCall{ReceiverID: "app.near", Actions: []contract.ActionCall{
			{MethodName: "ping", Args: []byte(`{"x":1}`), Deposit: bal(1), Gas: 5_000_000},
		}},
		contract.AddBounty{Bounty: contract.Bounty{Description: "fix", Amount: bal(9), Times: 2, MaxDeadline: 77}},
		contract.BountyDone{BountyID: 4, ReceiverID: alice},
		contract.ChangePolicyRemoveRole{Role: "old"},
	}
	for _, k := range kinds {
		raw, err := contract.EncodeKindJSON(k)
		require.NoError(t, err)
		back, err := contract.DecodeKindJSON(raw)
		require.NoError(t, err, string(raw))
		assert.Equal(t, k, back, string(raw))
	}
}
