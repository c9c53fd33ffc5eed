package contract

import (
	"strings"

	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// ProposalKind is the payload of a proposal. Every variant knows its policy label,
// which is the left hand side of permission strings and the vote_policy map key.
type ProposalKind interface {
	Label() string
	validate() error
}

// Kind labels as used in permissions and vote policy overrides.
const (
	LabelConfig                  = "config"
	LabelPolicy                  = "policy"
	LabelAddMemberToRole         = "add_member_to_role"
	LabelRemoveMemberFromRole    = "remove_member_from_role"
	LabelCall                    = "call"
	LabelUpgradeSelf             = "upgrade_self"
	LabelUpgradeRemote           = "upgrade_remote"
	LabelTransfer                = "transfer"
	LabelSetVoteToken            = "set_vote_token"
	LabelAddBounty               = "add_bounty"
	LabelBountyDone              = "bounty_done"
	LabelVote                    = "vote"
	LabelChangeDelegationWeight  = "change_delegation_weight"
	LabelPolicyAddOrUpdateRole   = "policy_add_or_update_role"
	LabelPolicyRemoveRole        = "policy_remove_role"
	LabelPolicyUpdateDefaultVote = "policy_update_default_vote_policy"
	LabelPolicyUpdateParameters  = "policy_update_parameters"
)

// ChangeConfig swaps the DAO config.
type ChangeConfig struct{ Config Config }

// ChangePolicy swaps the whole policy. Only the structured variant is accepted.
type ChangePolicy struct{ Policy VersionedPolicy }

// AddMemberToRole adds an account to a group role.
type AddMemberToRole struct {
	MemberID sdk.Address
	Role     string
}

// RemoveMemberFromRole removes an account from a group role.
type RemoveMemberFromRole struct {
	MemberID sdk.Address
	Role     string
}

// FunctionCall runs a batch of method calls on ReceiverID.
type FunctionCall struct {
	ReceiverID sdk.Address
	Actions    []ActionCall
}

// ActionCall is one method call of a FunctionCall batch.
type ActionCall struct {
	MethodName string
	Args       []byte
	Deposit    sdk.Balance
	Gas        uint64
}

// UpgradeSelf asks the DAO account to upgrade itself to the code blob with Hash.
type UpgradeSelf struct{ Hash string }

// UpgradeRemote asks ReceiverID to run MethodName with the code blob Hash.
type UpgradeRemote struct {
	ReceiverID sdk.Address
	MethodName string
	Hash       string
}

// Transfer pays Amount of TokenID to ReceiverID. Msg turns a token transfer into
// transfer-and-call and is refused for the base token.
type Transfer struct {
	TokenID    sdk.Asset
	ReceiverID sdk.Address
	Amount     sdk.Balance
	Msg        *string
}

// SetStakingContract wires the staking collaborator once.
type SetStakingContract struct{ StakingID sdk.Address }

// AddBounty publishes a new bounty.
type AddBounty struct{ Bounty Bounty }

// BountyDone pays out bounty BountyID to ReceiverID.
type BountyDone struct {
	BountyID   uint64
	ReceiverID sdk.Address
}

// VoteKind is a signaling proposal with no side effect.
type VoteKind struct{}

// ChangeDelegationWeight overrides the delegated weight of one account.
type ChangeDelegationWeight struct {
	AccountID sdk.Address
	Amount    sdk.Balance
}

// ChangePolicyAddOrUpdateRole upserts a role.
type ChangePolicyAddOrUpdateRole struct{ Role RolePermission }

// ChangePolicyRemoveRole removes a role by name.
type ChangePolicyRemoveRole struct{ Role string }

// ChangePolicyUpdateDefaultVotePolicy swaps the fallback vote policy.
type ChangePolicyUpdateDefaultVotePolicy struct{ VotePolicy VotePolicy }

// ChangePolicyUpdateParameters updates bonds and periods.
type ChangePolicyUpdateParameters struct{ Parameters PolicyParameters }

func (ChangeConfig) Label() string                        { return LabelConfig }
func (ChangePolicy) Label() string                        { return LabelPolicy }
func (AddMemberToRole) Label() string                     { return LabelAddMemberToRole }
func (RemoveMemberFromRole) Label() string                { return LabelRemoveMemberFromRole }
func (FunctionCall) Label() string                        { return LabelCall }
func (UpgradeSelf) Label() string                         { return LabelUpgradeSelf }
func (UpgradeRemote) Label() string                       { return LabelUpgradeRemote }
func (Transfer) Label() string                            { return LabelTransfer }
func (SetStakingContract) Label() string                  { return LabelSetVoteToken }
func (AddBounty) Label() string                           { return LabelAddBounty }
func (BountyDone) Label() string                          { return LabelBountyDone }
func (VoteKind) Label() string                            { return LabelVote }
func (ChangeDelegationWeight) Label() string              { return LabelChangeDelegationWeight }
func (ChangePolicyAddOrUpdateRole) Label() string         { return LabelPolicyAddOrUpdateRole }
func (ChangePolicyRemoveRole) Label() string              { return LabelPolicyRemoveRole }
func (ChangePolicyUpdateDefaultVotePolicy) Label() string { return LabelPolicyUpdateDefaultVote }
func (ChangePolicyUpdateParameters) Label() string        { return LabelPolicyUpdateParameters }

// -----------------------------------------------------------------------------
// Structural validation
// -----------------------------------------------------------------------------

func (k ChangeConfig) validate() error {
	if strings.TrimSpace(k.Config.Name) == "" {
		return errors.Wrap(ErrInvalidKind, "config name is empty")
	}
	return nil
}

func (k ChangePolicy) validate() error {
	if !k.Policy.IsCurrent() {
		return ErrInvalidPolicy
	}
	return k.Policy.Current.Validate()
}

func (k AddMemberToRole) validate() error {
	return validateMember(k.MemberID, k.Role)
}

func (k RemoveMemberFromRole) validate() error {
	return validateMember(k.MemberID, k.Role)
}

func validateMember(member sdk.Address, role string) error {
	if !member.IsValid() {
		return errors.Wrapf(ErrInvalidAccountID, "member %q", member)
	}
	if strings.TrimSpace(role) == "" {
		return errors.Wrap(ErrInvalidRole, "role name is empty")
	}
	return nil
}

func (k FunctionCall) validate() error {
	if !k.ReceiverID.IsValid() {
		return errors.Wrapf(ErrInvalidAccountID, "receiver %q", k.ReceiverID)
	}
	if len(k.Actions) == 0 {
		return ErrEmptyFunctionCall
	}
	for _, a := range k.Actions {
		if a.MethodName == "" {
			return errors.Wrap(ErrEmptyFunctionCall, "method name is empty")
		}
	}
	return nil
}

func (k UpgradeSelf) validate() error {
	if k.Hash == "" {
		return errors.Wrap(ErrInvalidKind, "upgrade hash is empty")
	}
	return nil
}

func (k UpgradeRemote) validate() error {
	if !k.ReceiverID.IsValid() {
		return errors.Wrapf(ErrInvalidAccountID, "receiver %q", k.ReceiverID)
	}
	if k.MethodName == "" || k.Hash == "" {
		return errors.Wrap(ErrInvalidKind, "upgrade method or hash is empty")
	}
	return nil
}

func (k Transfer) validate() error {
	if !k.ReceiverID.IsValid() {
		return errors.Wrapf(ErrInvalidAccountID, "receiver %q", k.ReceiverID)
	}
	if !k.TokenID.IsNative() && !sdk.Address(k.TokenID).IsValid() {
		return errors.Wrapf(ErrInvalidAccountID, "token %q", k.TokenID)
	}
	if k.TokenID.IsNative() && k.Msg != nil {
		return ErrBaseTokenNoMsg
	}
	return nil
}

func (k SetStakingContract) validate() error {
	if !k.StakingID.IsValid() {
		return errors.Wrapf(ErrInvalidAccountID, "staking %q", k.StakingID)
	}
	return nil
}

func (k AddBounty) validate() error {
	return k.Bounty.validate()
}

func (k BountyDone) validate() error {
	if !k.ReceiverID.IsValid() {
		return errors.Wrapf(ErrInvalidAccountID, "receiver %q", k.ReceiverID)
	}
	return nil
}

func (VoteKind) validate() error { return nil }

func (k ChangeDelegationWeight) validate() error {
	if !k.AccountID.IsValid() {
		return errors.Wrapf(ErrInvalidAccountID, "account %q", k.AccountID)
	}
	return nil
}

func (k ChangePolicyAddOrUpdateRole) validate() error {
	return k.Role.validate()
}

func (k ChangePolicyRemoveRole) validate() error {
	if strings.TrimSpace(k.Role) == "" {
		return errors.Wrap(ErrInvalidRole, "role name is empty")
	}
	return nil
}

func (k ChangePolicyUpdateDefaultVotePolicy) validate() error {
	return k.VotePolicy.Threshold.validate()
}

func (ChangePolicyUpdateParameters) validate() error { return nil }
