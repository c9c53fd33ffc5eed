package contract

import (
	"sputnik_dao/sdk"
)

// -----------------------------------------------------------------------------
// Actions
// -----------------------------------------------------------------------------

// Action is what a caller wants to do with a proposal. The label doubles as the
// right hand side of permission strings like "transfer:VoteApprove".
type Action uint8

const (
	ActionAddProposal Action = iota
	ActionRemoveProposal
	ActionVoteApprove
	ActionVoteReject
	ActionVoteRemove
	ActionFinalize
	ActionMoveToHub
)

var actionLabels = [...]string{
	ActionAddProposal:    "AddProposal",
	ActionRemoveProposal: "RemoveProposal",
	ActionVoteApprove:    "VoteApprove",
	ActionVoteReject:     "VoteReject",
	ActionVoteRemove:     "VoteRemove",
	ActionFinalize:       "Finalize",
	ActionMoveToHub:      "MoveToHub",
}

// Label returns the permission label of the action.
func (a Action) Label() string {
	if int(a) < len(actionLabels) {
		return actionLabels[a]
	}
	return "unknown"
}

func (a Action) String() string { return a.Label() }

// ParseAction reads an action label.
// Example payload: ParseAction("VoteApprove")
func ParseAction(s string) (Action, error) {
	for i, l := range actionLabels {
		if l == s {
			return Action(i), nil
		}
	}
	return 0, ErrUnknownVoteAction
}

// toVote maps the vote actions onto a tally slot.
func (a Action) toVote() (Vote, bool) {
	switch a {
	case ActionVoteApprove:
		return VoteApprove, true
	case ActionVoteReject:
		return VoteReject, true
	case ActionVoteRemove:
		return VoteRemove, true
	}
	return 0, false
}

// -----------------------------------------------------------------------------
// Votes
// -----------------------------------------------------------------------------

// Vote is a recorded choice and also the index into a role tally.
type Vote uint8

const (
	VoteApprove Vote = 0
	VoteReject  Vote = 1
	VoteRemove  Vote = 2
)

func (v Vote) String() string {
	switch v {
	case VoteApprove:
		return "Approve"
	case VoteReject:
		return "Reject"
	case VoteRemove:
		return "Remove"
	}
	return "unknown"
}

// Tally is the per role [approve, reject, remove] weight sum.
type Tally [3]sdk.Balance

// -----------------------------------------------------------------------------
// Proposal Status
// -----------------------------------------------------------------------------

type ProposalStatus uint8

const (
	StatusInProgress ProposalStatus = iota
	StatusApproved
	StatusRejected
	StatusRemoved
	StatusExpired
	// StatusMoved is set by external tooling only, nothing in the tally logic yields it.
	StatusMoved
	// StatusFailed means the execution callback failed and a Finalize is needed.
	StatusFailed
)

var statusNames = [...]string{
	StatusInProgress: "InProgress",
	StatusApproved:   "Approved",
	StatusRejected:   "Rejected",
	StatusRemoved:    "Removed",
	StatusExpired:    "Expired",
	StatusMoved:      "Moved",
	StatusFailed:     "Failed",
}

func (s ProposalStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "unknown"
}

// IsOpen is true for states proposal_status may still be evaluated on.
func (s ProposalStatus) IsOpen() bool {
	return s == StatusInProgress || s == StatusFailed
}

// -----------------------------------------------------------------------------
// Config
// -----------------------------------------------------------------------------

// Config is the human facing DAO description.
type Config struct {
	Name     string
	Purpose  string
	Metadata string
}

// -----------------------------------------------------------------------------
// Misc
// -----------------------------------------------------------------------------

// UserInfo is what role matching needs to know about a caller.
type UserInfo struct {
	Account sdk.Address
	Amount  sdk.Balance
}

// ProposalInput is the submission payload.
type ProposalInput struct {
	Description string
	Kind        ProposalKind
}

// InitArgs bootstraps a fresh DAO.
type InitArgs struct {
	Config Config
	Policy VersionedPolicy
	// StakingID optionally wires the staking collaborator at creation time.
	StakingID sdk.Address
}
