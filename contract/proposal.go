package contract

import (
	"sputnik_dao/sdk"
)

// Proposal is a single governance decision and its running tally.
type Proposal struct {
	ID          uint64
	Proposer    sdk.Address
	Description string
	Kind        ProposalKind
	Status      ProposalStatus
	// VoteCounts is keyed by role name.
	VoteCounts map[string]Tally
	// Votes holds one permanent choice per account.
	Votes          map[sdk.Address]Vote
	SubmissionTime uint64
	// Bond is the proposal bond locked at submission.
	Bond sdk.Balance
	// ClaimBond is the bounty bond of the claim a BountyDone proposal settles.
	ClaimBond sdk.Balance
}

func newProposal(id uint64, proposer sdk.Address, in ProposalInput, now uint64, bond sdk.Balance) *Proposal {
	return &Proposal{
		ID:             id,
		Proposer:       proposer,
		Description:    in.Description,
		Kind:           in.Kind,
		Status:         StatusInProgress,
		VoteCounts:     map[string]Tally{},
		Votes:          map[sdk.Address]Vote{},
		SubmissionTime: now,
		Bond:           bond,
	}
}

// updateVotes adds the vote of account to every role it was authorized through. The same
// vote counts weight in token weighted roles and 1 everywhere else.
func (p *Proposal) updateVotes(account sdk.Address, roles []string, vote Vote, policy *Policy, weight sdk.Balance) error {
	if _, voted := p.Votes[account]; voted {
		return ErrAlreadyVoted
	}
	label := p.Kind.Label()
	for _, role := range roles {
		amount := sdk.NewBalance(1)
		if policy.isTokenWeighted(role, label) {
			amount = weight
		}
		tally := p.VoteCounts[role]
		tally[vote] = tally[vote].Add(amount)
		p.VoteCounts[role] = tally
	}
	p.Votes[account] = vote
	return nil
}
