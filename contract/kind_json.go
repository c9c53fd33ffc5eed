package contract

import (
	"sort"

	"github.com/CosmWasm/tinyjson"
	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/CosmWasm/tinyjson/jwriter"
	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// Proposal kinds are externally tagged: {"Transfer":{...}}, except the field-less Vote
// which is the bare string "Vote".

func writeKindJSON(w *jwriter.Writer, k ProposalKind) {
	if _, ok := k.(VoteKind); ok {
		w.String("Vote")
		return
	}
	w.RawByte('{')
	switch v := k.(type) {
	case ChangeConfig:
		w.RawString(`"ChangeConfig":{"config":`)
		v.Config.MarshalTinyJSON(w)
	case ChangePolicy:
		w.RawString(`"ChangePolicy":{"policy":`)
		v.Policy.MarshalTinyJSON(w)
	case AddMemberToRole:
		w.RawString(`"AddMemberToRole":{"member_id":`)
		w.String(v.MemberID.String())
		w.RawString(`,"role":`)
		w.String(v.Role)
	case RemoveMemberFromRole:
		w.RawString(`"RemoveMemberFromRole":{"member_id":`)
		w.String(v.MemberID.String())
		w.RawString(`,"role":`)
		w.String(v.Role)
	case FunctionCall:
		w.RawString(`"FunctionCall":{"receiver_id":`)
		w.String(v.ReceiverID.String())
		w.RawString(`,"actions":[`)
		for i, a := range v.Actions {
			if i > 0 {
				w.RawByte(',')
			}
			w.RawString(`{"method_name":`)
			w.String(a.MethodName)
			w.RawString(`,"args":`)
			w.Base64Bytes(a.Args)
			w.RawString(`,"deposit":`)
			writeBalanceJSON(w, a.Deposit)
			w.RawString(`,"gas":`)
			w.Uint64Str(a.Gas)
			w.RawByte('}')
		}
		w.RawByte(']')
	case UpgradeSelf:
		w.RawString(`"UpgradeSelf":{"hash":`)
		w.String(v.Hash)
	case UpgradeRemote:
		w.RawString(`"UpgradeRemote":{"receiver_id":`)
		w.String(v.ReceiverID.String())
		w.RawString(`,"method_name":`)
		w.String(v.MethodName)
		w.RawString(`,"hash":`)
		w.String(v.Hash)
	case Transfer:
		w.RawString(`"Transfer":{"token_id":`)
		w.String(v.TokenID.String())
		w.RawString(`,"receiver_id":`)
		w.String(v.ReceiverID.String())
		w.RawString(`,"amount":`)
		writeBalanceJSON(w, v.Amount)
		w.RawString(`,"msg":`)
		if v.Msg == nil {
			w.RawString("null")
		} else {
			w.String(*v.Msg)
		}
	case SetStakingContract:
		w.RawString(`"SetStakingContract":{"staking_id":`)
		w.String(v.StakingID.String())
	case AddBounty:
		w.RawString(`"AddBounty":{"bounty":`)
		v.Bounty.MarshalTinyJSON(w)
	case BountyDone:
		w.RawString(`"BountyDone":{"bounty_id":`)
		w.Uint64(v.BountyID)
		w.RawString(`,"receiver_id":`)
		w.String(v.ReceiverID.String())
	case ChangeDelegationWeight:
		w.RawString(`"ChangeDelegationWeight":{"account_id":`)
		w.String(v.AccountID.String())
		w.RawString(`,"amount":`)
		writeBalanceJSON(w, v.Amount)
	case ChangePolicyAddOrUpdateRole:
		w.RawString(`"ChangePolicyAddOrUpdateRole":{"role":`)
		v.Role.MarshalTinyJSON(w)
	case ChangePolicyRemoveRole:
		w.RawString(`"ChangePolicyRemoveRole":{"role":`)
		w.String(v.Role)
	case ChangePolicyUpdateDefaultVotePolicy:
		w.RawString(`"ChangePolicyUpdateDefaultVotePolicy":{"vote_policy":`)
		v.VotePolicy.MarshalTinyJSON(w)
	case ChangePolicyUpdateParameters:
		w.RawString(`"ChangePolicyUpdateParameters":{"parameters":`)
		v.Parameters.MarshalTinyJSON(w)
	}
	w.RawString(`}}`)
}

func readKindJSON(l *jlexer.Lexer) ProposalKind {
	if !l.IsDelim('{') {
		if s := l.String(); s != "Vote" {
			l.AddError(errors.Wrapf(ErrInvalidKind, "kind %q", s))
		}
		return VoteKind{}
	}
	var kind ProposalKind
	l.Delim('{')
	eachField(l, func(tag string) {
		if kind != nil {
			l.AddError(errors.Wrap(ErrInvalidKind, "more than one kind tag"))
			l.SkipRecursive()
			return
		}
		kind = readKindBody(l, tag)
	})
	if kind == nil {
		l.AddError(errors.Wrap(ErrInvalidKind, "missing kind"))
		return VoteKind{}
	}
	return kind
}

func readKindBody(l *jlexer.Lexer, tag string) ProposalKind {
	switch tag {
	case "ChangeConfig":
		var k ChangeConfig
		readFields(l, func(key string) {
			if key == "config" {
				k.Config.UnmarshalTinyJSON(l)
				return
			}
			l.SkipRecursive()
		})
		return k
	case "ChangePolicy":
		var k ChangePolicy
		readFields(l, func(key string) {
			if key == "policy" {
				k.Policy.UnmarshalTinyJSON(l)
				return
			}
			l.SkipRecursive()
		})
		return k
	case "AddMemberToRole", "RemoveMemberFromRole":
		var member sdk.Address
		var role string
		readFields(l, func(key string) {
			switch key {
			case "member_id":
				member = sdk.Address(l.String())
			case "role":
				role = l.String()
			default:
				l.SkipRecursive()
			}
		})
		if tag == "AddMemberToRole" {
			return AddMemberToRole{MemberID: member, Role: role}
		}
		return RemoveMemberFromRole{MemberID: member, Role: role}
	case "FunctionCall":
		var k FunctionCall
		readFields(l, func(key string) {
			switch key {
			case "receiver_id":
				k.ReceiverID = sdk.Address(l.String())
			case "actions":
				l.Delim('[')
				for !l.IsDelim(']') {
					k.Actions = append(k.Actions, readActionCall(l))
					l.WantComma()
				}
				l.Delim(']')
			default:
				l.SkipRecursive()
			}
		})
		return k
	case "UpgradeSelf":
		var k UpgradeSelf
		readFields(l, func(key string) {
			if key == "hash" {
				k.Hash = l.String()
				return
			}
			l.SkipRecursive()
		})
		return k
	case "UpgradeRemote":
		var k UpgradeRemote
		readFields(l, func(key string) {
			switch key {
			case "receiver_id":
				k.ReceiverID = sdk.Address(l.String())
			case "method_name":
				k.MethodName = l.String()
			case "hash":
				k.Hash = l.String()
			default:
				l.SkipRecursive()
			}
		})
		return k
	case "Transfer":
		var k Transfer
		readFields(l, func(key string) {
			switch key {
			case "token_id":
				k.TokenID = sdk.Asset(l.String())
			case "receiver_id":
				k.ReceiverID = sdk.Address(l.String())
			case "amount":
				k.Amount = readBalanceJSON(l)
			case "msg":
				msg := l.String()
				k.Msg = &msg
			default:
				l.SkipRecursive()
			}
		})
		return k
	case "SetStakingContract":
		var k SetStakingContract
		readFields(l, func(key string) {
			if key == "staking_id" {
				k.StakingID = sdk.Address(l.String())
				return
			}
			l.SkipRecursive()
		})
		return k
	case "AddBounty":
		var k AddBounty
		readFields(l, func(key string) {
			if key == "bounty" {
				k.Bounty.UnmarshalTinyJSON(l)
				return
			}
			l.SkipRecursive()
		})
		return k
	case "BountyDone":
		var k BountyDone
		readFields(l, func(key string) {
			switch key {
			case "bounty_id":
				k.BountyID = l.Uint64()
			case "receiver_id":
				k.ReceiverID = sdk.Address(l.String())
			default:
				l.SkipRecursive()
			}
		})
		return k
	case "Vote":
		readFields(l, func(string) { l.SkipRecursive() })
		return VoteKind{}
	case "ChangeDelegationWeight":
		var k ChangeDelegationWeight
		readFields(l, func(key string) {
			switch key {
			case "account_id":
				k.AccountID = sdk.Address(l.String())
			case "amount":
				k.Amount = readBalanceJSON(l)
			default:
				l.SkipRecursive()
			}
		})
		return k
	case "ChangePolicyAddOrUpdateRole":
		var k ChangePolicyAddOrUpdateRole
		readFields(l, func(key string) {
			if key == "role" {
				k.Role.UnmarshalTinyJSON(l)
				return
			}
			l.SkipRecursive()
		})
		return k
	case "ChangePolicyRemoveRole":
		var k ChangePolicyRemoveRole
		readFields(l, func(key string) {
			if key == "role" {
				k.Role = l.String()
				return
			}
			l.SkipRecursive()
		})
		return k
	case "ChangePolicyUpdateDefaultVotePolicy":
		var k ChangePolicyUpdateDefaultVotePolicy
		readFields(l, func(key string) {
			if key == "vote_policy" {
				k.VotePolicy.UnmarshalTinyJSON(l)
				return
			}
			l.SkipRecursive()
		})
		return k
	case "ChangePolicyUpdateParameters":
		var k ChangePolicyUpdateParameters
		readFields(l, func(key string) {
			if key == "parameters" {
				k.Parameters.UnmarshalTinyJSON(l)
				return
			}
			l.SkipRecursive()
		})
		return k
	}
	l.AddError(errors.Wrapf(ErrInvalidKind, "kind %q", tag))
	l.SkipRecursive()
	return VoteKind{}
}

func readFields(l *jlexer.Lexer, fn func(key string)) {
	if !openObject(l) {
		return
	}
	eachField(l, fn)
}

func readActionCall(l *jlexer.Lexer) ActionCall {
	var a ActionCall
	readFields(l, func(key string) {
		switch key {
		case "method_name":
			a.MethodName = l.String()
		case "args":
			a.Args = l.Bytes()
		case "deposit":
			a.Deposit = readBalanceJSON(l)
		case "gas":
			a.Gas = l.Uint64Str()
		default:
			l.SkipRecursive()
		}
	})
	return a
}

// kindDocument lets a bare kind travel through tinyjson on its own.
type kindDocument struct{ Kind ProposalKind }

func (d kindDocument) MarshalTinyJSON(w *jwriter.Writer) { writeKindJSON(w, d.Kind) }

func (d *kindDocument) UnmarshalTinyJSON(l *jlexer.Lexer) {
	isTopLevel := l.IsStart()
	d.Kind = readKindJSON(l)
	if isTopLevel {
		l.Consumed()
	}
}

// EncodeKindJSON renders a proposal kind.
func EncodeKindJSON(k ProposalKind) ([]byte, error) {
	return tinyjson.Marshal(kindDocument{Kind: k})
}

// DecodeKindJSON parses a proposal kind.
// Example payload: DecodeKindJSON([]byte(`"Vote"`))
func DecodeKindJSON(data []byte) (ProposalKind, error) {
	var d kindDocument
	if err := tinyjson.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(ErrInvalidKind, err.Error())
	}
	return d.Kind, nil
}

// -----------------------------------------------------------------------------
// Proposal input and views
// -----------------------------------------------------------------------------

func (in ProposalInput) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"description":`)
	w.String(in.Description)
	w.RawString(`,"kind":`)
	writeKindJSON(w, in.Kind)
	w.RawByte('}')
}

func (in *ProposalInput) UnmarshalTinyJSON(l *jlexer.Lexer) {
	isTopLevel := l.IsStart()
	*in = ProposalInput{}
	readFields(l, func(key string) {
		switch key {
		case "description":
			in.Description = l.String()
		case "kind":
			in.Kind = readKindJSON(l)
		default:
			l.SkipRecursive()
		}
	})
	if in.Kind == nil {
		l.AddError(errors.Wrap(ErrInvalidKind, "missing kind"))
	}
	if isTopLevel {
		l.Consumed()
	}
}

// ParseProposalInput reads {"description": ..., "kind": ...}.
func ParseProposalInput(data []byte) (ProposalInput, error) {
	var in ProposalInput
	if err := tinyjson.Unmarshal(data, &in); err != nil {
		return ProposalInput{}, errors.Wrap(ErrInvalidKind, err.Error())
	}
	return in, nil
}

func (p Proposal) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"id":`)
	w.Uint64(p.ID)
	w.RawString(`,"proposer":`)
	w.String(p.Proposer.String())
	w.RawString(`,"description":`)
	w.String(p.Description)
	w.RawString(`,"kind":`)
	writeKindJSON(w, p.Kind)
	w.RawString(`,"status":`)
	w.String(p.Status.String())
	w.RawString(`,"vote_counts":{`)
	roles := make([]string, 0, len(p.VoteCounts))
	for r := range p.VoteCounts {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	for i, r := range roles {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(r)
		w.RawString(`:[`)
		t := p.VoteCounts[r]
		for j := range t {
			if j > 0 {
				w.RawByte(',')
			}
			writeBalanceJSON(w, t[j])
		}
		w.RawByte(']')
	}
	w.RawString(`},"votes":{`)
	voters := make([]string, 0, len(p.Votes))
	for a := range p.Votes {
		voters = append(voters, a.String())
	}
	sort.Strings(voters)
	for i, a := range voters {
		if i > 0 {
			w.RawByte(',')
		}
		w.String(a)
		w.RawByte(':')
		w.String(p.Votes[sdk.Address(a)].String())
	}
	w.RawString(`},"submission_time":`)
	w.Uint64Str(p.SubmissionTime)
	w.RawString(`,"bond":`)
	writeBalanceJSON(w, p.Bond.Add(p.ClaimBond))
	w.RawByte('}')
}

// -----------------------------------------------------------------------------
// Config and bounties
// -----------------------------------------------------------------------------

func (c Config) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"name":`)
	w.String(c.Name)
	w.RawString(`,"purpose":`)
	w.String(c.Purpose)
	w.RawString(`,"metadata":`)
	w.String(c.Metadata)
	w.RawByte('}')
}

func (c *Config) UnmarshalTinyJSON(l *jlexer.Lexer) {
	isTopLevel := l.IsStart()
	*c = Config{}
	readFields(l, func(key string) {
		switch key {
		case "name":
			c.Name = l.String()
		case "purpose":
			c.Purpose = l.String()
		case "metadata":
			c.Metadata = l.String()
		default:
			l.SkipRecursive()
		}
	})
	if isTopLevel {
		l.Consumed()
	}
}

func (b Bounty) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"description":`)
	w.String(b.Description)
	w.RawString(`,"token":`)
	w.String(b.Token.String())
	w.RawString(`,"amount":`)
	writeBalanceJSON(w, b.Amount)
	w.RawString(`,"times":`)
	w.Uint32(b.Times)
	w.RawString(`,"max_deadline":`)
	w.Uint64Str(b.MaxDeadline)
	w.RawByte('}')
}

func (b *Bounty) UnmarshalTinyJSON(l *jlexer.Lexer) {
	isTopLevel := l.IsStart()
	*b = Bounty{}
	readFields(l, func(key string) {
		switch key {
		case "description":
			b.Description = l.String()
		case "token":
			b.Token = sdk.Asset(l.String())
		case "amount":
			b.Amount = readBalanceJSON(l)
		case "times":
			b.Times = l.Uint32()
		case "max_deadline":
			b.MaxDeadline = l.Uint64Str()
		default:
			l.SkipRecursive()
		}
	})
	if isTopLevel {
		l.Consumed()
	}
}

func (c BountyClaim) MarshalTinyJSON(w *jwriter.Writer) {
	w.RawString(`{"bounty_id":`)
	w.Uint64(c.BountyID)
	w.RawString(`,"start_time":`)
	w.Uint64Str(c.StartTime)
	w.RawString(`,"deadline":`)
	w.Uint64Str(c.Deadline)
	w.RawString(`,"completed":`)
	w.Bool(c.Completed)
	w.RawString(`,"bond":`)
	writeBalanceJSON(w, c.Bond)
	w.RawByte('}')
}
