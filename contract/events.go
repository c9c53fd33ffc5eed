package contract

import (
	"fmt"

	"go.uber.org/zap"

	"sputnik_dao/sdk"
)

// event is one observable fact of a call. Line is the compact pipe form watchers parse,
// fields are the same data for structured logs. Events of a failed call are dropped.
type event struct {
	Name   string
	Line   string
	Fields []zap.Field
}

// EventSink receives the compact line of every committed event.
type EventSink func(name, line string)

// proposalAddedEvent keeps observers updated with a short pc line for every new idea.
func proposalAddedEvent(id uint64, by sdk.Address, label string) event {
	return event{
		Name: "proposal_added",
		Line: fmt.Sprintf("pc|id:%d|by:%s|k:%s", id, by, label),
		Fields: []zap.Field{
			zap.Uint64("id", id),
			zap.String("by", by.String()),
			zap.String("kind", label),
		},
	}
}

// voteEvent records the roles the vote counted in, the memo only ever lands here.
func voteEvent(id uint64, by sdk.Address, vote Vote, roles []string, memo string) event {
	return event{
		Name: "vote",
		Line: fmt.Sprintf("v|id:%d|by:%s|v:%s|r:%d", id, by, vote, len(roles)),
		Fields: []zap.Field{
			zap.Uint64("id", id),
			zap.String("by", by.String()),
			zap.Stringer("vote", vote),
			zap.Strings("roles", roles),
			zap.String("memo", memo),
		},
	}
}

// statusEvent is the swiss army knife entry for any state flip.
func statusEvent(id uint64, status ProposalStatus) event {
	return event{
		Name: "status",
		Line: fmt.Sprintf("ps|id:%d|s:%s", id, status),
		Fields: []zap.Field{
			zap.Uint64("id", id),
			zap.Stringer("status", status),
		},
	}
}

func proposalRemovedEvent(id uint64, by sdk.Address) event {
	return event{
		Name:   "proposal_removed",
		Line:   fmt.Sprintf("prm|id:%d|by:%s", id, by),
		Fields: []zap.Field{zap.Uint64("id", id), zap.String("by", by.String())},
	}
}

func executedEvent(id uint64, label, result string) event {
	return event{
		Name: "executed",
		Line: fmt.Sprintf("pr|id:%d|k:%s|r:%s", id, label, result),
		Fields: []zap.Field{
			zap.Uint64("id", id),
			zap.String("kind", label),
			zap.String("result", result),
		},
	}
}

// bondEvent covers both lock and unlock, lock true means funds moved in.
func bondEvent(account sdk.Address, amount sdk.Balance, lock bool, reason string) event {
	return event{
		Name: "bond",
		Line: fmt.Sprintf("b|to:%s|am:%s|l:%t|why:%s", account, amount, lock, reason),
		Fields: []zap.Field{
			zap.String("account", account.String()),
			zap.Stringer("amount", amount),
			zap.Bool("lock", lock),
			zap.String("reason", reason),
		},
	}
}

func bountyAddedEvent(id uint64, b *Bounty) event {
	return event{
		Name: "bounty_added",
		Line: fmt.Sprintf("ba|id:%d|am:%s|as:%s|t:%d", id, b.Amount, b.Token, b.Times),
		Fields: []zap.Field{
			zap.Uint64("id", id),
			zap.Stringer("amount", b.Amount),
			zap.String("token", b.Token.String()),
			zap.Uint32("times", b.Times),
		},
	}
}

// bountyClaimEvent tags claim, done, giveup and expiry cleanup with one op string.
func bountyClaimEvent(op string, id uint64, by sdk.Address) event {
	return event{
		Name:   "bounty_" + op,
		Line:   fmt.Sprintf("bc|op:%s|id:%d|by:%s", op, id, by),
		Fields: []zap.Field{zap.Uint64("id", id), zap.String("by", by.String())},
	}
}

func bountyRemovedEvent(id uint64) event {
	return event{
		Name:   "bounty_removed",
		Line:   fmt.Sprintf("br|id:%d", id),
		Fields: []zap.Field{zap.Uint64("id", id)},
	}
}

// delegationEvent carries prev, new and total for every ledger move.
func delegationEvent(op string, account sdk.Address, prev, next, total sdk.Balance) event {
	return event{
		Name: "delegation_" + op,
		Line: fmt.Sprintf("d|op:%s|a:%s|p:%s|n:%s|t:%s", op, account, prev, next, total),
		Fields: []zap.Field{
			zap.String("account", account.String()),
			zap.Stringer("prev", prev),
			zap.Stringer("new", next),
			zap.Stringer("total", total),
		},
	}
}

// warnEvent surfaces non fatal problems, like a member add on a non group role.
func warnEvent(id uint64, err error) event {
	return event{
		Name:   "warning",
		Line:   fmt.Sprintf("w|id:%d|e:%s", id, err),
		Fields: []zap.Field{zap.Uint64("id", id), zap.Error(err)},
	}
}
