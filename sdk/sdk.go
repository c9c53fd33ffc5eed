package sdk

import (
	"context"
	"time"
)

// Env is the snapshot of host data a single call runs against: who is calling,
// what they attached and the block time. The engine never reads a wall clock.
type Env struct {
	// CurrentAccount is the id of the DAO itself.
	CurrentAccount Address
	// Predecessor is the immediate caller.
	Predecessor Address
	// AttachedDeposit is the native payment sent along with the call.
	AttachedDeposit Balance
	// BlockTimestamp is nanoseconds since unix epoch.
	BlockTimestamp uint64
}

// Time converts BlockTimestamp into a time.Time for logs.
func (e Env) Time() time.Time {
	return time.Unix(0, int64(e.BlockTimestamp)).UTC()
}

// WithCaller returns a copy of the env for another caller and deposit.
// Example payload: env.WithCaller("bob.near", sdk.Zero)
func (e Env) WithCaller(caller Address, deposit Balance) Env {
	e.Predecessor = caller
	e.AttachedDeposit = deposit
	return e
}

// At returns a copy of the env moved to another block time.
func (e Env) At(ts uint64) Env {
	e.BlockTimestamp = ts
	return e
}

// -----------------------------------------------------------------------------
// Collaborators
// -----------------------------------------------------------------------------

// Promise is the handle a collaborator returns for a scheduled request. When Resolved
// is set the outcome is already known and Success carries it; otherwise the outcome
// arrives later through the engine's callback entry point, correlated by ID.
type Promise struct {
	ID       string
	Resolved bool
	Success  bool
}

// Payout asks the ledger to move Amount of Token to Receiver. Msg is only valid for
// fungible tokens (transfer-and-call).
type Payout struct {
	ID       string
	Token    Asset
	Receiver Address
	Amount   Balance
	Memo     string
	Msg      *string
}

// FunctionCallAction is one method invocation within a remote call batch.
type FunctionCallAction struct {
	Method  string
	Args    []byte
	Deposit Balance
	Gas     uint64
}

// RemoteCall is a batch of actions executed against Receiver, in order.
type RemoteCall struct {
	ID       string
	Receiver Address
	Actions  []FunctionCallAction
}

// Ledger executes balance movements out of the DAO account.
type Ledger interface {
	Payout(ctx context.Context, p Payout) (Promise, error)
}

// Dispatcher schedules calls into other accounts.
type Dispatcher interface {
	Dispatch(ctx context.Context, call RemoteCall) (Promise, error)
}

// Host bundles both collaborators, which is what most callers wire in.
type Host interface {
	Ledger
	Dispatcher
}
