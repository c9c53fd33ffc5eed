package contract

import (
	"go.uber.org/zap"

	"sputnik_dao/sdk"
)

// effect is a collaborator request queued by a call. Nothing leaves the contract until
// the call's writes are committed.
type effect struct {
	payout *sdk.Payout
	call   *sdk.RemoteCall
	// proposalID is set when a pending record waits for the outcome.
	proposalID *uint64
}

// callCtx is everything one call works with: the caller env, its write overlay and the
// queued events and effects.
type callCtx struct {
	env sdk.Env
	st  *overlay
	log *zap.Logger

	globals      *daoState
	globalsDirty bool
	policy       *Policy

	events  []event
	effects []effect
}

func newCallCtx(env sdk.Env, store sdk.Store, log *zap.Logger) *callCtx {
	return &callCtx{
		env: env,
		st:  newOverlay(store),
		log: log,
	}
}

// caller is the predecessor of the call.
func (c *callCtx) caller() sdk.Address { return c.env.Predecessor }

func (c *callCtx) now() uint64 { return c.env.BlockTimestamp }

func (c *callCtx) emit(e event) { c.events = append(c.events, e) }

func (c *callCtx) schedulePayout(p sdk.Payout, proposalID *uint64) {
	c.effects = append(c.effects, effect{payout: &p, proposalID: proposalID})
}

func (c *callCtx) scheduleCall(rc sdk.RemoteCall, proposalID uint64) {
	c.effects = append(c.effects, effect{call: &rc, proposalID: &proposalID})
}

// finish writes back the cached aggregate so it lands in the same batch.
func (c *callCtx) finish() error {
	if c.globalsDirty {
		c.st.set(globalsKey(), encodeDaoState(c.globals))
	}
	return c.st.commit()
}
