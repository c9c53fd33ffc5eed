package contract

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sputnik_dao/sdk"
)

// Contract is the DAO engine. Calls are admitted one at a time; each runs against its own
// overlay of the store and either commits as one batch or leaves no trace. Requests to
// the ledger and dispatcher go out only after the commit.
type Contract struct {
	mu      sync.Mutex
	store   sdk.Store
	host    sdk.Host
	log     *zap.Logger
	metrics *Metrics
	sink    EventSink
}

// Option tweaks a Contract at construction.
type Option func(*Contract)

// WithLogger routes events and call failures to l.
func WithLogger(l *zap.Logger) Option {
	return func(c *Contract) { c.log = l }
}

// WithMetrics records call and event counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Contract) { c.metrics = m }
}

// WithEventSink forwards every committed event line, the way a host log would.
func WithEventSink(s EventSink) Option {
	return func(c *Contract) { c.sink = s }
}

// New wires the engine to its storage and collaborators.
func New(store sdk.Store, host sdk.Host, opts ...Option) *Contract {
	c := &Contract{
		store: store,
		host:  host,
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// run executes one state changing call.
func (c *Contract) run(ctx context.Context, env sdk.Env, method string, fn func(cc *callCtx) error) error {
	started := time.Now()
	cc, err := c.exec(ctx, env, fn)
	c.metrics.observeCall(method, err, started)
	if err != nil {
		c.log.Debug("call rejected",
			zap.String("method", method),
			zap.String("caller", env.Predecessor.String()),
			zap.Error(err),
		)
		return err
	}
	c.publish(cc.events)
	c.flush(ctx, env, cc.effects)
	return nil
}

func (c *Contract) exec(ctx context.Context, env sdk.Env, fn func(cc *callCtx) error) (*callCtx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// a call is only refused before it runs; once committed its effects always go out
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "call not admitted")
	}
	cc := newCallCtx(env, c.store, c.log)
	if err := fn(cc); err != nil {
		return nil, err
	}
	if err := cc.finish(); err != nil {
		return nil, err
	}
	return cc, nil
}

// view runs fn on a throw-away overlay, nothing it writes is kept.
func (c *Contract) view(ctx context.Context, fn func(cc *callCtx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "view")
	}
	return fn(newCallCtx(sdk.Env{}, c.store, c.log))
}

func (c *Contract) publish(events []event) {
	for _, e := range events {
		c.log.Info(e.Name, e.Fields...)
		c.metrics.observeEvent(e.Name)
		if c.sink != nil {
			c.sink(e.Name, e.Line)
		}
	}
}

// flush hands the queued requests to the host. Outcomes that are known right away are fed
// back through the callback entry point; a host error counts as a failed outcome.
func (c *Contract) flush(ctx context.Context, env sdk.Env, effects []effect) {
	for _, e := range effects {
		var (
			promise sdk.Promise
			err     error
			typ     string
			id      string
		)
		if e.payout != nil {
			typ, id = "payout", e.payout.ID
			promise, err = c.host.Payout(ctx, *e.payout)
		} else {
			typ, id = "call", e.call.ID
			promise, err = c.host.Dispatch(ctx, *e.call)
		}

		resolved, success := promise.Resolved, promise.Success
		outcome := "pending"
		switch {
		case err != nil:
			resolved, success = true, false
			outcome = "error"
			err = errors.Wrapf(ErrExternalCall, "%s %s: %v", typ, id, err)
			c.log.Warn("collaborator request failed", zap.Error(err))
		case resolved && success:
			outcome = "ok"
		case resolved:
			outcome = "failed"
		}
		c.metrics.observeEffect(typ, outcome)

		if e.proposalID == nil || !resolved {
			continue
		}
		self := env.WithCaller(env.CurrentAccount, sdk.Zero)
		if err := c.OnProposalCallback(ctx, self, id, success); err != nil {
			c.log.Error("proposal callback failed",
				zap.Uint64("proposal", *e.proposalID),
				zap.String("call", id),
				zap.Error(err),
			)
		}
	}
}

// Init stores the first config and policy. It runs once per store.
func (c *Contract) Init(ctx context.Context, env sdk.Env, args InitArgs) error {
	return c.run(ctx, env, "init", func(cc *callCtx) error {
		raw, err := cc.st.get(globalsKey())
		if err != nil {
			return err
		}
		if raw != nil {
			return ErrAlreadyInitialized
		}
		policy := args.Policy.Upgrade()
		if err := policy.Validate(); err != nil {
			return err
		}
		if !args.StakingID.IsEmpty() && !args.StakingID.IsValid() {
			return errors.Wrapf(ErrInvalidAccountID, "staking %q", args.StakingID)
		}
		cc.setConfig(args.Config)
		if err := cc.savePolicy(policy); err != nil {
			return err
		}
		cc.globals = &daoState{StakingID: args.StakingID}
		cc.globalsDirty = true
		cc.emit(event{
			Name:   "init",
			Line:   "init|by:" + env.Predecessor.String(),
			Fields: []zap.Field{zap.String("name", args.Config.Name), zap.Int("roles", len(policy.Roles))},
		})
		return nil
	})
}
