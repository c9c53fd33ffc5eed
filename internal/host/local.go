// Package host is a single process stand-in for the chain around the DAO: it keeps
// account balances, settles native payouts on the spot and parks token payouts and
// remote calls in an outbox until someone resolves them.
package host

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sputnik_dao/sdk"
)

var (
	// ErrUnknownRequest is returned by Resolve for ids not in the outbox.
	ErrUnknownRequest = errors.New("host: unknown request")
	// ErrInsufficientFunds is returned by Transfer when the sender is short.
	ErrInsufficientFunds = errors.New("host: insufficient funds")
)

// Callback receives the outcome of a request that left the outbox.
type Callback func(ctx context.Context, requestID string, success bool) error

// Local implements sdk.Host on top of an sdk.Store. It shares the store with the
// engine but writes under its own key prefixes.
type Local struct {
	mu       sync.Mutex
	store    sdk.Store
	self     sdk.Address
	log      *zap.Logger
	callback Callback
}

var _ sdk.Host = (*Local)(nil)

// New returns a host acting for the DAO account self.
func New(store sdk.Store, self sdk.Address, log *zap.Logger) *Local {
	if log == nil {
		log = zap.NewNop()
	}
	return &Local{store: store, self: self, log: log}
}

// OnResolve sets the function fed with every resolved outcome.
func (h *Local) OnResolve(cb Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callback = cb
}

// Self is the DAO account the host pays out of.
func (h *Local) Self() sdk.Address { return h.self }

// -----------------------------------------------------------------------------
// Balances
// -----------------------------------------------------------------------------

// BalanceOf returns what account holds of asset.
func (h *Local) BalanceOf(account sdk.Address, asset sdk.Asset) (sdk.Balance, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.balance(account, asset)
}

// Credit mints amount into account, for funding wallets and the treasury.
func (h *Local) Credit(account sdk.Address, asset sdk.Asset, amount sdk.Balance) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	cur, err := h.balance(account, asset)
	if err != nil {
		return err
	}
	return h.store.Apply([]sdk.Mutation{balanceMutation(account, asset, cur.Add(amount))})
}

// Transfer moves amount between two accounts atomically.
func (h *Local) Transfer(from, to sdk.Address, asset sdk.Asset, amount sdk.Balance) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.transfer(from, to, asset, amount)
}

func (h *Local) balance(account sdk.Address, asset sdk.Asset) (sdk.Balance, error) {
	raw, err := h.store.Get(balanceKey(account, asset))
	if err != nil {
		return sdk.Zero, errors.Wrap(err, "read balance")
	}
	return sdk.BalanceFromBytes(raw), nil
}

func (h *Local) transfer(from, to sdk.Address, asset sdk.Asset, amount sdk.Balance) error {
	if from == to || amount.IsZero() {
		return nil
	}
	fromBal, err := h.balance(from, asset)
	if err != nil {
		return err
	}
	left, ok := fromBal.SafeSub(amount)
	if !ok {
		return errors.Wrapf(ErrInsufficientFunds, "%s has %s %s, needs %s", from, fromBal, assetName(asset), amount)
	}
	toBal, err := h.balance(to, asset)
	if err != nil {
		return err
	}
	return h.store.Apply([]sdk.Mutation{
		balanceMutation(from, asset, left),
		balanceMutation(to, asset, toBal.Add(amount)),
	})
}

// -----------------------------------------------------------------------------
// sdk.Host
// -----------------------------------------------------------------------------

// Payout settles native payouts right away. Token payouts wait in the outbox, the
// token contract being somebody else's business.
func (h *Local) Payout(_ context.Context, p sdk.Payout) (sdk.Promise, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Token.IsNative() {
		err := h.transfer(h.self, p.Receiver, p.Token, p.Amount)
		if errors.Is(err, ErrInsufficientFunds) {
			h.log.Warn("native payout failed", zap.String("id", p.ID), zap.Error(err))
			return sdk.Promise{ID: p.ID, Resolved: true, Success: false}, nil
		}
		if err != nil {
			return sdk.Promise{}, err
		}
		h.log.Debug("native payout settled",
			zap.String("id", p.ID),
			zap.String("receiver", p.Receiver.String()),
			zap.String("amount", p.Amount.String()),
		)
		return sdk.Promise{ID: p.ID, Resolved: true, Success: true}, nil
	}
	req := Request{ID: p.ID, Kind: RequestPayout, Payout: &p}
	if err := h.enqueue(req); err != nil {
		return sdk.Promise{}, err
	}
	return sdk.Promise{ID: p.ID}, nil
}

// Dispatch always parks the call.
func (h *Local) Dispatch(_ context.Context, call sdk.RemoteCall) (sdk.Promise, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	req := Request{ID: call.ID, Kind: RequestCall, Call: &call}
	if err := h.enqueue(req); err != nil {
		return sdk.Promise{}, err
	}
	return sdk.Promise{ID: call.ID}, nil
}

func (h *Local) enqueue(req Request) error {
	if err := h.store.Apply([]sdk.Mutation{{Key: outboxKey(req.ID), Value: encodeRequest(req)}}); err != nil {
		return errors.Wrap(err, "enqueue request")
	}
	h.log.Info("request queued", zap.String("id", req.ID), zap.String("kind", req.Kind.String()))
	return nil
}

// -----------------------------------------------------------------------------
// Outbox
// -----------------------------------------------------------------------------

// Outbox lists parked requests ordered by id.
func (h *Local) Outbox() ([]Request, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Request
	err := h.store.Scan(outboxPrefix, func(_ string, v []byte) error {
		req, err := decodeRequest(v)
		if err != nil {
			return err
		}
		out = append(out, req)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "scan outbox")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Resolve takes request id out of the outbox and reports the outcome to the callback.
// A successful resolution also moves the funds the request carried; when the DAO
// cannot cover them the outcome flips to failure.
func (h *Local) Resolve(ctx context.Context, id string, success bool) error {
	h.mu.Lock()
	raw, err := h.store.Get(outboxKey(id))
	if err != nil {
		h.mu.Unlock()
		return errors.Wrap(err, "read outbox")
	}
	if raw == nil {
		h.mu.Unlock()
		return errors.Wrapf(ErrUnknownRequest, "%s", id)
	}
	req, err := decodeRequest(raw)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	if success {
		if err := h.settle(req); err != nil {
			if !errors.Is(err, ErrInsufficientFunds) {
				h.mu.Unlock()
				return err
			}
			h.log.Warn("request could not be settled", zap.String("id", id), zap.Error(err))
			success = false
		}
	}
	if err := h.store.Apply([]sdk.Mutation{{Key: outboxKey(id)}}); err != nil {
		h.mu.Unlock()
		return errors.Wrap(err, "drop outbox entry")
	}
	cb := h.callback
	h.mu.Unlock()

	h.log.Info("request resolved", zap.String("id", id), zap.Bool("success", success))
	if cb == nil {
		return nil
	}
	return cb(ctx, id, success)
}

func (h *Local) settle(req Request) error {
	switch req.Kind {
	case RequestPayout:
		return h.transfer(h.self, req.Payout.Receiver, req.Payout.Token, req.Payout.Amount)
	case RequestCall:
		total := sdk.Zero
		for _, a := range req.Call.Actions {
			total = total.Add(a.Deposit)
		}
		return h.transfer(h.self, req.Call.Receiver, sdk.AssetNative, total)
	}
	return nil
}

func assetName(a sdk.Asset) string {
	if a.IsNative() {
		return "native"
	}
	return a.String()
}
