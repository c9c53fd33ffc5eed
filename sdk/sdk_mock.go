package sdk

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// MockHost records every payout and remote call instead of executing them.
// By default native payouts resolve immediately and successfully while token
// payouts and remote calls stay pending until the test resolves them.
type MockHost struct {
	mu sync.Mutex

	Payouts []Payout
	Calls   []RemoteCall

	// PendingPayouts makes native payouts pending too.
	PendingPayouts bool
	// FailPayouts resolves every payout as failed.
	FailPayouts bool
	// ResolveCalls resolves remote calls synchronously with CallSuccess.
	ResolveCalls bool
	CallSuccess  bool
	// Err is returned from both entry points when set.
	Err error
}

// NewMockHost returns a host with the default behaviour described above.
func NewMockHost() *MockHost {
	return &MockHost{}
}

// Payout records p and decides the outcome from the knobs above.
func (m *MockHost) Payout(_ context.Context, p Payout) (Promise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Promise{}, errors.Wrap(m.Err, "mock payout")
	}
	m.Payouts = append(m.Payouts, p)
	if m.FailPayouts {
		return Promise{ID: p.ID, Resolved: true, Success: false}, nil
	}
	if p.Token.IsNative() && !m.PendingPayouts {
		return Promise{ID: p.ID, Resolved: true, Success: true}, nil
	}
	return Promise{ID: p.ID}, nil
}

// Dispatch records the call batch.
func (m *MockHost) Dispatch(_ context.Context, call RemoteCall) (Promise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Promise{}, errors.Wrap(m.Err, "mock dispatch")
	}
	m.Calls = append(m.Calls, call)
	if m.ResolveCalls {
		return Promise{ID: call.ID, Resolved: true, Success: m.CallSuccess}, nil
	}
	return Promise{ID: call.ID}, nil
}

// PaidTo sums every recorded payout of token to receiver.
func (m *MockHost) PaidTo(receiver Address, token Asset) Balance {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := Zero
	for _, p := range m.Payouts {
		if p.Receiver == receiver && p.Token == token {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// Reset drops recorded traffic but keeps the knobs.
func (m *MockHost) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Payouts = nil
	m.Calls = nil
}
