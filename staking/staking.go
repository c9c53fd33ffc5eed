// Package staking is the collaborator that turns deposited vote tokens into delegated
// weight on the DAO. Users deposit, delegate to any account, undelegate (which starts a
// cooldown) and withdraw what is not delegated once the cooldown is over.
package staking

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sputnik_dao/contract"
	"sputnik_dao/sdk"
)

var (
	ErrNotEnoughFree      = errors.New("staking: not enough undelegated balance")
	ErrNotEnoughDelegated = errors.New("staking: not enough delegated to account")
	ErrCooldown           = errors.New("staking: cooldown still running")
	ErrNoUser             = errors.New("staking: unknown user")
	ErrZeroAmount         = errors.New("staking: amount must be positive")
)

// DAO is the part of the engine the staking collaborator drives.
type DAO interface {
	RegisterDelegation(ctx context.Context, env sdk.Env, account sdk.Address) error
	Delegate(ctx context.Context, env sdk.Env, account sdk.Address, amount sdk.Balance) (contract.DelegationResult, error)
	Undelegate(ctx context.Context, env sdk.Env, account sdk.Address, amount sdk.Balance) (contract.DelegationResult, error)
}

// Ledger moves vote tokens in and out of the staking account.
type Ledger interface {
	Transfer(from, to sdk.Address, asset sdk.Asset, amount sdk.Balance) error
}

// Config wires the collaborator.
type Config struct {
	// Self is the staking account id the DAO knows as its staking contract.
	Self sdk.Address
	// DAO is the account id of the engine.
	DAO sdk.Address
	// Token is the asset users stake.
	Token sdk.Asset
	// UnstakePeriod is the cooldown in nanoseconds after every undelegation.
	UnstakePeriod uint64
}

// Staking keeps one User record per depositor.
type Staking struct {
	mu     sync.Mutex
	cfg    Config
	store  sdk.Store
	dao    DAO
	ledger Ledger
	log    *zap.Logger
}

// New returns a collaborator persisting into store.
func New(cfg Config, store sdk.Store, dao DAO, ledger Ledger, log *zap.Logger) *Staking {
	if log == nil {
		log = zap.NewNop()
	}
	return &Staking{cfg: cfg, store: store, dao: dao, ledger: ledger, log: log}
}

// daoEnv is the env the DAO sees when the staking account calls it.
func (s *Staking) daoEnv(env sdk.Env) sdk.Env {
	return sdk.Env{
		CurrentAccount: s.cfg.DAO,
		Predecessor:    s.cfg.Self,
		BlockTimestamp: env.BlockTimestamp,
	}
}

// Deposit pulls amount of the vote token from the caller into the staking account.
func (s *Staking) Deposit(ctx context.Context, env sdk.Env, amount sdk.Balance) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.IsZero() {
		return User{}, ErrZeroAmount
	}
	u, err := s.loadOrNew(env.Predecessor)
	if err != nil {
		return User{}, err
	}
	prev := *u
	u.Free = u.Free.Add(amount)
	if err := s.put(u); err != nil {
		return User{}, err
	}
	if err := s.ledger.Transfer(env.Predecessor, s.cfg.Self, s.cfg.Token, amount); err != nil {
		return User{}, s.revert(&prev, errors.Wrap(err, "pull deposit"))
	}
	s.log.Info("deposit", zap.String("user", u.Account.String()), zap.String("amount", amount.String()))
	return *u, nil
}

// DelegateTo moves amount of the caller's free balance onto delegatee's DAO weight.
func (s *Staking) DelegateTo(ctx context.Context, env sdk.Env, delegatee sdk.Address, amount sdk.Balance) (contract.DelegationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.IsZero() {
		return contract.DelegationResult{}, ErrZeroAmount
	}
	u, err := s.load(env.Predecessor)
	if err != nil {
		return contract.DelegationResult{}, err
	}
	free, ok := u.Free.SafeSub(amount)
	if !ok {
		return contract.DelegationResult{}, errors.Wrapf(ErrNotEnoughFree, "has %s, wants %s", u.Free, amount)
	}

	denv := s.daoEnv(env)
	if err := s.dao.RegisterDelegation(ctx, denv, delegatee); err != nil {
		return contract.DelegationResult{}, errors.Wrap(err, "register delegation")
	}
	res, err := s.dao.Delegate(ctx, denv, delegatee, amount)
	if err != nil {
		return contract.DelegationResult{}, errors.Wrap(err, "delegate")
	}

	u.Free = free
	u.setDelegated(delegatee, u.delegatedTo(delegatee).Add(amount))
	if err := s.save(u); err != nil {
		return contract.DelegationResult{}, err
	}
	s.log.Info("delegate",
		zap.String("user", u.Account.String()),
		zap.String("to", delegatee.String()),
		zap.String("amount", amount.String()),
		zap.String("total", res.Total.String()),
	)
	return res, nil
}

// UndelegateFrom takes amount back from delegatee. The caller may not undelegate or
// withdraw again until the cooldown has passed.
func (s *Staking) UndelegateFrom(ctx context.Context, env sdk.Env, delegatee sdk.Address, amount sdk.Balance) (contract.DelegationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.IsZero() {
		return contract.DelegationResult{}, ErrZeroAmount
	}
	u, err := s.load(env.Predecessor)
	if err != nil {
		return contract.DelegationResult{}, err
	}
	if env.BlockTimestamp < u.NextActionAt {
		return contract.DelegationResult{}, errors.Wrapf(ErrCooldown, "until %d", u.NextActionAt)
	}
	left, ok := u.delegatedTo(delegatee).SafeSub(amount)
	if !ok {
		return contract.DelegationResult{}, errors.Wrapf(ErrNotEnoughDelegated, "%s", delegatee)
	}
	res, err := s.dao.Undelegate(ctx, s.daoEnv(env), delegatee, amount)
	if err != nil {
		return contract.DelegationResult{}, errors.Wrap(err, "undelegate")
	}

	u.setDelegated(delegatee, left)
	u.Free = u.Free.Add(amount)
	u.NextActionAt = env.BlockTimestamp + s.cfg.UnstakePeriod
	if err := s.save(u); err != nil {
		return contract.DelegationResult{}, err
	}
	s.log.Info("undelegate",
		zap.String("user", u.Account.String()),
		zap.String("from", delegatee.String()),
		zap.String("amount", amount.String()),
		zap.Uint64("next_action_at", u.NextActionAt),
	)
	return res, nil
}

// Withdraw pays free balance back to the caller once the cooldown is over.
func (s *Staking) Withdraw(ctx context.Context, env sdk.Env, amount sdk.Balance) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount.IsZero() {
		return User{}, ErrZeroAmount
	}
	u, err := s.load(env.Predecessor)
	if err != nil {
		return User{}, err
	}
	if env.BlockTimestamp < u.NextActionAt {
		return User{}, errors.Wrapf(ErrCooldown, "until %d", u.NextActionAt)
	}
	free, ok := u.Free.SafeSub(amount)
	if !ok {
		return User{}, errors.Wrapf(ErrNotEnoughFree, "has %s, wants %s", u.Free, amount)
	}
	prev := *u
	u.Free = free
	if err := s.put(u); err != nil {
		return User{}, err
	}
	if err := s.ledger.Transfer(s.cfg.Self, u.Account, s.cfg.Token, amount); err != nil {
		return User{}, s.revert(&prev, errors.Wrap(err, "pay withdrawal"))
	}
	s.log.Info("withdraw", zap.String("user", u.Account.String()), zap.String("amount", amount.String()))
	return *u, nil
}

// GetUser returns the record of account.
func (s *Staking) GetUser(account sdk.Address) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.load(account)
	if err != nil {
		return User{}, err
	}
	return *u, nil
}

// TotalStaked sums every user's free and delegated balance.
func (s *Staking) TotalStaked() (sdk.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := sdk.Zero
	err := s.store.Scan(userPrefix, func(_ string, v []byte) error {
		u, err := decodeUser(v)
		if err != nil {
			return err
		}
		total = total.Add(u.Total())
		return nil
	})
	return total, err
}

func (s *Staking) load(account sdk.Address) (*User, error) {
	raw, err := s.store.Get(userKey(account))
	if err != nil {
		return nil, errors.Wrap(err, "read user")
	}
	if raw == nil {
		return nil, errors.Wrapf(ErrNoUser, "%s", account)
	}
	u, err := decodeUser(raw)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Staking) loadOrNew(account sdk.Address) (*User, error) {
	u, err := s.load(account)
	if errors.Is(err, ErrNoUser) {
		return &User{Account: account}, nil
	}
	return u, err
}

func (s *Staking) save(u *User) error {
	return errors.Wrap(s.store.Apply([]sdk.Mutation{{Key: userKey(u.Account), Value: encodeUser(*u)}}), "save user")
}

// put saves u, or forgets it once nothing is left.
func (s *Staking) put(u *User) error {
	if !u.empty() {
		return s.save(u)
	}
	return errors.Wrap(s.store.Apply([]sdk.Mutation{{Key: userKey(u.Account)}}), "forget user")
}

// revert puts prev back after a ledger move failed. The record is written before funds
// move, so a failed transfer must undo it.
func (s *Staking) revert(prev *User, cause error) error {
	if err := s.put(prev); err != nil {
		s.log.Error("user record left ahead of the ledger",
			zap.String("user", prev.Account.String()),
			zap.NamedError("transfer", cause),
			zap.Error(err),
		)
		return errors.Wrap(err, cause.Error())
	}
	return cause
}
