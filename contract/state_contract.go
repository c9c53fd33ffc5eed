package contract

import (
	"github.com/CosmWasm/tinyjson"
	"github.com/CosmWasm/tinyjson/jlexer"
	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// state reads the aggregate once per call. A missing aggregate means Init never ran.
func (c *callCtx) state() (*daoState, error) {
	if c.globals != nil {
		return c.globals, nil
	}
	raw, err := c.st.get(globalsKey())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotInitialized
	}
	s, err := decodeDaoState(raw)
	if err != nil {
		return nil, err
	}
	c.globals = s
	return s, nil
}

// mutate runs fn against the aggregate and marks it for write back.
func (c *callCtx) mutate(fn func(s *daoState) error) error {
	s, err := c.state()
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	c.globalsDirty = true
	return nil
}

// lock adds a bond to the locked counter.
func (c *callCtx) lock(amount sdk.Balance) error {
	return c.mutate(func(s *daoState) error {
		s.LockedAmount = s.LockedAmount.Add(amount)
		return nil
	})
}

// unlock is the inverse of lock and refuses to go negative.
func (c *callCtx) unlock(amount sdk.Balance) error {
	return c.mutate(func(s *daoState) error {
		left, ok := s.LockedAmount.SafeSub(amount)
		if !ok {
			return errors.Wrapf(ErrLockedAmountUnderflow, "locked %s unlock %s", s.LockedAmount, amount)
		}
		s.LockedAmount = left
		return nil
	})
}

func (c *callCtx) config() (Config, error) {
	raw, err := c.st.get(configKey())
	if err != nil {
		return Config{}, err
	}
	if raw == nil {
		return Config{}, ErrNotInitialized
	}
	return decodeConfig(raw)
}

func (c *callCtx) setConfig(cfg Config) {
	c.st.set(configKey(), encodeConfig(cfg))
}

// loadPolicy returns the call's policy. The persisted document is always the upgraded
// form; a legacy shape found in storage is upgraded and written back once.
func (c *callCtx) loadPolicy() (*Policy, error) {
	if c.policy != nil {
		return c.policy, nil
	}
	raw, err := c.st.get(policyKey())
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, ErrNotInitialized
	}
	var v VersionedPolicy
	l := jlexer.Lexer{Data: raw}
	v.UnmarshalTinyJSON(&l)
	if err := l.Error(); err != nil {
		return nil, corrupt(err, "policy")
	}
	p := v.Upgrade()
	if !v.IsCurrent() {
		if err := c.savePolicy(p); err != nil {
			return nil, err
		}
	}
	c.policy = &p
	return c.policy, nil
}

func (c *callCtx) savePolicy(p Policy) error {
	raw, err := tinyjson.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "encode policy")
	}
	c.st.set(policyKey(), raw)
	c.policy = &p
	return nil
}
