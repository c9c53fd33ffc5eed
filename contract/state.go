package contract

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"sputnik_dao/sdk"
)

// overlay buffers every write of one call on top of the store. Reads see the buffered
// writes first. commit hands the whole buffer to the store as one batch; dropping the
// overlay discards the call.
type overlay struct {
	base   sdk.Store
	writes map[string][]byte
	order  []string
}

func newOverlay(base sdk.Store) *overlay {
	return &overlay{base: base, writes: make(map[string][]byte)}
}

// get returns nil, nil when the key is missing or deleted in this call.
func (o *overlay) get(key string) ([]byte, error) {
	if v, ok := o.writes[key]; ok {
		return v, nil
	}
	v, err := o.base.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "store get")
	}
	return v, nil
}

func (o *overlay) set(key string, value []byte) {
	if value == nil {
		value = []byte{}
	}
	o.track(key)
	o.writes[key] = value
}

func (o *overlay) del(key string) {
	o.track(key)
	o.writes[key] = nil
}

func (o *overlay) track(key string) {
	if _, seen := o.writes[key]; !seen {
		o.order = append(o.order, key)
	}
}

// scan walks prefix in key order, merging buffered writes over the store.
func (o *overlay) scan(prefix string, fn func(key string, value []byte) error) error {
	merged := make(map[string][]byte)
	err := o.base.Scan(prefix, func(k string, v []byte) error {
		merged[k] = v
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "store scan")
	}
	for k, v := range o.writes {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := fn(k, merged[k]); err != nil {
			return err
		}
	}
	return nil
}

func (o *overlay) dirty() int { return len(o.order) }

func (o *overlay) commit() error {
	if len(o.order) == 0 {
		return nil
	}
	batch := make([]sdk.Mutation, 0, len(o.order))
	for _, k := range o.order {
		batch = append(batch, sdk.Mutation{Key: k, Value: o.writes[k]})
	}
	if err := o.base.Apply(batch); err != nil {
		return errors.Wrap(err, "store apply")
	}
	return nil
}
