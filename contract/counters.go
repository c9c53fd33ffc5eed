package contract

import (
	"strconv"

	"github.com/pkg/errors"
)

// getCount reads the string counter under the key and defaults to zero.
func (c *callCtx) getCount(key string) (uint64, error) {
	raw, err := c.st.get(key)
	if err != nil {
		return 0, err
	}
	if len(raw) == 0 {
		return 0, nil
	}
	n, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		return 0, corrupt(err, "counter")
	}
	return n, nil
}

// setCount stores counters as decimal strings; zero removes the key.
func (c *callCtx) setCount(key string, n uint64) {
	if n == 0 {
		c.st.del(key)
		return
	}
	c.st.set(key, []byte(strconv.FormatUint(n, 10)))
}

// addCount moves a counter by delta and refuses to go below zero.
func (c *callCtx) addCount(key string, delta int64) (uint64, error) {
	n, err := c.getCount(key)
	if err != nil {
		return 0, err
	}
	if delta < 0 && uint64(-delta) > n {
		return 0, errors.Errorf("counter underflow: %d%+d", n, delta)
	}
	n = uint64(int64(n) + delta)
	c.setCount(key, n)
	return n, nil
}

// UInt64ToString turns an id into decimal text for logs and cli output.
// Example payload: UInt64ToString(9001)
func UInt64ToString(val uint64) string {
	return strconv.FormatUint(val, 10)
}
