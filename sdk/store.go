package sdk

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Mutation is one write inside a batch. A nil Value deletes the key.
type Mutation struct {
	Key   string
	Value []byte
}

// Store is the durable key value map the engine persists into. Apply must be atomic:
// either every mutation of the batch lands or none does.
type Store interface {
	Get(key string) ([]byte, error)
	Apply(batch []Mutation) error
	Scan(prefix string, fn func(key string, value []byte) error) error
	Close() error
}

// MemStore keeps everything in a map. With a filename set it dumps the whole map as
// json after every batch, handy for poking at state while debugging.
type MemStore struct {
	mu       sync.RWMutex
	db       map[string][]byte
	filename string
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{db: make(map[string][]byte)}
}

// NewFileBackedMemStore loads filename if present and keeps it in sync afterwards.
func NewFileBackedMemStore(filename string) (*MemStore, error) {
	m := &MemStore{db: make(map[string][]byte), filename: filename}
	if err := m.loadFromFile(); err != nil {
		return nil, err
	}
	return m, nil
}

// Get returns nil, nil for missing keys.
func (m *MemStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.db[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

// Apply writes the batch under one lock so readers never see half of it.
func (m *MemStore) Apply(batch []Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mut := range batch {
		if mut.Value == nil {
			delete(m.db, mut.Key)
			continue
		}
		val := make([]byte, len(mut.Value))
		copy(val, mut.Value)
		m.db[mut.Key] = val
	}
	return m.saveToFile()
}

// Scan walks keys with the prefix in lexical order.
func (m *MemStore) Scan(prefix string, fn func(key string, value []byte) error) error {
	m.mu.RLock()
	keys := make([]string, 0)
	for k := range m.db {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = m.db[k]
	}
	m.mu.RUnlock()
	for i, k := range keys {
		if err := fn(k, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// Len is used by tests to assert nothing leaked into storage.
func (m *MemStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.db)
}

// Close is a no-op, the map just goes away with the process.
func (m *MemStore) Close() error { return nil }

// saveToFile writes the full map to a JSON file
func (m *MemStore) saveToFile() error {
	if m.filename == "" {
		return nil
	}
	data, err := json.MarshalIndent(m.db, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal mem store")
	}
	return os.WriteFile(m.filename, data, 0644)
}

// loadFromFile loads the map from a JSON file
func (m *MemStore) loadFromFile() error {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // file doesn't exist yet
		}
		return errors.Wrap(err, "read mem store")
	}
	return errors.Wrap(json.Unmarshal(data, &m.db), "decode mem store")
}
