// Package store persists the DAO state in BadgerDB.
package store

import (
	"os"
	"sync"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"sputnik_dao/sdk"
)

// ErrClosing is returned for writes that race a Close.
var ErrClosing = errors.New("badger store is closing")

// Options selects where the store lives.
type Options struct {
	// Dir is the data directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in RAM, for tests and throw-away runs.
	InMemory bool
	// SyncWrites fsyncs every batch.
	SyncWrites bool
}

// Badger implements sdk.Store. Every Apply is one badger transaction, so a batch
// lands completely or not at all.
type Badger struct {
	db  *badgerdb.DB
	log *zap.Logger

	closing int32
	writeWg sync.WaitGroup
}

var _ sdk.Store = (*Badger)(nil)

// Open creates the data directory if needed and opens the database.
func Open(opts Options, log *zap.Logger) (*Badger, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var bo badgerdb.Options
	if opts.InMemory {
		bo = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New("badger: data dir not set")
		}
		if err := os.MkdirAll(opts.Dir, 0700); err != nil {
			return nil, errors.Wrapf(err, "create data dir %s", opts.Dir)
		}
		bo = badgerdb.DefaultOptions(opts.Dir)
		bo.SyncWrites = opts.SyncWrites
	}
	bo.Logger = &badgerLogger{log: log.Sugar()}
	bo.NumMemtables = 2
	bo.BlockCacheSize = 32 << 20
	bo.IndexCacheSize = 32 << 20

	db, err := badgerdb.Open(bo)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	log.Info("badger store opened", zap.String("dir", opts.Dir), zap.Bool("in_memory", opts.InMemory))
	return &Badger{db: db, log: log}, nil
}

// Get returns nil, nil for missing keys.
func (s *Badger) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badgerdb.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "badger get %q", key)
	}
	return out, nil
}

// Apply writes the batch in a single transaction.
func (s *Badger) Apply(batch []sdk.Mutation) error {
	if len(batch) == 0 {
		return nil
	}
	done, err := s.beginWrite()
	if err != nil {
		return err
	}
	defer done()
	err = s.db.Update(func(txn *badgerdb.Txn) error {
		for _, m := range batch {
			if m.Value == nil {
				if err := txn.Delete([]byte(m.Key)); err != nil {
					return errors.Wrapf(err, "delete %q", m.Key)
				}
				continue
			}
			if err := txn.Set([]byte(m.Key), m.Value); err != nil {
				return errors.Wrapf(err, "set %q", m.Key)
			}
		}
		return nil
	})
	return errors.Wrap(err, "badger apply")
}

// Scan walks keys under prefix in byte order. Values are copies.
func (s *Badger) Scan(prefix string, fn func(key string, value []byte) error) error {
	type kv struct {
		k string
		v []byte
	}
	var items []kv
	err := s.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()
		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			items = append(items, kv{k: string(item.KeyCopy(nil)), v: v})
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "badger scan %q", prefix)
	}
	// fn may write through the engine, so it runs outside the read txn
	for _, e := range items {
		if err := fn(e.k, e.v); err != nil {
			return err
		}
	}
	return nil
}

// Close blocks new writes, waits for in-flight ones and closes the database.
func (s *Badger) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closing, 0, 1) {
		return nil
	}
	s.writeWg.Wait()
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, "close badger")
	}
	s.log.Info("badger store closed")
	return nil
}

func (s *Badger) beginWrite() (func(), error) {
	if atomic.LoadInt32(&s.closing) == 1 {
		return nil, ErrClosing
	}
	s.writeWg.Add(1)
	if atomic.LoadInt32(&s.closing) == 1 {
		s.writeWg.Done()
		return nil, ErrClosing
	}
	return s.writeWg.Done, nil
}

// badgerLogger routes badger's own chatter into zap.
type badgerLogger struct {
	log *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf("[badger] "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warnf("[badger] "+format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debugf("[badger] "+format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf("[badger] "+format, args...)
}
