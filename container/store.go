package container

import (
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang/snappy"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrCorrupt      = errors.New("corrupt record")
)

// Store is the flat key-value layer under a File. Get returns ErrNotFound
// for a missing key. Keys returns the keys with the given prefix in sorted
// order.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

// MemStore keeps records in a map
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "key %q", key)
	}
	return append([]byte(nil), v...), nil
}

func (m *MemStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemStore) Keys(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemStore) Close() error { return nil }

// BadgerStore persists records in a badger database. Values are snappy
// compressed; keys are stored as-is so prefix scans work.
type BadgerStore struct {
	db *badger.DB
}

// BadgerOptions configures OpenBadger
type BadgerOptions struct {
	Dir      string
	InMemory bool
	Logger   *zap.Logger
}

// toZap routes badger's log output through zap
type toZap struct {
	*zap.SugaredLogger
}

func (l toZap) Warningf(format string, args ...interface{}) { l.Warnf(format, args...) }

func OpenBadger(opts BadgerOptions) (*BadgerStore, error) {
	dir := opts.Dir
	if opts.InMemory {
		dir = ""
	}
	bopts := badger.DefaultOptions(dir).WithInMemory(opts.InMemory)
	if opts.Logger != nil {
		bopts = bopts.WithLogger(toZap{opts.Logger.Named("badger").Sugar()})
	} else {
		bopts = bopts.WithLogger(nil)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errors.Wrapf(err, "opening badger store at %q", dir)
	}
	return &BadgerStore{db: db}, nil
}

func (b *BadgerStore) Get(key string) (data []byte, err error) {
	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		data, err = snappy.Decode(nil, val)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "key %q", key)
	}
	return data, errors.Wrapf(err, "reading key %q", key)
}

func (b *BadgerStore) Put(key string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), snappy.Encode(nil, value))
	})
}

func (b *BadgerStore) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			err = nil
		}
		return err
	})
}

func (b *BadgerStore) Keys(prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		iopts := badger.DefaultIteratorOptions
		iopts.PrefetchValues = false
		iopts.Prefix = []byte(prefix)
		itr := txn.NewIterator(iopts)
		defer itr.Close()
		for itr.Seek(iopts.Prefix); itr.ValidForPrefix(iopts.Prefix); itr.Next() {
			keys = append(keys, string(itr.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

func (b *BadgerStore) Close() error {
	return b.db.Close()
}
