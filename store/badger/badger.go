package badger

import (
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/vipnode/xmlrpc/store"
)

// Open returns a store.Store implementation using Badger as the storage
// driver. Call records from older schemas are migrated. The store should be
// .Close()'d after use.
func Open(opts badger.Options) (*badgerStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	if _, err := MigrateCalls(db, opts.Dir); err != nil {
		db.Close()
		return nil, err
	}
	return &badgerStore{db: db}, nil
}

// OpenDir opens a persistent store in dir, logging to the package logger.
func OpenDir(dir string) (*badgerStore, error) {
	return Open(badger.DefaultOptions(dir).WithLogger(badgerLogger{}))
}

var _ store.Store = &badgerStore{}

type badgerStore struct {
	db *badger.DB
}

func (s *badgerStore) Close() error {
	return s.db.Close()
}

// Record retries when concurrent records of the same method conflict.
func (s *badgerStore) Record(method string, faulted bool, at time.Time) error {
	for {
		err := s.db.Update(func(txn *badger.Txn) error {
			stats, err := readCalls(txn, method)
			if err != nil && err != store.ErrNoStats {
				return err
			}
			stats.Method = method
			stats.Add(faulted, at)
			return writeCalls(txn, stats)
		})
		if err != badger.ErrConflict {
			return err
		}
	}
}

func (s *badgerStore) Get(method string) (store.MethodStats, error) {
	var stats store.MethodStats
	err := s.db.View(func(txn *badger.Txn) (err error) {
		stats, err = readCalls(txn, method)
		return err
	})
	return stats, err
}

// Stats returns the stats sorted by method, which is the key order.
func (s *badgerStore) Stats() ([]store.MethodStats, error) {
	r := []store.MethodStats{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scanCalls(txn, func(stats store.MethodStats) error {
			r = append(r, stats)
			return nil
		})
	})
	return r, err
}
