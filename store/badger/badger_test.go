package badger

import (
	"reflect"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/vipnode/xmlrpc/store"
)

// badgerTesting is a wrapper that retains but clears the db on Close().
type badgerTesting struct {
	*badgerStore
}

func (s badgerTesting) Close() error {
	// Seems to be faster to just delete all keys between tests than to make a
	// fresh db each time.
	prefix := []byte(callsPrefix)
	return s.badgerStore.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := txn.Delete(it.Item().KeyCopy(nil)); err != nil {
				return err
			}
		}
		return nil
	})
}

func memoryOptions() badger.Options {
	return badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{})
}

func OpenTemp(t *testing.T) *badgerStore {
	t.Helper()
	s, err := Open(memoryOptions())
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCallRecords(t *testing.T) {
	s := OpenTemp(t)
	defer s.Close()

	want := store.MethodStats{Method: "test.hello", Calls: 3, Faults: 1, LastCall: time.Unix(1500000000, 0).UTC()}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return writeCalls(txn, want)
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.db.View(func(txn *badger.Txn) error {
		got, err := readCalls(txn, "test.hello")
		if err != nil {
			return err
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got: %v; want %v", &got, &want)
		}
		if _, err := readCalls(txn, "test.goodbye"); err != store.ErrNoStats {
			t.Errorf("expected ErrNoStats, got: %v", err)
		}

		numItems := 0
		err = scanCalls(txn, func(got store.MethodStats) error {
			numItems += 1
			if !reflect.DeepEqual(got, want) {
				t.Errorf("got: %v; want %v", &got, &want)
			}
			return nil
		})
		if numItems != 1 {
			t.Errorf("scanCalls found %d records; want 1", numItems)
		}
		return err
	}); err != nil {
		t.Fatal(err)
	}
}

func TestBadgerStore(t *testing.T) {
	s := OpenTemp(t)
	defer s.Close()

	t.Run("BadgerStore", func(t *testing.T) {
		store.TestSuite(t, func() store.Store {
			return badgerTesting{s}
		})
	})
}
