package badger

import (
	"bytes"
	"encoding/gob"

	"github.com/dgraph-io/badger/v2"
	"github.com/vipnode/xmlrpc/store"
)

// callsPrefix keys the gob-encoded store.MethodStats of each method.
const callsPrefix = "xmlrpc:calls:"

func callsKey(method string) []byte {
	return []byte(callsPrefix + method)
}

func encodeValue(val interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(val); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeValue(item *badger.Item, into interface{}) error {
	return item.Value(func(val []byte) error {
		return gob.NewDecoder(bytes.NewReader(val)).Decode(into)
	})
}

// readCalls returns the call record of method, or store.ErrNoStats.
func readCalls(txn *badger.Txn, method string) (store.MethodStats, error) {
	var stats store.MethodStats
	item, err := txn.Get(callsKey(method))
	if err == badger.ErrKeyNotFound {
		return stats, store.ErrNoStats
	}
	if err != nil {
		return stats, err
	}
	err = decodeValue(item, &stats)
	return stats, err
}

func writeCalls(txn *badger.Txn, stats store.MethodStats) error {
	val, err := encodeValue(&stats)
	if err != nil {
		return err
	}
	return txn.Set(callsKey(stats.Method), val)
}

// scanCalls calls fn with every call record, in method order.
func scanCalls(txn *badger.Txn, fn func(store.MethodStats) error) error {
	prefix := []byte(callsPrefix)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var stats store.MethodStats
		if err := decodeValue(it.Item(), &stats); err != nil {
			return err
		}
		if err := fn(stats); err != nil {
			return err
		}
	}
	return nil
}
