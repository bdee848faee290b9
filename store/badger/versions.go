package badger

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v2"
	"github.com/vipnode/xmlrpc/store"
)

// callsSchema is the layout of the call records:
//
//	0: fresh database
//	1: plain int64 counts under countsPrefix
//	2: store.MethodStats under callsPrefix
const callsSchema = 2

const countsPrefix = "xmlrpc:count:"

var schemaKey = []byte("xmlrpc:version")

// callsUpgrade converts the records of one schema to the next, returning the
// methods whose records were converted.
type callsUpgrade func(txn *badger.Txn) (migrated []string, err error)

var upgrades = [callsSchema]callsUpgrade{
	// 0 -> 1: nothing recorded yet.
	func(txn *badger.Txn) ([]string, error) {
		return nil, nil
	},

	// 1 -> 2
	func(txn *badger.Txn) ([]string, error) {
		counts := map[string]int64{}
		prefix := []byte(countsPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			method := strings.TrimPrefix(string(it.Item().Key()), countsPrefix)
			var count int64
			if err := decodeValue(it.Item(), &count); err != nil {
				it.Close()
				return nil, MigrationError{Method: method, Cause: err}
			}
			counts[method] = count
		}
		it.Close()

		migrated := make([]string, 0, len(counts))
		for method, calls := range counts {
			if err := txn.Delete([]byte(countsPrefix + method)); err != nil {
				return nil, MigrationError{Method: method, Cause: err}
			}
			// Existing call records are kept as they are.
			_, err := readCalls(txn, method)
			if err == nil {
				continue
			}
			if err != store.ErrNoStats {
				return nil, MigrationError{Method: method, Cause: err}
			}
			if err := writeCalls(txn, store.MethodStats{Method: method, Calls: calls}); err != nil {
				return nil, MigrationError{Method: method, Cause: err}
			}
			migrated = append(migrated, method)
		}
		return migrated, nil
	},
}

// MigrateCalls upgrades the call records in db to the current schema, in a
// single transaction. It returns the sorted methods whose records were
// converted. path names the database in errors and logs.
func MigrateCalls(db *badger.DB, path string) ([]string, error) {
	var migrated []string
	err := db.Update(func(txn *badger.Txn) error {
		schema, err := getSchema(txn)
		if err != nil {
			return MigrationError{Path: path, Schema: schema, Cause: err}
		}
		if schema > callsSchema {
			return MigrationError{Path: path, Schema: schema, Cause: errors.New("call records are newer than this server supports")}
		}

		for ; schema < callsSchema; schema++ {
			methods, err := upgrades[schema](txn)
			if err != nil {
				merr, ok := err.(MigrationError)
				if !ok {
					merr = MigrationError{Cause: err}
				}
				merr.Path, merr.Schema = path, schema
				return merr
			}
			if err := setSchema(txn, schema+1); err != nil {
				return MigrationError{Path: path, Schema: schema, Cause: err}
			}
			migrated = append(migrated, methods...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(migrated) > 0 {
		sort.Strings(migrated)
		logger.Printf("migrated call records in %q to schema %d: %s", path, callsSchema, strings.Join(migrated, ", "))
	}
	return migrated, nil
}

func getSchema(txn *badger.Txn) (int, error) {
	var schema int
	item, err := txn.Get(schemaKey)
	if err == badger.ErrKeyNotFound {
		return schema, nil
	}
	if err != nil {
		return schema, err
	}
	err = decodeValue(item, &schema)
	return schema, err
}

func setSchema(txn *badger.Txn, schema int) error {
	val, err := encodeValue(&schema)
	if err != nil {
		return err
	}
	return txn.Set(schemaKey, val)
}

// MigrationError is returned when the call records can't be upgraded to the
// current schema.
type MigrationError struct {
	Path string
	// Schema is the schema that failed to upgrade.
	Schema int
	// Method is set when a single record failed to convert.
	Method string
	Cause  error
}

func (err MigrationError) Error() string {
	if err.Method != "" {
		return fmt.Sprintf("badger call records at %q: failed to migrate %q from schema %d to %d: %s", err.Path, err.Method, err.Schema, callsSchema, err.Cause)
	}
	return fmt.Sprintf("badger call records at %q: failed to migrate from schema %d to %d: %s", err.Path, err.Schema, callsSchema, err.Cause)
}
