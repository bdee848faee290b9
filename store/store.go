package store

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoStats is returned when a method has no recorded calls.
var ErrNoStats = errors.New("no stats recorded for method")

// MethodStats is the call record of a single RPC method.
type MethodStats struct {
	Method   string    `xmlrpc:"method"`
	Calls    int64     `xmlrpc:"calls"`
	Faults   int64     `xmlrpc:"faults"`
	LastCall time.Time `xmlrpc:"lastCall"`
}

func (s *MethodStats) String() string {
	return fmt.Sprintf("MethodStats(%q, calls=%d, faults=%d)", s.Method, s.Calls, s.Faults)
}

// Add counts a call.
func (s *MethodStats) Add(faulted bool, at time.Time) {
	s.Calls++
	if faulted {
		s.Faults++
	}
	if at.After(s.LastCall) {
		s.LastCall = at
	}
}

// Store is the storage interface used for call statistics. It should be
// goroutine-safe.
type Store interface {
	// Record counts a call to method, and whether it returned a fault.
	Record(method string, faulted bool, at time.Time) error
	// Get returns the stats of one method, or ErrNoStats.
	Get(method string) (MethodStats, error)
	// Stats returns the stats of every recorded method, sorted by method.
	Stats() ([]MethodStats, error)

	Close() error
}
