package store

import (
	"github.com/vipnode/xmlrpc/xmlrpc"
)

// StatsService exposes a Store over RPC, usually registered as stats.*.
type StatsService struct {
	Store Store
}

// Methods returns the stats of every recorded method.
func (s *StatsService) Methods() ([]MethodStats, error) {
	return s.Store.Stats()
}

// Method returns the stats of a single method.
func (s *StatsService) Method(name string) (MethodStats, error) {
	stats, err := s.Store.Get(name)
	if err == ErrNoStats {
		return stats, xmlrpc.NewFault(xmlrpc.FaultInvalidParams, "%s: %s", err, name)
	}
	return stats, err
}
