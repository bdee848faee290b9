package store

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore implements an ephemeral in-memory store.
func MemoryStore() *memoryStore {
	return &memoryStore{
		methods: map[string]MethodStats{},
	}
}

// Assert Store implementation
var _ Store = &memoryStore{}

type memoryStore struct {
	mu      sync.Mutex
	methods map[string]MethodStats
}

func (s *memoryStore) Record(method string, faulted bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.methods[method]
	stats.Method = method
	stats.Add(faulted, at)
	s.methods[method] = stats
	return nil
}

func (s *memoryStore) Get(method string) (MethodStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.methods[method]
	if !ok {
		return MethodStats{}, ErrNoStats
	}
	return stats, nil
}

func (s *memoryStore) Stats() ([]MethodStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := make([]MethodStats, 0, len(s.methods))
	for _, stats := range s.methods {
		r = append(r, stats)
	}
	sort.Slice(r, func(i, j int) bool { return r[i].Method < r[j].Method })
	return r, nil
}

func (s *memoryStore) Close() error {
	return nil
}
