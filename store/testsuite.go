package store

import (
	"sync"
	"testing"
	"time"
)

// TestSuite runs a suite of tests against a store implementation.
func TestSuite(t *testing.T, newStore func() Store) {
	t.Helper()
	t.Run("Record", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		if _, err := s.Get("test.hello"); err != ErrNoStats {
			t.Errorf("expected no stats error, got: %v", err)
		}

		first := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		last := first.Add(time.Hour)
		if err := s.Record("test.hello", false, first); err != nil {
			t.Errorf("unexpected error: %s", err)
		}
		if err := s.Record("test.hello", true, last); err != nil {
			t.Errorf("unexpected error: %s", err)
		}
		// Out of order calls don't rewind LastCall
		if err := s.Record("test.hello", false, first); err != nil {
			t.Errorf("unexpected error: %s", err)
		}

		stats, err := s.Get("test.hello")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if stats.Method != "test.hello" || stats.Calls != 3 || stats.Faults != 1 {
			t.Errorf("returned wrong stats: %v", &stats)
		}
		if !stats.LastCall.Equal(last) {
			t.Errorf("got: %s; want %s", stats.LastCall, last)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		stats, err := s.Stats()
		if err != nil {
			t.Errorf("unexpected error: %s", err)
		}
		if len(stats) != 0 {
			t.Errorf("expected no stats, got: %v", stats)
		}

		now := time.Now()
		for _, method := range []string{"b.two", "a.one", "b.two", "c.three"} {
			if err := s.Record(method, false, now); err != nil {
				t.Errorf("unexpected error: %s", err)
			}
		}

		stats, err = s.Stats()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		want := []struct {
			method string
			calls  int64
		}{{"a.one", 1}, {"b.two", 2}, {"c.three", 1}}
		if len(stats) != len(want) {
			t.Fatalf("got: %v; want %v", stats, want)
		}
		for i, w := range want {
			if stats[i].Method != w.method || stats[i].Calls != w.calls {
				t.Errorf("[%d] got: %v; want %s with %d calls", i, &stats[i], w.method, w.calls)
			}
		}
	})

	t.Run("Concurrent", func(t *testing.T) {
		s := newStore()
		defer s.Close()

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.Record("test.hello", false, time.Now()); err != nil {
					t.Errorf("unexpected error: %s", err)
				}
			}()
		}
		wg.Wait()

		stats, err := s.Get("test.hello")
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}
		if stats.Calls != 10 {
			t.Errorf("got: %d calls; want 10", stats.Calls)
		}
	})
}
