package refdata

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fixedClock returns a settable clock for expiry tests.
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFixedClock(t time.Time) *fixedClock {
	return &fixedClock{t: t}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(clock *fixedClock) *Store {
	return NewStore(WithClock(clock.Now), WithLocation(time.UTC))
}

func TestStore_SetEntryRoundTrip(t *testing.T) {
	s := newTestStore(newFixedClock(testNow))
	exp := testNow.Add(time.Hour)

	s.SetEntry("G", "K", "V", exp)

	entry, ok := s.Entry("G", "K")
	if !ok {
		t.Fatal("Entry() after SetEntry should be found")
	}
	if entry.Value != "V" {
		t.Errorf("Value = %q, want %q", entry.Value, "V")
	}
	if !entry.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", entry.ExpiresAt, exp)
	}
}

func TestStore_SetEntryOverwrite(t *testing.T) {
	s := NewStore()
	s.SetEntry("G", "K", "first", time.Time{})
	s.SetEntry("G", "K", "second", time.Time{})

	entry, _ := s.Entry("G", "K")
	if entry.Value != "second" {
		t.Errorf("Value = %q, want last write", entry.Value)
	}
	if got := len(s.EntryKeys("G")); got != 1 {
		t.Errorf("group size = %d, want 1", got)
	}
}

func TestStore_SetEntryDoesNotCheckExpiration(t *testing.T) {
	s := newTestStore(newFixedClock(testNow))
	s.SetEntry("G", "K", "V", testNow.Add(-time.Hour))

	if _, ok := s.Entry("G", "K"); !ok {
		t.Error("expired entries are still stored on write")
	}
}

func TestStore_SetEntries(t *testing.T) {
	s := NewStore()
	err := s.SetEntries("G",
		[]string{"a", "b"},
		[]string{"1", "2"},
		[]time.Time{{}, testNow},
	)
	if err != nil {
		t.Fatalf("SetEntries() error = %v", err)
	}
	if e, _ := s.Entry("G", "b"); e.Value != "2" || !e.ExpiresAt.Equal(testNow) {
		t.Errorf("Entry(b) = %+v", e)
	}
}

func TestStore_SetEntriesLengthMismatch(t *testing.T) {
	s := NewStore()
	err := s.SetEntries("G", []string{"a", "b"}, []string{"1"}, []time.Time{{}, {}})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("SetEntries() error = %v, want ErrLengthMismatch", err)
	}
	if s.HasGroup("G") {
		t.Error("nothing should be written on length mismatch")
	}
}

func TestStore_RemoveEntry(t *testing.T) {
	s := NewStore()
	s.SetEntry("G", "K", "V", time.Time{})

	s.RemoveEntry("G", "K")
	if _, ok := s.Entry("G", "K"); ok {
		t.Error("entry should be removed")
	}
	if !s.HasGroup("G") {
		t.Error("removing the last entry keeps the group")
	}

	// Missing group and key are no-ops.
	s.RemoveEntry("missing", "K")
	s.RemoveEntry("G", "missing")
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.SetEntry("A:;:T1", "K", "V", time.Time{})
	s.SetEmpty("B", "T2")

	s.Clear()

	if names := s.GroupNames(); len(names) != 0 {
		t.Errorf("GroupNames() after Clear = %v", names)
	}
}

func TestStore_SelectiveClear(t *testing.T) {
	setup := func() *Store {
		s := NewStore()
		s.SetEntry("A:;:T1", "K", "V", time.Time{})
		s.SetEntry("B:;:T1", "K", "V", time.Time{})
		s.SetEntry("A:;:T2", "K", "V", time.Time{})
		return s
	}

	t.Run("typecodes across prefixes", func(t *testing.T) {
		s := setup()
		s.ClearTypeCodes("T1")
		assertGroups(t, s, "A:;:T2")
	})

	t.Run("exact prefix", func(t *testing.T) {
		s := setup()
		s.ClearPrefix("A", "T1")
		assertGroups(t, s, "A:;:T2", "B:;:T1")
	})

	t.Run("unknown typecode", func(t *testing.T) {
		s := setup()
		s.ClearTypeCodes("T9")
		s.ClearPrefix("C", "T1")
		assertGroups(t, s, "A:;:T1", "A:;:T2", "B:;:T1")
	})
}

func TestStore_SetEmpty(t *testing.T) {
	s := NewStore()
	s.SetEntry("LISTREF:;:T1", "K", "V", time.Time{})

	s.SetEmpty(PrefixListRef, "T1", "T2")

	for _, name := range []string{"LISTREF:;:T1", "LISTREF:;:T2"} {
		if !s.HasGroup(name) {
			t.Errorf("HasGroup(%q) = false", name)
		}
		if keys := s.EntryKeys(name); len(keys) != 0 {
			t.Errorf("EntryKeys(%q) = %v, want empty", name, keys)
		}
	}
}

func TestEntry_ExpiredBoundary(t *testing.T) {
	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"no expiration", time.Time{}, false},
		{"future", testNow.Add(time.Second), false},
		{"exactly now", testNow, false},
		{"past", testNow.Add(-time.Nanosecond), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Entry{Value: "v", ExpiresAt: tt.expiresAt}
			if got := e.Expired(testNow); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewStore_IdentityIsNonZeroAndStable(t *testing.T) {
	s := NewStore()
	if s.ID() == 0 {
		t.Fatal("ID() should be non-zero")
	}
	if s.ID() != s.ID() {
		t.Error("ID() should be stable")
	}
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := NewStore()
	e := NewEngine(s)

	const numGoroutines = 50
	const opsPerGoroutine = 500

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			groupName := fmt.Sprintf("D%d:;:T%d", id%5, id%3)
			for j := 0; j < opsPerGoroutine; j++ {
				switch j % 6 {
				case 0:
					s.SetEntry(groupName, fmt.Sprintf("R%d:;:D%d", j, j), DirectionBoth, time.Time{})
				case 1:
					_ = e.FindTypeCodes(fmt.Sprintf("D%d", id%5), "T0", "T1", "T2")
				case 2:
					_, _ = e.DomainCode(fmt.Sprintf("D%d", id%5), "T1", "R1")
				case 3:
					s.ClearTypeCodes("T2")
				case 4:
					_ = s.GroupSizeReport()
				case 5:
					s.RemoveEntry(groupName, "R0:;:D0")
				}
			}
		}(i)
	}

	wg.Wait()
}

func assertGroups(t *testing.T, s *Store, want ...string) {
	t.Helper()
	got := s.GroupNames()
	if len(got) != len(want) {
		t.Fatalf("GroupNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GroupNames() = %v, want %v", got, want)
		}
	}
}
