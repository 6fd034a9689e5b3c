package refdata

import (
	"strings"
	"testing"
	"time"
)

func TestStore_AllGroupNames(t *testing.T) {
	s := NewStore()
	if got := s.AllGroupNames(); got != "NONE" {
		t.Errorf("AllGroupNames() on empty store = %q, want NONE", got)
	}

	s.SetEntry("B:;:T", "k", "v", time.Time{})
	s.SetEmpty("A", "T")

	if got := s.AllGroupNames(); got != "A:;:T,B:;:T" {
		t.Errorf("AllGroupNames() = %q", got)
	}
}

func TestStore_EntryKeysForGroup(t *testing.T) {
	s := NewStore()
	s.SetEntry("G", "b", "v", time.Time{})
	s.SetEntry("G", "a", "v", time.Time{})
	s.SetEmpty("E", "T")

	tests := []struct {
		group string
		want  string
	}{
		{"G", "a,b"},
		{"E:;:T", "NONE"},
		{"missing", "NONE"},
	}

	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			if got := s.EntryKeysForGroup(tt.group); got != tt.want {
				t.Errorf("EntryKeysForGroup() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStore_GroupSizeReport(t *testing.T) {
	s := NewStore()
	s.SetEntry("dom:;:T1", "R1:;:D1", DirectionBoth, time.Time{})
	s.SetEntry("dom:;:T1", "R2:;:D2", DirectionBoth, time.Time{})
	s.SetEmpty(PrefixListRef, "T1")

	id := s.ID().String()
	want := []string{
		"Start--" + id,
		"COUNT-OF-KEYS-IN-MEMORY:2",
		"KEY:LISTREF:;:T1||COUNT-OF-CODES-FOR-KEY-LISTREF:;:T1:0",
		"KEY:dom:;:T1||COUNT-OF-CODES-FOR-KEY-dom:;:T1:2",
		"End--" + id,
	}

	got := s.GroupSizeReport()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("GroupSizeReport() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestStore_GroupSizeReport_Empty(t *testing.T) {
	s := NewStore()
	got := s.GroupSizeReport()
	if len(got) != 3 {
		t.Fatalf("GroupSizeReport() = %v, want markers and count only", got)
	}
	if got[1] != "COUNT-OF-KEYS-IN-MEMORY:0" {
		t.Errorf("count record = %q", got[1])
	}
}

func TestStore_GroupDetailReport(t *testing.T) {
	s := NewStore()
	s.SetEntry("G:;:T", "a", "v", time.Time{})

	want := []string{
		"COUNT-OF-KEYS-IN-MEMORY:1",
		"KEY:G:;:T||NUMBER-OF-ROWS-FOR-KEY-G:;:T:1",
	}
	got := s.GroupDetailReport()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("GroupDetailReport() = %v, want %v", got, want)
	}
}

func TestStore_Stats(t *testing.T) {
	clock := newFixedClock(testNow)
	s := newTestStore(clock)

	s.SetEntry("dom:;:T1", "a", "v", time.Time{})
	s.SetEntry("dom:;:T1", "b", "v", testNow.Add(-time.Minute))
	s.SetEntry("dom:;:T2", "a", "v", testNow.Add(time.Hour))
	s.SetEmpty(PrefixListRef, "T3")

	st := s.Stats()
	if st.Groups != 3 || st.Entries != 3 || st.EmptyGroups != 1 {
		t.Errorf("Stats() = %+v", st)
	}
	if len(st.ExpiredGroups) != 1 || st.ExpiredGroups[0] != "dom:;:T1" {
		t.Errorf("ExpiredGroups = %v", st.ExpiredGroups)
	}
	if st.StoreID != s.ID() {
		t.Errorf("StoreID = %v", st.StoreID)
	}
	if !s.HasGroup("dom:;:T1") {
		t.Error("Stats must not evict")
	}
}

func TestStoreID_String(t *testing.T) {
	if got := StoreID(42).String(); got != "42" {
		t.Errorf("String() = %q", got)
	}
}
