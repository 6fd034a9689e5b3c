package refdata

import (
	"strconv"
	"strings"
	"time"
)

// noneMarker stands in for an empty list in diagnostic strings.
const noneMarker = "NONE"

// StoreID identifies a Store instance for the lifetime of the process. It is
// non-zero and lets operators tell whether two log lines came from the same
// in-memory instance.
type StoreID uint32

// String returns the decimal form of the identifier.
func (id StoreID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ID returns the store identity.
func (s *Store) ID() StoreID {
	return s.id
}

// GroupNames returns the sorted names of all groups.
func (s *Store) GroupNames() []string {
	return s.groupNames()
}

// AllGroupNames returns the group names joined by commas, or NONE.
func (s *Store) AllGroupNames() string {
	return joinOrNone(s.groupNames())
}

// EntryKeys returns the sorted entry keys of a group, or nil when the group
// does not exist.
func (s *Store) EntryKeys(groupName string) []string {
	g, ok := s.group(groupName)
	if !ok {
		return nil
	}
	return g.keys()
}

// EntryKeysForGroup returns the entry keys of a group joined by commas, or
// NONE when the group is absent or empty.
func (s *Store) EntryKeysForGroup(groupName string) string {
	return joinOrNone(s.EntryKeys(groupName))
}

// GroupSizeReport lists every group with its entry count, bracketed by
// Start--<id> and End--<id> markers:
//
//	Start--<id>
//	COUNT-OF-KEYS-IN-MEMORY:<groups>
//	KEY:<name>||COUNT-OF-CODES-FOR-KEY-<name>:<size>
//	...
//	End--<id>
func (s *Store) GroupSizeReport() []string {
	sizes := s.groupSizes()
	id := s.id.String()
	records := make([]string, 0, len(sizes)+3)
	records = append(records, "Start--"+id)
	records = append(records, "COUNT-OF-KEYS-IN-MEMORY:"+strconv.Itoa(len(sizes)))
	for _, gs := range sizes {
		records = append(records, sizeRecord(gs, "COUNT-OF-CODES-FOR-KEY-"))
	}
	return append(records, "End--"+id)
}

// GroupDetailReport lists every group with its row count, without markers.
func (s *Store) GroupDetailReport() []string {
	sizes := s.groupSizes()
	records := make([]string, 0, len(sizes)+1)
	records = append(records, "COUNT-OF-KEYS-IN-MEMORY:"+strconv.Itoa(len(sizes)))
	for _, gs := range sizes {
		records = append(records, sizeRecord(gs, "NUMBER-OF-ROWS-FOR-KEY-"))
	}
	return records
}

// GroupSize is the entry count of one group.
type GroupSize struct {
	Name  string
	Count int
}

func (s *Store) groupSizes() []GroupSize {
	names := s.groupNames()
	sizes := make([]GroupSize, 0, len(names))
	for _, name := range names {
		g, ok := s.group(name)
		if !ok {
			// Removed since the snapshot was taken.
			continue
		}
		sizes = append(sizes, GroupSize{Name: name, Count: g.size()})
	}
	return sizes
}

func sizeRecord(gs GroupSize, label string) string {
	return "KEY" + wireKeyValueSep + gs.Name + wireFieldSep + label + gs.Name + wireKeyValueSep + strconv.Itoa(gs.Count)
}

// Stats summarises store contents at a point in time.
type Stats struct {
	StoreID StoreID `json:"store_id"`
	Groups  int     `json:"groups"`
	Entries int     `json:"entries"`

	// EmptyGroups counts groups marked known-empty.
	EmptyGroups int `json:"empty_groups"`

	// ExpiredGroups lists groups holding at least one expired entry.
	ExpiredGroups []string `json:"expired_groups,omitempty"`
}

// Stats computes a summary using the store clock.
func (s *Store) Stats() Stats {
	now := s.now()
	st := Stats{StoreID: s.id}
	for _, name := range s.groupNames() {
		g, ok := s.group(name)
		if !ok {
			continue
		}
		n := g.size()
		st.Groups++
		st.Entries += n
		if n == 0 {
			st.EmptyGroups++
		}
		if g.hasExpired(now) {
			st.ExpiredGroups = append(st.ExpiredGroups, name)
		}
	}
	return st
}

// Snapshot is the diagnostic context attached to validation failures.
type Snapshot struct {
	// GroupNames are all groups present when the snapshot was taken.
	GroupNames []string

	// Group is the group that was searched.
	Group string

	// EntryKeys are the keys of Group, nil when it was absent.
	EntryKeys []string

	StoreID StoreID
	TakenAt time.Time
}

// Snapshot captures diagnostics for groupName.
func (s *Store) Snapshot(groupName string) Snapshot {
	return Snapshot{
		GroupNames: s.groupNames(),
		Group:      groupName,
		EntryKeys:  s.EntryKeys(groupName),
		StoreID:    s.id,
		TakenAt:    s.now(),
	}
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return noneMarker
	}
	return strings.Join(items, ",")
}
