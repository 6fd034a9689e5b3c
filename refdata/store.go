package refdata

import (
	"math/rand/v2"
	"sort"
	"sync"
	"time"
)

// Entry is a value stored under a key inside a group.
type Entry struct {
	Value string

	// ExpiresAt is when the entry stops being valid. Zero means never.
	ExpiresAt time.Time
}

// Expired reports whether the entry has passed its expiration at now.
// An entry expiring exactly at now is still valid.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && e.ExpiresAt.Before(now)
}

// group is one named collection of entries with its own lock.
type group struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func newGroup() *group {
	return &group{entries: make(map[string]Entry)}
}

func (g *group) get(key string) (Entry, bool) {
	g.mu.RLock()
	e, ok := g.entries[key]
	g.mu.RUnlock()
	return e, ok
}

func (g *group) size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// keys returns a sorted snapshot of the entry keys.
func (g *group) keys() []string {
	g.mu.RLock()
	keys := make([]string, 0, len(g.entries))
	for k := range g.entries {
		keys = append(keys, k)
	}
	g.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func (g *group) hasExpired(now time.Time) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, e := range g.entries {
		if e.Expired(now) {
			return true
		}
	}
	return false
}

// Store is a two-level concurrent map: group name to entry key to Entry.
//
// Contract:
// - Concurrency: safe for concurrent use; writes to different groups do not
//   serialize behind each other.
// - Mutations are upserts and visible to all callers as soon as they return.
// - No expiration is checked on write and nothing is evicted in the background.
type Store struct {
	mu     sync.RWMutex
	groups map[string]*group

	id  StoreID
	now func() time.Time
	loc *time.Location
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used for expiration checks.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone used to parse expiration strings.
func WithLocation(loc *time.Location) StoreOption {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewStore creates an empty store with a fresh identity.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		groups: make(map[string]*group),
		id:     newStoreID(),
		now:    time.Now,
		loc:    time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newStoreID() StoreID {
	for {
		// #nosec G404 -- identifies an instance in logs, not a secret.
		if id := StoreID(rand.Uint32()); id != 0 {
			return id
		}
	}
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Location returns the time zone expiration strings are parsed in.
func (s *Store) Location() *time.Location {
	return s.loc
}

func (s *Store) group(name string) (*group, bool) {
	s.mu.RLock()
	g, ok := s.groups[name]
	s.mu.RUnlock()
	return g, ok
}

// groupOrCreate returns the named group, creating it when absent.
func (s *Store) groupOrCreate(name string) *group {
	if g, ok := s.group(name); ok {
		return g
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]
	if !ok {
		g = newGroup()
		s.groups[name] = g
	}
	return g
}

// SetEntry upserts one entry, creating the group if needed.
func (s *Store) SetEntry(groupName, key, value string, expiresAt time.Time) {
	g := s.groupOrCreate(groupName)
	g.mu.Lock()
	g.entries[key] = Entry{Value: value, ExpiresAt: expiresAt}
	g.mu.Unlock()
}

// SetEntries upserts entries positionally: keys[i] gets values[i] and
// expirations[i]. Nothing is written when the slices differ in length.
func (s *Store) SetEntries(groupName string, keys, values []string, expirations []time.Time) error {
	if len(keys) != len(values) || len(keys) != len(expirations) {
		return ErrLengthMismatch
	}
	g := s.groupOrCreate(groupName)
	g.mu.Lock()
	for i, key := range keys {
		g.entries[key] = Entry{Value: values[i], ExpiresAt: expirations[i]}
	}
	g.mu.Unlock()
	return nil
}

// RemoveEntry deletes one entry. Missing groups and keys are ignored.
func (s *Store) RemoveEntry(groupName, key string) {
	g, ok := s.group(groupName)
	if !ok {
		return
	}
	g.mu.Lock()
	delete(g.entries, key)
	g.mu.Unlock()
}

// Entry returns the raw entry without any expiration check.
func (s *Store) Entry(groupName, key string) (Entry, bool) {
	g, ok := s.group(groupName)
	if !ok {
		return Entry{}, false
	}
	return g.get(key)
}

// HasGroup reports whether the named group exists, empty or not.
func (s *Store) HasGroup(groupName string) bool {
	_, ok := s.group(groupName)
	return ok
}

// Clear drops every group.
func (s *Store) Clear() {
	s.mu.Lock()
	s.groups = make(map[string]*group)
	s.mu.Unlock()
}

// ClearTypeCodes removes every group whose name ends with :;:<typecode> for
// any of the typecodes, under any prefix.
func (s *Store) ClearTypeCodes(typecodes ...string) {
	names := s.groupNames()
	var doomed []string
	for _, tc := range typecodes {
		for _, name := range names {
			if hasTypeCodeSuffix(name, tc) {
				doomed = append(doomed, name)
			}
		}
	}
	s.removeGroups(doomed)
}

// ClearPrefix removes the groups named exactly <prefix>:;:<typecode>.
func (s *Store) ClearPrefix(prefix string, typecodes ...string) {
	doomed := make([]string, 0, len(typecodes))
	for _, tc := range typecodes {
		doomed = append(doomed, GroupKey{Prefix: prefix, TypeCode: tc}.String())
	}
	s.removeGroups(doomed)
}

// SetEmpty replaces the groups <prefix>:;:<typecode> with empty ones. An
// empty group marks a typecode as known but currently without values.
func (s *Store) SetEmpty(prefix string, typecodes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tc := range typecodes {
		s.groups[GroupKey{Prefix: prefix, TypeCode: tc}.String()] = newGroup()
	}
}

func (s *Store) removeGroups(names []string) {
	if len(names) == 0 {
		return
	}
	s.mu.Lock()
	for _, name := range names {
		delete(s.groups, name)
	}
	s.mu.Unlock()
}

// evictExpired removes each named group that still holds an entry expired at
// now. It returns the names actually removed.
func (s *Store) evictExpired(names []string, now time.Time) []string {
	if len(names) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := make([]string, 0, len(names))
	for _, name := range names {
		g, ok := s.groups[name]
		if !ok || !g.hasExpired(now) {
			continue
		}
		delete(s.groups, name)
		evicted = append(evicted, name)
	}
	return evicted
}

// groupNames returns a sorted snapshot of the group names.
func (s *Store) groupNames() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.groups))
	for name := range s.groups {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return names
}
