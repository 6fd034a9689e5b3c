package refdata

import (
	"fmt"
	"time"
)

// ExpirationLayout is the layout of expiration strings (yyyy-MM-dd HH:mm:ss).
const ExpirationLayout = "2006-01-02 15:04:05"

// ParseExpiration parses an expiration string in loc. An empty string means
// no expiration and yields the zero time.
func ParseExpiration(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(ExpirationLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidExpiration, value, err)
	}
	return t, nil
}

func (s *Store) parseExpirations(values []string) ([]time.Time, error) {
	out := make([]time.Time, len(values))
	for i, v := range values {
		t, err := ParseExpiration(v, s.loc)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

func sameLength(n int, slices ...[]string) bool {
	for _, s := range slices {
		if len(s) != n {
			return false
		}
	}
	return true
}

// SetXRefEntries loads cross-reference rows. Row i stores direction[i] under
// key rlCodes[i]:;:domainCodes[i] in group domains[i]:;:typecodes[i].
//
// All expirations are parsed before anything is written; a malformed value
// fails the whole call.
func (s *Store) SetXRefEntries(domains, typecodes, rlCodes, domainCodes, directions, expirations []string) error {
	if !sameLength(len(expirations), domains, typecodes, rlCodes, domainCodes, directions) {
		return ErrLengthMismatch
	}
	exps, err := s.parseExpirations(expirations)
	if err != nil {
		return err
	}
	for i := range exps {
		groupName := GroupKey{Prefix: domains[i], TypeCode: typecodes[i]}.String()
		key := CrossRefKey{RLCode: rlCodes[i], DomainCode: domainCodes[i]}.String()
		s.SetEntry(groupName, key, directions[i], exps[i])
	}
	return nil
}

// SetListRefEntries loads list-reference rows: values[i] is stored under
// codes[i] in group LISTREF:;:typecodes[i].
func (s *Store) SetListRefEntries(typecodes, codes, values, expirations []string) error {
	if !sameLength(len(expirations), typecodes, codes, values) {
		return ErrLengthMismatch
	}
	exps, err := s.parseExpirations(expirations)
	if err != nil {
		return err
	}
	for i := range exps {
		s.SetEntry(ListRefGroup(typecodes[i]).String(), codes[i], values[i], exps[i])
	}
	return nil
}

// SetExtendedEntry stores the single extended attribute for typecode.
func (s *Store) SetExtendedEntry(typecode, value string, expiresAt time.Time) {
	s.SetEntry(ExtendedGroup(typecode).String(), typecode, value, expiresAt)
}
