package refdata

import "strings"

// Delimiter joins the halves of group names and cross-reference keys.
// Codes must never contain it; this is not checked at runtime.
const Delimiter = ":;:"

// Reserved group prefixes.
const (
	PrefixListRef  = "LISTREF"
	PrefixExtended = "EXTENDED"
)

// GroupKey addresses a group of entries.
type GroupKey struct {
	// Prefix is a domain name, PrefixListRef or PrefixExtended.
	Prefix   string
	TypeCode string
}

// String returns the group name as stored: <prefix>:;:<typecode>.
func (k GroupKey) String() string {
	return k.Prefix + Delimiter + k.TypeCode
}

// ParseGroupKey splits a group name at the first delimiter.
func ParseGroupKey(name string) (GroupKey, bool) {
	prefix, typecode, ok := strings.Cut(name, Delimiter)
	if !ok {
		return GroupKey{}, false
	}
	return GroupKey{Prefix: prefix, TypeCode: typecode}, true
}

// ListRefGroup returns the list-reference group for typecode.
func ListRefGroup(typecode string) GroupKey {
	return GroupKey{Prefix: PrefixListRef, TypeCode: typecode}
}

// ExtendedGroup returns the extended-attribute group for typecode.
func ExtendedGroup(typecode string) GroupKey {
	return GroupKey{Prefix: PrefixExtended, TypeCode: typecode}
}

// CrossRefKey addresses one translation pair inside a cross-reference group.
type CrossRefKey struct {
	RLCode     string
	DomainCode string
}

// String returns the entry key as stored: <rlCode>:;:<domainCode>.
func (k CrossRefKey) String() string {
	return k.RLCode + Delimiter + k.DomainCode
}

// ParseCrossRefKey splits an entry key at the first delimiter.
func ParseCrossRefKey(key string) (CrossRefKey, bool) {
	rl, domain, ok := strings.Cut(key, Delimiter)
	if !ok {
		return CrossRefKey{}, false
	}
	return CrossRefKey{RLCode: rl, DomainCode: domain}, true
}

// domainCodeFor returns the domain half of key when key starts with
// rlCode followed by the delimiter.
func domainCodeFor(key, rlCode string) (string, bool) {
	return strings.CutPrefix(key, rlCode+Delimiter)
}

// rlCodeFor returns the RL half of key when key ends with the delimiter
// followed by domainCode.
func rlCodeFor(key, domainCode string) (string, bool) {
	return strings.CutSuffix(key, Delimiter+domainCode)
}

// hasTypeCodeSuffix reports whether a group name belongs to typecode under
// any prefix.
func hasTypeCodeSuffix(name, typecode string) bool {
	return strings.HasSuffix(name, Delimiter+typecode)
}
