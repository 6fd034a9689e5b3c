package loader

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jonwraymond/refdataops/refdata"
)

// XRef is one cross-reference row.
type XRef struct {
	Domain     string `json:"domain"`
	TypeCode   string `json:"typecode"`
	RLCode     string `json:"rl_code"`
	DomainCode string `json:"domain_code"`
	Direction  string `json:"direction"`
	Expiration string `json:"expiration,omitempty"`
}

// ListRef is one list-reference row.
type ListRef struct {
	TypeCode   string `json:"typecode"`
	Code       string `json:"code"`
	Value      string `json:"value"`
	Expiration string `json:"expiration,omitempty"`
}

// Extended is the extended attribute of one typecode.
type Extended struct {
	TypeCode   string `json:"typecode"`
	Value      string `json:"value"`
	Expiration string `json:"expiration,omitempty"`
}

// Dataset is a batch of rows. Expirations use refdata.ExpirationLayout;
// empty means no expiration.
type Dataset struct {
	XRefs    []XRef     `json:"xrefs,omitempty"`
	ListRefs []ListRef  `json:"listrefs,omitempty"`
	Extended []Extended `json:"extended,omitempty"`
}

// Len is the total row count.
func (d *Dataset) Len() int {
	return len(d.XRefs) + len(d.ListRefs) + len(d.Extended)
}

// Validate parses every expiration in loc and reports the first bad row.
func (d *Dataset) Validate(loc *time.Location) error {
	for i, r := range d.XRefs {
		if _, err := refdata.ParseExpiration(r.Expiration, loc); err != nil {
			return fmt.Errorf("xref row %d: %w", i, err)
		}
	}
	for i, r := range d.ListRefs {
		if _, err := refdata.ParseExpiration(r.Expiration, loc); err != nil {
			return fmt.Errorf("listref row %d: %w", i, err)
		}
	}
	for i, r := range d.Extended {
		if _, err := refdata.ParseExpiration(r.Expiration, loc); err != nil {
			return fmt.Errorf("extended row %d: %w", i, err)
		}
	}
	return nil
}

// Filter returns the rows whose typecode is in typecodes. An empty list
// keeps every row.
func (d *Dataset) Filter(typecodes []string) *Dataset {
	if len(typecodes) == 0 {
		return d
	}
	keep := func(tc string) bool { return slices.Contains(typecodes, tc) }

	out := &Dataset{}
	for _, r := range d.XRefs {
		if keep(r.TypeCode) {
			out.XRefs = append(out.XRefs, r)
		}
	}
	for _, r := range d.ListRefs {
		if keep(r.TypeCode) {
			out.ListRefs = append(out.ListRefs, r)
		}
	}
	for _, r := range d.Extended {
		if keep(r.TypeCode) {
			out.Extended = append(out.Extended, r)
		}
	}
	return out
}

// Apply writes the dataset into store through the bulk loaders. Call
// Validate first when partial writes must be avoided.
func (d *Dataset) Apply(store *refdata.Store) error {
	if n := len(d.XRefs); n > 0 {
		domains := make([]string, n)
		typecodes := make([]string, n)
		rlCodes := make([]string, n)
		domainCodes := make([]string, n)
		directions := make([]string, n)
		expirations := make([]string, n)
		for i, r := range d.XRefs {
			domains[i], typecodes[i] = r.Domain, r.TypeCode
			rlCodes[i], domainCodes[i] = r.RLCode, r.DomainCode
			directions[i], expirations[i] = r.Direction, r.Expiration
		}
		if err := store.SetXRefEntries(domains, typecodes, rlCodes, domainCodes, directions, expirations); err != nil {
			return fmt.Errorf("load xrefs: %w", err)
		}
	}

	if n := len(d.ListRefs); n > 0 {
		typecodes := make([]string, n)
		codes := make([]string, n)
		values := make([]string, n)
		expirations := make([]string, n)
		for i, r := range d.ListRefs {
			typecodes[i], codes[i], values[i], expirations[i] = r.TypeCode, r.Code, r.Value, r.Expiration
		}
		if err := store.SetListRefEntries(typecodes, codes, values, expirations); err != nil {
			return fmt.Errorf("load listrefs: %w", err)
		}
	}

	for _, r := range d.Extended {
		exp, err := refdata.ParseExpiration(r.Expiration, store.Location())
		if err != nil {
			return fmt.Errorf("load extended %s: %w", r.TypeCode, err)
		}
		store.SetExtendedEntry(r.TypeCode, r.Value, exp)
	}
	return nil
}

// listRefTypeCodes returns the distinct typecodes with list-reference rows.
func (d *Dataset) listRefTypeCodes() map[string]bool {
	seen := make(map[string]bool, len(d.ListRefs))
	for _, r := range d.ListRefs {
		seen[r.TypeCode] = true
	}
	return seen
}

// Source supplies reference data.
//
// Contract:
// - Concurrency: Fetch may be called concurrently.
// - Context: Fetch must honor cancellation.
// - Fetch with no typecodes returns everything the source has.
type Source interface {
	Name() string
	Fetch(ctx context.Context, typecodes []string) (*Dataset, error)
}

// StaticSource serves a fixed in-memory Dataset.
type StaticSource struct {
	name string
	data *Dataset
}

// NewStaticSource creates a StaticSource over data.
func NewStaticSource(name string, data *Dataset) *StaticSource {
	if data == nil {
		data = &Dataset{}
	}
	return &StaticSource{name: name, data: data}
}

func (s *StaticSource) Name() string { return s.name }

func (s *StaticSource) Fetch(ctx context.Context, typecodes []string) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.data.Filter(typecodes), nil
}
