package refdata

import (
	"context"
	"strings"

	"github.com/jonwraymond/refdataops/observe"
)

// Direction flags stored as the value of cross-reference entries.
const (
	DirectionIn   = "XIN"  // domain code to RL code only
	DirectionOut  = "XOUT" // RL code to domain code only
	DirectionBoth = "XBTH" // both ways
)

// allowsOut reports whether a direction flag permits RL to domain translation.
func allowsOut(flag string) bool {
	return strings.HasSuffix(flag, DirectionOut) || strings.HasSuffix(flag, DirectionBoth)
}

// allowsIn reports whether a direction flag permits domain to RL translation.
func allowsIn(flag string) bool {
	return strings.HasSuffix(flag, DirectionIn) || strings.HasSuffix(flag, DirectionBoth)
}

// Engine answers validation and translation queries against a Store.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Errors: validation misses return *NotFoundError; plain fetches never error.
type Engine struct {
	store   *Store
	logger  observe.Logger
	metrics observe.Metrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for evictions and validation misses.
func WithLogger(l observe.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the recorder for group evictions.
func WithMetrics(m observe.Metrics) EngineOption {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// NewEngine creates an engine over store.
func NewEngine(store *Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   store,
		logger:  observe.NopLogger(),
		metrics: observe.NopMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() *Store {
	return e.store
}

// FindTypeCodes returns the typecodes whose group <prefix>:;:<typecode> is
// present and valid, in request order.
//
// A missing group is dropped. An empty group is valid. A group with any
// expired entry is invalid and is removed from the store before returning.
func (e *Engine) FindTypeCodes(prefix string, typecodes ...string) []string {
	now := e.store.now()
	valid := make([]string, 0, len(typecodes))
	var invalid []string

	for _, tc := range typecodes {
		name := GroupKey{Prefix: prefix, TypeCode: tc}.String()
		g, ok := e.store.group(name)
		if !ok {
			continue
		}
		if g.hasExpired(now) {
			invalid = append(invalid, name)
			continue
		}
		valid = append(valid, tc)
	}

	if evicted := e.store.evictExpired(invalid, now); len(evicted) > 0 {
		ctx := context.Background()
		e.metrics.RecordEvictions(ctx, prefix, len(evicted))
		e.logger.Info(ctx, "evicted expired reference data groups",
			observe.Field{Key: "groups", Value: evicted},
			observe.Field{Key: "store_id", Value: e.store.id.String()},
		)
	}
	return valid
}

// DomainCode translates rlCode to its domain code using group
// <domain>:;:<typecode>. Only entries flagged XOUT or XBTH qualify.
//
// Without a qualifying entry the call falls back to ValidateCode(typecode,
// rlCode): it returns rlCode unchanged when rlCode is a valid list-reference
// code and a *NotFoundError otherwise.
func (e *Engine) DomainCode(domain, typecode, rlCode string) (string, error) {
	name := GroupKey{Prefix: domain, TypeCode: typecode}.String()
	if g, ok := e.store.group(name); ok {
		for _, key := range g.keys() {
			dc, ok := domainCodeFor(key, rlCode)
			if !ok {
				continue
			}
			if entry, ok := g.get(key); ok && allowsOut(entry.Value) {
				return dc, nil
			}
		}
	}
	return e.ValidateCode(typecode, rlCode)
}

// RLCode translates domainCode to its RL code using group
// <domain>:;:<typecode>. Only entries flagged XIN or XBTH qualify. The
// fallback matches DomainCode.
func (e *Engine) RLCode(domain, typecode, domainCode string) (string, error) {
	name := GroupKey{Prefix: domain, TypeCode: typecode}.String()
	if g, ok := e.store.group(name); ok {
		for _, key := range g.keys() {
			rl, ok := rlCodeFor(key, domainCode)
			if !ok {
				continue
			}
			if entry, ok := g.get(key); ok && allowsIn(entry.Value) {
				return rl, nil
			}
		}
	}
	return e.ValidateCode(typecode, domainCode)
}

// ValidateCode checks code against group LISTREF:;:<typecode> and returns it
// unchanged when present and not expired. Otherwise it returns a
// *NotFoundError carrying a diagnostic snapshot.
func (e *Engine) ValidateCode(typecode, code string) (string, error) {
	name := ListRefGroup(typecode).String()
	if entry, ok := e.store.Entry(name, code); ok && !entry.Expired(e.store.now()) {
		return code, nil
	}

	err := &NotFoundError{
		TypeCode: typecode,
		Code:     code,
		Snapshot: e.store.Snapshot(name),
	}
	e.logger.Warn(context.Background(), "reference data code not found",
		observe.Field{Key: "typecode", Value: typecode},
		observe.Field{Key: "code", Value: code},
		observe.Field{Key: "store_id", Value: e.store.id.String()},
	)
	return "", err
}

// FindEntry returns the raw value stored under code in the named group, or
// "" when either is missing. No expiration check is made.
func (e *Engine) FindEntry(groupName, code string) string {
	entry, ok := e.store.Entry(groupName, code)
	if !ok {
		return ""
	}
	return entry.Value
}

// ExtendedEntry returns the extended attribute for typecode when it exists
// and has not expired.
func (e *Engine) ExtendedEntry(typecode string) (string, bool) {
	entry, ok := e.store.Entry(ExtendedGroup(typecode).String(), typecode)
	if !ok || entry.Expired(e.store.now()) {
		return "", false
	}
	return entry.Value, true
}

// ValidateDomain reports whether the cross-reference group
// <domain>:;:<typecode> is loaded.
func (e *Engine) ValidateDomain(domain, typecode string) bool {
	return e.store.HasGroup(GroupKey{Prefix: domain, TypeCode: typecode}.String())
}
