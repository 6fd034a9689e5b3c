package refdata

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors.
var (
	// ErrRefData is the root of every reference-data error.
	ErrRefData = errors.New("refdata: reference data error")

	// ErrCodeNotFound indicates a code failed validation for its typecode.
	ErrCodeNotFound = errors.New("refdata: code not found")

	// ErrLengthMismatch indicates positional bulk-load slices of unequal length.
	ErrLengthMismatch = errors.New("refdata: bulk load slices differ in length")

	// ErrInvalidExpiration indicates an expiration string that does not match
	// ExpirationLayout.
	ErrInvalidExpiration = errors.New("refdata: invalid expiration")
)

// Wire format constants.
const (
	wireMarker       = "@@@"
	wirePrefix       = "REFDATAERROR:"
	wireFieldSep     = "||"
	wireKeyValueSep  = ":"
	errorCodeInvalid = "400"
	exceptionInvalid = "INVALID-REFERENCEDATA"
)

// WireField is one KEY:VALUE pair of a wire error string.
type WireField struct {
	Key   string
	Value string
}

// FormatWire renders the operator error format:
//
//	@@@REFDATAERROR:<CODE>:<MESSAGE>||<KEY1>:<VAL1>||...@@@
//
// code and every field key are upper-cased; values are written verbatim.
func FormatWire(code, message string, fields ...WireField) string {
	var b strings.Builder
	b.WriteString(wireMarker)
	b.WriteString(wirePrefix)
	b.WriteString(strings.ToUpper(code))
	b.WriteString(wireKeyValueSep)
	b.WriteString(message)
	b.WriteString(wireFieldSep)
	for i, f := range fields {
		if i > 0 {
			b.WriteString(wireFieldSep)
		}
		b.WriteString(strings.ToUpper(f.Key))
		b.WriteString(wireKeyValueSep)
		b.WriteString(f.Value)
	}
	b.WriteString(wireMarker)
	return b.String()
}

// WireError is implemented by errors that have a wire rendering.
type WireError interface {
	error
	WireString() string
}

// WireString returns the wire rendering of err, or "" when no error in the
// chain has one. Callers reporting a failed lookup must use it rather than
// err.Error(), which is a short message without the diagnostic fields. Field
// keys are upper-cased in the rendering; values, typecodes and codes
// included, are written as given.
func WireString(err error) string {
	var we WireError
	if errors.As(err, &we) {
		return we.WireString()
	}
	return ""
}

// NotFoundError reports a code that failed validation, with a snapshot of
// the store taken at failure time.
type NotFoundError struct {
	TypeCode string
	Code     string
	Snapshot Snapshot
}

// Error returns a short human-readable message.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("refdata: code %q not found for typecode %q", e.Code, e.TypeCode)
}

// Is matches ErrCodeNotFound and ErrRefData.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrCodeNotFound || target == ErrRefData
}

// WireFields returns the error code, message and ordered fields of the wire
// rendering.
func (e *NotFoundError) WireFields() (code, message string, fields []WireField) {
	return "errorCode", errorCodeInvalid, []WireField{
		{Key: "exceptionCode", Value: exceptionInvalid},
		{Key: "typeCode", Value: e.TypeCode},
		{Key: "code", Value: e.Code},
		{Key: "REFDATA-KEYS-IN-MEMORY", Value: joinOrNone(e.Snapshot.GroupNames)},
		{Key: "CODES-FOR-KEY-" + e.TypeCode, Value: joinOrNone(e.Snapshot.EntryKeys)},
		{Key: "MAP-HASHCODE", Value: e.Snapshot.StoreID.String()},
	}
}

// WireString renders the error in the operator wire format.
func (e *NotFoundError) WireString() string {
	code, message, fields := e.WireFields()
	return FormatWire(code, message, fields...)
}

var _ WireError = (*NotFoundError)(nil)
