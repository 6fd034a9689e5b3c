package refdata

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormatWire(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		message string
		fields  []WireField
		want    string
	}{
		{
			name:    "no fields",
			code:    "errorCode",
			message: "500",
			want:    "@@@REFDATAERROR:ERRORCODE:500||@@@",
		},
		{
			name:    "keys upper-cased, values verbatim",
			code:    "errorCode",
			message: "400",
			fields: []WireField{
				{Key: "typeCode", Value: "abc"},
				{Key: "code", Value: "x,y"},
			},
			want: "@@@REFDATAERROR:ERRORCODE:400||TYPECODE:abc||CODE:x,y@@@",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatWire(tt.code, tt.message, tt.fields...); got != tt.want {
				t.Errorf("FormatWire() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundError_Is(t *testing.T) {
	err := error(&NotFoundError{TypeCode: "tc", Code: "c"})

	if !errors.Is(err, ErrCodeNotFound) {
		t.Error("errors.Is(err, ErrCodeNotFound) = false")
	}
	if !errors.Is(err, ErrRefData) {
		t.Error("errors.Is(err, ErrRefData) = false")
	}
	if errors.Is(err, ErrLengthMismatch) {
		t.Error("errors.Is(err, ErrLengthMismatch) = true")
	}
}

func TestNotFoundError_Message(t *testing.T) {
	err := &NotFoundError{TypeCode: "tc", Code: "c"}
	want := `refdata: code "c" not found for typecode "tc"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWireString(t *testing.T) {
	nf := &NotFoundError{TypeCode: "tc", Code: "c", Snapshot: Snapshot{StoreID: 7}}
	wrapped := fmt.Errorf("lookup: %w", nf)

	if got := WireString(wrapped); got != nf.WireString() {
		t.Errorf("WireString(wrapped) = %q", got)
	}
	if got := WireString(errors.New("plain")); got != "" {
		t.Errorf("WireString(plain) = %q, want empty", got)
	}
}
