package refdata

import (
	"errors"
	"testing"
	"time"
)

func TestParseExpiration(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr bool
	}{
		{"valid", "2999-01-01 00:00:00", time.Date(2999, 1, 1, 0, 0, 0, 0, time.UTC), false},
		{"with seconds", "2026-03-01 12:30:45", time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC), false},
		{"empty means none", "", time.Time{}, false},
		{"date only", "2026-03-01", time.Time{}, true},
		{"iso format", "2026-03-01T12:00:00Z", time.Time{}, true},
		{"garbage", "tomorrow", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExpiration(tt.value, time.UTC)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidExpiration) {
					t.Fatalf("ParseExpiration() error = %v, want ErrInvalidExpiration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseExpiration() error = %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseExpiration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStore_SetXRefEntries(t *testing.T) {
	s := NewStore(WithLocation(time.UTC))

	err := s.SetXRefEntries(
		[]string{"XSON", "XSON"},
		[]string{"ACTY", "ACTY"},
		[]string{"R1", "R2"},
		[]string{"D1", "D2"},
		[]string{DirectionIn, DirectionOut},
		[]string{"2999-01-01 00:00:00", ""},
	)
	if err != nil {
		t.Fatalf("SetXRefEntries() error = %v", err)
	}

	entry, ok := s.Entry("XSON:;:ACTY", "R1:;:D1")
	if !ok || entry.Value != DirectionIn {
		t.Fatalf("Entry(R1:;:D1) = %+v, %v", entry, ok)
	}
	if entry.ExpiresAt.Year() != 2999 {
		t.Errorf("ExpiresAt = %v", entry.ExpiresAt)
	}
	if entry, _ := s.Entry("XSON:;:ACTY", "R2:;:D2"); !entry.ExpiresAt.IsZero() {
		t.Errorf("empty expiration should be zero, got %v", entry.ExpiresAt)
	}
}

func TestStore_SetXRefEntries_ParseErrorWritesNothing(t *testing.T) {
	s := NewStore()

	err := s.SetXRefEntries(
		[]string{"XSON", "XSON"},
		[]string{"ACTY", "ACTY"},
		[]string{"R1", "R2"},
		[]string{"D1", "D2"},
		[]string{DirectionBoth, DirectionBoth},
		[]string{"2999-01-01 00:00:00", "01/01/2999"},
	)
	if !errors.Is(err, ErrInvalidExpiration) {
		t.Fatalf("SetXRefEntries() error = %v, want ErrInvalidExpiration", err)
	}
	if s.HasGroup("XSON:;:ACTY") {
		t.Error("no rows should be written when any expiration fails to parse")
	}
}

func TestStore_SetXRefEntries_LengthMismatch(t *testing.T) {
	s := NewStore()
	err := s.SetXRefEntries([]string{"d"}, []string{"t"}, []string{"r"}, []string{"c"}, nil, []string{""})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("SetXRefEntries() error = %v, want ErrLengthMismatch", err)
	}
}

func TestStore_SetListRefEntries(t *testing.T) {
	s := NewStore()
	e := NewEngine(s)

	err := s.SetListRefEntries(
		[]string{"PRDT", "PRDT", "CHNL"},
		[]string{"P1", "P2", "WEB"},
		[]string{"Pension", "ISA", "Online"},
		[]string{"2999-01-01 00:00:00", "2999-01-01 00:00:00", ""},
	)
	if err != nil {
		t.Fatalf("SetListRefEntries() error = %v", err)
	}

	if got := e.FindEntry(ListRefGroup("PRDT").String(), "P2"); got != "ISA" {
		t.Errorf("FindEntry() = %q, want ISA", got)
	}
	if _, err := e.ValidateCode("CHNL", "WEB"); err != nil {
		t.Errorf("ValidateCode() error = %v", err)
	}
}

func TestStore_SetListRefEntries_Errors(t *testing.T) {
	s := NewStore()

	if err := s.SetListRefEntries([]string{"T"}, []string{"C"}, []string{"V"}, []string{"bad"}); !errors.Is(err, ErrInvalidExpiration) {
		t.Errorf("parse error = %v", err)
	}
	if err := s.SetListRefEntries([]string{"T"}, []string{"C", "D"}, []string{"V"}, []string{""}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("length error = %v", err)
	}
}
