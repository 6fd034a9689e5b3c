package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jonwraymond/refdataops/loader"
)

func openTempSource(t *testing.T) *Source {
	t.Helper()
	src, err := Open(context.Background(), filepath.Join(t.TempDir(), "refdata.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenTwiceKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "refdata.db")

	src, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := src.PutListRef(ctx, loader.ListRef{TypeCode: "COUNTRY", Code: "US", Value: "United States"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	_ = src.Close()

	src, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer src.Close()

	ds, err := src.Fetch(ctx, nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(ds.ListRefs) != 1 {
		t.Fatalf("listrefs = %d, want 1", len(ds.ListRefs))
	}
}

func TestPutAndFetch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := openTempSource(t)

	err := src.Put(ctx, &loader.Dataset{
		XRefs: []loader.XRef{
			{Domain: "GEO", TypeCode: "COUNTRY", RLCode: "US", DomainCode: "840", Direction: "XBTH"},
			{Domain: "GEO", TypeCode: "CURRENCY", RLCode: "USD", DomainCode: "840", Direction: "XOUT", Expiration: "2030-01-01 00:00:00"},
		},
		ListRefs: []loader.ListRef{
			{TypeCode: "COUNTRY", Code: "US", Value: "United States"},
			{TypeCode: "COUNTRY", Code: "CA", Value: "Canada"},
			{TypeCode: "CURRENCY", Code: "USD", Value: "Dollar"},
		},
		Extended: []loader.Extended{{TypeCode: "COUNTRY", Value: "iso-3166"}},
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	ds, err := src.Fetch(ctx, []string{"COUNTRY"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(ds.XRefs) != 1 || ds.XRefs[0].DomainCode != "840" || ds.XRefs[0].Direction != "XBTH" {
		t.Errorf("xrefs = %+v", ds.XRefs)
	}
	if len(ds.ListRefs) != 2 || ds.ListRefs[0].Code != "CA" {
		t.Errorf("listrefs = %+v", ds.ListRefs)
	}
	if len(ds.Extended) != 1 || ds.Extended[0].Value != "iso-3166" {
		t.Errorf("extended = %+v", ds.Extended)
	}

	all, err := src.Fetch(ctx, nil)
	if err != nil {
		t.Fatalf("fetch all: %v", err)
	}
	if all.Len() != 6 {
		t.Errorf("Len() = %d, want 6", all.Len())
	}
}

func TestPutUpserts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := openTempSource(t)

	if err := src.PutListRef(ctx, loader.ListRef{TypeCode: "COUNTRY", Code: "US", Value: "USA"}); err != nil {
		t.Fatal(err)
	}
	if err := src.PutListRef(ctx, loader.ListRef{TypeCode: "COUNTRY", Code: "US", Value: "United States", Expiration: "2030-01-01 00:00:00"}); err != nil {
		t.Fatal(err)
	}
	if err := src.PutExtended(ctx, loader.Extended{TypeCode: "COUNTRY", Value: "a"}, loader.Extended{TypeCode: "COUNTRY", Value: "b"}); err != nil {
		t.Fatal(err)
	}

	ds, err := src.Fetch(ctx, []string{"COUNTRY"})
	if err != nil {
		t.Fatal(err)
	}
	if len(ds.ListRefs) != 1 || ds.ListRefs[0].Value != "United States" || ds.ListRefs[0].Expiration != "2030-01-01 00:00:00" {
		t.Errorf("listrefs = %+v", ds.ListRefs)
	}
	if len(ds.Extended) != 1 || ds.Extended[0].Value != "b" {
		t.Errorf("extended = %+v", ds.Extended)
	}
}

func TestUpSection(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "no markers", in: "CREATE TABLE t (a);", want: "CREATE TABLE t (a);"},
		{name: "up and down", in: "-- +migrate Up\nCREATE;\n-- +migrate Down\nDROP;", want: "\nCREATE;\n"},
		{name: "up only", in: "-- +migrate Up\nCREATE;", want: "\nCREATE;"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := upSection(tc.in); got != tc.want {
				t.Errorf("upSection() = %q, want %q", got, tc.want)
			}
		})
	}
}
