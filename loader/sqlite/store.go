// Package sqlite is a loader.Source backed by a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/jonwraymond/refdataops/loader"
	"github.com/jonwraymond/refdataops/loader/sqlite/migrations"
)

// Source reads reference data from the xref, listref and extended tables.
type Source struct {
	db *sql.DB
}

// Open opens the database at path and applies embedded migrations.
func Open(ctx context.Context, path string) (*Source, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Source{db: db}, nil
}

// Close closes the database.
func (s *Source) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Source) Name() string { return "sqlite" }

// Ping checks the connection.
func (s *Source) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Fetch reads the rows for typecodes, or every row when typecodes is empty.
func (s *Source) Fetch(ctx context.Context, typecodes []string) (*loader.Dataset, error) {
	where, args := typecodeFilter(typecodes)
	ds := &loader.Dataset{}

	rows, err := s.db.QueryContext(ctx,
		`SELECT domain, typecode, rl_code, domain_code, direction, expiration FROM xref`+where+
			` ORDER BY domain, typecode, rl_code, domain_code`, args...)
	if err != nil {
		return nil, fmt.Errorf("query xref: %w", err)
	}
	for rows.Next() {
		var r loader.XRef
		if err := rows.Scan(&r.Domain, &r.TypeCode, &r.RLCode, &r.DomainCode, &r.Direction, &r.Expiration); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan xref: %w", err)
		}
		ds.XRefs = append(ds.XRefs, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("read xref: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT typecode, code, value, expiration FROM listref`+where+` ORDER BY typecode, code`, args...)
	if err != nil {
		return nil, fmt.Errorf("query listref: %w", err)
	}
	for rows.Next() {
		var r loader.ListRef
		if err := rows.Scan(&r.TypeCode, &r.Code, &r.Value, &r.Expiration); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan listref: %w", err)
		}
		ds.ListRefs = append(ds.ListRefs, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("read listref: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT typecode, value, expiration FROM extended`+where+` ORDER BY typecode`, args...)
	if err != nil {
		return nil, fmt.Errorf("query extended: %w", err)
	}
	for rows.Next() {
		var r loader.Extended
		if err := rows.Scan(&r.TypeCode, &r.Value, &r.Expiration); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan extended: %w", err)
		}
		ds.Extended = append(ds.Extended, r)
	}
	if err := closeRows(rows); err != nil {
		return nil, fmt.Errorf("read extended: %w", err)
	}

	return ds, nil
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}

func typecodeFilter(typecodes []string) (string, []any) {
	if len(typecodes) == 0 {
		return "", nil
	}
	args := make([]any, len(typecodes))
	for i, tc := range typecodes {
		args[i] = tc
	}
	return ` WHERE typecode IN (?` + strings.Repeat(`, ?`, len(typecodes)-1) + `)`, args
}

// PutXRef upserts cross-reference rows in one transaction.
func (s *Source) PutXRef(ctx context.Context, rows ...loader.XRef) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO xref (domain, typecode, rl_code, domain_code, direction, expiration)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT (domain, typecode, rl_code, domain_code)
				 DO UPDATE SET direction = excluded.direction, expiration = excluded.expiration`,
				r.Domain, r.TypeCode, r.RLCode, r.DomainCode, r.Direction, r.Expiration,
			); err != nil {
				return fmt.Errorf("put xref %s/%s: %w", r.Domain, r.TypeCode, err)
			}
		}
		return nil
	})
}

// PutListRef upserts list-reference rows in one transaction.
func (s *Source) PutListRef(ctx context.Context, rows ...loader.ListRef) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO listref (typecode, code, value, expiration) VALUES (?, ?, ?, ?)
				 ON CONFLICT (typecode, code)
				 DO UPDATE SET value = excluded.value, expiration = excluded.expiration`,
				r.TypeCode, r.Code, r.Value, r.Expiration,
			); err != nil {
				return fmt.Errorf("put listref %s/%s: %w", r.TypeCode, r.Code, err)
			}
		}
		return nil
	})
}

// PutExtended upserts extended attributes in one transaction.
func (s *Source) PutExtended(ctx context.Context, rows ...loader.Extended) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, r := range rows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO extended (typecode, value, expiration) VALUES (?, ?, ?)
				 ON CONFLICT (typecode)
				 DO UPDATE SET value = excluded.value, expiration = excluded.expiration`,
				r.TypeCode, r.Value, r.Expiration,
			); err != nil {
				return fmt.Errorf("put extended %s: %w", r.TypeCode, err)
			}
		}
		return nil
	})
}

// Put writes a whole dataset, one transaction per table.
func (s *Source) Put(ctx context.Context, ds *loader.Dataset) error {
	if err := s.PutXRef(ctx, ds.XRefs...); err != nil {
		return err
	}
	if err := s.PutListRef(ctx, ds.ListRefs...); err != nil {
		return err
	}
	return s.PutExtended(ctx, ds.Extended...)
}

func (s *Source) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
