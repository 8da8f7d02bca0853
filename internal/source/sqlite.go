package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"tereborace.com/taboleiro/internal/apperr"
	"tereborace.com/taboleiro/internal/table"
)

// SQLiteDB is a read-only SQLite database whose tables are sources.
type SQLiteDB struct {
	db *sql.DB
}

// OpenSQLite opens path for reading.
func OpenSQLite(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// unha soa conexión: o PRAGMA é por sesión
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA query_only = ON"); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteDB{db: db}, nil
}

// Close closes the database.
func (d *SQLiteDB) Close() error { return d.db.Close() }

// Tables lists the base tables, skipping sqlite internals and the
// attachment tables (*_files, *_file).
func (d *SQLiteDB) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		if strings.HasSuffix(n, "_files") || strings.HasSuffix(n, "_file") {
			continue
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Source returns the source reading one table.
func (d *SQLiteDB) Source(name string) *SQLiteTable {
	return &SQLiteTable{db: d.db, name: name}
}

// SQLiteTable loads every row of one table.
type SQLiteTable struct {
	db   *sql.DB
	name string
}

// Name returns the table name.
func (s *SQLiteTable) Name() string { return s.name }

type sqlColumn struct{ Name, Type string }

func (s *SQLiteTable) columns(ctx context.Context) ([]sqlColumn, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(s.name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []sqlColumn
	for rows.Next() {
		var cid, notnull, pk int
		var name, ctype string
		var dflt *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, err
		}
		res = append(res, sqlColumn{Name: name, Type: ctype})
	}
	return res, rows.Err()
}

// declaredKind maps a declared SQLite type to a column kind when it is
// unambiguous. Untyped and text columns are classified from their values.
func declaredKind(ctype string) (table.Kind, bool) {
	t := strings.ToUpper(ctype)
	switch {
	case strings.Contains(t, "DATE"), strings.Contains(t, "TIME"):
		return table.Temporal, true
	case strings.Contains(t, "INT"), strings.Contains(t, "REAL"),
		strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"), strings.Contains(t, "NUMERIC"), strings.Contains(t, "DECIMAL"):
		return table.Numeric, true
	}
	return 0, false
}

// Load reads the whole table.
func (s *SQLiteTable) Load(ctx context.Context) (*table.Table, error) {
	cols, err := s.columns(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.SourceUnavailable, "columns of %s", s.name)
	}
	if len(cols) == 0 {
		return nil, apperr.New(apperr.Configuration, "no table %q", s.name)
	}

	names := make([]string, len(cols))
	quoted := make([]string, len(cols))
	opts := table.Options{Kinds: map[string]table.Kind{}}
	for i, c := range cols {
		names[i] = c.Name
		quoted[i] = quoteIdent(c.Name)
		if k, ok := declaredKind(c.Type); ok {
			opts.Kinds[c.Name] = k
		}
	}

	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ","), quoteIdent(s.name))
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.SourceUnavailable, "query %s", s.name)
	}
	defer rows.Close()

	var data [][]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, apperr.Wrap(err, apperr.DecodeFailure, "scan %s", s.name)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.SourceUnavailable, "read %s", s.name)
	}
	return table.FromRows(names, data, opts)
}

// quoteIdent quotes an SQLite identifier.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
