// Package sqlitestore implements store.IStore for SQLite using sqlx over the
// pure Go modernc.org/sqlite driver. Schema metadata comes from sqlite_master
// and PRAGMA table_info. Besides serving file-based site databases it backs
// the integration tests, which run against an in-memory database.
package sqlitestore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alanpinnt/wpmigrate/lib/store"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database. The DSN is a file path or ":memory:".
func New(dsn string) (store.IStore, error) {
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, store.NewError(store.RetCConnectionLost, "open sqlite database", err)
	}
	return &sqliteStore{db: db}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *sqliteStore) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := s.db.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, "list tables", err)
	}
	return tables, nil
}

func (s *sqliteStore) ListColumns(ctx context.Context, table string) ([]store.ColumnSpec, error) {
	// PRAGMA does not take bind parameters, the table name must be inlined.
	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", s.QuoteIdentifier(table)))
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, "list columns", err)
	}
	defer rows.Close()

	var specs []store.ColumnSpec
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, store.NewError(store.RetCInternalError, "scan column metadata", err)
		}
		specs = append(specs, store.ColumnSpec{
			Name:         name,
			DeclaredType: ctype,
			IsPrimaryKey: pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewError(store.RetCInternalError, "iterate column metadata", err)
	}
	return specs, nil
}

func (s *sqliteStore) SelectCandidateRows(ctx context.Context, table string, textColumns []string, pkColumn, needle string) ([]store.Row, error) {
	if len(textColumns) == 0 {
		return nil, nil
	}

	selectCols := make([]string, 0, len(textColumns)+1)
	if pkColumn != "" {
		selectCols = append(selectCols, s.QuoteIdentifier(pkColumn))
	}
	for _, c := range textColumns {
		selectCols = append(selectCols, s.QuoteIdentifier(c))
	}

	conds := make([]string, 0, len(textColumns))
	args := make([]any, 0, len(textColumns))
	pattern := "%" + store.EscapeLike(needle) + "%"
	for _, c := range textColumns {
		conds = append(conds, s.QuoteIdentifier(c)+" LIKE ? ESCAPE '\\'")
		args = append(args, pattern)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(selectCols, ", "), s.QuoteIdentifier(table), strings.Join(conds, " OR "))

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, store.NewError(store.RetCInternalError, "select candidate rows", err)
	}
	defer rows.Close()

	var result []store.Row
	for rows.Next() {
		raw := map[string]any{}
		if err := rows.MapScan(raw); err != nil {
			return nil, store.NewError(store.RetCInternalError, "scan candidate row", err)
		}
		row := store.Row{Values: make(map[string]string, len(textColumns))}
		if pkColumn != "" {
			row.PK = normalize(raw[pkColumn])
		}
		for _, c := range textColumns {
			v, ok := raw[c]
			if !ok || v == nil {
				continue
			}
			if str, ok := normalize(v).(string); ok {
				row.Values[c] = str
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewError(store.RetCInternalError, "iterate candidate rows", err)
	}
	return result, nil
}

func (s *sqliteStore) ExecuteUpdate(ctx context.Context, table, pkColumn string, pkValue any, changes map[string]string) error {
	if len(changes) == 0 {
		return nil
	}

	cols := make([]string, 0, len(changes))
	for c := range changes {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, col := range cols {
		sets = append(sets, s.QuoteIdentifier(col)+" = ?")
		args = append(args, changes[col])
	}
	args = append(args, pkValue)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		s.QuoteIdentifier(table), strings.Join(sets, ", "), s.QuoteIdentifier(pkColumn))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		if errors.Is(err, driver.ErrBadConn) {
			return store.NewError(store.RetCConnectionLost, "update failed", err)
		}
		return store.NewError(store.RetCUpdateRejected, "update rejected", err)
	}
	return nil
}

func (s *sqliteStore) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (s *sqliteStore) QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
