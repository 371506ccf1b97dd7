// Package mysqlstore implements store.IStore for MySQL and MariaDB using
// sqlx over go-sql-driver/mysql. Schema metadata comes from
// information_schema, so the connected user only needs SELECT/UPDATE rights
// on the target schema.
package mysqlstore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alanpinnt/wpmigrate/lib/store"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

type mysqlStore struct {
	db     *sqlx.DB
	schema string
}

// New connects to MySQL with the given DSN (go-sql-driver format, e.g.
// "user:pass@tcp(localhost:3306)/wordpress") and verifies the connection.
func New(dsn string) (store.IStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("mysql dsn must name a database")
	}

	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, store.NewError(store.RetCConnectionLost, "connect to mysql", err)
	}

	return &mysqlStore{db: db, schema: cfg.DBName}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *mysqlStore) ListTables(ctx context.Context) ([]string, error) {
	var tables []string
	err := s.db.SelectContext(ctx, &tables,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = ? AND table_type = 'BASE TABLE'
		 ORDER BY table_name`, s.schema)
	if err != nil {
		return nil, s.classifyQuery("list tables", err)
	}
	return tables, nil
}

func (s *mysqlStore) ListColumns(ctx context.Context, table string) ([]store.ColumnSpec, error) {
	rows, err := s.db.QueryxContext(ctx,
		`SELECT column_name, column_type, column_key FROM information_schema.columns
		 WHERE table_schema = ? AND table_name = ?
		 ORDER BY ordinal_position`, s.schema, table)
	if err != nil {
		return nil, s.classifyQuery("list columns", err)
	}
	defer rows.Close()

	var specs []store.ColumnSpec
	for rows.Next() {
		var name, colType, colKey string
		if err := rows.Scan(&name, &colType, &colKey); err != nil {
			return nil, s.classifyQuery("scan column metadata", err)
		}
		specs = append(specs, store.ColumnSpec{
			Name:         name,
			DeclaredType: colType,
			IsPrimaryKey: colKey == "PRI",
		})
	}
	if err := rows.Err(); err != nil {
		return nil, s.classifyQuery("iterate column metadata", err)
	}
	return specs, nil
}

func (s *mysqlStore) SelectCandidateRows(ctx context.Context, table string, textColumns []string, pkColumn, needle string) ([]store.Row, error) {
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
		conds = append(conds, s.QuoteIdentifier(c)+" LIKE ? ESCAPE '\\\\'")
		args = append(args, pattern)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(selectCols, ", "), s.QuoteIdentifier(table), strings.Join(conds, " OR "))

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, s.classifyQuery("select candidate rows", err)
	}
	defer rows.Close()

	var result []store.Row
	for rows.Next() {
		raw := map[string]any{}
		if err := rows.MapScan(raw); err != nil {
			return nil, s.classifyQuery("scan candidate row", err)
		}
		result = append(result, rowFromScan(raw, textColumns, pkColumn))
	}
	if err := rows.Err(); err != nil {
		return nil, s.classifyQuery("iterate candidate rows", err)
	}
	return result, nil
}

func (s *mysqlStore) ExecuteUpdate(ctx context.Context, table, pkColumn string, pkValue any, changes map[string]string) error {
	if len(changes) == 0 {
		return nil
	}

	sets := make([]string, 0, len(changes))
	args := make([]any, 0, len(changes)+1)
	for _, col := range sortedKeys(changes) {
		sets = append(sets, s.QuoteIdentifier(col)+" = ?")
		args = append(args, changes[col])
	}
	args = append(args, pkValue)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		s.QuoteIdentifier(table), strings.Join(sets, ", "), s.QuoteIdentifier(pkColumn))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return s.classifyUpdate(err)
	}
	return nil
}

func (s *mysqlStore) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (s *mysqlStore) QuoteLiteral(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "'", "''")
	return "'" + escaped + "'"
}

func (s *mysqlStore) Close() error {
	return s.db.Close()
}

// --------------------------------------------------------------------------
// Error Classification
// --------------------------------------------------------------------------

// classifyQuery maps read-path errors. Anything that is not a server-side
// error means the connection is unusable and the run must abort.
func (s *mysqlStore) classifyQuery(op string, err error) error {
	if isConnectionError(err) {
		return store.NewError(store.RetCConnectionLost, op, err)
	}
	return store.NewError(store.RetCInternalError, op, err)
}

// classifyUpdate maps write-path errors. Server-side errors (constraint
// violations, data too long, ...) reject the single row; everything else is
// treated as a lost connection.
func (s *mysqlStore) classifyUpdate(err error) error {
	var serverErr *mysql.MySQLError
	if errors.As(err, &serverErr) {
		return store.NewError(store.RetCUpdateRejected, fmt.Sprintf("update rejected by server (%d)", serverErr.Number), err)
	}
	return store.NewError(store.RetCConnectionLost, "update failed", err)
}

func isConnectionError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) {
		return true
	}
	var serverErr *mysql.MySQLError
	return !errors.As(err, &serverErr) && !errors.Is(err, context.Canceled)
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// rowFromScan converts a MapScan result into a store.Row, normalizing the
// []byte values the mysql driver returns for text columns.
func rowFromScan(raw map[string]any, textColumns []string, pkColumn string) store.Row {
	row := store.Row{Values: make(map[string]string, len(textColumns))}
	if pkColumn != "" {
		row.PK = normalize(raw[pkColumn])
	}
	for _, c := range textColumns {
		v, ok := raw[c]
		if !ok || v == nil {
			continue
		}
		if s, ok := normalize(v).(string); ok {
			row.Values[c] = s
		}
	}
	return row
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// sortedKeys returns the column names in a fixed order so the rendered
// statement shape is deterministic.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
