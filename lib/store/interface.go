package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the generic interface for interacting with a relational store.
// All methods return a *Error (possibly wrapped) on failure so callers can
// inspect the return code.
type IStore interface {
	// ListTables returns the names of all tables in the connected schema.
	ListTables(ctx context.Context) ([]string, error)
	// ListColumns returns declared-type metadata for every column of a table.
	ListColumns(ctx context.Context, table string) ([]ColumnSpec, error)
	// SelectCandidateRows returns all rows of a table where at least one of
	// the given text columns contains needle as a plain substring. This is a
	// coarse prefilter; the final decision happens per cell. pkColumn may be
	// empty when the table has no usable primary key, in which case the
	// returned rows carry a nil PK.
	SelectCandidateRows(ctx context.Context, table string, textColumns []string, pkColumn, needle string) ([]Row, error)
	// ExecuteUpdate updates the given columns of the single row identified
	// by pkColumn = pkValue.
	ExecuteUpdate(ctx context.Context, table, pkColumn string, pkValue any, changes map[string]string) error
	// QuoteIdentifier quotes a table or column name for this dialect.
	QuoteIdentifier(name string) string
	// QuoteLiteral quotes a string literal for this dialect, including the
	// surrounding quote characters.
	QuoteLiteral(value string) string
	// Close releases the underlying connection pool.
	Close() error
}

// ColumnSpec describes one column of a table.
type ColumnSpec struct {
	Name         string // column name
	DeclaredType string // declared type as reported by the store, e.g. "varchar(255)"
	IsPrimaryKey bool   // true for the (single-column) primary key
}

// Row is one candidate row: the primary key value (nil when the table has no
// primary key) and the raw text of every scanned column.
type Row struct {
	PK     any
	Values map[string]string
}

// --------------------------------------------------------------------------
// Column Classification
// --------------------------------------------------------------------------

// textTypeFamilies are declared-type prefixes of the character, binary, text
// and enumerated column families. Matching is prefix based so parameterized
// forms like varchar(255) or enum('a','b') classify correctly.
var textTypeFamilies = []string{
	"char", "varchar", "nchar", "nvarchar",
	"tinytext", "text", "mediumtext", "longtext", "clob",
	"enum", "set",
	"binary", "varbinary",
	"tinyblob", "blob", "mediumblob", "longblob",
}

// IsTextCandidate reports whether the column's declared type can hold text
// worth scanning for a substring.
func (c ColumnSpec) IsTextCandidate() bool {
	t := strings.ToLower(strings.TrimSpace(c.DeclaredType))
	for _, family := range textTypeFamilies {
		if strings.HasPrefix(t, family) {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a structured store error wrapping a return code, a message and
// the underlying driver error (if any).
type Error struct {
	Code RetCode // the return code
	Msg  string  // the error message
	Err  error   // underlying error, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("StoreError (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// Unwrap exposes the underlying driver error to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string, err error) *Error {
	return &Error{Code: code, Msg: msg, Err: err}
}

// CodeOf extracts the return code from an error chain. Errors that are not
// store errors report RetCInternalError.
func CodeOf(err error) RetCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return RetCInternalError
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

// RetCode classifies store failures.
type RetCode uint64

const (
	RetCSuccess        RetCode = iota // 0: operation succeeded
	RetCInternalError                 // 1: unclassified internal failure
	RetCConnectionLost                // 2: connection to the store is gone, fatal for the run
	RetCUpdateRejected                // 3: a single row update was rejected, skip and continue
)

// String returns the code name.
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCConnectionLost:
		return "ConnectionLost"
	case RetCUpdateRejected:
		return "UpdateRejected"
	default:
		return "Unknown"
	}
}
