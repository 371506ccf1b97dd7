// Package store defines the abstract relational-store access interface the
// replacement pipeline runs against, together with a structured error system.
//
// The package focuses on:
//   - A unified interface (IStore) for schema introspection, candidate-row
//     selection and single-row updates across different database backends
//   - Column classification: which declared column types can hold text that
//     is worth scanning for a substring
//   - Typed error reporting so callers can distinguish a lost connection
//     (fatal for the whole run) from a rejected update (skip the row and
//     continue)
//
// Key Components:
//
//   - IStore Interface: The core abstraction. All implementations share this
//     interface, allowing the pipeline to run unchanged against MySQL,
//     SQLite or an in-memory fake in tests. Statement rendering for export
//     mode goes through the interface's quoting methods because identifier
//     and literal quoting rules are dialect specific.
//
//   - ColumnSpec: Declared-type metadata for one column, including the
//     text-candidate classification and primary-key detection used by the
//     scanner.
//
//   - Error System: A structured error type with typed return codes
//     (RetCConnectionLost, RetCUpdateRejected, ...) so the applier can make
//     decisions based on the specific failure rather than a generic error.
//
// Implementations:
//
//   - mysqlstore: sqlx over go-sql-driver/mysql, schema metadata from
//     information_schema. The native backend for content-management
//     platform databases.
//
//   - sqlitestore: sqlx over modernc.org/sqlite (pure Go), schema metadata
//     from sqlite_master and PRAGMA table_info. Also used by the test suite
//     since it needs no running server.
package store
