package migrate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// TableStats are the tallies of one table, accumulated over both passes.
type TableStats struct {
	// Cells is the number of cell values that changed.
	Cells int
	// Rows is the number of rows with a non-empty change set.
	Rows int
	// Applied is the number of rows successfully updated (ModeApply only).
	Applied int
	// Skipped is the number of rows whose update was rejected by the store.
	Skipped int
	// Unkeyable is the number of changed rows without a usable primary key.
	Unkeyable int
}

// Result is the outcome of one Run. Per-table tallies live in a concurrent
// map because tables are processed by parallel workers; each individual
// TableStats value is only ever touched by the worker owning its table.
type Result struct {
	tables *xsync.MapOf[string, *TableStats]
}

func newResult() *Result {
	return &Result{tables: xsync.NewMapOf[string, *TableStats]()}
}

// table returns the stats slot for a table, creating it on first use.
func (r *Result) table(name string) *TableStats {
	stats, _ := r.tables.LoadOrCompute(name, func() *TableStats {
		return &TableStats{}
	})
	return stats
}

// Tables returns a copy of the per-table tallies, without empty entries.
func (r *Result) Tables() map[string]TableStats {
	out := make(map[string]TableStats)
	r.tables.Range(func(name string, stats *TableStats) bool {
		if *stats != (TableStats{}) {
			out[name] = *stats
		}
		return true
	})
	return out
}

// TotalCells returns the number of changed cells across all tables.
func (r *Result) TotalCells() int {
	total := 0
	r.tables.Range(func(_ string, stats *TableStats) bool {
		total += stats.Cells
		return true
	})
	return total
}

// TotalApplied returns the number of successfully updated rows.
func (r *Result) TotalApplied() int {
	total := 0
	r.tables.Range(func(_ string, stats *TableStats) bool {
		total += stats.Applied
		return true
	})
	return total
}

// TotalSkipped returns the number of rows whose update was rejected.
func (r *Result) TotalSkipped() int {
	total := 0
	r.tables.Range(func(_ string, stats *TableStats) bool {
		total += stats.Skipped
		return true
	})
	return total
}

// TotalUnkeyable returns the number of changed rows that could not be
// targeted by a single-row update.
func (r *Result) TotalUnkeyable() int {
	total := 0
	r.tables.Range(func(_ string, stats *TableStats) bool {
		total += stats.Unkeyable
		return true
	})
	return total
}

// String returns a formatted summary of the run.
func (r *Result) String() string {
	var sb strings.Builder

	addField := func(name string, value int) {
		sb.WriteString(fmt.Sprintf("  %-22s: %d\n", name, value))
	}

	tables := r.Tables()
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString("\nTABLES\n")
	for _, name := range names {
		stats := tables[name]
		sb.WriteString(fmt.Sprintf("  %-22s: cells=%d rows=%d applied=%d skipped=%d unkeyable=%d\n",
			name, stats.Cells, stats.Rows, stats.Applied, stats.Skipped, stats.Unkeyable))
	}

	sb.WriteString("\nTOTALS\n")
	addField("Changed cells", r.TotalCells())
	addField("Applied rows", r.TotalApplied())
	addField("Skipped rows", r.TotalSkipped())
	addField("Unkeyable rows", r.TotalUnkeyable())

	return sb.String()
}
