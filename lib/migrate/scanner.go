package migrate

import (
	"context"
	"fmt"

	"github.com/alanpinnt/wpmigrate/lib/store"
)

// tablePlan is the scan plan for one table: which columns can hold matching
// text and which column (if any) identifies a row.
type tablePlan struct {
	table       string
	pkColumn    string // empty when the table has no usable single-column primary key
	textColumns []string
}

// planTable builds the scan plan for a table. A nil plan (without error)
// means the table has no text-candidate columns and is skipped entirely.
func planTable(ctx context.Context, st store.IStore, table string) (*tablePlan, error) {
	cols, err := st.ListColumns(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("plan table %s: %w", table, err)
	}

	plan := &tablePlan{table: table}
	var pkCols []string
	for _, c := range cols {
		if c.IsPrimaryKey {
			pkCols = append(pkCols, c.Name)
		}
		if c.IsTextCandidate() {
			plan.textColumns = append(plan.textColumns, c.Name)
		}
	}
	if len(plan.textColumns) == 0 {
		return nil, nil
	}

	// Only a single-column primary key can target one row in an update.
	// Composite keys count as unkeyable, same as no key at all.
	if len(pkCols) == 1 {
		plan.pkColumn = pkCols[0]
	}
	return plan, nil
}

// candidateRows runs the coarse prefilter query for the plan. The final
// decision whether a cell changes happens per cell in the applier.
func (p *tablePlan) candidateRows(ctx context.Context, st store.IStore, needle string) ([]store.Row, error) {
	rows, err := st.SelectCandidateRows(ctx, p.table, p.textColumns, p.pkColumn, needle)
	if err != nil {
		return nil, fmt.Errorf("scan table %s: %w", p.table, err)
	}
	return rows, nil
}
