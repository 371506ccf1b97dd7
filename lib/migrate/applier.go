package migrate

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/alanpinnt/wpmigrate/lib/serialized"
	"github.com/alanpinnt/wpmigrate/lib/store"
)

// RewriteCell replaces from with to inside one cell value. Structured cells
// go through the serialization-aware pipeline so string length prefixes stay
// exact; cells that fail to decode get a plain substring replace instead.
// The second return value reports whether the decode fallback was taken.
func RewriteCell(raw, from, to string, maxDepth int) (string, bool) {
	v, err := serialized.DecodeWithOptions([]byte(raw), serialized.DecodeOptions{MaxDepth: maxDepth})
	if err != nil {
		return strings.ReplaceAll(raw, from, to), true
	}
	return string(serialized.Encode(serialized.Rewrite(v, []byte(from), []byte(to)))), false
}

// applier processes candidate rows of one pass. It is shared by all table
// workers; the export sink is the only shared mutable state and is guarded
// by a mutex so exported statements never interleave.
type applier struct {
	st  store.IStore
	cfg *Config
	log *Logger

	exportMu sync.Mutex
}

// processTable scans one table and dispatches every computed change set
// according to the configured mode. Only a lost store connection is returned
// as an error; everything else is tallied and processing continues.
func (a *applier) processTable(ctx context.Context, plan *tablePlan, from, to string, stats *TableStats) error {
	rows, err := plan.candidateRows(ctx, a.st, from)
	if err != nil {
		if store.CodeOf(err) == store.RetCConnectionLost {
			return err
		}
		a.log.Errorf("table %s: %v", plan.table, err)
		return nil
	}
	if len(rows) > 0 {
		a.log.Debugf("table %s: %d candidate rows", plan.table, len(rows))
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := a.processRow(ctx, plan, row, from, to, stats); err != nil {
			return err
		}
	}
	return nil
}

// processRow computes the change set of one row and applies it.
func (a *applier) processRow(ctx context.Context, plan *tablePlan, row store.Row, from, to string, stats *TableStats) error {
	changes := a.changeSet(plan, row, from, to, stats)
	if len(changes) == 0 {
		return nil
	}
	stats.Rows++

	if plan.pkColumn == "" || row.PK == nil {
		// Reported, never applied: without a primary key there is no way to
		// target exactly this row with an update.
		stats.Unkeyable++
		rowsUnkeyable(plan.table).Inc()
		a.log.Warnf("table %s: row with %d changed cell(s) has no primary key, not applied", plan.table, len(changes))
		return nil
	}

	switch a.cfg.Mode {
	case ModeDryRun:
		return nil

	case ModeExport:
		return a.exportRow(plan, row, changes)

	case ModeApply:
		return a.applyRow(ctx, plan, row, changes, stats)
	}
	return nil
}

// changeSet computes the per-column replacements of one row.
func (a *applier) changeSet(plan *tablePlan, row store.Row, from, to string, stats *TableStats) map[string]string {
	var changes map[string]string
	for _, col := range plan.textColumns {
		raw, ok := row.Values[col]
		if !ok || !strings.Contains(raw, from) {
			continue
		}
		rewritten, fellBack := RewriteCell(raw, from, to, a.cfg.MaxDepth)
		if fellBack {
			decodeFallbacks(plan.table).Inc()
		}
		if rewritten == raw {
			continue
		}
		if changes == nil {
			changes = make(map[string]string)
		}
		changes[col] = rewritten
		stats.Cells++
		cellsRewritten(plan.table).Inc()
	}
	return changes
}

// exportRow renders one complete, independently executable update statement
// per changed column into the export sink.
func (a *applier) exportRow(plan *tablePlan, row store.Row, changes map[string]string) error {
	cols := make([]string, 0, len(changes))
	for col := range changes {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	a.exportMu.Lock()
	defer a.exportMu.Unlock()
	for _, col := range cols {
		stmt := renderUpdate(a.st, plan.table, col, changes[col], plan.pkColumn, row.PK)
		if _, err := a.cfg.ExportSink.Write([]byte(stmt + "\n")); err != nil {
			return store.NewError(store.RetCInternalError, "write export statement", err)
		}
	}
	return nil
}

// applyRow issues the parameterized update for one row. Rejected updates are
// logged and skipped; a lost connection aborts the run.
func (a *applier) applyRow(ctx context.Context, plan *tablePlan, row store.Row, changes map[string]string, stats *TableStats) error {
	err := a.st.ExecuteUpdate(ctx, plan.table, plan.pkColumn, row.PK, changes)
	if err == nil {
		stats.Applied++
		rowsUpdated(plan.table).Inc()
		return nil
	}
	if store.CodeOf(err) == store.RetCConnectionLost {
		return err
	}
	stats.Skipped++
	updatesRejected(plan.table).Inc()
	a.log.Warnf("table %s: update for %s=%v skipped: %v", plan.table, plan.pkColumn, row.PK, err)
	return nil
}
