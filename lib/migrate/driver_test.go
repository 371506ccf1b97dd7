package migrate

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/alanpinnt/wpmigrate/lib/store"
)

// --------------------------------------------------------------------------
// Fake Store
// --------------------------------------------------------------------------

type fakeTable struct {
	cols []store.ColumnSpec
	rows []map[string]any
}

type fakeUpdate struct {
	table    string
	pkColumn string
	pkValue  any
	changes  map[string]string
}

// fakeStore is an in-memory IStore used by the pipeline tests.
type fakeStore struct {
	mu          sync.Mutex
	order       []string
	tables      map[string]*fakeTable
	updates     []fakeUpdate
	rejectPK    map[any]bool
	failUpdates bool
	selects     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{tables: map[string]*fakeTable{}, rejectPK: map[any]bool{}}
}

func (f *fakeStore) addTable(name string, cols []store.ColumnSpec, rows ...map[string]any) {
	f.order = append(f.order, name)
	f.tables[name] = &fakeTable{cols: cols, rows: rows}
}

func (f *fakeStore) ListTables(ctx context.Context) ([]string, error) {
	return append([]string(nil), f.order...), nil
}

func (f *fakeStore) ListColumns(ctx context.Context, table string) ([]store.ColumnSpec, error) {
	t, ok := f.tables[table]
	if !ok {
		return nil, store.NewError(store.RetCInternalError, "no such table", nil)
	}
	return t.cols, nil
}

func (f *fakeStore) SelectCandidateRows(ctx context.Context, table string, textColumns []string, pkColumn, needle string) ([]store.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selects++

	t := f.tables[table]
	var result []store.Row
	for _, raw := range t.rows {
		match := false
		values := map[string]string{}
		for _, c := range textColumns {
			if s, ok := raw[c].(string); ok {
				values[c] = s
				if strings.Contains(s, needle) {
					match = true
				}
			}
		}
		if !match {
			continue
		}
		row := store.Row{Values: values}
		if pkColumn != "" {
			row.PK = raw[pkColumn]
		}
		result = append(result, row)
	}
	return result, nil
}

func (f *fakeStore) ExecuteUpdate(ctx context.Context, table, pkColumn string, pkValue any, changes map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failUpdates {
		return store.NewError(store.RetCConnectionLost, "connection gone", nil)
	}
	if f.rejectPK[pkValue] {
		return store.NewError(store.RetCUpdateRejected, "constraint violation", nil)
	}

	f.updates = append(f.updates, fakeUpdate{table: table, pkColumn: pkColumn, pkValue: pkValue, changes: changes})
	for _, raw := range f.tables[table].rows {
		if raw[pkColumn] == pkValue {
			for col, val := range changes {
				raw[col] = val
			}
		}
	}
	return nil
}

func (f *fakeStore) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (f *fakeStore) QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (f *fakeStore) Close() error { return nil }

// --------------------------------------------------------------------------
// Fixtures
// --------------------------------------------------------------------------

func optionsColumns() []store.ColumnSpec {
	return []store.ColumnSpec{
		{Name: "option_id", DeclaredType: "bigint(20)", IsPrimaryKey: true},
		{Name: "option_name", DeclaredType: "varchar(191)"},
		{Name: "option_value", DeclaredType: "longtext"},
	}
}

func quietLogger() *Logger {
	return NewLogger("test", LevelError, &bytes.Buffer{})
}

// --------------------------------------------------------------------------
// Driver Tests
// --------------------------------------------------------------------------

func TestRunDryRunCountsWithoutMutation(t *testing.T) {
	f := newFakeStore()
	f.addTable("wp_options", optionsColumns(),
		map[string]any{
			"option_id":    int64(1),
			"option_name":  "siteurl",
			"option_value": "https://old.com",
		},
		map[string]any{
			"option_id":    int64(2),
			"option_name":  "widgets",
			"option_value": `a:1:{s:4:"home";s:15:"https://old.com";}`,
		},
		map[string]any{
			"option_id":    int64(3),
			"option_name":  "unrelated",
			"option_value": "nothing to see",
		},
	)

	result, err := Run(context.Background(), f, Config{
		From:   "https://old.com",
		To:     "https://newsite.io",
		Mode:   ModeDryRun,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(f.updates) != 0 {
		t.Errorf("dry-run issued %d updates, want 0", len(f.updates))
	}
	stats := result.Tables()["wp_options"]
	if stats.Cells != 2 || stats.Rows != 2 {
		t.Errorf("stats = %+v, want 2 cells in 2 rows", stats)
	}
	if result.TotalApplied() != 0 {
		t.Errorf("TotalApplied = %d, want 0", result.TotalApplied())
	}
}

func TestRunApplyRewritesSerializedAndPlainCells(t *testing.T) {
	f := newFakeStore()
	f.addTable("wp_options", optionsColumns(),
		map[string]any{
			"option_id":    int64(1),
			"option_name":  "widgets",
			"option_value": `a:1:{s:4:"home";s:17:"https://old.com/x";}`,
		},
		map[string]any{
			"option_id":    int64(2),
			"option_name":  "footer",
			"option_value": "Contact us at https://old.com",
		},
	)

	result, err := Run(context.Background(), f, Config{
		From:   "https://old.com",
		To:     "https://newsite.io",
		Mode:   ModeApply,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.TotalApplied() != 2 {
		t.Fatalf("TotalApplied = %d, want 2", result.TotalApplied())
	}

	rows := f.tables["wp_options"].rows
	if got, want := rows[0]["option_value"], `a:1:{s:4:"home";s:20:"https://newsite.io/x";}`; got != want {
		t.Errorf("serialized cell = %v, want %v", got, want)
	}
	if got, want := rows[1]["option_value"], "Contact us at https://newsite.io"; got != want {
		t.Errorf("plain cell = %v, want %v", got, want)
	}
}

func TestRunSecondPassRewritesEscapedVariant(t *testing.T) {
	f := newFakeStore()
	f.addTable("wp_posts", []store.ColumnSpec{
		{Name: "id", DeclaredType: "bigint", IsPrimaryKey: true},
		{Name: "post_content", DeclaredType: "text"},
	},
		map[string]any{
			"id":           int64(1),
			"post_content": `{"url":"https:\/\/old.com"}`,
		},
	)

	result, err := Run(context.Background(), f, Config{
		From:   "https://old.com",
		To:     "https://newsite.io",
		Mode:   ModeApply,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got, want := f.tables["wp_posts"].rows[0]["post_content"], `{"url":"https:\/\/newsite.io"}`; got != want {
		t.Errorf("cell = %v, want %v", got, want)
	}
	if result.TotalApplied() != 1 {
		t.Errorf("TotalApplied = %d, want 1", result.TotalApplied())
	}
}

func TestRunSecondPassSkippedWithoutSlash(t *testing.T) {
	f := newFakeStore()
	f.addTable("notes", []store.ColumnSpec{
		{Name: "id", DeclaredType: "integer", IsPrimaryKey: true},
		{Name: "body", DeclaredType: "text"},
	},
		map[string]any{"id": int64(1), "body": "old-name here"},
	)

	_, err := Run(context.Background(), f, Config{
		From:   "old-name",
		To:     "new-name",
		Mode:   ModeDryRun,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// one candidate query for the single table, no second pass
	if f.selects != 1 {
		t.Errorf("candidate queries = %d, want 1", f.selects)
	}
}

func TestRunUnkeyableRowsReportedNotApplied(t *testing.T) {
	f := newFakeStore()
	f.addTable("settings", []store.ColumnSpec{
		{Name: "name", DeclaredType: "varchar(64)"},
		{Name: "value", DeclaredType: "text"},
	},
		map[string]any{"name": "url", "value": "https://old.com"},
	)

	result, err := Run(context.Background(), f, Config{
		From:   "https://old.com",
		To:     "https://newsite.io",
		Mode:   ModeApply,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(f.updates) != 0 {
		t.Errorf("unkeyable row produced %d updates, want 0", len(f.updates))
	}
	if result.TotalUnkeyable() != 1 {
		t.Errorf("TotalUnkeyable = %d, want 1", result.TotalUnkeyable())
	}
	if result.TotalApplied() != 0 {
		t.Errorf("TotalApplied = %d, want 0", result.TotalApplied())
	}
}

func TestRunCompositeKeyCountsAsUnkeyable(t *testing.T) {
	f := newFakeStore()
	f.addTable("relations", []store.ColumnSpec{
		{Name: "left_id", DeclaredType: "bigint", IsPrimaryKey: true},
		{Name: "right_id", DeclaredType: "bigint", IsPrimaryKey: true},
		{Name: "meta", DeclaredType: "text"},
	},
		map[string]any{"left_id": int64(1), "right_id": int64(2), "meta": "https://old.com"},
	)

	result, err := Run(context.Background(), f, Config{
		From:   "https://old.com",
		To:     "https://newsite.io",
		Mode:   ModeApply,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.TotalUnkeyable() != 1 || len(f.updates) != 0 {
		t.Errorf("unkeyable = %d, updates = %d, want 1 and 0", result.TotalUnkeyable(), len(f.updates))
	}
}

func TestRunExportRendersStatements(t *testing.T) {
	f := newFakeStore()
	f.addTable("wp_options", optionsColumns(),
		map[string]any{
			"option_id":    int64(7),
			"option_name":  "siteurl",
			"option_value": "https://old.com",
		},
	)

	var sink bytes.Buffer
	result, err := Run(context.Background(), f, Config{
		From:       "https://old.com",
		To:         "https://newsite.io",
		Mode:       ModeExport,
		ExportSink: &sink,
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(f.updates) != 0 {
		t.Errorf("export mode issued %d updates, want 0", len(f.updates))
	}
	want := `UPDATE "wp_options" SET "option_value" = 'https://newsite.io' WHERE "option_id" = 7;` + "\n"
	if sink.String() != want {
		t.Errorf("export output:\n%s\nwant:\n%s", sink.String(), want)
	}
	if result.TotalCells() != 1 {
		t.Errorf("TotalCells = %d, want 1", result.TotalCells())
	}
}

func TestRunExportSkipsUnkeyableRows(t *testing.T) {
	f := newFakeStore()
	f.addTable("settings", []store.ColumnSpec{
		{Name: "name", DeclaredType: "varchar(64)"},
		{Name: "value", DeclaredType: "text"},
	},
		map[string]any{"name": "url", "value": "https://old.com"},
	)

	var sink bytes.Buffer
	result, err := Run(context.Background(), f, Config{
		From:       "https://old.com",
		To:         "https://newsite.io",
		Mode:       ModeExport,
		ExportSink: &sink,
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// a statement without a key predicate could hit every row, so none is rendered
	if sink.Len() != 0 {
		t.Errorf("unkeyable row exported statements:\n%s", sink.String())
	}
	if result.TotalUnkeyable() != 1 {
		t.Errorf("TotalUnkeyable = %d, want 1", result.TotalUnkeyable())
	}
}

func TestRunRejectedUpdateSkipsRowAndContinues(t *testing.T) {
	f := newFakeStore()
	f.addTable("wp_options", optionsColumns(),
		map[string]any{"option_id": int64(1), "option_name": "a", "option_value": "https://old.com"},
		map[string]any{"option_id": int64(2), "option_name": "b", "option_value": "https://old.com"},
	)
	f.rejectPK[int64(1)] = true

	result, err := Run(context.Background(), f, Config{
		From:   "https://old.com",
		To:     "https://newsite.io",
		Mode:   ModeApply,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.TotalSkipped() != 1 {
		t.Errorf("TotalSkipped = %d, want 1", result.TotalSkipped())
	}
	if result.TotalApplied() != 1 {
		t.Errorf("TotalApplied = %d, want 1", result.TotalApplied())
	}
}

func TestRunConnectionLostAborts(t *testing.T) {
	f := newFakeStore()
	f.addTable("wp_options", optionsColumns(),
		map[string]any{"option_id": int64(1), "option_name": "a", "option_value": "https://old.com"},
	)
	f.failUpdates = true

	_, err := Run(context.Background(), f, Config{
		From:   "https://old.com",
		To:     "https://newsite.io",
		Mode:   ModeApply,
		Logger: quietLogger(),
	})
	if err == nil {
		t.Fatal("Run succeeded, want connection error")
	}
	if store.CodeOf(err) != store.RetCConnectionLost {
		t.Errorf("error code = %s, want ConnectionLost", store.CodeOf(err))
	}
}

func TestRunTableFilters(t *testing.T) {
	f := newFakeStore()
	cols := []store.ColumnSpec{
		{Name: "id", DeclaredType: "integer", IsPrimaryKey: true},
		{Name: "body", DeclaredType: "text"},
	}
	f.addTable("wp_posts", cols, map[string]any{"id": int64(1), "body": "https://old.com"})
	f.addTable("other_posts", cols, map[string]any{"id": int64(1), "body": "https://old.com"})

	result, err := Run(context.Background(), f, Config{
		From:        "https://old.com",
		To:          "https://newsite.io",
		Mode:        ModeDryRun,
		TablePrefix: "wp_",
		Logger:      quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	tables := result.Tables()
	if _, ok := tables["other_posts"]; ok {
		t.Error("prefix filter did not exclude other_posts")
	}
	if tables["wp_posts"].Cells != 1 {
		t.Errorf("wp_posts cells = %d, want 1", tables["wp_posts"].Cells)
	}
}

func TestRunParallelWorkers(t *testing.T) {
	f := newFakeStore()
	cols := []store.ColumnSpec{
		{Name: "id", DeclaredType: "integer", IsPrimaryKey: true},
		{Name: "body", DeclaredType: "text"},
	}
	for _, name := range []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8"} {
		f.addTable(name, cols, map[string]any{"id": int64(1), "body": "x https://old.com y"})
	}

	result, err := Run(context.Background(), f, Config{
		From:    "https://old.com",
		To:      "https://newsite.io",
		Mode:    ModeApply,
		Workers: 4,
		Logger:  quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.TotalApplied() != 8 {
		t.Errorf("TotalApplied = %d, want 8", result.TotalApplied())
	}
}

func TestRunSkipsTablesWithoutTextColumns(t *testing.T) {
	f := newFakeStore()
	f.addTable("counters", []store.ColumnSpec{
		{Name: "id", DeclaredType: "integer", IsPrimaryKey: true},
		{Name: "hits", DeclaredType: "bigint"},
	})
	f.addTable("wp_options", optionsColumns(),
		map[string]any{"option_id": int64(1), "option_name": "a", "option_value": "https://old.com"},
	)

	result, err := Run(context.Background(), f, Config{
		From:   "https://old.com",
		To:     "https://newsite.io",
		Mode:   ModeDryRun,
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, ok := result.Tables()["counters"]; ok {
		t.Error("table without text columns was not skipped")
	}
}

// --------------------------------------------------------------------------
// Config Tests
// --------------------------------------------------------------------------

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty search string", Config{From: "", To: "x", Mode: ModeDryRun}},
		{"apply with identical pair", Config{From: "a", To: "a", Mode: ModeApply}},
		{"export without sink", Config{From: "a", To: "b", Mode: ModeExport}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Run(context.Background(), newFakeStore(), tt.cfg); err == nil {
				t.Error("Run succeeded, want config error")
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for input, want := range map[string]Mode{
		"apply":   ModeApply,
		"dry-run": ModeDryRun,
		"export":  ModeExport,
	} {
		got, err := ParseMode(input)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %v, %v", input, got, err)
		}
	}
	if _, err := ParseMode("bogus"); err == nil {
		t.Error("ParseMode(bogus) succeeded, want error")
	}
}

// --------------------------------------------------------------------------
// Cell Rewriting
// --------------------------------------------------------------------------

func TestRewriteCellFallback(t *testing.T) {
	got, fellBack := RewriteCell("Contact us at https://old.com", "https://old.com", "https://newsite.io", 0)
	if !fellBack {
		t.Error("fellBack = false, want true for plain text")
	}
	if got != "Contact us at https://newsite.io" {
		t.Errorf("RewriteCell = %q", got)
	}
}

func TestRewriteCellSerialized(t *testing.T) {
	got, fellBack := RewriteCell(`s:17:"https://old.com/x";`, "https://old.com", "https://newsite.io", 0)
	if fellBack {
		t.Error("fellBack = true, want serialization-aware path")
	}
	if got != `s:20:"https://newsite.io/x";` {
		t.Errorf("RewriteCell = %q", got)
	}
}
