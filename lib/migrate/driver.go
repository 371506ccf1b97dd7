package migrate

import (
	"context"
	"strings"
	"sync"

	"github.com/alanpinnt/wpmigrate/lib/store"
)

// Run executes the full replacement pipeline against the store: once for the
// literal (from, to) pair and once for the slash-escaped variant. The second
// pass is skipped when neither string contains a "/". The returned Result
// accumulates the tallies of both passes.
//
// In dry-run and export mode no mutating statement is ever issued, so
// cancelling the context at any point leaves the store unchanged. In apply
// mode cancellation after some updates leaves a partially migrated store;
// backup and rollback are the caller's responsibility.
func Run(ctx context.Context, st store.IStore, cfg Config) (*Result, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}

	result := newResult()

	cfg.Logger.Infof("pass 1: %q -> %q (%s)", cfg.From, cfg.To, cfg.Mode)
	if err := runPass(ctx, st, &cfg, cfg.From, cfg.To, result); err != nil {
		return result, err
	}

	// Escaped URL forms ("https:\/\/old.com") are stored as plain substrings
	// inside string payloads; the same pipeline rewrites them with the
	// escaped pair.
	escapedFrom := escapeSlashes(cfg.From)
	escapedTo := escapeSlashes(cfg.To)
	if escapedFrom != cfg.From || escapedTo != cfg.To {
		cfg.Logger.Infof("pass 2: %q -> %q (%s)", escapedFrom, escapedTo, cfg.Mode)
		if err := runPass(ctx, st, &cfg, escapedFrom, escapedTo, result); err != nil {
			return result, err
		}
	} else {
		cfg.Logger.Debugf("pass 2 skipped, search string contains no slash")
	}

	return result, nil
}

// escapeSlashes derives the escaped search variant.
func escapeSlashes(s string) string {
	return strings.ReplaceAll(s, "/", `\/`)
}

// runPass runs the Scanner/Applier pipeline once for one (from, to) pair.
// Tables are distributed over a bounded worker pool; each table is owned by
// exactly one worker, so no row is ever processed twice and per-table stats
// need no locking.
func runPass(ctx context.Context, st store.IStore, cfg *Config, from, to string, result *Result) error {
	tables, err := st.ListTables(ctx)
	if err != nil {
		return err
	}

	selected := make([]string, 0, len(tables))
	for _, t := range tables {
		if cfg.wantTable(t) {
			selected = append(selected, t)
		}
	}
	if len(selected) == 0 {
		cfg.Logger.Warnf("no tables selected")
		return nil
	}

	workers := cfg.Workers
	if workers > len(selected) {
		workers = len(selected)
	}

	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a := &applier{st: st, cfg: cfg, log: cfg.Logger}

	var (
		wg       sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		errMu.Unlock()
	}

	jobs := make(chan string)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for table := range jobs {
				if passCtx.Err() != nil {
					return
				}
				plan, err := planTable(passCtx, st, table)
				if err != nil {
					if store.CodeOf(err) == store.RetCConnectionLost {
						fail(err)
						return
					}
					cfg.Logger.Errorf("%v", err)
					continue
				}
				if plan == nil {
					cfg.Logger.Debugf("table %s: no text columns, skipped", table)
					continue
				}
				if err := a.processTable(passCtx, plan, from, to, result.table(table)); err != nil {
					fail(err)
					return
				}
			}
		}()
	}

	for _, table := range selected {
		select {
		case jobs <- table:
		case <-passCtx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}
