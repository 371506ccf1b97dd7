// Package migrate orchestrates serialization-aware search/replace across a
// relational store. It scans tables for candidate rows, passes each matching
// cell through the serialized decode/rewrite/encode pipeline (falling back to
// a plain substring replace for cells that are not structured data) and then
// applies, exports or merely tallies the resulting changes.
//
// The package focuses on:
//   - A Scanner that classifies text-candidate columns and locates the
//     primary key of each table
//   - An Applier that computes per-row change sets and dispatches them
//     according to the selected mode
//   - A two-pass Driver that runs the pipeline for the literal search pair
//     and again for the slash-escaped variant
//   - Bounded table-level parallelism with per-table tallies
//
// Key Components:
//
//   - Config: All inputs of one run (search pair, mode, export sink, table
//     filters, worker count, decoder depth limit) passed explicitly into
//     Run. There is no ambient state.
//
//   - Run: The single driver entry point. It executes the Scanner/Applier
//     pipeline once for (from, to) and once for the escaped pair derived by
//     escaping "/" in both strings; the second pass is skipped entirely when
//     escaping changes nothing. Escaped URL forms are stored as plain
//     substrings inside string payloads, so the same pipeline handles them.
//
//   - Result: Per-table counts of rewritten cells, changed rows, applied,
//     skipped and unkeyable rows. Rows with detected changes but no usable
//     single-column primary key are counted and reported, never silently
//     dropped and never targeted by an update.
//
// Modes:
//
//   - ModeDryRun: only tallies counts, no statement is built or executed
//   - ModeExport: renders one complete UPDATE statement per changed column
//     per row into the configured sink instead of mutating the store
//   - ModeApply: issues one parameterized update per changed row, keyed by
//     the primary key; rejected updates are logged and skipped, a lost
//     connection aborts the run
package migrate
