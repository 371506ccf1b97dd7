package migrate

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// --------------------------------------------------------------------------
// Run Metrics
// --------------------------------------------------------------------------

// Per-table counters, created lazily on first increment. Metric names follow
// the prometheus convention; the table label carries the table name.

func cellsRewritten(table string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`wpmigrate_cells_rewritten_total{table=%q}`, table))
}

func rowsUpdated(table string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`wpmigrate_rows_updated_total{table=%q}`, table))
}

func updatesRejected(table string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`wpmigrate_updates_rejected_total{table=%q}`, table))
}

func rowsUnkeyable(table string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`wpmigrate_rows_unkeyable_total{table=%q}`, table))
}

func decodeFallbacks(table string) *metrics.Counter {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`wpmigrate_decode_fallbacks_total{table=%q}`, table))
}

// WriteMetrics dumps all run metrics in prometheus text format.
func WriteMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
