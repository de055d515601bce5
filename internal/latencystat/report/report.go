// Package report renders a latencystat analysis into the textual output
// described in spec §6: a pre-table summary of scalar run figures
// followed by a go-pretty table of every derived row.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/blockbench/ledgerstat/internal/latencystat"
)

// Summary is every scalar figure printed before the table.
type Summary struct {
	NodeCount       int
	BlockCount      int
	TxSum           int64
	DurationMillis  int64
	SlowestPacked   string
	HasSlowest      bool
	RemovedBlocks   int
	MissingTxCount  int
	UnpackedTxCount int
	TotalTxCount    int
}

// Write renders summary then rows to w as a go-pretty table, matching
// the original analyzer's column order: name, Avg, P10, P30, P50, P80,
// P90, P95, P99, P999, Max, Cnt (no Min column, even though rows are
// keyed by a percentile menu that includes Min).
func Write(w io.Writer, summary Summary, rows []latencystat.ReportRow) error {
	fmt.Fprintf(w, "Node count: %d\n", summary.NodeCount)
	fmt.Fprintf(w, "Block count: %d\n", summary.BlockCount)
	writeThroughput(w, summary)
	if summary.HasSlowest {
		fmt.Fprintf(w, "Slowest packed transaction hash: %s\n", summary.SlowestPacked)
	}
	fmt.Fprintf(w, "Removed blocks (sync graph incomplete): %d\n", summary.RemovedBlocks)
	fmt.Fprintf(w, "Removed tx count (txs have not fully propagated): %d\n", summary.MissingTxCount)
	fmt.Fprintf(w, "Unpacked tx count: %d\n", summary.UnpackedTxCount)
	fmt.Fprintf(w, "Total tx count: %d\n", summary.TotalTxCount)
	fmt.Fprintln(w)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"name", "Avg", "P10", "P30", "P50", "P80", "P90", "P95", "P99", "P999", "Max", "Cnt"})

	for _, r := range rows {
		tbl.AppendRow(table.Row{
			r.Name,
			formatValue(r.Stats.Avg, r.Scalar),
			formatValue(r.Stats.P10, r.Scalar),
			formatValue(r.Stats.P30, r.Scalar),
			formatValue(r.Stats.P50, r.Scalar),
			formatValue(r.Stats.P80, r.Scalar),
			formatValue(r.Stats.P90, r.Scalar),
			formatValue(r.Stats.P95, r.Scalar),
			formatValue(r.Stats.P99, r.Scalar),
			formatValue(r.Stats.P999, r.Scalar),
			formatValue(r.Stats.Max, r.Scalar),
			r.Stats.Cnt,
		})
	}

	tbl.Render()
	return nil
}

// writeThroughput mirrors the original's print_throughput_and_slowest:
// a zero or negative duration is reported as "N/A" rather than divided
// by to compute a rate.
func writeThroughput(w io.Writer, summary Summary) {
	if summary.DurationMillis <= 0 {
		fmt.Fprintln(w, "Test duration is 0.00 seconds")
		fmt.Fprintln(w, "Throughput is N/A (duration is 0)")
		return
	}
	seconds := float64(summary.DurationMillis) / 1000.0
	fmt.Fprintf(w, "Test duration is %.2f seconds\n", seconds)
	throughput := float64(summary.TxSum) / seconds
	fmt.Fprintf(w, "Throughput is %s tx/s\n", humanize.CommafWithDigits(throughput, 2))
}

// formatValue matches the original's row_from_stats: NaN always prints
// as "nan"; latency/time rows always show two decimals; count-like
// (Scalar) rows show an integer when the value is integral and two
// decimals otherwise.
func formatValue(v float64, scalar bool) string {
	if math.IsNaN(v) {
		return "nan"
	}
	if !scalar {
		return fmt.Sprintf("%.2f", v)
	}
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}
