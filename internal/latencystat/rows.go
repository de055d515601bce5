package latencystat

import (
	"fmt"
	"math"
	"sort"

	"github.com/blockbench/ledgerstat/internal/quantile"
)

// Stats is the fixed set of columns every report row carries (spec §4.5,
// §6): Avg, the eight rank quantiles, Max, and the sample count.
type Stats struct {
	Avg, P10, P30, P50, P80, P90, P95, P99, P999, Max float64
	Cnt                                                int
}

// statsFromValues sorts values and computes nearest-rank quantiles plus
// the rounded average, exactly as the original analyzer's
// statistics_from_vec/statistics_from_sorted. An empty input yields an
// all-NaN, zero-count Stats.
func statsFromValues(values []float64) Stats {
	if len(values) == 0 {
		return Stats{
			Avg: math.NaN(), P10: math.NaN(), P30: math.NaN(), P50: math.NaN(),
			P80: math.NaN(), P90: math.NaN(), P95: math.NaN(), P99: math.NaN(),
			P999: math.NaN(), Max: math.NaN(),
		}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	avg := math.Round(sum/float64(n)*100) / 100
	pick := func(q float64) float64 {
		idx := int(float64(n-1) * q)
		if idx >= n {
			idx = n - 1
		}
		return sorted[idx]
	}
	return Stats{
		Avg:  avg,
		P10:  pick(0.1),
		P30:  pick(0.3),
		P50:  pick(0.5),
		P80:  pick(0.8),
		P90:  pick(0.9),
		P95:  pick(0.95),
		P99:  pick(0.99),
		P999: pick(0.999),
		Max:  sorted[n-1],
		Cnt:  n,
	}
}

// ReportRow is one rendered line of the output table.
type ReportRow struct {
	Name    string
	Stats   Stats
	Scalar  bool // true prints integer-when-integral instead of always "%.2f"
}

// BuildBlockRows derives the block-broadcast-latency, block-event-
// elapsed, and custom-block-event rows (spec §4.5 first three bullets),
// ported from the original analyzer's build_block_row_values/
// add_block_rows: each row's own Stats summarize, across blocks, the
// single per-block value of one (event, percentile) pair — i.e. this is
// a distribution-of-distributions, not a single flattened sample list.
func BuildBlockRows(data *AnalysisData) []ReportRow {
	rowValues := make(map[string][]float64)
	customKeys := make(map[string]bool)

	for _, rec := range data.Blocks {
		for k := range rec.dists {
			if !IsDefaultEvent(k) {
				customKeys[k] = true
			}
		}
	}

	threshold := int(math.Floor(0.9 * float64(data.NodeCount)))
	for _, rec := range data.Blocks {
		for k, agg := range rec.dists {
			isDefault := IsDefaultEvent(k)
			requireGate := PivotEvents[k] || !isDefault
			if requireGate && int(agg.Count()) < threshold {
				continue
			}
			for _, p := range quantile.AllPercentiles {
				rowValues[k+"::"+p.Column()] = append(rowValues[k+"::"+p.Column()], agg.Query(p))
			}
		}
	}

	var rows []ReportRow
	for _, t := range broadcastEvents {
		for _, p := range quantile.AllPercentiles {
			name := fmt.Sprintf("block broadcast latency (%s/%s)", t, p.Column())
			rows = append(rows, ReportRow{Name: name, Stats: statsFromValues(rowValues[t+"::"+p.Column()])})
		}
	}
	for _, t := range elapsedEvents {
		for _, p := range quantile.AllPercentiles {
			name := fmt.Sprintf("block event elapsed (%s/%s)", t, p.Column())
			rows = append(rows, ReportRow{Name: name, Stats: statsFromValues(rowValues[t+"::"+p.Column()])})
		}
	}

	sortedCustom := make([]string, 0, len(customKeys))
	for k := range customKeys {
		sortedCustom = append(sortedCustom, k)
	}
	sort.Strings(sortedCustom)
	for _, t := range sortedCustom {
		for _, p := range quantile.AllPercentiles {
			name := fmt.Sprintf("custom block event elapsed (%s/%s)", t, p.Column())
			rows = append(rows, ReportRow{Name: name, Stats: statsFromValues(rowValues[t+"::"+p.Column()])})
		}
	}
	return rows
}

// collectTxNodePercentiles mirrors the original's per-tx percentile pick
// over an already-baselined, sorted latency list.
func collectTxNodePercentiles(sortedLatencies []float64) map[quantile.NodePercentile]float64 {
	n := len(sortedLatencies)
	sum := 0.0
	for _, v := range sortedLatencies {
		sum += v
	}
	avg := math.Round(sum/float64(n)*100) / 100
	pick := func(q float64) float64 {
		idx := int(float64(n-1) * q)
		if idx >= n {
			idx = n - 1
		}
		return sortedLatencies[idx]
	}
	out := make(map[quantile.NodePercentile]float64, len(quantile.AllPercentiles))
	for _, p := range quantile.AllPercentiles {
		switch p {
		case quantile.Min:
			out[p] = sortedLatencies[0]
		case quantile.Max:
			out[p] = sortedLatencies[n-1]
		case quantile.Avg:
			out[p] = avg
		default:
			out[p] = pick(p.QuantileFraction())
		}
	}
	return out
}

func baselinedSorted(values []float32, baseline float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v) - baseline
	}
	sort.Float64s(out)
	return out
}

// BuildTxRows derives the tx rows (spec §4.5 fourth bullet), ported from
// the original's build_tx_rows + analyze_txs. It returns nil if no
// transaction has a full received vector (the "complete" gate).
func BuildTxRows(data *AnalysisData, val *ValidationResult) []ReportRow {
	txLatencyRows := make(map[quantile.NodePercentile][]float64, len(quantile.AllPercentiles))
	txPackedRows := make(map[quantile.NodePercentile][]float64, len(quantile.AllPercentiles))

	for _, stat := range val.TxStats {
		rec := data.Txs[stat.Hash]
		if stat.Complete && stat.HasReceived {
			latencies := baselinedSorted(rec.Received, stat.MinReceived)
			per := collectTxNodePercentiles(latencies)
			for _, p := range quantile.AllPercentiles {
				txLatencyRows[p] = append(txLatencyRows[p], per[p])
			}
		}
		if stat.HasPacked && stat.HasReceived {
			latencies := baselinedSorted(rec.Packed, stat.MinReceived)
			per := collectTxNodePercentiles(latencies)
			for _, p := range quantile.AllPercentiles {
				txPackedRows[p] = append(txPackedRows[p], per[p])
			}
		}
	}

	if len(txLatencyRows[quantile.Avg]) == 0 {
		return nil
	}

	var rows []ReportRow
	for _, p := range quantile.AllPercentiles {
		rows = append(rows, ReportRow{
			Name:  fmt.Sprintf("tx broadcast latency (%s)", p.Column()),
			Stats: statsFromValues(txLatencyRows[p]),
		})
	}
	for _, p := range quantile.AllPercentiles {
		rows = append(rows, ReportRow{
			Name:  fmt.Sprintf("tx packed to block latency (%s)", p.Column()),
			Stats: statsFromValues(txPackedRows[p]),
		})
	}

	var minPackedToBlock, minToReadyPool []float64
	for _, stat := range val.TxStats {
		if stat.HasPacked && stat.HasReceived {
			minPackedToBlock = append(minPackedToBlock, stat.MinPacked-stat.MinReceived)
		}
		if stat.HasReady && stat.HasReceived {
			minToReadyPool = append(minToReadyPool, stat.MinReady-stat.MinReceived)
		}
	}

	rows = append(rows,
		ReportRow{Name: "min tx packed to block latency", Stats: statsFromValues(minPackedToBlock)},
		ReportRow{Name: "min tx to ready pool latency", Stats: statsFromValues(minToReadyPool)},
		ReportRow{Name: "by_block_ratio", Stats: statsFromValues(data.ByBlockRatio)},
		ReportRow{Name: "Tx wait to be packed elasped time", Stats: statsFromValues(data.TxWaitToBePacked)},
	)
	return rows
}

// BuildBlockScalarRows derives the four block-scalar rows (spec §4.5
// fifth bullet).
func BuildBlockScalarRows(data *AnalysisData) []ReportRow {
	var txs, size, referees []float64
	var timestamps []int64
	for _, rec := range data.Blocks {
		txs = append(txs, float64(rec.Txs))
		size = append(size, float64(rec.Size))
		referees = append(referees, float64(rec.RefereeCount))
		timestamps = append(timestamps, rec.Timestamp)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	var intervals []float64
	for i := 1; i < len(timestamps); i++ {
		intervals = append(intervals, float64(timestamps[i]-timestamps[i-1]))
	}

	return []ReportRow{
		{Name: "block txs", Stats: statsFromValues(txs), Scalar: true},
		{Name: "block size", Stats: statsFromValues(size), Scalar: true},
		{Name: "block referees", Stats: statsFromValues(referees), Scalar: true},
		{Name: "block generation interval", Stats: statsFromValues(intervals)},
	}
}

// BuildSyncGapRows derives the five sync/cons gap rows (spec §4.5 sixth
// bullet).
func BuildSyncGapRows(data *AnalysisData) []ReportRow {
	rows := make([]ReportRow, 0, len(syncConsGapKeys))
	for _, key := range syncConsGapKeys {
		rows = append(rows, ReportRow{
			Name:   fmt.Sprintf("node sync/cons gap (%s)", key),
			Stats:  statsFromValues(data.SyncConsGapStats[key]),
			Scalar: true,
		})
	}
	return rows
}

// BlockSummary holds the scalar figures printed before the table (spec
// §6): total tx count across surviving blocks and the run's wall-clock
// duration in timestamp units.
type BlockSummary struct {
	TxSum    int64
	Duration int64
}

// SummarizeBlocks computes BlockSummary from the (already-trimmed) block
// set, following the original's collect_block_scalars duration logic:
// only blocks that contain at least one tx bound the [min,max] timestamp
// window.
func SummarizeBlocks(data *AnalysisData) BlockSummary {
	var txSum int64
	var minTime int64 = math.MaxInt64
	var maxTime int64
	for _, rec := range data.Blocks {
		txSum += rec.Txs
		if rec.Txs > 0 {
			if rec.Timestamp < minTime {
				minTime = rec.Timestamp
			}
			if rec.Timestamp > maxTime {
				maxTime = rec.Timestamp
			}
		}
	}
	duration := maxTime - minTime
	if duration < 0 {
		duration = 0
	}
	return BlockSummary{TxSum: txSum, Duration: duration}
}
