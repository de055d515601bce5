package latencystat

import (
	"sync"

	"github.com/blockbench/ledgerstat/internal/quantile"
)

// blockRecord holds the merged scalar fields and per-event quantile
// aggregates for one block hash.
type blockRecord struct {
	Timestamp     int64
	Txs           int64
	Size          int64
	RefereeCount  int64
	dists         map[string]*quantile.QuantileAgg
}

// txRecord holds the merged per-node timestamp vectors for one tx hash.
type txRecord struct {
	Received []float32
	Packed   []float32
	Ready    []float32
}

// AnalysisData is the single, merger-thread-owned global view produced by
// folding every decoded HostLog together (spec §3, §4.2). Only the
// merger goroutine ever mutates it; everyone else reads the finished
// value after Ingest returns.
type AnalysisData struct {
	Blocks    map[H256]*blockRecord
	Txs       map[H256]*txRecord

	SyncConsGapStats map[string][]float64
	ByBlockRatio     []float64
	TxWaitToBePacked []float64

	NodeCount int

	backend        quantile.Backend
	expectedCount  int
}

// syncConsGapKeys are the five gap-statistic names every host reports
// one numeric value for (spec §4.2).
var syncConsGapKeys = []string{"Avg", "P50", "P90", "P99", "Max"}

// NewAnalysisData creates an empty merge target. backend selects the
// QuantileAgg implementation new per-(block,event) aggregators use;
// expectedCount sizes the t-digest top-K tail heap; the CLI passes the
// discovered source count as an estimate of node_count, which is only
// known once merging completes and can exceed the source count, since it
// sums per-host node-report counts.
func NewAnalysisData(backend quantile.Backend, expectedCount int) *AnalysisData {
	return &AnalysisData{
		Blocks:           make(map[H256]*blockRecord),
		Txs:              make(map[H256]*txRecord),
		SyncConsGapStats: make(map[string][]float64, len(syncConsGapKeys)),
		backend:          backend,
		expectedCount:    expectedCount,
	}
}

func (a *AnalysisData) newAgg() *quantile.QuantileAgg {
	if a.backend == quantile.TDigestApprox {
		return quantile.NewTDigest(a.expectedCount)
	}
	return quantile.NewExact()
}

// Merger folds decoded HostLogs into an AnalysisData one at a time. It is
// the single writer referenced in spec §4.3/§5: no mutex is needed on
// AnalysisData itself because only the merger goroutine ever touches it.
// Ingest drains the workers' result channel itself and folds each record
// through Data().Fold; Merger has no receive loop of its own.
type Merger struct {
	data *AnalysisData
	mu   sync.Mutex // guards nothing but documents single-writer intent for tests
}

// NewMerger wraps data for sequential folding.
func NewMerger(data *AnalysisData) *Merger {
	return &Merger{data: data}
}

// Data returns the underlying AnalysisData. Safe to call only after all
// folding has completed.
func (m *Merger) Data() *AnalysisData { return m.data }
