package latencystat

import (
	"math"
	"testing"

	"github.com/blockbench/ledgerstat/internal/quantile"
	"github.com/blockbench/ledgerstat/logs"
)

// TestBuildTxRowsScenario2 matches spec §8 scenario 2: one host, one
// complete tx with received=[100,110,120], packed=[150,150,150],
// node_count=3. min tx packed to block latency = 50; tx broadcast
// latency (Max) = 20.
func TestBuildTxRowsScenario2(t *testing.T) {
	hash := mustHash(t, "0x04")
	data := NewAnalysisData(quantile.Exact, 1)
	data.NodeCount = 3

	packed := 150.0
	data.Fold(&HostLog{Txs: map[H256]TxJSON{
		hash: {
			ReceivedTimestamps: []float64{100, 110, 120},
			PackedTimestamps:   []*float64{&packed, &packed, &packed},
		},
	}})

	val := Validate(data, 0, logs.StderrOnly().Logger(logs.SubsystemTags.LATN))
	rows := BuildTxRows(data, val)
	if rows == nil {
		t.Fatal("BuildTxRows returned nil, want rows")
	}

	var minPacked, txMax *ReportRow
	for i := range rows {
		switch rows[i].Name {
		case "min tx packed to block latency":
			minPacked = &rows[i]
		case "tx broadcast latency (Max)":
			txMax = &rows[i]
		}
	}
	if minPacked == nil || minPacked.Stats.Avg != 50 {
		t.Errorf("min tx packed to block latency = %+v, want Avg=50", minPacked)
	}
	if txMax == nil || txMax.Stats.Avg != 20 {
		t.Errorf("tx broadcast latency (Max) = %+v, want Avg=20", txMax)
	}
}

func TestStatsFromValuesEmptyIsAllNaN(t *testing.T) {
	s := statsFromValues(nil)
	if s.Cnt != 0 || !math.IsNaN(s.Avg) || !math.IsNaN(s.Max) {
		t.Errorf("stats = %+v, want all-NaN zero-count", s)
	}
}

func TestStatsFromValuesNearestRank(t *testing.T) {
	s := statsFromValues([]float64{10, 20, 30, 40, 50})
	if s.Cnt != 5 {
		t.Fatalf("Cnt = %d, want 5", s.Cnt)
	}
	if s.Avg != 30 {
		t.Errorf("Avg = %v, want 30", s.Avg)
	}
	if s.Max != 50 {
		t.Errorf("Max = %v, want 50", s.Max)
	}
	if s.P50 != 30 {
		t.Errorf("P50 = %v, want 30 (nearest-rank idx=floor(4*0.5)=2)", s.P50)
	}
}

func TestBuildBlockRowsGatesOnNinetyPercentThreshold(t *testing.T) {
	hash := mustHash(t, "0x05")
	data := NewAnalysisData(quantile.Exact, 1)
	data.NodeCount = 10 // threshold = floor(0.9*10) = 9

	// ComputeEpoch is a pivot event; only 5 of 10 nodes report it, below
	// the threshold, so it must not contribute to any row value list.
	data.Fold(&HostLog{Blocks: map[H256]BlockJSON{
		hash: {Latencies: map[string][]float64{"ComputeEpoch": {1, 2, 3, 4, 5}}},
	}})

	rows := BuildBlockRows(data)
	for _, r := range rows {
		if r.Stats.Cnt != 0 {
			t.Fatalf("row %q has Cnt=%d, want 0 (gated by 90%% threshold)", r.Name, r.Stats.Cnt)
		}
	}
}
