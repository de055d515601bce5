package latencystat

import (
	"strings"
	"testing"

	"github.com/blockbench/ledgerstat/internal/idhash"
	"github.com/blockbench/ledgerstat/internal/quantile"
)

// mustHash parses a short hex literal such as "0x01" as the 32-byte hash
// whose trailing bytes are those digits, left-padded with zeros.
func mustHash(t *testing.T, hex string) H256 {
	t.Helper()
	digits := strings.TrimPrefix(hex, "0x")
	h, err := idhash.ParseH256("0x" + strings.Repeat("0", 2*idhash.Size-len(digits)) + digits)
	if err != nil {
		t.Fatalf("parse hash %s: %v", hex, err)
	}
	return h
}

// TestFoldScenario1 matches spec §8 scenario 1: two hosts reporting a
// single block's "Sync" event, [10,20] and [15].
func TestFoldScenario1(t *testing.T) {
	hash := mustHash(t, "0x01")
	data := NewAnalysisData(quantile.Exact, 2)
	data.NodeCount = 2 // fixed per scenario instead of derived from gap stats

	data.Fold(&HostLog{Blocks: map[H256]BlockJSON{
		hash: {Latencies: map[string][]float64{"Sync": {10, 20}}},
	}})
	data.Fold(&HostLog{Blocks: map[H256]BlockJSON{
		hash: {Latencies: map[string][]float64{"Sync": {15}}},
	}})

	agg := data.Blocks[hash].dists["Sync"]
	if agg.Count() != 3 {
		t.Fatalf("count = %d, want 3", agg.Count())
	}
	if got := agg.Query(quantile.Avg); got != 15.00 {
		t.Errorf("Avg = %v, want 15.00", got)
	}
	if got := agg.Query(quantile.Min); got != 10 {
		t.Errorf("Min = %v, want 10", got)
	}
	if got := agg.Query(quantile.P50); got != 15 {
		t.Errorf("P50 = %v, want 15", got)
	}
	if got := agg.Query(quantile.Max); got != 20 {
		t.Errorf("Max = %v, want 20", got)
	}
}

// TestFoldFirstNonzeroWinsForScalars covers the documented "first nonzero
// wins" merge policy for block scalar fields (spec §4.2, Open Question a).
func TestFoldFirstNonzeroWinsForScalars(t *testing.T) {
	hash := mustHash(t, "0x03")
	data := NewAnalysisData(quantile.Exact, 1)

	data.Fold(&HostLog{Blocks: map[H256]BlockJSON{
		hash: {Timestamp: 1000, Txs: 5, Size: 200},
	}})
	data.Fold(&HostLog{Blocks: map[H256]BlockJSON{
		hash: {Timestamp: 9999, Txs: 50, Size: 999},
	}})

	rec := data.Blocks[hash]
	if rec.Timestamp != 1000 || rec.Txs != 5 || rec.Size != 200 {
		t.Errorf("scalars = %+v, want first-seen values preserved", rec)
	}
}

func TestFoldTxWaitToBePacked(t *testing.T) {
	hash := mustHash(t, "0x02")
	data := NewAnalysisData(quantile.Exact, 1)

	packed150 := 150.0
	data.Fold(&HostLog{Txs: map[H256]TxJSON{
		hash: {
			ReceivedTimestamps: []float64{100, 110, 120},
			PackedTimestamps:   []*float64{&packed150, &packed150, &packed150},
		},
	}})

	if len(data.TxWaitToBePacked) != 1 || data.TxWaitToBePacked[0] != 50 {
		t.Fatalf("TxWaitToBePacked = %v, want [50]", data.TxWaitToBePacked)
	}
}
