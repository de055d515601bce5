package latencystat

import (
	"sort"

	"github.com/blockbench/ledgerstat/logs"
)

// RemovedBlockDiag is a diagnostic emitted for every block trimmed for
// incompleteness (spec §4.4, scenario 3).
type RemovedBlockDiag struct {
	Hash     H256
	Received uint32
	Total    int
}

// TxStat summarizes one transaction's per-node timestamp vectors for row
// derivation and the slowest-packed/missing/unpacked counters.
type TxStat struct {
	Hash        H256
	MinReceived float64
	HasReceived bool
	MinPacked   float64
	HasPacked   bool
	MinReady    float64
	HasReady    bool
	Complete    bool // len(received) == node_count
	Missing     bool // len(received) != node_count
	Unpacked    bool // packed is empty
}

// ValidationResult is the output of Validate: the diagnostics and
// per-tx summaries row derivation needs, produced alongside the in-place
// block trim.
type ValidationResult struct {
	RemovedBlocks []RemovedBlockDiag
	TxStats       []TxStat

	MissingTxCount  int
	UnpackedTxCount int
	TotalTxCount    int

	SlowestPackedHash  H256
	SlowestPackedValue float64
	HasSlowestPacked   bool
}

// Validate trims incomplete blocks from data (in place) and, if maxBlocks
// is positive, keeps only the earliest maxBlocks surviving blocks by
// timestamp. It then summarizes every transaction. Per spec §4.4, ties in
// the max-blocks trim are broken stably; since blocks are stored in a map
// with no inherent order, ties are broken by ascending hash, which is
// deterministic and reproducible across runs of the same input.
func Validate(data *AnalysisData, maxBlocks int, log *logs.Logger) *ValidationResult {
	result := &ValidationResult{}

	for hash, rec := range data.Blocks {
		syncAgg, ok := rec.dists["Sync"]
		complete := ok && int(syncAgg.Count()) == data.NodeCount
		if !complete {
			received := uint32(0)
			if ok {
				received = syncAgg.Count()
			}
			result.RemovedBlocks = append(result.RemovedBlocks, RemovedBlockDiag{
				Hash:     hash,
				Received: received,
				Total:    data.NodeCount,
			})
			delete(data.Blocks, hash)
		}
	}
	sort.Slice(result.RemovedBlocks, func(i, j int) bool {
		return lessHash(result.RemovedBlocks[i].Hash, result.RemovedBlocks[j].Hash)
	})
	for _, diag := range result.RemovedBlocks {
		log.Infof("sync graph missed block %s: received = %d, total = %d", diag.Hash, diag.Received, diag.Total)
	}

	if maxBlocks > 0 && len(data.Blocks) > maxBlocks {
		trimToEarliest(data, maxBlocks)
	}

	result.TotalTxCount = len(data.Txs)
	for hash, rec := range data.Txs {
		stat := TxStat{Hash: hash}
		stat.MinReceived, stat.HasReceived = minFloat32(rec.Received)
		stat.MinPacked, stat.HasPacked = minFloat32(rec.Packed)
		stat.MinReady, stat.HasReady = minFloat32(rec.Ready)
		stat.Complete = len(rec.Received) == data.NodeCount
		stat.Missing = len(rec.Received) != data.NodeCount
		stat.Unpacked = len(rec.Packed) == 0

		if stat.Missing {
			result.MissingTxCount++
		}
		if stat.Unpacked {
			result.UnpackedTxCount++
		}
		if stat.HasPacked && stat.HasReceived {
			value := stat.MinPacked - stat.MinReceived
			if !result.HasSlowestPacked || value >= result.SlowestPackedValue {
				result.HasSlowestPacked = true
				result.SlowestPackedValue = value
				result.SlowestPackedHash = hash
			}
		}
		result.TxStats = append(result.TxStats, stat)
	}
	sort.Slice(result.TxStats, func(i, j int) bool { return lessHash(result.TxStats[i].Hash, result.TxStats[j].Hash) })

	return result
}

func trimToEarliest(data *AnalysisData, maxBlocks int) {
	type entry struct {
		hash H256
		ts   int64
	}
	entries := make([]entry, 0, len(data.Blocks))
	for hash, rec := range data.Blocks {
		entries = append(entries, entry{hash: hash, ts: rec.Timestamp})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ts != entries[j].ts {
			return entries[i].ts < entries[j].ts
		}
		return lessHash(entries[i].hash, entries[j].hash)
	})
	if len(entries) <= maxBlocks {
		return
	}
	for _, e := range entries[maxBlocks:] {
		delete(data.Blocks, e.hash)
	}
}

func minFloat32(values []float32) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return float64(m), true
}

func lessHash(a, b H256) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
