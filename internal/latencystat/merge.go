package latencystat

import (
	"math"

	"github.com/blockbench/ledgerstat/internal/quantile"
)

// Fold absorbs one decoded HostLog into the AnalysisData, following the
// per-field merge semantics of spec §4.2. Fold is not safe for concurrent
// use; the ingest scheduler (spec §4.3) guarantees exactly one goroutine
// ever calls it.
func (a *AnalysisData) Fold(host *HostLog) {
	a.foldGapStats(host)
	a.ByBlockRatio = append(a.ByBlockRatio, host.ByBlockRatio...)
	a.foldBlocks(host)
	a.foldTxs(host)
}

func (a *AnalysisData) foldGapStats(host *HostLog) {
	a.NodeCount += len(host.SyncConsGapStats)
	for _, entry := range host.SyncConsGapStats {
		for _, key := range syncConsGapKeys {
			if v, ok := entry[key]; ok {
				a.SyncConsGapStats[key] = append(a.SyncConsGapStats[key], v)
			}
		}
	}
}

func (a *AnalysisData) foldBlocks(host *HostLog) {
	for hash, block := range host.Blocks {
		rec, ok := a.Blocks[hash]
		if !ok {
			rec = &blockRecord{dists: make(map[string]*quantile.QuantileAgg)}
			a.Blocks[hash] = rec
		}
		if rec.Timestamp == 0 {
			rec.Timestamp = block.Timestamp
		}
		if rec.Txs == 0 {
			rec.Txs = block.Txs
		}
		if rec.Size == 0 {
			rec.Size = block.Size
		}
		if rec.RefereeCount == 0 {
			rec.RefereeCount = int64(len(block.Referees))
		}
		for eventName, values := range block.Latencies {
			agg, ok := rec.dists[eventName]
			if !ok {
				agg = a.newAgg()
				rec.dists[eventName] = agg
			}
			for _, v := range values {
				agg.Add(v)
			}
		}
	}
}

func (a *AnalysisData) foldTxs(host *HostLog) {
	for hash, tx := range host.Txs {
		rec, ok := a.Txs[hash]
		if !ok {
			rec = &txRecord{}
			a.Txs[hash] = rec
		}
		for _, v := range tx.ReceivedTimestamps {
			rec.Received = append(rec.Received, float32(v))
		}

		localMinReceived, haveReceived := minFloat64(tx.ReceivedTimestamps)

		localFirstPacked, havePacked := math.NaN(), false
		for _, v := range tx.PackedTimestamps {
			if v == nil {
				continue
			}
			rec.Packed = append(rec.Packed, float32(*v))
			if !havePacked || *v < localFirstPacked {
				localFirstPacked = *v
				havePacked = true
			}
		}

		for _, v := range tx.ReadyPoolTimestamps {
			if v != nil {
				rec.Ready = append(rec.Ready, float32(*v))
			}
		}

		if haveReceived && havePacked {
			a.TxWaitToBePacked = append(a.TxWaitToBePacked, localFirstPacked-localMinReceived)
		}
	}
}

func minFloat64(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m, true
}
