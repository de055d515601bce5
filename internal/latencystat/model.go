// Package latencystat implements the latency aggregator pipeline (L):
// ingest per-host JSON logs, merge them into a single AnalysisData view,
// validate and trim it, and derive the percentile report rows described
// in spec §3–§5.
package latencystat

import "github.com/blockbench/ledgerstat/internal/idhash"

// H256 is a block or transaction identifier, shared with the tree-graph
// pipeline's vocabulary.
type H256 = idhash.H256

// BlockJSON is one block's entry in a host's decoded log, keyed by block
// hash in HostLog.Blocks.
type BlockJSON struct {
	Timestamp     int64                `json:"timestamp"`
	Txs           int64                `json:"txs"`
	Size          int64                `json:"size"`
	Referees      []H256               `json:"referees"`
	Latencies     map[string][]float64 `json:"latencies"`
}

// TxJSON is one transaction's entry in a host's decoded log, keyed by tx
// hash in HostLog.Txs. Each list has one entry per node; packed/ready
// entries may be absent for nodes that never packed or pooled the tx.
type TxJSON struct {
	ReceivedTimestamps  []float64  `json:"received_timestamps"`
	PackedTimestamps    []*float64 `json:"packed_timestamps"`
	ReadyPoolTimestamps []*float64 `json:"ready_pool_timestamps"`
}

// HostLog is one source file's fully decoded content, immutable once
// decoded. Exactly one HostLog is produced per discovered source.
type HostLog struct {
	Blocks            map[H256]BlockJSON
	Txs               map[H256]TxJSON
	SyncConsGapStats  []map[string]float64
	ByBlockRatio      []float64
}

// DefaultBlockEvents are the event names every block log is expected to
// carry, in the order row derivation iterates "block event elapsed" rows
// (spec §4.5). Sync/Receive/Cons are reported separately as broadcast
// latency rows; the remainder are elapsed-time rows.
var DefaultBlockEvents = []string{
	"Receive", "Sync", "Cons",
	"HeaderReady", "BodyReady", "SyncGraph",
	"ConsensusGraphStart", "ConsensusGraphReady",
	"ComputeEpoch", "NotifyTxPool", "TxPoolUpdated",
}

// PivotEvents are the event names whose per-block aggregate must have
// absorbed count >= floor(0.9*node_count) samples before a percentile
// across blocks is taken (spec §4.5).
var PivotEvents = map[string]bool{
	"ComputeEpoch":   true,
	"NotifyTxPool":   true,
	"TxPoolUpdated":  true,
}

// IsDefaultEvent reports whether name is one of DefaultBlockEvents.
func IsDefaultEvent(name string) bool {
	for _, e := range DefaultBlockEvents {
		if e == name {
			return true
		}
	}
	return false
}

// broadcastEvents are the three block-broadcast-latency rows (spec §4.5
// first bullet), distinct from the elapsed-time rows.
var broadcastEvents = []string{"Receive", "Sync", "Cons"}

// elapsedEvents are the default event names reported as elapsed-time
// rows rather than broadcast-latency rows.
var elapsedEvents = []string{
	"HeaderReady", "BodyReady", "SyncGraph",
	"ConsensusGraphStart", "ConsensusGraphReady",
	"ComputeEpoch", "NotifyTxPool", "TxPoolUpdated",
}
