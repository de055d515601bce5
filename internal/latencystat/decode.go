package latencystat

import (
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/blockbench/ledgerstat/internal/errs"
	"github.com/blockbench/ledgerstat/internal/idhash"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// wireBlock and wireTx mirror the on-disk JSON schema from spec §3
// exactly; hash keys arrive as hex strings and are parsed into H256 only
// after decoding, since JSON object keys are always strings.
type wireBlock struct {
	Timestamp int64                `json:"timestamp"`
	Txs       int64                `json:"txs"`
	Size      int64                `json:"size"`
	Referees  []string             `json:"referees"`
	Latencies map[string][]float64 `json:"latencies"`
}

type wireTx struct {
	ReceivedTimestamps  []float64  `json:"received_timestamps"`
	PackedTimestamps    []*float64 `json:"packed_timestamps"`
	ReadyPoolTimestamps []*float64 `json:"ready_pool_timestamps"`
}

type wireHostLog struct {
	Blocks           map[string]wireBlock `json:"blocks"`
	Txs              map[string]wireTx    `json:"txs"`
	SyncConsGapStats []map[string]float64 `json:"sync_cons_gap_stats"`
	ByBlockRatio     []float64            `json:"by_block_ratio"`
}

// DecodeHostLog decodes one host's JSON log from r into a HostLog. It is
// the core's only view of "JSON decoding" (spec §1 out-of-scope
// collaborator): callers open the underlying file or archive member and
// hand this function a reader.
func DecodeHostLog(r io.Reader) (*HostLog, error) {
	var wire wireHostLog
	if err := jsonAPI.NewDecoder(r).Decode(&wire); err != nil {
		return nil, errs.Wrap(errs.FormatError, err, "decode host log JSON")
	}

	host := &HostLog{
		Blocks:           make(map[H256]BlockJSON, len(wire.Blocks)),
		Txs:              make(map[H256]TxJSON, len(wire.Txs)),
		SyncConsGapStats: wire.SyncConsGapStats,
		ByBlockRatio:     wire.ByBlockRatio,
	}

	for hexHash, b := range wire.Blocks {
		hash, err := idhash.ParseH256(hexHash)
		if err != nil {
			return nil, errs.Wrap(errs.FormatError, err, "block hash")
		}
		referees := make([]H256, 0, len(b.Referees))
		for _, refHex := range b.Referees {
			refHash, err := idhash.ParseH256(refHex)
			if err != nil {
				return nil, errs.Wrap(errs.FormatError, err, "referee hash")
			}
			referees = append(referees, refHash)
		}
		host.Blocks[hash] = BlockJSON{
			Timestamp: b.Timestamp,
			Txs:       b.Txs,
			Size:      b.Size,
			Referees:  referees,
			Latencies: b.Latencies,
		}
	}

	for hexHash, tx := range wire.Txs {
		hash, err := idhash.ParseH256(hexHash)
		if err != nil {
			return nil, errs.Wrap(errs.FormatError, err, "tx hash")
		}
		host.Txs[hash] = TxJSON{
			ReceivedTimestamps:  tx.ReceivedTimestamps,
			PackedTimestamps:    tx.PackedTimestamps,
			ReadyPoolTimestamps: tx.ReadyPoolTimestamps,
		}
	}

	return host, nil
}

// OpenSourceReader opens the reader for a discovered Source, dispatching to a
// plain file or an archive member as appropriate, and returns a closer
// the caller must invoke.
func OpenSourceReader(source Source, archives ArchiveSource, openFile func(string) (io.ReadCloser, error)) (io.ReadCloser, error) {
	if source.Kind == PlainFile {
		f, err := openFile(source.Path)
		if err != nil {
			return nil, errs.Wrap(errs.IoError, err, "open "+source.Path)
		}
		return f, nil
	}

	handle, err := archives.Open(source.Path)
	if err != nil {
		return nil, errs.Wrap(errs.IoError, err, "open archive "+source.Path)
	}
	member, err := handle.Open(source.ArchiveMember)
	if err != nil {
		handle.Close()
		return nil, errs.Wrap(errs.IoError, err, "open archive member "+source.ArchiveMember)
	}
	return &closeBoth{ReadCloser: member, outer: handle}, nil
}

type closeBoth struct {
	io.ReadCloser
	outer ArchiveHandle
}

func (c *closeBoth) Close() error {
	err := c.ReadCloser.Close()
	if outerErr := c.outer.Close(); err == nil {
		err = outerErr
	}
	if err != nil {
		return errors.Wrap(err, "close source")
	}
	return nil
}
