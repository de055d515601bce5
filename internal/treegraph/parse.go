package treegraph

import (
	"bufio"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/blockbench/ledgerstat/internal/errs"
	"github.com/blockbench/ledgerstat/internal/idhash"
)

// insertedMarker is the substring that gates which log lines are parsed
// at all (spec §4.6).
const insertedMarker = "new block inserted into graph"

// Per-field token patterns, grounded on the original's block.rs regex!
// macros (height/hash/parent_hash/referee_hashes/timestamp/tx_count/
// block_size) and the RFC 3339 timestamp that opens every log line.
var (
	logTimeRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:[+-]\d{2}:\d{2}|Z)`)
	heightRe   = regexp.MustCompile(`height: (\d+)`)
	hashRe     = regexp.MustCompile(`hash: Some\((0x[a-fA-F0-9]+)\)`)
	parentRe   = regexp.MustCompile(`parent_hash: (0x[a-fA-F0-9]+)`)
	refereesRe = regexp.MustCompile(`referee_hashes: \[(.*?)\]`)
	timestampRe = regexp.MustCompile(`timestamp: (\d+)`)
	txCountRe  = regexp.MustCompile(`tx_count=(\d+)`)
	blockSizeRe = regexp.MustCompile(`block_size=(\d+)`)
)

// parsedLine is one tokenized "new block inserted into graph" line,
// before genesis handling and id assignment.
type parsedLine struct {
	height       uint64
	hash         H256
	parentHash   H256
	referees     []H256
	timestamp    uint64
	logTimestamp uint64
	txCount      uint64
	blockSize    uint64
}

func parseLine(line string) (parsedLine, error) {
	var p parsedLine

	logTimeMatch := logTimeRe.FindString(line)
	if logTimeMatch == "" {
		return p, errs.Newf(errs.FormatError, "no RFC3339 timestamp in line: %s", line)
	}
	logTime, err := time.Parse(time.RFC3339, logTimeMatch)
	if err != nil {
		return p, errs.Wrapf(errs.FormatError, err, "parse log timestamp %q", logTimeMatch)
	}
	p.logTimestamp = uint64(logTime.Unix())

	height, err := captureUint(heightRe, line, "height")
	if err != nil {
		return p, err
	}
	p.height = height

	hashHex, err := captureString(hashRe, line, "hash")
	if err != nil {
		return p, err
	}
	hash, err := idhash.ParseH256(hashHex)
	if err != nil {
		return p, errs.Wrap(errs.FormatError, err, "block hash")
	}
	p.hash = hash

	parentHex, err := captureString(parentRe, line, "parent_hash")
	if err != nil {
		return p, err
	}
	parentHash, err := idhash.ParseH256(parentHex)
	if err != nil {
		return p, errs.Wrap(errs.FormatError, err, "parent hash")
	}
	p.parentHash = parentHash

	refereeStr, err := captureString(refereesRe, line, "referee_hashes")
	if err != nil {
		return p, err
	}
	if strings.TrimSpace(refereeStr) != "" {
		for _, raw := range strings.Split(refereeStr, ",") {
			refHash, err := idhash.ParseH256(strings.TrimSpace(raw))
			if err != nil {
				return p, errs.Wrap(errs.FormatError, err, "referee hash")
			}
			p.referees = append(p.referees, refHash)
		}
	}
	p.referees = idhash.SortedSet(p.referees)

	timestamp, err := captureUint(timestampRe, line, "timestamp")
	if err != nil {
		return p, err
	}
	p.timestamp = timestamp

	txCount, err := captureUint(txCountRe, line, "tx_count")
	if err != nil {
		return p, err
	}
	p.txCount = txCount

	blockSize, err := captureUint(blockSizeRe, line, "block_size")
	if err != nil {
		return p, err
	}
	p.blockSize = blockSize

	return p, nil
}

func captureString(re *regexp.Regexp, line, field string) (string, error) {
	m := re.FindStringSubmatch(line)
	if m == nil {
		return "", errs.Newf(errs.FormatError, "missing %s field in line: %s", field, line)
	}
	return m[1], nil
}

func captureUint(re *regexp.Regexp, line, field string) (uint64, error) {
	s, err := captureString(re, line, field)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errs.Wrapf(errs.FormatError, err, "parse %s %q", field, s)
	}
	return v, nil
}

// ParseLog reads conflux.log.new_blocks-formatted lines from r and
// returns the unfinalized Graph (spec §4.6): only lines containing
// insertedMarker are parsed, ids are assigned in appearance order
// starting at 1, and the first height-1 block's parent names the
// synthetic genesis (id 0). A later height-1 block naming a different
// parent is a fatal ConsistencyError.
func ParseLog(r io.Reader) (*Graph, error) {
	blockMap := make(map[H256]*Block)
	var rootHash *H256
	nextID := 1

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, insertedMarker) {
			continue
		}
		tok, err := parseLine(line)
		if err != nil {
			return nil, err
		}

		id := nextID
		nextID++

		if tok.height != 1 {
			blockMap[tok.hash] = &Block{
				ID:           id,
				Height:       tok.height,
				Hash:         tok.hash,
				ParentHash:   &tok.parentHash,
				Referees:     tok.referees,
				Timestamp:    tok.timestamp,
				LogTimestamp: tok.logTimestamp,
				TxCount:      tok.txCount,
				BlockSize:    tok.blockSize,
			}
			continue
		}

		if rootHash == nil {
			rootHash = &tok.parentHash
			blockMap[tok.parentHash] = &Block{ID: 0, Hash: tok.parentHash}
		} else if *rootHash != tok.parentHash {
			return nil, errs.Newf(errs.ConsistencyError, "inconsistent genesis hash: %s vs %s", rootHash, tok.parentHash)
		}

		blockMap[tok.hash] = &Block{
			ID:           id,
			Height:       tok.height,
			Hash:         tok.hash,
			ParentHash:   &tok.parentHash,
			Referees:     tok.referees,
			Timestamp:    tok.timestamp,
			LogTimestamp: tok.logTimestamp,
			TxCount:      tok.txCount,
			BlockSize:    tok.blockSize,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.Wrap(errs.IoError, err, "scan log")
	}
	if rootHash == nil {
		return nil, errs.New(errs.ConsistencyError, "no height-1 block found; cannot determine genesis")
	}

	return &Graph{blockMap: blockMap, rootHash: *rootHash}, nil
}
