package treegraph

import (
	"strconv"
	"strings"
	"testing"

	"github.com/blockbench/ledgerstat/internal/idhash"
)

func blockLine(logSecond, height int, hash, parent string, referees []string, timestamp, txCount, blockSize int) string {
	refStr := strings.Join(referees, ", ")
	return "2024-01-01T00:00:0" + strconv.Itoa(logSecond) + "Z INFO: new block inserted into graph height: " +
		strconv.Itoa(height) + " hash: Some(" + hash + ") parent_hash: " + parent + " referee_hashes: [" + refStr +
		"] timestamp: " + strconv.Itoa(timestamp) + " tx_count=" + strconv.Itoa(txCount) + " block_size=" + strconv.Itoa(blockSize)
}

func TestParseLogGenesisAndChildren(t *testing.T) {
	genesisParent := "0x" + strings.Repeat("00", 32)
	hash1 := "0x" + strings.Repeat("01", 32)
	hash2 := "0x" + strings.Repeat("02", 32)
	log := strings.Join([]string{
		blockLine(1, 1, hash1, genesisParent, nil, 1000, 5, 100),
		blockLine(2, 2, hash2, hash1, nil, 1001, 3, 90),
		"2024-01-01T00:00:03Z INFO: unrelated line we should ignore entirely",
	}, "\n")

	g, err := ParseLog(strings.NewReader(log))
	if err != nil {
		t.Fatalf("ParseLog: %v", err)
	}
	if g.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (genesis + 2 blocks)", g.Len())
	}
	genesis := g.GenesisBlock()
	if genesis.ID != 0 {
		t.Fatalf("genesis ID = %d, want 0", genesis.ID)
	}

	first := g.Block(mustParseHash(t, hash1))
	if first == nil {
		t.Fatal("first block not found")
	}
	if first.ID != 1 || first.Height != 1 {
		t.Fatalf("first block = %+v", first)
	}
	if first.ParentHash == nil || *first.ParentHash != genesis.Hash {
		t.Fatalf("first block parent hash mismatch")
	}
}

func TestParseLogInconsistentGenesisFails(t *testing.T) {
	parentA := "0x" + strings.Repeat("0a", 32)
	parentB := "0x" + strings.Repeat("0b", 32)
	log := strings.Join([]string{
		blockLine(1, 1, "0x"+strings.Repeat("01", 32), parentA, nil, 1000, 1, 1),
		blockLine(2, 1, "0x"+strings.Repeat("02", 32), parentB, nil, 1001, 1, 1),
	}, "\n")

	_, err := ParseLog(strings.NewReader(log))
	if err == nil {
		t.Fatal("expected an inconsistent-genesis error")
	}
}

func TestParseLogNoMatchingLinesFails(t *testing.T) {
	_, err := ParseLog(strings.NewReader("nothing interesting here\nor here\n"))
	if err == nil {
		t.Fatal("expected an error when no height-1 block is found")
	}
}

func mustParseHash(t *testing.T, s string) H256 {
	t.Helper()
	h, err := idhash.ParseH256(s)
	if err != nil {
		t.Fatalf("parse hash %s: %v", s, err)
	}
	return h
}
