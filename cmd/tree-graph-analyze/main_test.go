package main

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blockbench/ledgerstat/logs"
)

// blockLine renders one "new block inserted into graph" log line,
// matching the fixture shape internal/treegraph's own parser tests use.
func blockLine(logSecond, height int, hash, parent string, referees []string, timestamp, txCount, blockSize int) string {
	refStr := strings.Join(referees, ", ")
	return "2024-01-01T00:00:" + pad2(logSecond) + "Z INFO: new block inserted into graph height: " +
		strconv.Itoa(height) + " hash: Some(" + hash + ") parent_hash: " + parent + " referee_hashes: [" + refStr +
		"] timestamp: " + strconv.Itoa(timestamp) + " tx_count=" + strconv.Itoa(txCount) + " block_size=" + strconv.Itoa(blockSize)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

// TestRunEndToEnd exercises the full tree-graph CLI driver (discover ->
// load -> confirmation grid -> report) against a single-node log
// matching spec §8 scenario 4: heights 0,1,1,2 where the height-2
// block's parent is the first height-1 block.
func TestRunEndToEnd(t *testing.T) {
	genesisParent := "0x" + strings.Repeat("00", 32)
	hash1 := "0x" + strings.Repeat("01", 32)
	hash2 := "0x" + strings.Repeat("02", 32)
	hash3 := "0x" + strings.Repeat("03", 32)

	body := strings.Join([]string{
		blockLine(1, 1, hash1, genesisParent, nil, 1000, 5, 100),
		blockLine(2, 1, hash2, genesisParent, nil, 1001, 1, 10),
		blockLine(3, 2, hash3, hash1, nil, 1002, 2, 20),
	}, "\n")

	dir := t.TempDir()
	nodeDir := filepath.Join(dir, "node0")
	require.NoError(t, os.MkdirAll(nodeDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nodeDir, "conflux.log.new_blocks"), []byte(body), 0o644))

	cfg := &config{
		LogPath:    dir,
		AdvPercent: []int{10},
		Risk:       []float64{1e-6},
		LogLevel:   "info",
	}

	registry, err := logs.NewRegistry("")
	require.NoError(t, err)
	defer registry.Close()
	log := registry.Get(logs.SubsystemTags.GRPH)

	stdout := captureStdout(t, func() {
		require.NoError(t, run(cfg, log))
	})

	// genesis + two height-1 blocks + one height-2 block = 4 blocks;
	// the pivot chain descends through the larger subtree (hash1, which
	// has a child, vs hash2, which has none), so genesis subtree size is 4.
	require.Contains(t, stdout, "Block count: 4")
	require.Contains(t, stdout, "Pivot chain length: 3")
	require.Contains(t, stdout, "Genesis subtree size: 4")
}

// TestRunNoSources exercises the IoError path: a log path containing no
// conflux.log.new_blocks or conflux.log anywhere under it.
func TestRunNoSources(t *testing.T) {
	dir := t.TempDir()
	cfg := &config{LogPath: dir, AdvPercent: []int{10}, Risk: []float64{1e-6}, LogLevel: "info"}
	registry, err := logs.NewRegistry("")
	require.NoError(t, err)
	defer registry.Close()
	log := registry.Get(logs.SubsystemTags.GRPH)

	err = run(cfg, log)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no conflux.log.new_blocks sources found")
}
