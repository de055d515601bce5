package treegraph

import (
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/blockbench/ledgerstat/internal/panics"
	"github.com/blockbench/ledgerstat/logs"
)

// WorkerCount computes W = min(max(1, min(hardware_parallelism, 8)),
// |sources|), overridable by TREE_GRAPH_WORKERS, mirroring the latency
// pipeline's worker-count rule (spec §4.3/§5) for this pipeline's
// data-parallel per-node graph loading.
func WorkerCount(sourceCount int) int {
	w := runtime.NumCPU()
	if w > 8 {
		w = 8
	}
	if w < 1 {
		w = 1
	}
	if override := os.Getenv("TREE_GRAPH_WORKERS"); override != "" {
		if n, err := strconv.Atoi(override); err == nil && n > 0 {
			w = n
		}
	}
	if sourceCount > 0 && w > sourceCount {
		w = sourceCount
	}
	if w < 1 {
		w = 1
	}
	return w
}

// loadResult pairs a node's source with its finalized graph, or the
// error encountered loading it.
type loadResult struct {
	index int
	graph *Graph
	err   error
}

// LoadAll parses and finalizes every node source in parallel across
// WorkerCount(len(sources)) workers, returning graphs in the same order
// as sources, per the supplemented analyze_all_nodes batch-loading
// feature (spec SPEC_FULL §"analyze_all_nodes multi-graph batch"). The
// first error encountered aborts the run; in-flight results are drained
// rather than left blocked on the channel.
func LoadAll(sources []NodeSource, archives ArchiveSource, log *logs.Logger) ([]*Graph, error) {
	if len(sources) == 0 {
		return nil, nil
	}
	workers := WorkerCount(len(sources))
	spawn := panics.GoroutineWrapperFunc(log)

	var counter int64 = -1
	var aborted int32
	results := make(chan loadResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		spawn(func() {
			defer wg.Done()
			for {
				if atomic.LoadInt32(&aborted) != 0 {
					return
				}
				idx := int(atomic.AddInt64(&counter, 1))
				if idx >= len(sources) {
					return
				}
				graph, err := loadOne(sources[idx], archives)
				if err != nil {
					atomic.StoreInt32(&aborted, 1)
					results <- loadResult{index: idx, err: err}
					return
				}
				results <- loadResult{index: idx, graph: graph}
			}
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	graphs := make([]*Graph, len(sources))
	folded := 0
	var firstErr error
	for res := range results {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			atomic.StoreInt32(&aborted, 1)
			continue
		}
		if firstErr != nil {
			continue
		}
		graphs[res.index] = res.graph
		folded++
	}

	if firstErr != nil {
		log.Errorf("load aborted: %v", firstErr)
		return nil, firstErr
	}
	if folded != len(sources) {
		return nil, errors.Errorf("load: finalized %d graphs, expected %d", folded, len(sources))
	}
	return graphs, nil
}

func loadOne(source NodeSource, archives ArchiveSource) (*Graph, error) {
	r, err := source.Open(archives)
	if err != nil {
		return nil, errors.Wrapf(err, "source %s", source.String())
	}
	defer r.Close()

	graph, err := ParseLog(r)
	if err != nil {
		return nil, errors.Wrapf(err, "source %s", source.String())
	}
	if err := graph.Finalize(); err != nil {
		return nil, errors.Wrapf(err, "source %s", source.String())
	}
	return graph, nil
}
