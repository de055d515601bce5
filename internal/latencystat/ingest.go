package latencystat

import (
	"io"
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
// |sources|) per spec §4.3, overridable by STAT_LATENCY_WORKERS.
func WorkerCount(sourceCount int) int {
	w := runtime.NumCPU()
	if w > 8 {
		w = 8
	}
	if w < 1 {
		w = 1
	}
	if override := os.Getenv("STAT_LATENCY_WORKERS"); override != "" {
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

type decodeResult struct {
	host *HostLog
	err  error
}

// Ingest decodes every source in parallel across WorkerCount(len(sources))
// workers and folds each result into data on a single goroutine, per spec
// §4.3/§5. It returns the first decode error encountered, if any; on
// error, any in-flight worker results are drained rather than left to
// block on the channel.
func Ingest(sources []Source, archives ArchiveSource, openFile func(string) (io.ReadCloser, error), data *AnalysisData, log *logs.Logger) error {
	if len(sources) == 0 {
		return nil
	}
	workers := WorkerCount(len(sources))
	spawn := panics.GoroutineWrapperFunc(log)

	var counter int64 = -1
	var aborted int32
	results := make(chan decodeResult, 2*workers)

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
				host, err := decodeSource(sources[idx], archives, openFile)
				if err != nil {
					atomic.StoreInt32(&aborted, 1)
					results <- decodeResult{err: err}
					return
				}
				results <- decodeResult{host: host}
			}
		})
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	merger := NewMerger(data)
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
			continue // draining: a sibling worker already failed
		}
		merger.Data().Fold(res.host)
		folded++
	}

	if firstErr != nil {
		log.Errorf("ingest aborted: %v", firstErr)
		return firstErr
	}
	if folded != len(sources) {
		return errors.Errorf("ingest: folded %d records, expected %d", folded, len(sources))
	}
	return nil
}

func decodeSource(source Source, archives ArchiveSource, openFile func(string) (io.ReadCloser, error)) (*HostLog, error) {
	r, err := OpenSourceReader(source, archives, openFile)
	if err != nil {
		return nil, errors.Wrapf(err, "source %s", source.String())
	}
	defer r.Close()
	host, err := DecodeHostLog(r)
	if err != nil {
		return nil, errors.Wrapf(err, "source %s", source.String())
	}
	return host, nil
}
