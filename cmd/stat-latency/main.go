package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/blockbench/ledgerstat/internal/errs"
	"github.com/blockbench/ledgerstat/internal/latencystat"
	"github.com/blockbench/ledgerstat/internal/latencystat/report"
	"github.com/blockbench/ledgerstat/internal/quantile"
	"github.com/blockbench/ledgerstat/logs"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(errs.UsageError))
	}

	registry, err := logs.NewRegistry(cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(errs.IoError))
	}
	defer registry.Close()

	if level, ok := logs.LevelFromString(cfg.LogLevel); ok {
		registry.SetLevels(level)
	}
	log := registry.Get(logs.SubsystemTags.LATN)

	if err := run(cfg, log); err != nil {
		log.Errorf("%v", err)
		os.Exit(exitCodeFor(errs.KindOf(err)))
	}
}

// profiling, when STAT_LATENCY_PROFILE is set, prints each phase's wall
// time after it finishes.
var profilingEnabled = os.Getenv("STAT_LATENCY_PROFILE") != ""

func timedPhase(log *logs.Logger, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if profilingEnabled {
		log.Infof("phase %s took %s", name, time.Since(start))
	}
	return err
}

func run(cfg *config, log *logs.Logger) error {
	backend := quantile.Exact
	if cfg.QuantileImpl == "tdigest" {
		backend = quantile.TDigestApprox
	}

	var sources []latencystat.Source
	err := timedPhase(log, "discover", func() error {
		var err error
		sources, err = latencystat.DiscoverSources(cfg.LogPath, latencystat.DefaultArchiveSource)
		return err
	})
	if err != nil {
		return errs.Wrap(errs.IoError, err, "discover sources")
	}
	if len(sources) == 0 {
		return errs.Newf(errs.IoError, "no blocks.log or .7z sources found under %s", cfg.LogPath)
	}

	data := latencystat.NewAnalysisData(backend, len(sources))
	err = timedPhase(log, "ingest", func() error {
		return latencystat.Ingest(sources, latencystat.DefaultArchiveSource, func(p string) (io.ReadCloser, error) {
			return os.Open(p)
		}, data, log)
	})
	if err != nil {
		return err
	}

	var validation *latencystat.ValidationResult
	err = timedPhase(log, "validate", func() error {
		validation = latencystat.Validate(data, cfg.MaxBlocks, log)
		return nil
	})
	if err != nil {
		return err
	}

	var rows []latencystat.ReportRow
	var summary report.Summary
	err = timedPhase(log, "derive", func() error {
		rows = append(rows, latencystat.BuildBlockRows(data)...)
		if txRows := latencystat.BuildTxRows(data, validation); txRows != nil {
			rows = append(rows, txRows...)
		}
		rows = append(rows, latencystat.BuildBlockScalarRows(data)...)
		rows = append(rows, latencystat.BuildSyncGapRows(data)...)

		scalars := latencystat.SummarizeBlocks(data)
		summary = report.Summary{
			NodeCount:       data.NodeCount,
			BlockCount:      len(data.Blocks),
			TxSum:           scalars.TxSum,
			DurationMillis:  scalars.Duration,
			HasSlowest:      validation.HasSlowestPacked,
			RemovedBlocks:   len(validation.RemovedBlocks),
			MissingTxCount:  validation.MissingTxCount,
			UnpackedTxCount: validation.UnpackedTxCount,
			TotalTxCount:    validation.TotalTxCount,
		}
		if summary.HasSlowest {
			summary.SlowestPacked = validation.SlowestPackedHash.String()
		}
		return nil
	})
	if err != nil {
		return err
	}

	return report.Write(os.Stdout, summary, rows)
}

func exitCodeFor(kind errs.Kind) int {
	switch kind {
	case errs.UsageError:
		return 2
	case errs.IoError:
		return 3
	case errs.FormatError:
		return 4
	case errs.ConsistencyError:
		return 5
	default:
		return 1
	}
}
